package hid

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start when the device has
// already been started.
var ErrAlreadyRunning = errors.New("device already running")

// ErrNotRunning is returned by operations that require a started device.
var ErrNotRunning = errors.New("device not running")

// ErrNotConnected is returned by Notify when no central is connected.
// It is an expected steady-state condition during disconnection
// windows, not a failure.
var ErrNotConnected = errors.New("no central connected")

// ErrNoSecret is returned by a KeyStore when no bonding secret is
// stored for a peer. Callers fall back to a fresh pairing handshake.
var ErrNoSecret = errors.New("no stored secret for peer")

// A ConfigError reports an invalid device configuration detected
// during Start. It is fatal to Start; the configuration must be
// corrected before retrying.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}
