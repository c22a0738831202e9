package hid

import (
	log "github.com/sirupsen/logrus"
)

// IOCapability declares the input/output ability of the device. It
// determines which pairing method the link layer selects.
type IOCapability int

const (
	IOCapabilityDisplayOnly IOCapability = iota
	IOCapabilityDisplayYesNo
	IOCapabilityKeyboardOnly
	IOCapabilityNoInputNoOutput
	IOCapabilityKeyboardDisplay
)

func (c IOCapability) String() string {
	switch c {
	case IOCapabilityDisplayOnly:
		return "DisplayOnly"
	case IOCapabilityDisplayYesNo:
		return "DisplayYesNo"
	case IOCapabilityKeyboardOnly:
		return "KeyboardOnly"
	case IOCapabilityNoInputNoOutput:
		return "NoInputNoOutput"
	case IOCapabilityKeyboardDisplay:
		return "KeyboardDisplay"
	}
	return "Unknown"
}

// A PasskeyAction tells a PasskeyFunc what is being asked of it.
type PasskeyAction int

const (
	// PasskeyConfirm asks whether to accept the pairing attempt.
	PasskeyConfirm PasskeyAction = iota + 1

	// PasskeyDisplay asks for a passkey to show to the user, who
	// enters it on the central.
	PasskeyDisplay

	// PasskeyEntry asks for the passkey the central is displaying.
	PasskeyEntry
)

// A PasskeyReply is the answer of a PasskeyFunc. For PasskeyConfirm
// only Accept is consulted; for PasskeyDisplay and PasskeyEntry a
// reply with Accept set carries the passkey to use.
type PasskeyReply struct {
	Accept  bool
	Passkey uint32
}

// A PasskeyFunc resolves passkey exchanges during pairing. It is
// invoked synchronously from the event handler.
type PasskeyFunc func(peer BDAddr, action PasskeyAction) PasskeyReply

// PairingConfig configures pairing and bonding behavior. It must be
// populated before Start and not mutated afterwards.
type PairingConfig struct {
	// IOCapability determines the pairing method. Devices created
	// through NewKeyboard, NewMouse or NewJoystick default to
	// IOCapabilityNoInputNoOutput (just-works pairing).
	IOCapability IOCapability

	// Bonding persists pairing material via the device's KeyStore so
	// known centrals can reconnect without a full handshake.
	Bonding bool

	// LESecure requires LE Secure Connections. With
	// IOCapabilityNoInputNoOutput this forbids the unauthenticated
	// just-works flow, so pairing attempts are rejected.
	LESecure bool

	// StaticPasskey is a fixed 6-digit passkey used when the IO
	// capability calls for displaying or entering one and no
	// PasskeyFunc is set. Zero means unset.
	StaticPasskey uint32

	// PasskeyFunc, if set, resolves passkey exchanges. It takes
	// precedence over StaticPasskey.
	PasskeyFunc PasskeyFunc
}

// validate reports configuration errors that would otherwise only
// surface mid-pairing. Called by Start.
func (c *PairingConfig) validate() error {
	if c.StaticPasskey > 999999 {
		return &ConfigError{Field: "StaticPasskey", Reason: "must be a 6-digit number"}
	}
	hasKey := c.PasskeyFunc != nil || c.StaticPasskey != 0
	switch c.IOCapability {
	case IOCapabilityKeyboardOnly, IOCapabilityKeyboardDisplay, IOCapabilityDisplayOnly:
		if !hasKey {
			return &ConfigError{
				Field:  "PasskeyFunc",
				Reason: "required with io capability " + c.IOCapability.String() + " (or set StaticPasskey)",
			}
		}
	case IOCapabilityDisplayYesNo:
		if c.PasskeyFunc == nil {
			return &ConfigError{
				Field:  "PasskeyFunc",
				Reason: "required with io capability DisplayYesNo",
			}
		}
	}
	return nil
}

// handlePairingRequested reacts to a pairing attempt by a central.
// Runs under the device mutex, inside the serialized event handler.
func (d *Device) handlePairingRequested(peer BDAddr) {
	cfg := &d.Pairing

	// Offer any stored bond to the link layer first so a known peer
	// can skip the handshake. Failures here only cost a re-pairing.
	if cfg.Bonding && d.keys != nil {
		secret, err := d.keys.Load(peer.String())
		switch err {
		case nil:
			if err := d.transport.SetBond(peer, secret); err != nil {
				log.Debugf("hid: set bond for %v: %v", peer, err)
			}
		case ErrNoSecret:
			log.Debugf("hid: no stored bond for %v, pairing fresh", peer)
		default:
			log.Warnf("hid: load bond for %v: %v", peer, err)
		}
	}

	accept := false
	switch {
	case cfg.IOCapability == IOCapabilityNoInputNoOutput:
		// Just-works pairing: fine unless the configuration demands
		// authenticated LE Secure pairing, which we cannot provide
		// without IO.
		accept = !cfg.LESecure
	case cfg.PasskeyFunc != nil:
		accept = cfg.PasskeyFunc(peer, PasskeyConfirm).Accept
	default:
		// A static passkey implies the exchange happens in the
		// display/entry steps; accept the attempt itself.
		accept = true
	}

	log.Debugf("hid: pairing request from %v: accept=%v", peer, accept)
	if err := d.transport.RespondPairing(peer, accept); err != nil {
		log.Warnf("hid: respond pairing for %v: %v", peer, err)
	}
}

// handlePasskeyDisplay answers a request to display a passkey for
// the user to enter on the central.
func (d *Device) handlePasskeyDisplay(peer BDAddr) {
	cfg := &d.Pairing
	passkey := cfg.StaticPasskey
	if cfg.PasskeyFunc != nil {
		reply := cfg.PasskeyFunc(peer, PasskeyDisplay)
		if !reply.Accept {
			d.rejectPairing(peer)
			return
		}
		passkey = reply.Passkey
	}
	log.Debugf("hid: displaying passkey for %v", peer)
	if err := d.transport.RespondPasskey(peer, passkey); err != nil {
		log.Warnf("hid: respond passkey for %v: %v", peer, err)
	}
}

// handlePasskeyEntry answers a request for the passkey shown by the
// central.
func (d *Device) handlePasskeyEntry(peer BDAddr) {
	cfg := &d.Pairing
	passkey := cfg.StaticPasskey
	if cfg.PasskeyFunc != nil {
		reply := cfg.PasskeyFunc(peer, PasskeyEntry)
		if !reply.Accept {
			d.rejectPairing(peer)
			return
		}
		passkey = reply.Passkey
	}
	log.Debugf("hid: entering passkey for %v", peer)
	if err := d.transport.RespondPasskey(peer, passkey); err != nil {
		log.Warnf("hid: respond passkey for %v: %v", peer, err)
	}
}

func (d *Device) rejectPairing(peer BDAddr) {
	if err := d.transport.RespondPairing(peer, false); err != nil {
		log.Warnf("hid: reject pairing for %v: %v", peer, err)
	}
}

// handleBonded persists the secret blob delivered on bonding
// completion. Storage failures are logged, never escalated: the
// worst case is a re-pairing on the next connection.
func (d *Device) handleBonded(peer BDAddr, secret []byte) {
	if !d.Pairing.Bonding || d.keys == nil {
		return
	}
	if len(secret) == 0 {
		// The link layer revoked the bond.
		if err := d.keys.Delete(peer.String()); err != nil {
			log.Warnf("hid: delete bond for %v: %v", peer, err)
		}
		return
	}
	if err := d.keys.Save(peer.String(), secret); err != nil {
		log.Warnf("hid: save bond for %v: %v", peer, err)
		return
	}
	log.Debugf("hid: bonded with %v", peer)
}
