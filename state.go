package hid

// DeviceState is the lifecycle state of a Device.
type DeviceState int

const (
	// StateStopped is the initial state; the device owns no radio
	// resources and exposes no services.
	StateStopped DeviceState = iota

	// StateIdle means services are registered but the device is not
	// broadcasting. Callers that need to adjust characteristics before
	// going on air can hold the device here with StopAdvertising.
	StateIdle

	// StateAdvertising means the device is broadcasting its
	// advertising payload and accepting connections.
	StateAdvertising

	// StateConnected means a central is connected. HID devices accept
	// a single central at a time.
	StateConnected
)

func (s DeviceState) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateIdle:
		return "Idle"
	case StateAdvertising:
		return "Advertising"
	case StateConnected:
		return "Connected"
	}
	return "Unknown"
}
