package hid

// joystickReportMap is the HID report descriptor for the joystick:
// report id 1, absolute X and Y axes and eight buttons.
var joystickReportMap = []byte{
	0x05, 0x01, // USAGE_PAGE (Generic Desktop)
	0x09, 0x04, // USAGE (Joystick)
	0xa1, 0x01, // COLLECTION (Application)
	0x85, 0x01, //   REPORT_ID (1)
	0xa1, 0x00, //   COLLECTION (Physical)
	0x09, 0x30, //     USAGE (X)
	0x09, 0x31, //     USAGE (Y)
	0x15, 0x81, //     LOGICAL_MINIMUM (-127)
	0x25, 0x7f, //     LOGICAL_MAXIMUM (127)
	0x75, 0x08, //     REPORT_SIZE (8)
	0x95, 0x02, //     REPORT_COUNT (2)
	0x81, 0x02, //     INPUT (Data,Var,Abs) ; X, Y
	0x05, 0x09, //     USAGE_PAGE (Button)
	0x29, 0x08, //     USAGE_MAXIMUM (Button 8)
	0x19, 0x01, //     USAGE_MINIMUM (Button 1)
	0x95, 0x08, //     REPORT_COUNT (8)
	0x75, 0x01, //     REPORT_SIZE (1)
	0x25, 0x01, //     LOGICAL_MAXIMUM (1)
	0x15, 0x00, //     LOGICAL_MINIMUM (0)
	0x81, 0x02, //     INPUT (Data,Var,Abs) ; 8 button bits
	0xc0, //   END_COLLECTION
	0xc0, // END_COLLECTION
}

// A Joystick is a BLE HID joystick with absolute X/Y axes and eight
// buttons.
type Joystick struct {
	*Device

	x, y    int8
	buttons byte
}

// NewJoystick creates a joystick backed by the given transport.
// keys may be nil to disable bond persistence.
func NewJoystick(t Transport, keys KeyStore) *Joystick {
	j := &Joystick{}
	j.Device = newDevice(t, keys, profile{
		appearance:    AppearanceJoystick,
		defaultName:   "Bluetooth Joystick",
		reportMap:     joystickReportMap,
		initialReport: j.marshalNew(),
	})
	return j
}

// SetAxes sets the absolute X/Y position, clamped to [-127, 127].
func (j *Joystick) SetAxes(x, y int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.x = clampAxis(x)
	j.y = clampAxis(y)
}

// SetButtons sets the state of the eight buttons, button 1 first.
// Buttons beyond those given are released.
func (j *Joystick) SetButtons(pressed ...bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.buttons = 0
	for i, p := range pressed {
		if i >= 8 {
			break
		}
		if p {
			j.buttons |= 1 << uint(i)
		}
	}
}

// Notify transmits the current report. Returns ErrNotConnected
// while no central is connected.
func (j *Joystick) Notify() error {
	return j.notifyReport(j.marshalNew)
}

// Report returns the current report bytes: [x, y, buttons].
func (j *Joystick) Report() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.marshalNew()
}

// marshalNew packs the report. Callers hold j.mu (or own j exclusively).
func (j *Joystick) marshalNew() []byte {
	return []byte{byte(j.x), byte(j.y), j.buttons}
}
