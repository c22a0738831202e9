package hid

// Mouse button bits.
const (
	ButtonLeft byte = 1 << iota
	ButtonRight
	ButtonMiddle
)

// mouseReportMap is the HID report descriptor for the mouse:
// report id 1, three button bits plus padding, and relative X, Y
// and wheel bytes.
var mouseReportMap = []byte{
	0x05, 0x01, // USAGE_PAGE (Generic Desktop)
	0x09, 0x02, // USAGE (Mouse)
	0xa1, 0x01, // COLLECTION (Application)
	0x85, 0x01, //   REPORT_ID (1)
	0x09, 0x01, //   USAGE (Pointer)
	0xa1, 0x00, //   COLLECTION (Physical)
	0x05, 0x09, //     USAGE_PAGE (Buttons)
	0x19, 0x01, //     USAGE_MINIMUM (1)
	0x29, 0x03, //     USAGE_MAXIMUM (3)
	0x15, 0x00, //     LOGICAL_MINIMUM (0)
	0x25, 0x01, //     LOGICAL_MAXIMUM (1)
	0x95, 0x03, //     REPORT_COUNT (3)
	0x75, 0x01, //     REPORT_SIZE (1)
	0x81, 0x02, //     INPUT (Data,Var,Abs) ; 3 button bits
	0x95, 0x01, //     REPORT_COUNT (1)
	0x75, 0x05, //     REPORT_SIZE (5)
	0x81, 0x03, //     INPUT (Constant)     ; 5 bit padding
	0x05, 0x01, //     USAGE_PAGE (Generic Desktop)
	0x09, 0x30, //     USAGE (X)
	0x09, 0x31, //     USAGE (Y)
	0x09, 0x38, //     USAGE (Wheel)
	0x15, 0x81, //     LOGICAL_MINIMUM (-127)
	0x25, 0x7f, //     LOGICAL_MAXIMUM (127)
	0x75, 0x08, //     REPORT_SIZE (8)
	0x95, 0x03, //     REPORT_COUNT (3)
	0x81, 0x06, //     INPUT (Data,Var,Rel) ; X, Y, wheel
	0xc0, //   END_COLLECTION
	0xc0, // END_COLLECTION
}

// A Mouse is a BLE HID mouse with three buttons, relative X/Y
// motion and a scroll wheel.
type Mouse struct {
	*Device

	buttons byte
	x, y, w int8
}

// NewMouse creates a mouse backed by the given transport.
// keys may be nil to disable bond persistence.
func NewMouse(t Transport, keys KeyStore) *Mouse {
	m := &Mouse{}
	m.Device = newDevice(t, keys, profile{
		appearance:    AppearanceMouse,
		defaultName:   "Bluetooth Mouse",
		reportMap:     mouseReportMap,
		initialReport: m.marshalNew(),
	})
	return m
}

// SetAxes sets relative X/Y motion, clamped to [-127, 127].
func (m *Mouse) SetAxes(x, y int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.x = clampAxis(x)
	m.y = clampAxis(y)
}

// SetWheel sets relative wheel motion, clamped to [-127, 127].
func (m *Mouse) SetWheel(w int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.w = clampAxis(w)
}

// SetButtons sets the state of the left, right and middle buttons.
func (m *Mouse) SetButtons(left, right, middle bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buttons = 0
	if left {
		m.buttons |= ButtonLeft
	}
	if right {
		m.buttons |= ButtonRight
	}
	if middle {
		m.buttons |= ButtonMiddle
	}
}

// Notify transmits the current report. Returns ErrNotConnected
// while no central is connected.
func (m *Mouse) Notify() error {
	return m.notifyReport(m.marshalNew)
}

// Report returns the current report bytes: [buttons, x, y, wheel].
func (m *Mouse) Report() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marshalNew()
}

// marshalNew packs the report. Callers hold m.mu (or own m exclusively).
func (m *Mouse) marshalNew() []byte {
	return []byte{m.buttons, byte(m.x), byte(m.y), byte(m.w)}
}

// clampAxis clamps v to the symmetric signed-byte range [-127, 127].
func clampAxis(v int) int8 {
	if v > 127 {
		return 127
	}
	if v < -127 {
		return -127
	}
	return int8(v)
}
