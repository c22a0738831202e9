package hid

import "fmt"

// Modifier bits of the keyboard report, low bit first.
const (
	ModLeftControl byte = 1 << iota
	ModLeftShift
	ModLeftAlt
	ModLeftGUI
	ModRightControl
	ModRightShift
	ModRightAlt
	ModRightGUI
)

// keyboardReportMap is the HID report descriptor for the keyboard:
// report id 1, one modifier byte, one reserved byte, a 5-bit LED
// output report, and a 6-slot key code array.
var keyboardReportMap = []byte{
	0x05, 0x01, // USAGE_PAGE (Generic Desktop)
	0x09, 0x06, // USAGE (Keyboard)
	0xa1, 0x01, // COLLECTION (Application)
	0x85, 0x01, //   REPORT_ID (1)
	0x75, 0x01, //   REPORT_SIZE (1)
	0x95, 0x08, //   REPORT_COUNT (8)
	0x05, 0x07, //   USAGE_PAGE (Key Codes)
	0x19, 0xe0, //   USAGE_MINIMUM (224)
	0x29, 0xe7, //   USAGE_MAXIMUM (231)
	0x15, 0x00, //   LOGICAL_MINIMUM (0)
	0x25, 0x01, //   LOGICAL_MAXIMUM (1)
	0x81, 0x02, //   INPUT (Data,Var,Abs) ; modifier byte
	0x95, 0x01, //   REPORT_COUNT (1)
	0x75, 0x08, //   REPORT_SIZE (8)
	0x81, 0x01, //   INPUT (Constant)     ; reserved byte
	0x95, 0x05, //   REPORT_COUNT (5)
	0x75, 0x01, //   REPORT_SIZE (1)
	0x05, 0x08, //   USAGE_PAGE (LEDs)
	0x19, 0x01, //   USAGE_MINIMUM (1)
	0x29, 0x05, //   USAGE_MAXIMUM (5)
	0x91, 0x02, //   OUTPUT (Data,Var,Abs) ; LED report
	0x95, 0x01, //   REPORT_COUNT (1)
	0x75, 0x03, //   REPORT_SIZE (3)
	0x91, 0x01, //   OUTPUT (Constant)     ; LED padding
	0x95, 0x06, //   REPORT_COUNT (6)
	0x75, 0x08, //   REPORT_SIZE (8)
	0x15, 0x00, //   LOGICAL_MINIMUM (0)
	0x25, 0x65, //   LOGICAL_MAXIMUM (101)
	0x05, 0x07, //   USAGE_PAGE (Key Codes)
	0x19, 0x00, //   USAGE_MINIMUM (0)
	0x29, 0x65, //   USAGE_MAXIMUM (101)
	0x81, 0x00, //   INPUT (Data,Array)   ; key array, 6 slots
	0xc0, // END_COLLECTION
}

// A Keyboard is a BLE HID keyboard. Setters update the in-memory
// report; Notify transmits it. The central's writes to the output
// report (LED state) are delivered to the function registered with
// SetOutputReportFunc.
type Keyboard struct {
	*Device

	modifiers byte
	keys      [6]byte
}

// NewKeyboard creates a keyboard backed by the given transport.
// keys may be nil to disable bond persistence.
func NewKeyboard(t Transport, keys KeyStore) *Keyboard {
	kb := &Keyboard{}
	kb.Device = newDevice(t, keys, profile{
		appearance:       AppearanceKeyboard,
		defaultName:      "Bluetooth Keyboard",
		reportMap:        keyboardReportMap,
		initialReport:    kb.marshalNew(),
		withOutputReport: true,
	})
	return kb
}

// SetModifiers sets the modifier bitmask (combine the Mod* constants).
func (k *Keyboard) SetModifiers(mods byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.modifiers = mods
}

// SetKeys sets the pressed key codes, up to six. Unused slots are
// cleared, so SetKeys() with no arguments releases all keys. More
// than six codes is an error: the report has six slots.
func (k *Keyboard) SetKeys(codes ...byte) error {
	if len(codes) > len(k.keys) {
		return fmt.Errorf("at most %d keys may be pressed, got %d", len(k.keys), len(codes))
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	copy(k.keys[:], codes)
	for i := len(codes); i < len(k.keys); i++ {
		k.keys[i] = 0
	}
	return nil
}

// SetOutputReportFunc registers a function invoked when the central
// writes the keyboard output report (LED state). It is called from
// the event handler with the device lock held.
func (k *Keyboard) SetOutputReportFunc(f func(data []byte)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.outputFunc = f
}

// Notify transmits the current report. Returns ErrNotConnected
// while no central is connected; that is expected during
// disconnection windows, not a failure.
func (k *Keyboard) Notify() error {
	return k.notifyReport(k.marshalNew)
}

// Report returns the current report bytes:
// [modifiers, reserved, key0..key5].
func (k *Keyboard) Report() []byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.marshalNew()
}

// marshalNew packs the report. Callers hold k.mu (or own k exclusively).
func (k *Keyboard) marshalNew() []byte {
	b := make([]byte, 8)
	b[0] = k.modifiers
	copy(b[2:], k.keys[:])
	return b
}
