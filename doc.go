// Package hid implements a Bluetooth Low Energy HID peripheral.
//
// A Device registers the standard Device Information, Battery and
// Human Interface Device GATT services with a Transport, advertises
// itself, accepts a connection from a single central, and delivers
// input state (key presses, pointer motion, joystick axes) as HID
// input reports over GATT notifications.
//
// Three device variants are provided: Keyboard, Mouse and Joystick.
// Each exposes typed setters that update an in-memory report, and a
// Notify method that transmits it:
//
//	kb := hid.NewKeyboard(transport, hid.NewFileKeyStore("keys.json"))
//	kb.Name = "gopher-kbd"
//	kb.Pairing = hid.PairingConfig{
//		IOCapability: hid.IOCapabilityNoInputNoOutput,
//		Bonding:      true,
//	}
//	if err := kb.Start(); err != nil {
//		log.Fatal(err)
//	}
//
//	kb.SetKeys(0x04) // 'a'
//	kb.Notify()
//	kb.SetKeys()
//	kb.Notify()
//
// The Transport interface is the boundary to the host BLE stack: it
// registers services, sends notifications, starts and stops the
// radio advertisement, and delivers connection, pairing and write
// events back to the device. Package hid/bluez provides a Linux
// implementation on top of BlueZ via D-Bus; tests use an in-memory
// fake.
//
// The device is single-threaded by contract: the transport must
// deliver events one at a time, while setters and Notify may be
// called from any goroutine. Pairing behavior, including bonding
// secret persistence through a KeyStore, is configured with
// PairingConfig before Start.
package hid
