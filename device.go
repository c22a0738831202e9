package hid

import (
	"bytes"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultAdvertisingInterval is used when Device.AdvertisingInterval
// is left zero.
const DefaultAdvertisingInterval = 100 * time.Millisecond

// A profile is the per-variant capability set: report descriptor,
// appearance, and HID service table shape. Keyboard, Mouse and
// Joystick supply one to the shared device engine.
type profile struct {
	appearance       uint16
	defaultName      string
	reportMap        []byte
	initialReport    []byte
	withOutputReport bool
}

// A Device is a BLE HID peripheral: it registers the Device
// Information, Battery and HID services with its Transport,
// advertises, accepts a single central, and notifies HID input
// reports.
//
// Devices are created through NewKeyboard, NewMouse or NewJoystick.
// The exported configuration fields must be set before Start and not
// mutated afterwards.
//
// The device does not run a goroutine of its own: all state lives
// behind one mutex, and every transition happens inside the caller
// of Start/Stop, a report setter, or HandleEvent. The transport must
// deliver events serially; setters and Notify may be called from any
// goroutine.
type Device struct {
	// Name is the local name, advertised and exposed via GAP.
	Name string

	// Appearance is the GAP appearance value. Defaults to the
	// variant's appearance (keyboard, mouse or joystick).
	Appearance uint16

	// Info holds the Device Information Service strings.
	Info DeviceInfo

	// PnP holds the DIS plug-and-play ID.
	PnP PnPID

	// AdvertisingInterval is the advertising interval passed to the
	// transport. Zero selects DefaultAdvertisingInterval.
	AdvertisingInterval time.Duration

	// Pairing configures pairing and bonding.
	Pairing PairingConfig

	transport Transport
	keys      KeyStore
	profile   profile

	mu           sync.Mutex
	state        DeviceState
	peer         BDAddr
	connected    bool
	broadcasting bool
	battery      byte
	handles      deviceHandles
	stateChange  func(old, new DeviceState)
	outputFunc   func(data []byte)
	suppressDup  bool
	lastReport   []byte
}

// newDevice creates the shared engine for one of the HID variants.
func newDevice(t Transport, keys KeyStore, p profile) *Device {
	return &Device{
		Name:       p.defaultName,
		Appearance: p.appearance,
		Info: DeviceInfo{
			ModelNumber:      "1",
			SerialNumber:     "1",
			FirmwareRevision: "1",
			HardwareRevision: "1",
			SoftwareRevision: "2",
			ManufacturerName: "Homebrew",
		},
		PnP: PnPID{
			VendorIDSource: 0x01,
			VendorID:       0xFE61,
			ProductID:      0x01,
			ProductVersion: 0x0123,
		},
		Pairing: PairingConfig{
			IOCapability: IOCapabilityNoInputNoOutput,
		},
		transport: t,
		keys:      keys,
		profile:   p,
		battery:   100,
	}
}

// Start registers the GATT services, transitions to Idle and begins
// advertising. It is valid only in the Stopped state and returns
// ErrAlreadyRunning otherwise. If the transport rejects registration
// or advertising, the device unwinds to Stopped.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateStopped {
		return ErrAlreadyRunning
	}
	if err := d.Pairing.validate(); err != nil {
		return err
	}

	hm, err := d.transport.RegisterServices(d.buildServices())
	if err != nil {
		return errors.Wrap(err, "register services")
	}
	h, err := resolveHandles(hm, d.profile.withOutputReport)
	if err != nil {
		return errors.Wrap(err, "register services")
	}
	d.handles = h
	d.lastReport = nil

	log.Infof("hid: %s: services registered", d.Name)
	d.setStateLocked(StateIdle)

	if err := d.startAdvertisingLocked(); err != nil {
		d.setStateLocked(StateStopped)
		return err
	}
	return nil
}

// Stop halts advertising, disconnects any central, and returns the
// device to Stopped. Calling Stop on a stopped device is a no-op.
// Safe to call at any point, including mid-advertising or
// mid-pairing.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateStopped {
		return nil
	}
	if err := d.stopBroadcastLocked(); err != nil {
		return err
	}
	if d.connected {
		if err := d.transport.Disconnect(d.peer); err != nil {
			return errors.Wrap(err, "disconnect")
		}
		d.connected = false
		d.peer = BDAddr{}
	}
	d.setStateLocked(StateStopped)
	log.Infof("hid: %s: stopped", d.Name)
	return nil
}

// StartAdvertising begins broadcasting. Start already advertises;
// this re-arms broadcasting after an explicit StopAdvertising. It is
// a no-op while Advertising or Connected and returns ErrNotRunning
// on a stopped device.
func (d *Device) StartAdvertising() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateStopped:
		return ErrNotRunning
	case StateAdvertising, StateConnected:
		return nil
	}
	return d.startAdvertisingLocked()
}

// StopAdvertising halts broadcasting without stopping the device.
// While Connected the connection is kept; otherwise the device
// returns to Idle.
func (d *Device) StopAdvertising() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateStopped {
		return ErrNotRunning
	}
	if err := d.stopBroadcastLocked(); err != nil {
		return err
	}
	if d.state == StateAdvertising {
		d.setStateLocked(StateIdle)
	}
	return nil
}

// stopBroadcastLocked halts broadcasting if the transport is still
// doing it. The flag tracks the transport, not the state machine: a
// connection leaves the state machine Connected while the radio may
// still be advertising. Callers hold d.mu.
func (d *Device) stopBroadcastLocked() error {
	if !d.broadcasting {
		return nil
	}
	if err := d.transport.StopAdvertising(); err != nil {
		return errors.Wrap(err, "stop advertising")
	}
	d.broadcasting = false
	return nil
}

// startAdvertisingLocked encodes the advertising payload and starts
// broadcasting. Callers hold d.mu.
func (d *Device) startAdvertisingLocked() error {
	payload := AdvPayload{
		Appearance: d.Appearance,
		LocalName:  d.Name,
		Services:   []UUID{attrHIDServiceUUID},
	}
	b, err := payload.Marshal()
	if err != nil {
		return err
	}
	interval := d.AdvertisingInterval
	if interval == 0 {
		interval = DefaultAdvertisingInterval
	}
	if err := d.transport.StartAdvertising(b, interval); err != nil {
		return errors.Wrap(err, "start advertising")
	}
	d.broadcasting = true
	d.setStateLocked(StateAdvertising)
	return nil
}

// HandleEvent consumes one link-layer event. The transport must call
// it from a single goroutine; concurrent deliveries are not safe.
func (d *Device) HandleEvent(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateStopped {
		// Events can trail a Stop; a late disconnect must not
		// re-arm advertising.
		log.Debugf("hid: %s: ignoring %v while stopped", d.Name, e.Type)
		return
	}

	switch e.Type {
	case EventConnected:
		d.peer = e.Peer
		d.connected = true
		// The radio must not keep broadcasting behind the connection;
		// some transports do not stop it on their own.
		if err := d.stopBroadcastLocked(); err != nil {
			log.Warnf("hid: %s: stop advertising on connect: %v", d.Name, err)
		}
		log.Infof("hid: %s: central connected: %v", d.Name, e.Peer)
		d.setStateLocked(StateConnected)
	case EventDisconnected:
		d.connected = false
		d.peer = BDAddr{}
		d.lastReport = nil
		log.Infof("hid: %s: central disconnected: %v", d.Name, e.Peer)
		if d.state == StateConnected {
			if err := d.startAdvertisingLocked(); err != nil {
				log.Warnf("hid: %s: re-advertise: %v", d.Name, err)
				d.setStateLocked(StateIdle)
			}
		}
	case EventPairingRequested:
		d.handlePairingRequested(e.Peer)
	case EventPasskeyDisplayRequested:
		d.handlePasskeyDisplay(e.Peer)
	case EventPasskeyEntryRequested:
		d.handlePasskeyEntry(e.Peer)
	case EventBonded:
		d.handleBonded(e.Peer, e.Data)
	case EventCharacteristicWritten:
		if d.profile.withOutputReport && e.Handle == d.handles.output && d.outputFunc != nil {
			d.outputFunc(e.Data)
		}
	default:
		log.Debugf("hid: %s: unhandled event: %v", d.Name, e.Type)
	}
}

// SetStateChangeFunc registers an observer invoked synchronously on
// every state transition with the old and new state. At most one
// observer is kept; registering replaces the previous one. The
// observer runs with the device lock held and must not call back
// into the device.
func (d *Device) SetStateChangeFunc(f func(old, new DeviceState)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateChange = f
}

// SetSuppressDuplicates controls whether Notify skips reports that
// are byte-identical to the last transmitted one. Off by default.
func (d *Device) SetSuppressDuplicates(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suppressDup = on
}

// State returns the current lifecycle state.
func (d *Device) State() DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// IsRunning reports whether the device has been started.
func (d *Device) IsRunning() bool { return d.State() != StateStopped }

// IsConnected reports whether a central is connected.
func (d *Device) IsConnected() bool { return d.State() == StateConnected }

// IsAdvertising reports whether the device is broadcasting.
func (d *Device) IsAdvertising() bool { return d.State() == StateAdvertising }

// Peer returns the address of the connected central, if any.
func (d *Device) Peer() (BDAddr, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peer, d.connected
}

// BatteryLevel returns the current battery level percentage.
func (d *Device) BatteryLevel() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(d.battery)
}

// SetBatteryLevel sets the battery level percentage, clamped to
// [0, 100]. Call NotifyBatteryLevel to push it to the central.
func (d *Device) SetBatteryLevel(level int) {
	if level > 100 {
		level = 100
	}
	if level < 0 {
		level = 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.battery = byte(level)
}

// NotifyBatteryLevel writes the battery level characteristic and
// notifies the central. Returns ErrNotConnected while no central is
// connected.
func (d *Device) NotifyBatteryLevel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateConnected {
		return ErrNotConnected
	}
	value := []byte{d.battery}
	if err := d.transport.WriteCharacteristic(d.handles.battery, value); err != nil {
		return errors.Wrap(err, "write battery level")
	}
	return errors.Wrap(d.transport.Notify(d.handles.battery, value, d.peer), "notify battery level")
}

// notifyReport pushes one HID input report. The connection check and
// the report read happen under the same lock acquisition, so the
// check is authoritative at the moment the buffer is serialized even
// when a disconnect event is racing in.
func (d *Device) notifyReport(marshal func() []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateConnected {
		return ErrNotConnected
	}
	report := marshal()
	if d.suppressDup && bytes.Equal(report, d.lastReport) {
		log.Debugf("hid: %s: suppressing duplicate report", d.Name)
		return nil
	}
	if err := d.transport.WriteCharacteristic(d.handles.report, report); err != nil {
		return errors.Wrap(err, "write report")
	}
	if err := d.transport.Notify(d.handles.report, report, d.peer); err != nil {
		return errors.Wrap(err, "notify report")
	}
	d.lastReport = report
	return nil
}

// setStateLocked transitions the state machine and invokes the
// observer. Callers hold d.mu.
func (d *Device) setStateLocked(s DeviceState) {
	if s == d.state {
		return
	}
	old := d.state
	d.state = s
	log.Debugf("hid: %s: %v -> %v", d.Name, old, s)
	if d.stateChange != nil {
		d.stateChange(old, s)
	}
}
