// Package bluez implements the hid.Transport interface on Linux on
// top of the BlueZ D-Bus API. GATT services are exported as D-Bus
// objects and registered through GattManager1, advertising goes
// through LEAdvertisingManager1, and pairing is brokered by an
// exported Agent1 object.
package bluez

import (
	"net"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/XC-/hid"
)

const (
	busName      = "org.bluez"
	adapterIface = "org.bluez.Adapter1"
	deviceIface  = "org.bluez.Device1"
	propsIface   = "org.freedesktop.DBus.Properties"

	gattManagerIface  = "org.bluez.GattManager1"
	advManagerIface   = "org.bluez.LEAdvertisingManager1"
	agentManagerIface = "org.bluez.AgentManager1"

	appPath   = dbus.ObjectPath("/com/github/xc/hid")
	advPath   = dbus.ObjectPath("/com/github/xc/hid/advertisement0")
	agentPath = dbus.ObjectPath("/com/github/xc/hid/agent0")
)

// Config configures the transport.
type Config struct {
	// AdapterID names the HCI adapter, "hci0" by default.
	AdapterID string

	// Capability is the Agent1 IO capability string announced to
	// BlueZ: DisplayOnly, DisplayYesNo, KeyboardOnly, NoInputNoOutput
	// or KeyboardDisplay. It should match the device's pairing
	// configuration. Empty defaults to NoInputNoOutput.
	Capability string
}

// Transport is a hid.Transport backed by BlueZ over the system D-Bus.
// Create one with New, wire it to a device with SetEventFunc, and
// hand it to hid.NewKeyboard and friends.
type Transport struct {
	conn    *dbus.Conn
	adapter dbus.ObjectPath
	cfg     Config

	// dispatchMu serializes event delivery towards the device and
	// guards the in-flight pairing reply slot.
	dispatchMu sync.Mutex
	eventFunc  func(hid.Event)
	reply      pendingReply

	mu          sync.Mutex
	chars       map[uint16]*gattCharacteristic
	services    []*gattService
	advertising bool
	registered  bool
	agentUp     bool
	closed      chan struct{}
}

type pendingReply struct {
	set     bool
	accept  bool
	passkey uint32
}

// New connects to the system bus and verifies BlueZ is present.
func New(cfg Config) (*Transport, error) {
	if cfg.AdapterID == "" {
		cfg.AdapterID = "hci0"
	}
	if cfg.Capability == "" {
		cfg.Capability = "NoInputNoOutput"
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect to system bus")
	}
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "list bus names")
	}
	found := false
	for _, n := range names {
		if n == busName {
			found = true
			break
		}
	}
	if !found {
		conn.Close()
		return nil, errors.New("org.bluez not found on system bus, is bluetooth.service running?")
	}

	t := &Transport{
		conn:    conn,
		adapter: dbus.ObjectPath("/org/bluez/" + cfg.AdapterID),
		cfg:     cfg,
		chars:   make(map[uint16]*gattCharacteristic),
		closed:  make(chan struct{}),
	}
	if err := t.registerAgent(); err != nil {
		conn.Close()
		return nil, err
	}
	go t.watchSignals()
	return t, nil
}

// SetEventFunc registers the event sink, normally the device's
// HandleEvent method. Events are delivered from a single goroutine.
func (t *Transport) SetEventFunc(f func(hid.Event)) {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()
	t.eventFunc = f
}

// Close tears down the agent, application and advertisement
// registrations and disconnects from the bus.
func (t *Transport) Close() error {
	t.mu.Lock()
	adv := t.advertising
	app := t.registered
	agent := t.agentUp
	select {
	case <-t.closed:
	default:
		close(t.closed)
	}
	t.mu.Unlock()

	if adv {
		if err := t.StopAdvertising(); err != nil {
			log.Warnf("bluez: unregister advertisement: %v", err)
		}
	}
	if app {
		err := t.adapterObject().Call(gattManagerIface+".UnregisterApplication", 0, appPath).Err
		if err != nil {
			log.Warnf("bluez: unregister application: %v", err)
		}
	}
	if agent {
		err := t.conn.Object(busName, "/org/bluez").Call(agentManagerIface+".UnregisterAgent", 0, agentPath).Err
		if err != nil {
			log.Warnf("bluez: unregister agent: %v", err)
		}
	}
	return t.conn.Close()
}

func (t *Transport) adapterObject() dbus.BusObject {
	return t.conn.Object(busName, t.adapter)
}

// Disconnect drops the link to the given central.
func (t *Transport) Disconnect(peer hid.BDAddr) error {
	obj := t.conn.Object(busName, devicePath(t.adapter, peer.String()))
	return errors.Wrapf(obj.Call(deviceIface+".Disconnect", 0).Err, "disconnect %v", peer)
}

// SetBond marks a previously bonded central as trusted so BlueZ
// accepts its reconnections without user interaction. BlueZ owns the
// actual key material; the secret is only a bookkeeping token here.
func (t *Transport) SetBond(peer hid.BDAddr, secret []byte) error {
	obj := t.conn.Object(busName, devicePath(t.adapter, peer.String()))
	call := obj.Call(propsIface+".Set", 0, deviceIface, "Trusted", dbus.MakeVariant(true))
	return errors.Wrapf(call.Err, "trust %v", peer)
}

// RespondPairing records the device's verdict for the pairing request
// currently being brokered by the agent.
func (t *Transport) RespondPairing(peer hid.BDAddr, accept bool) error {
	t.reply = pendingReply{set: true, accept: accept}
	return nil
}

// RespondPasskey records the passkey for the exchange currently being
// brokered by the agent.
func (t *Transport) RespondPasskey(peer hid.BDAddr, passkey uint32) error {
	t.reply = pendingReply{set: true, accept: true, passkey: passkey}
	return nil
}

// deliver hands one event to the device. The dispatch mutex keeps
// deliveries serial across the agent and the signal watcher.
func (t *Transport) deliver(e hid.Event) {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()
	if t.eventFunc != nil {
		t.eventFunc(e)
	}
}

// ask delivers an event that expects a reply through RespondPairing
// or RespondPasskey. The device answers synchronously from its event
// handler, so the reply slot is filled when delivery returns.
func (t *Transport) ask(e hid.Event) (pendingReply, bool) {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()
	t.reply = pendingReply{}
	if t.eventFunc == nil {
		return pendingReply{}, false
	}
	t.eventFunc(e)
	return t.reply, t.reply.set
}

// watchSignals follows Device1 property changes and translates them
// into connection and bonding events.
func (t *Transport) watchSignals() {
	t.conn.BusObject().Call(
		"org.freedesktop.DBus.AddMatch", 0,
		"type='signal',interface='"+propsIface+"',member='PropertiesChanged',path_namespace='/org/bluez'",
	)
	ch := make(chan *dbus.Signal, 16)
	t.conn.Signal(ch)

	for {
		select {
		case <-t.closed:
			return
		case sig, ok := <-ch:
			if !ok {
				return
			}
			t.handleSignal(sig)
		}
	}
}

func (t *Transport) handleSignal(sig *dbus.Signal) {
	if sig.Name != propsIface+".PropertiesChanged" || len(sig.Body) < 2 {
		return
	}
	iface, _ := sig.Body[0].(string)
	if iface != deviceIface {
		return
	}
	changed, _ := sig.Body[1].(map[string]dbus.Variant)
	addr := macFromPath(t.adapter, sig.Path)
	if addr == "" {
		return
	}
	peer := parseBDAddr(addr)

	if v, ok := changed["Connected"]; ok {
		if connected, _ := v.Value().(bool); connected {
			t.deliver(hid.Event{Type: hid.EventConnected, Peer: peer})
		} else {
			t.deliver(hid.Event{Type: hid.EventDisconnected, Peer: peer})
		}
	}
	if v, ok := changed["Paired"]; ok {
		if paired, _ := v.Value().(bool); paired {
			// BlueZ keeps the keys itself; hand the device a token so
			// its key store remembers the peer as bonded.
			t.deliver(hid.Event{Type: hid.EventBonded, Peer: peer, Data: []byte(addr)})
		}
	}
}

// devicePath converts "AA:BB:CC:DD:EE:FF" to the BlueZ object path
// under the adapter.
func devicePath(adapter dbus.ObjectPath, addr string) dbus.ObjectPath {
	escaped := strings.ReplaceAll(strings.ToUpper(addr), ":", "_")
	return dbus.ObjectPath(string(adapter) + "/dev_" + escaped)
}

// macFromPath extracts a MAC address from a BlueZ device object path,
// or "" when the path is not a device under the adapter.
func macFromPath(adapter dbus.ObjectPath, path dbus.ObjectPath) string {
	prefix := string(adapter) + "/dev_"
	s := string(path)
	if !strings.HasPrefix(s, prefix) {
		return ""
	}
	return strings.ReplaceAll(s[len(prefix):], "_", ":")
}

func parseBDAddr(addr string) hid.BDAddr {
	mac, err := net.ParseMAC(addr)
	if err != nil {
		return hid.BDAddr{}
	}
	return hid.BDAddr{HardwareAddr: mac}
}
