package bluez

import (
	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/XC-/hid"
)

const agentIface = "org.bluez.Agent1"

var errRejected = dbus.NewError("org.bluez.Error.Rejected", nil)

// agent is the Agent1 object brokering pairing between BlueZ and the
// device. Each method turns the incoming call into an event; the
// device answers synchronously through RespondPairing and
// RespondPasskey, which fill the transport's reply slot.
type agent struct {
	t *Transport
}

func (t *Transport) registerAgent() error {
	a := &agent{t: t}
	if err := t.conn.Export(a, agentPath, agentIface); err != nil {
		return errors.Wrap(err, "export agent")
	}
	mgr := t.conn.Object(busName, "/org/bluez")
	if call := mgr.Call(agentManagerIface+".RegisterAgent", 0, agentPath, t.cfg.Capability); call.Err != nil {
		return errors.Wrap(call.Err, "register agent")
	}
	if call := mgr.Call(agentManagerIface+".RequestDefaultAgent", 0, agentPath); call.Err != nil {
		return errors.Wrap(call.Err, "request default agent")
	}
	t.mu.Lock()
	t.agentUp = true
	t.mu.Unlock()
	log.Debugf("bluez: agent registered with capability %s", t.cfg.Capability)
	return nil
}

func (a *agent) peerFromPath(device dbus.ObjectPath) hid.BDAddr {
	return parseBDAddr(macFromPath(a.t.adapter, device))
}

func (a *agent) Release() *dbus.Error {
	log.Debug("bluez: agent released")
	return nil
}

func (a *agent) RequestAuthorization(device dbus.ObjectPath) *dbus.Error {
	reply, ok := a.t.ask(hid.Event{Type: hid.EventPairingRequested, Peer: a.peerFromPath(device)})
	if !ok || !reply.accept {
		return errRejected
	}
	return nil
}

func (a *agent) RequestConfirmation(device dbus.ObjectPath, passkey uint32) *dbus.Error {
	reply, ok := a.t.ask(hid.Event{
		Type:    hid.EventPairingRequested,
		Peer:    a.peerFromPath(device),
		Passkey: passkey,
	})
	if !ok || !reply.accept {
		return errRejected
	}
	return nil
}

func (a *agent) RequestPasskey(device dbus.ObjectPath) (uint32, *dbus.Error) {
	reply, ok := a.t.ask(hid.Event{Type: hid.EventPasskeyEntryRequested, Peer: a.peerFromPath(device)})
	if !ok || !reply.accept {
		return 0, errRejected
	}
	return reply.passkey, nil
}

func (a *agent) DisplayPasskey(device dbus.ObjectPath, passkey uint32, entered uint16) *dbus.Error {
	// BlueZ chose the passkey; the device only needs to show it.
	a.t.ask(hid.Event{
		Type:    hid.EventPasskeyDisplayRequested,
		Peer:    a.peerFromPath(device),
		Passkey: passkey,
	})
	return nil
}

func (a *agent) RequestPinCode(device dbus.ObjectPath) (string, *dbus.Error) {
	// Legacy BR/EDR pairing, not supported on a BLE peripheral.
	return "", errRejected
}

func (a *agent) DisplayPinCode(device dbus.ObjectPath, pincode string) *dbus.Error {
	return errRejected
}

func (a *agent) AuthorizeService(device dbus.ObjectPath, uuid string) *dbus.Error {
	return nil
}

func (a *agent) Cancel() *dbus.Error {
	log.Debug("bluez: pairing cancelled by bluez")
	return nil
}
