package hid

import (
	"net"
	"time"
)

// A BDAddr (Bluetooth Device Address) is a
// hardware-addressed-based net.Addr.
type BDAddr struct{ net.HardwareAddr }

func (a BDAddr) Network() string { return "BLE" }

// Characteristic property flags, in BLE spec order.
const (
	CharRead    uint = 1 << (iota + 1) // the characteristic may be read
	CharWriteNR                        // the characteristic may be written to, with no reply
	CharWrite                          // the characteristic may be written to, with a reply
	CharNotify                         // the characteristic supports notifications
)

// A DescriptorSpec describes one descriptor of a characteristic to
// be registered with the transport.
type DescriptorSpec struct {
	UUID  UUID
	Props uint
	Value []byte
}

// A CharacteristicSpec describes one characteristic of a service to
// be registered with the transport.
type CharacteristicSpec struct {
	UUID        UUID
	Props       uint
	Value       []byte
	Descriptors []DescriptorSpec
}

// A ServiceSpec describes one GATT service to be registered with
// the transport.
type ServiceSpec struct {
	UUID            UUID
	Characteristics []CharacteristicSpec
}

// A HandleMap holds the attribute handles assigned by the transport
// during service registration. Handles are positional: one slice per
// registered service, listing the value handle of each characteristic
// followed by the handles of its descriptors, in declaration order.
type HandleMap [][]uint16

// An EventType identifies a link-layer event delivered to a Device.
type EventType int

const (
	// EventConnected reports that a central connected.
	EventConnected EventType = iota + 1

	// EventDisconnected reports that the central disconnected.
	EventDisconnected

	// EventPairingRequested reports that the central initiated
	// pairing and the transport wants an accept/reject decision.
	EventPairingRequested

	// EventPasskeyDisplayRequested asks the device to display the
	// passkey carried in the event so the user can enter it on the
	// central.
	EventPasskeyDisplayRequested

	// EventPasskeyEntryRequested asks the device to supply the
	// passkey displayed by the central.
	EventPasskeyEntryRequested

	// EventBonded reports completed bonding; Data carries the opaque
	// secret blob to persist for the peer.
	EventBonded

	// EventCharacteristicWritten reports a central write to the
	// characteristic identified by Handle; Data carries the value.
	EventCharacteristicWritten
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "Connected"
	case EventDisconnected:
		return "Disconnected"
	case EventPairingRequested:
		return "PairingRequested"
	case EventPasskeyDisplayRequested:
		return "PasskeyDisplayRequested"
	case EventPasskeyEntryRequested:
		return "PasskeyEntryRequested"
	case EventBonded:
		return "Bonded"
	case EventCharacteristicWritten:
		return "CharacteristicWritten"
	}
	return "Unknown"
}

// An Event is a single link-layer event. The transport must deliver
// events one at a time; Device.HandleEvent is not reentrant.
type Event struct {
	Type    EventType
	Peer    BDAddr
	Passkey uint32 // EventPasskeyDisplayRequested only
	Handle  uint16 // EventCharacteristicWritten only
	Data    []byte // EventBonded, EventCharacteristicWritten
}

// A Transport is the host link-layer and GATT server collaborator of
// a Device. Implementations own the radio; the Device owns protocol
// state. All methods must be fast and non-blocking from the Device's
// point of view: long-latency work belongs on the transport's side.
//
// The transport delivers link-layer events by calling
// Device.HandleEvent from a single goroutine (or an equivalent
// serialized dispatch queue).
type Transport interface {
	// RegisterServices registers the given service tables and
	// returns the assigned attribute handles.
	RegisterServices(svcs []ServiceSpec) (HandleMap, error)

	// WriteCharacteristic sets the stored value of the attribute
	// identified by handle.
	WriteCharacteristic(handle uint16, value []byte) error

	// Notify sends a notification for the attribute identified by
	// handle to the connected central.
	Notify(handle uint16, value []byte, peer BDAddr) error

	// StartAdvertising begins broadcasting the encoded advertising
	// payload at the given interval.
	StartAdvertising(payload []byte, interval time.Duration) error

	// StopAdvertising halts broadcasting.
	StopAdvertising() error

	// Disconnect closes the connection to the given central.
	Disconnect(peer BDAddr) error

	// RespondPairing answers an EventPairingRequested.
	RespondPairing(peer BDAddr, accept bool) error

	// RespondPasskey answers an EventPasskeyEntryRequested.
	RespondPasskey(peer BDAddr, passkey uint32) error

	// SetBond hands a previously stored bonding secret to the link
	// layer before pairing begins, so that a known peer can skip the
	// full handshake. An invalid blob degrades to fresh pairing.
	SetBond(peer BDAddr, secret []byte) error
}
