package hid

import (
	"errors"
	"net"
	"sync"
	"time"
)

// fakeTransport is an in-memory Transport capturing everything the
// device asks of it.
type fakeTransport struct {
	mu sync.Mutex

	registerErr  error
	advertiseErr error

	services    []ServiceSpec
	handles     HandleMap
	advertising bool
	advPayload  []byte
	advInterval time.Duration
	advStarts   int

	writes   map[uint16][][]byte
	notifies map[uint16][][]byte

	pairingReplies []bool
	passkeyReplies []uint32
	bonds          map[string][]byte
	disconnects    []BDAddr
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		writes:   make(map[uint16][][]byte),
		notifies: make(map[uint16][][]byte),
		bonds:    make(map[string][]byte),
	}
}

func (t *fakeTransport) RegisterServices(svcs []ServiceSpec) (HandleMap, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.registerErr != nil {
		return nil, t.registerErr
	}
	t.services = svcs
	t.handles = nil
	var n uint16
	for _, svc := range svcs {
		var hh []uint16
		for _, c := range svc.Characteristics {
			n++
			hh = append(hh, n)
			for range c.Descriptors {
				n++
				hh = append(hh, n)
			}
		}
		t.handles = append(t.handles, hh)
	}
	return t.handles, nil
}

func (t *fakeTransport) WriteCharacteristic(handle uint16, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes[handle] = append(t.writes[handle], append([]byte(nil), value...))
	return nil
}

func (t *fakeTransport) Notify(handle uint16, value []byte, peer BDAddr) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifies[handle] = append(t.notifies[handle], append([]byte(nil), value...))
	return nil
}

func (t *fakeTransport) StartAdvertising(payload []byte, interval time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.advertiseErr != nil {
		return t.advertiseErr
	}
	t.advertising = true
	t.advPayload = append([]byte(nil), payload...)
	t.advInterval = interval
	t.advStarts++
	return nil
}

func (t *fakeTransport) StopAdvertising() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advertising = false
	return nil
}

func (t *fakeTransport) Disconnect(peer BDAddr) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnects = append(t.disconnects, peer)
	return nil
}

func (t *fakeTransport) RespondPairing(peer BDAddr, accept bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pairingReplies = append(t.pairingReplies, accept)
	return nil
}

func (t *fakeTransport) RespondPasskey(peer BDAddr, passkey uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.passkeyReplies = append(t.passkeyReplies, passkey)
	return nil
}

func (t *fakeTransport) SetBond(peer BDAddr, secret []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bonds[peer.String()] = append([]byte(nil), secret...)
	return nil
}

func (t *fakeTransport) notifyCount(handle uint16) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.notifies[handle])
}

func (t *fakeTransport) lastNotify(handle uint16) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	nn := t.notifies[handle]
	if len(nn) == 0 {
		return nil
	}
	return nn[len(nn)-1]
}

// reportHandle returns the input report value handle after a
// successful registration.
func (t *fakeTransport) reportHandle() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handles[2][3]
}

// outputHandle returns the keyboard output report value handle.
func (t *fakeTransport) outputHandle() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handles[2][6]
}

// batteryHandle returns the battery level value handle.
func (t *fakeTransport) batteryHandle() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handles[1][0]
}

var errFakeTransport = errors.New("transport unavailable")

func testPeer() BDAddr {
	return BDAddr{net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}}
}
