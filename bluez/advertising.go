package bluez

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/XC-/hid"
)

const advertisementIface = "org.bluez.LEAdvertisement1"

// advertisement is the LEAdvertisement1 object exported to BlueZ. Its
// content comes from decoding the device's advertising payload: BlueZ
// assembles the air packet itself from these properties.
type advertisement struct {
	localName    string
	appearance   uint16
	serviceUUIDs []string
	discoverable bool
}

func (a *advertisement) properties() map[string]dbus.Variant {
	props := map[string]dbus.Variant{
		"Type":         dbus.MakeVariant("peripheral"),
		"Discoverable": dbus.MakeVariant(a.discoverable),
	}
	if a.localName != "" {
		props["LocalName"] = dbus.MakeVariant(a.localName)
	}
	if a.appearance != 0 {
		props["Appearance"] = dbus.MakeVariant(a.appearance)
	}
	if len(a.serviceUUIDs) > 0 {
		props["ServiceUUIDs"] = dbus.MakeVariant(a.serviceUUIDs)
	}
	return props
}

func (a *advertisement) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != advertisementIface {
		return nil, dbus.MakeFailedError(fmt.Errorf("unknown interface %s", iface))
	}
	return a.properties(), nil
}

// Release is called by BlueZ when it drops the advertisement.
func (a *advertisement) Release() *dbus.Error {
	log.Debug("bluez: advertisement released")
	return nil
}

// StartAdvertising decodes the payload back into advertising fields
// and registers them with BlueZ. The interval is ignored: BlueZ owns
// the advertising timing on this transport.
func (t *Transport) StartAdvertising(payload []byte, interval time.Duration) error {
	// Re-advertising after a connection must replace the previous
	// registration; BlueZ rejects a second RegisterAdvertisement for
	// the same object path.
	if err := t.StopAdvertising(); err != nil {
		return err
	}

	decoded, err := hid.UnmarshalAdvPayload(payload)
	if err != nil {
		return errors.Wrap(err, "decode advertising payload")
	}

	adv := advertisementFromPayload(decoded)
	if err := t.conn.Export(adv, advPath, advertisementIface); err != nil {
		return errors.Wrap(err, "export advertisement")
	}
	if err := t.conn.Export(adv, advPath, propsIface); err != nil {
		return errors.Wrap(err, "export advertisement properties")
	}

	call := t.adapterObject().Call(advManagerIface+".RegisterAdvertisement", 0, advPath, map[string]dbus.Variant{})
	if call.Err != nil {
		return errors.Wrap(call.Err, "register advertisement")
	}

	t.mu.Lock()
	t.advertising = true
	t.mu.Unlock()
	log.Debugf("bluez: advertising as %q", decoded.LocalName)
	return nil
}

// StopAdvertising unregisters the advertisement.
func (t *Transport) StopAdvertising() error {
	t.mu.Lock()
	advertising := t.advertising
	t.mu.Unlock()
	if !advertising {
		return nil
	}

	call := t.adapterObject().Call(advManagerIface+".UnregisterAdvertisement", 0, advPath)
	if call.Err != nil {
		return errors.Wrap(call.Err, "unregister advertisement")
	}
	t.mu.Lock()
	t.advertising = false
	t.mu.Unlock()
	return nil
}

func advertisementFromPayload(p *hid.AdvPayload) *advertisement {
	adv := &advertisement{
		localName:    p.LocalName,
		appearance:   p.Appearance,
		discoverable: true,
	}
	for _, u := range p.Services {
		adv.serviceUUIDs = append(adv.serviceUUIDs, u.String())
	}
	return adv
}
