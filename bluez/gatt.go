package bluez

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/XC-/hid"
)

const (
	gattServiceIface   = "org.bluez.GattService1"
	gattCharIface      = "org.bluez.GattCharacteristic1"
	gattDescIface      = "org.bluez.GattDescriptor1"
	objectManagerIface = "org.freedesktop.DBus.ObjectManager"
)

// propFlags translates characteristic property bits into BlueZ flag
// strings.
func propFlags(props uint) []string {
	var flags []string
	if props&hid.CharRead != 0 {
		flags = append(flags, "read")
	}
	if props&hid.CharWriteNR != 0 {
		flags = append(flags, "write-without-response")
	}
	if props&hid.CharWrite != 0 {
		flags = append(flags, "write")
	}
	if props&hid.CharNotify != 0 {
		flags = append(flags, "notify")
	}
	return flags
}

type gattService struct {
	path  dbus.ObjectPath
	uuid  string
	chars []*gattCharacteristic
}

func (s *gattService) properties() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"UUID":    dbus.MakeVariant(s.uuid),
		"Primary": dbus.MakeVariant(true),
	}
}

func (s *gattService) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != gattServiceIface {
		return nil, dbus.MakeFailedError(fmt.Errorf("unknown interface %s", iface))
	}
	return s.properties(), nil
}

type gattCharacteristic struct {
	transport *Transport
	path      dbus.ObjectPath
	service   dbus.ObjectPath
	uuid      string
	flags     []string
	handle    uint16
	descs     []*gattDescriptor

	mu        sync.Mutex
	value     []byte
	notifying bool
}

func (c *gattCharacteristic) properties() map[string]dbus.Variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]dbus.Variant{
		"UUID":    dbus.MakeVariant(c.uuid),
		"Service": dbus.MakeVariant(c.service),
		"Flags":   dbus.MakeVariant(c.flags),
		"Value":   dbus.MakeVariant(c.value),
	}
}

func (c *gattCharacteristic) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != gattCharIface {
		return nil, dbus.MakeFailedError(fmt.Errorf("unknown interface %s", iface))
	}
	return c.properties(), nil
}

func (c *gattCharacteristic) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.value...), nil
}

func (c *gattCharacteristic) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	c.mu.Lock()
	c.value = append([]byte(nil), value...)
	c.mu.Unlock()
	c.transport.deliver(hid.Event{
		Type:   hid.EventCharacteristicWritten,
		Handle: c.handle,
		Data:   append([]byte(nil), value...),
	})
	return nil
}

func (c *gattCharacteristic) StartNotify() *dbus.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifying = true
	return nil
}

func (c *gattCharacteristic) StopNotify() *dbus.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifying = false
	return nil
}

type gattDescriptor struct {
	path           dbus.ObjectPath
	characteristic dbus.ObjectPath
	uuid           string
	flags          []string

	mu    sync.Mutex
	value []byte
}

func (d *gattDescriptor) properties() map[string]dbus.Variant {
	d.mu.Lock()
	defer d.mu.Unlock()
	return map[string]dbus.Variant{
		"UUID":           dbus.MakeVariant(d.uuid),
		"Characteristic": dbus.MakeVariant(d.characteristic),
		"Flags":          dbus.MakeVariant(d.flags),
		"Value":          dbus.MakeVariant(d.value),
	}
}

func (d *gattDescriptor) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != gattDescIface {
		return nil, dbus.MakeFailedError(fmt.Errorf("unknown interface %s", iface))
	}
	return d.properties(), nil
}

func (d *gattDescriptor) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.value...), nil
}

func (d *gattDescriptor) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = append([]byte(nil), value...)
	return nil
}

// gattApp is the ObjectManager root BlueZ walks during
// RegisterApplication.
type gattApp struct {
	services []*gattService
}

func (a *gattApp) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	objs := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)
	for _, svc := range a.services {
		objs[svc.path] = map[string]map[string]dbus.Variant{gattServiceIface: svc.properties()}
		for _, c := range svc.chars {
			objs[c.path] = map[string]map[string]dbus.Variant{gattCharIface: c.properties()}
			for _, d := range c.descs {
				objs[d.path] = map[string]map[string]dbus.Variant{gattDescIface: d.properties()}
			}
		}
	}
	return objs, nil
}

// buildGattObjects turns service tables into exportable D-Bus objects
// with deterministic paths and locally minted handles. BlueZ does not
// expose ATT handles over D-Bus.
func buildGattObjects(svcs []hid.ServiceSpec) ([]*gattService, map[uint16]*gattCharacteristic, hid.HandleMap) {
	var services []*gattService
	chars := make(map[uint16]*gattCharacteristic)
	var hm hid.HandleMap
	var next uint16
	for si, spec := range svcs {
		svc := &gattService{
			path: dbus.ObjectPath(fmt.Sprintf("%s/service%d", appPath, si)),
			uuid: spec.UUID.String(),
		}
		var hh []uint16
		for ci, cspec := range spec.Characteristics {
			next++
			c := &gattCharacteristic{
				path:    dbus.ObjectPath(fmt.Sprintf("%s/char%d", svc.path, ci)),
				service: svc.path,
				uuid:    cspec.UUID.String(),
				flags:   propFlags(cspec.Props),
				handle:  next,
				value:   append([]byte(nil), cspec.Value...),
			}
			hh = append(hh, next)
			chars[next] = c
			for di, dspec := range cspec.Descriptors {
				next++
				d := &gattDescriptor{
					path:           dbus.ObjectPath(fmt.Sprintf("%s/desc%d", c.path, di)),
					characteristic: c.path,
					uuid:           dspec.UUID.String(),
					flags:          propFlags(dspec.Props),
					value:          append([]byte(nil), dspec.Value...),
				}
				hh = append(hh, next)
				c.descs = append(c.descs, d)
			}
			svc.chars = append(svc.chars, c)
		}
		hm = append(hm, hh)
		services = append(services, svc)
	}
	return services, chars, hm
}

// RegisterServices exports the service tables as D-Bus objects and
// registers the application with BlueZ, replacing any application a
// previous registration left behind.
func (t *Transport) RegisterServices(svcs []hid.ServiceSpec) (hid.HandleMap, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.registered {
		// A restarted device registers again; replace the previous
		// application.
		call := t.adapterObject().Call(gattManagerIface+".UnregisterApplication", 0, appPath)
		if call.Err != nil {
			return nil, errors.Wrap(call.Err, "unregister stale application")
		}
		t.registered = false
	}

	services, chars, hm := buildGattObjects(svcs)
	t.services = services
	t.chars = make(map[uint16]*gattCharacteristic, len(chars))
	for h, c := range chars {
		c.transport = t
		t.chars[h] = c
	}

	app := &gattApp{services: t.services}
	if err := t.conn.Export(app, appPath, objectManagerIface); err != nil {
		return nil, errors.Wrap(err, "export application")
	}
	for _, svc := range t.services {
		if err := t.exportService(svc); err != nil {
			return nil, err
		}
	}

	call := t.adapterObject().Call(gattManagerIface+".RegisterApplication", 0, appPath, map[string]dbus.Variant{})
	if call.Err != nil {
		return nil, errors.Wrap(call.Err, "register application")
	}
	t.registered = true
	log.Debugf("bluez: registered %d services", len(svcs))
	return hm, nil
}

func (t *Transport) exportService(svc *gattService) error {
	if err := t.conn.Export(svc, svc.path, gattServiceIface); err != nil {
		return errors.Wrap(err, "export service")
	}
	if err := t.conn.Export(svc, svc.path, propsIface); err != nil {
		return errors.Wrap(err, "export service properties")
	}
	for _, c := range svc.chars {
		if err := t.conn.Export(c, c.path, gattCharIface); err != nil {
			return errors.Wrap(err, "export characteristic")
		}
		if err := t.conn.Export(c, c.path, propsIface); err != nil {
			return errors.Wrap(err, "export characteristic properties")
		}
		for _, d := range c.descs {
			if err := t.conn.Export(d, d.path, gattDescIface); err != nil {
				return errors.Wrap(err, "export descriptor")
			}
			if err := t.conn.Export(d, d.path, propsIface); err != nil {
				return errors.Wrap(err, "export descriptor properties")
			}
		}
	}
	return nil
}

// WriteCharacteristic updates the stored value served to reads.
func (t *Transport) WriteCharacteristic(handle uint16, value []byte) error {
	t.mu.Lock()
	c, ok := t.chars[handle]
	t.mu.Unlock()
	if !ok {
		return errors.Errorf("unknown handle %d", handle)
	}
	c.mu.Lock()
	c.value = append([]byte(nil), value...)
	c.mu.Unlock()
	return nil
}

// Notify pushes a value change to the central by emitting a
// PropertiesChanged signal on the characteristic.
func (t *Transport) Notify(handle uint16, value []byte, peer hid.BDAddr) error {
	t.mu.Lock()
	c, ok := t.chars[handle]
	t.mu.Unlock()
	if !ok {
		return errors.Errorf("unknown handle %d", handle)
	}
	c.mu.Lock()
	c.value = append([]byte(nil), value...)
	notifying := c.notifying
	path := c.path
	c.mu.Unlock()
	if !notifying {
		log.Debugf("bluez: notify on %s before StartNotify", path)
	}
	err := t.conn.Emit(path, propsIface+".PropertiesChanged",
		gattCharIface,
		map[string]dbus.Variant{"Value": dbus.MakeVariant(value)},
		[]string{},
	)
	return errors.Wrap(err, "emit value change")
}
