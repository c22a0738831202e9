package hid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildServices(t *testing.T) {
	kb := NewKeyboard(newFakeTransport(), nil)
	kb.Info.ManufacturerName = "acme"
	kb.SetBatteryLevel(80)

	svcs := kb.buildServices()
	require.Len(t, svcs, 3)

	dis := svcs[0]
	assert.True(t, dis.UUID.Equal(attrDeviceInformationUUID))
	require.Len(t, dis.Characteristics, 7)
	assert.Equal(t, []byte("acme"), dis.Characteristics[5].Value)
	// PnP ID: source, vendor, product, version, little-endian.
	assert.Equal(t, []byte{0x01, 0x61, 0xfe, 0x01, 0x00, 0x23, 0x01}, dis.Characteristics[6].Value)

	bas := svcs[1]
	assert.True(t, bas.UUID.Equal(attrBatteryServiceUUID))
	require.Len(t, bas.Characteristics, 1)
	assert.Equal(t, []byte{80}, bas.Characteristics[0].Value)
	assert.Equal(t, CharRead|CharNotify, bas.Characteristics[0].Props)
	require.Len(t, bas.Characteristics[0].Descriptors, 2)
	assert.True(t, bas.Characteristics[0].Descriptors[0].UUID.Equal(attrCCCUUID))

	hids := svcs[2]
	assert.True(t, hids.UUID.Equal(attrHIDServiceUUID))
	// info, map, control point, input report, output report, protocol mode
	require.Len(t, hids.Characteristics, 6)
	assert.Equal(t, keyboardReportMap, hids.Characteristics[1].Value)

	input := hids.Characteristics[3]
	assert.Equal(t, CharRead|CharNotify, input.Props)
	require.Len(t, input.Descriptors, 2)
	assert.Equal(t, reportRefInput, input.Descriptors[1].Value)

	output := hids.Characteristics[4]
	assert.Equal(t, CharRead|CharWrite|CharWriteNR, output.Props)
	require.Len(t, output.Descriptors, 1)
	assert.Equal(t, reportRefOutput, output.Descriptors[0].Value)
}

func TestBuildServicesWithoutOutputReport(t *testing.T) {
	m := NewMouse(newFakeTransport(), nil)
	svcs := m.buildServices()
	require.Len(t, svcs, 3)
	// info, map, control point, input report, protocol mode
	assert.Len(t, svcs[2].Characteristics, 5)
}

func TestResolveHandles(t *testing.T) {
	hm := HandleMap{
		{1, 2, 3, 4, 5, 6, 7},
		{8, 9, 10},
		{11, 12, 13, 14, 15, 16, 17, 18, 19},
	}

	h, err := resolveHandles(hm, true)
	require.NoError(t, err)
	assert.Equal(t, uint16(8), h.battery)
	assert.Equal(t, uint16(14), h.report)
	assert.Equal(t, uint16(17), h.output)

	h, err = resolveHandles(HandleMap{
		{1, 2, 3, 4, 5, 6, 7},
		{8, 9, 10},
		{11, 12, 13, 14, 15, 16, 17},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), h.output)

	_, err = resolveHandles(HandleMap{{1}}, false)
	assert.Error(t, err)

	// A map shaped for the plain table is too short once the output
	// report is expected.
	_, err = resolveHandles(HandleMap{
		{1, 2, 3, 4, 5, 6, 7},
		{8, 9, 10},
		{11, 12, 13, 14, 15, 16, 17},
	}, true)
	assert.Error(t, err)
}

func TestPnPIDMarshal(t *testing.T) {
	p := PnPID{VendorIDSource: 0x02, VendorID: 0x1234, ProductID: 0xabcd, ProductVersion: 0x0100}
	assert.Equal(t, []byte{0x02, 0x34, 0x12, 0xcd, 0xab, 0x00, 0x01}, p.marshal())
}
