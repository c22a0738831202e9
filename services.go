package hid

import "github.com/pkg/errors"

// DeviceInfo holds the Device Information Service string
// characteristics.
type DeviceInfo struct {
	ModelNumber      string
	SerialNumber     string
	FirmwareRevision string
	HardwareRevision string
	SoftwareRevision string
	ManufacturerName string
}

// PnPID holds the Device Information Service plug-and-play
// characteristic. VendorIDSource is 0x01 for a vendor ID from the
// Bluetooth SIG list, 0x02 for one from the USB vendor list.
// ProductVersion is 0xJJMN for version JJ.M.N.
type PnPID struct {
	VendorIDSource byte
	VendorID       uint16
	ProductID      uint16
	ProductVersion uint16
}

// marshal packs the PnP ID as <BHHH little-endian.
func (p PnPID) marshal() []byte {
	return []byte{
		p.VendorIDSource,
		byte(p.VendorID), byte(p.VendorID >> 8),
		byte(p.ProductID), byte(p.ProductID >> 8),
		byte(p.ProductVersion), byte(p.ProductVersion >> 8),
	}
}

// buildServices constructs the DIS, BAS and HIDS service tables in
// registration order. The positions of the characteristics are fixed;
// resolveHandles depends on them.
func (d *Device) buildServices() []ServiceSpec {
	dis := ServiceSpec{
		UUID: attrDeviceInformationUUID,
		Characteristics: []CharacteristicSpec{
			{UUID: attrModelNumberUUID, Props: CharRead, Value: []byte(d.Info.ModelNumber)},
			{UUID: attrSerialNumberUUID, Props: CharRead, Value: []byte(d.Info.SerialNumber)},
			{UUID: attrFirmwareRevisionUUID, Props: CharRead, Value: []byte(d.Info.FirmwareRevision)},
			{UUID: attrHardwareRevisionUUID, Props: CharRead, Value: []byte(d.Info.HardwareRevision)},
			{UUID: attrSoftwareRevisionUUID, Props: CharRead, Value: []byte(d.Info.SoftwareRevision)},
			{UUID: attrManufacturerNameUUID, Props: CharRead, Value: []byte(d.Info.ManufacturerName)},
			{UUID: attrPnPIDUUID, Props: CharRead, Value: d.PnP.marshal()},
		},
	}

	bas := ServiceSpec{
		UUID: attrBatteryServiceUUID,
		Characteristics: []CharacteristicSpec{
			{
				UUID:  attrBatteryLevelUUID,
				Props: CharRead | CharNotify,
				Value: []byte{d.battery},
				Descriptors: []DescriptorSpec{
					{UUID: attrCCCUUID, Props: CharRead | CharWrite, Value: cccDefault},
					{UUID: attrPresentationFormatUUID, Props: CharRead, Value: batteryPresentationFormat},
				},
			},
		},
	}

	hids := ServiceSpec{
		UUID: attrHIDServiceUUID,
		Characteristics: []CharacteristicSpec{
			{UUID: attrHIDInformationUUID, Props: CharRead, Value: hidInformation},
			{UUID: attrReportMapUUID, Props: CharRead, Value: d.profile.reportMap},
			{UUID: attrControlPointUUID, Props: CharWriteNR},
			{
				UUID:  attrReportUUID,
				Props: CharRead | CharNotify,
				Value: d.profile.initialReport,
				Descriptors: []DescriptorSpec{
					{UUID: attrCCCUUID, Props: CharRead | CharWrite, Value: cccDefault},
					{UUID: attrReportReferenceUUID, Props: CharRead, Value: reportRefInput},
				},
			},
		},
	}
	if d.profile.withOutputReport {
		hids.Characteristics = append(hids.Characteristics, CharacteristicSpec{
			UUID:  attrReportUUID,
			Props: CharRead | CharWrite | CharWriteNR,
			Descriptors: []DescriptorSpec{
				{UUID: attrReportReferenceUUID, Props: CharRead, Value: reportRefOutput},
			},
		})
	}
	hids.Characteristics = append(hids.Characteristics, CharacteristicSpec{
		UUID:  attrProtocolModeUUID,
		Props: CharRead | CharWriteNR,
		Value: protocolModeReport,
	})

	return []ServiceSpec{dis, bas, hids}
}

// deviceHandles are the attribute handles the device needs after
// registration.
type deviceHandles struct {
	battery uint16 // battery level value
	report  uint16 // HID input report value
	output  uint16 // HID output report value; keyboard only
}

// resolveHandles extracts the handles the device uses at runtime from
// the positional handle map returned by the transport. The positions
// mirror buildServices.
func resolveHandles(hm HandleMap, withOutput bool) (deviceHandles, error) {
	var h deviceHandles
	hidLen := 7 // info, map, ctrl, report, ccc, ref, proto
	if withOutput {
		hidLen = 9 // + output, output ref
	}
	if len(hm) < 3 || len(hm[1]) < 3 || len(hm[2]) < hidLen {
		return h, errors.Errorf("incomplete handle map: %v", hm)
	}
	h.battery = hm[1][0]
	h.report = hm[2][3]
	if withOutput {
		h.output = hm[2][6]
	}
	return h, nil
}
