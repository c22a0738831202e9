package hid

// This file includes constants from the BLE and HID specs.

var (
	attrDeviceInformationUUID = UUID16(0x180A) // Device Information Service
	attrBatteryServiceUUID    = UUID16(0x180F) // Battery Service
	attrHIDServiceUUID        = UUID16(0x1812) // Human Interface Device Service

	attrModelNumberUUID      = UUID16(0x2A24)
	attrSerialNumberUUID     = UUID16(0x2A25)
	attrFirmwareRevisionUUID = UUID16(0x2A26)
	attrHardwareRevisionUUID = UUID16(0x2A27)
	attrSoftwareRevisionUUID = UUID16(0x2A28)
	attrManufacturerNameUUID = UUID16(0x2A29)
	attrPnPIDUUID            = UUID16(0x2A50)

	attrBatteryLevelUUID = UUID16(0x2A19)

	attrHIDInformationUUID = UUID16(0x2A4A)
	attrReportMapUUID      = UUID16(0x2A4B)
	attrControlPointUUID   = UUID16(0x2A4C)
	attrReportUUID         = UUID16(0x2A4D)
	attrProtocolModeUUID   = UUID16(0x2A4E)

	attrCCCUUID                = UUID16(0x2902) // Client Characteristic Configuration
	attrPresentationFormatUUID = UUID16(0x2904)
	attrReportReferenceUUID    = UUID16(0x2908)
)

// GAP appearance values.
// https://www.bluetooth.com/specifications/assigned-numbers/
const (
	AppearanceGenericHID uint16 = 960
	AppearanceKeyboard   uint16 = 961
	AppearanceMouse      uint16 = 962
	AppearanceJoystick   uint16 = 963
)

// hidInformation is the HID information characteristic value:
// bcdHID 1.1, country code 0, flags normal.
var hidInformation = []byte{0x01, 0x01, 0x00, 0x02}

// protocolModeReport selects report protocol mode (as opposed to boot mode).
var protocolModeReport = []byte{0x01}

// Report reference descriptor values: report id 1, input/output type.
var (
	reportRefInput  = []byte{0x01, 0x01}
	reportRefOutput = []byte{0x01, 0x02}
)

// batteryPresentationFormat describes the battery level value:
// uint8, exponent 0, unit 0x27AD (percentage), Bluetooth SIG namespace.
var batteryPresentationFormat = []byte{0x04, 0x00, 0xad, 0x27, 0x01, 0x00, 0x00}

// cccDefault is the initial Client Characteristic Configuration value
// (notifications and indications off).
var cccDefault = []byte{0x00, 0x00}
