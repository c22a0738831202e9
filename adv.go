package hid

import "errors"

// MaxAdvPayloadLength is the maximum allowed length of a legacy
// BLE advertising payload.
const MaxAdvPayloadLength = 31

// ErrAdvPayloadTooLarge is the error returned when an advertising
// payload cannot be encoded within MaxAdvPayloadLength bytes even
// after dropping all optional fields.
var ErrAdvPayloadTooLarge = errors.New("advertising payload exceeds 31 bytes")

// ErrMalformedAdvPayload is the error returned when decoding an
// advertising payload with a field length that runs past the end
// of the buffer.
var ErrMalformedAdvPayload = errors.New("malformed advertising payload")

// advertising data field types
const (
	typeFlags        = 0x01 // flags
	typeSomeUUID16   = 0x02 // more 16-bit UUIDs available
	typeAllUUID16    = 0x03 // complete list of 16-bit UUIDs available
	typeSomeUUID32   = 0x04 // more 32-bit UUIDs available
	typeAllUUID32    = 0x05 // complete list of 32-bit UUIDs available
	typeSomeUUID128  = 0x06 // more 128-bit UUIDs available
	typeAllUUID128   = 0x07 // complete list of 128-bit UUIDs available
	typeShortName    = 0x08 // shortened local name
	typeCompleteName = 0x09 // complete local name
	typeAppearance   = 0x19 // appearance
)

// flag bits
const (
	flagLimitedDiscoverable = 1 << 0 // LE Limited Discoverable Mode
	flagGeneralDiscoverable = 1 << 1 // LE General Discoverable Mode
	flagLEOnly              = 1 << 2 // BR/EDR not supported
)

// An AdvPayload describes the data a peripheral broadcasts while
// advertising: discoverability flags, an optional GAP appearance,
// an optional local name, and the advertised service UUIDs.
type AdvPayload struct {
	// LimitedDiscoverable selects LE Limited Discoverable Mode
	// instead of General Discoverable Mode.
	LimitedDiscoverable bool

	// Appearance is the GAP appearance value, e.g. AppearanceKeyboard.
	// Zero means no appearance field is encoded.
	Appearance uint16

	// LocalName is the complete local name. Empty means no name field.
	LocalName string

	// Services lists the advertised service UUIDs.
	Services []UUID
}

// Marshal encodes the payload to advertising data bytes.
//
// Fields are encoded in a fixed order: flags, appearance, service
// UUIDs, name. If the encoded form would exceed MaxAdvPayloadLength,
// optional fields are dropped in priority order: first the name,
// then service UUIDs (later ones first), then the appearance.
// The flags field is never dropped.
func (p *AdvPayload) Marshal() ([]byte, error) {
	flags := byte(flagGeneralDiscoverable | flagLEOnly)
	if p.LimitedDiscoverable {
		flags = flagLimitedDiscoverable | flagLEOnly
	}

	services := p.Services
	withAppearance := p.Appearance != 0
	withName := p.LocalName != ""

	for {
		adv := new(advPacket)
		adv.appendField(typeFlags, []byte{flags})
		if withAppearance {
			adv.appendField(typeAppearance, []byte{byte(p.Appearance), byte(p.Appearance >> 8)})
		}
		fit := true
		for _, u := range services {
			if !adv.appendUUIDFit(u) {
				fit = false
			}
		}
		if fit && withName {
			fit = adv.appendNameFit(p.LocalName)
		}
		if fit && len(adv.data) <= MaxAdvPayloadLength {
			return adv.data, nil
		}

		// Too large: drop the lowest-priority field still present
		// and retry.
		switch {
		case withName:
			withName = false
		case len(services) > 0:
			services = services[:len(services)-1]
		case withAppearance:
			withAppearance = false
		default:
			return nil, ErrAdvPayloadTooLarge
		}
	}
}

// UnmarshalAdvPayload decodes advertising data bytes into an
// AdvPayload. Unknown field types are skipped, so payloads produced
// by newer encoders still decode, and a zero length byte ends the
// walk, since advertising buffers are commonly zero-padded to their
// full 31 bytes. A field length running past the end of the buffer
// yields ErrMalformedAdvPayload.
func UnmarshalAdvPayload(b []byte) (*AdvPayload, error) {
	p := &AdvPayload{}
	for len(b) > 0 {
		l := int(b[0])
		if l == 0 {
			break
		}
		if len(b) < 1+l {
			return nil, ErrMalformedAdvPayload
		}
		t := b[1]
		d := b[2 : 1+l]
		switch t {
		case typeFlags:
			if len(d) < 1 {
				return nil, ErrMalformedAdvPayload
			}
			p.LimitedDiscoverable = d[0]&flagLimitedDiscoverable != 0
		case typeAppearance:
			if len(d) < 2 {
				return nil, ErrMalformedAdvPayload
			}
			p.Appearance = uint16(d[0]) | uint16(d[1])<<8
		case typeShortName, typeCompleteName:
			p.LocalName = string(d)
		case typeSomeUUID16, typeAllUUID16:
			p.Services = appendUUIDList(p.Services, d, 2)
		case typeSomeUUID128, typeAllUUID128:
			p.Services = appendUUIDList(p.Services, d, 16)
		default:
			// Skip unknown field types; forward compatible.
		}
		b = b[1+l:]
	}
	return p, nil
}

// appendUUIDList appends the w-byte wire-order UUIDs packed in d to u.
func appendUUIDList(u []UUID, d []byte, w int) []UUID {
	for len(d) >= w {
		u = append(u, UUID{reverse(d[:w])})
		d = d[w:]
	}
	return u
}

type advPacket struct {
	data []byte
}

// appendField appends a BLE advertising packet field.
// A field consists of len, typ, data.
// Len is 1 byte for typ plus len(data).
func (p *advPacket) appendField(typ byte, data []byte) {
	p.data = append(p.data, byte(len(data)+1))
	p.data = append(p.data, typ)
	p.data = append(p.data, data...)
}

// appendNameFit appends a complete local name field if it fits
// in the packet, and reports whether it fit.
func (p *advPacket) appendNameFit(name string) bool {
	if len(p.data)+2+len(name) > MaxAdvPayloadLength {
		return false
	}
	p.appendField(typeCompleteName, []byte(name))
	return true
}

// appendUUIDFit appends an advertised service UUID field if it
// fits in the packet, and reports whether the UUID fit.
func (p *advPacket) appendUUIDFit(u UUID) bool {
	if len(p.data)+u.Len()+2 > MaxAdvPayloadLength {
		return false
	}
	switch u.Len() {
	case 2:
		p.appendField(typeAllUUID16, u.reverseBytes())
	case 16:
		p.appendField(typeAllUUID128, u.reverseBytes())
	}
	return true
}
