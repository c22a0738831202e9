package hid

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// A UUID is a BLE UUID.
type UUID struct {
	// Hide the bytes, so that we can enforce
	// that they are all 2 or 16 bytes long.
	b []byte
}

// UUID16 converts a uint16 (such as 0x1812) to a UUID.
func UUID16(i uint16) UUID {
	return UUID{[]byte{byte(i >> 8), byte(i)}}
}

// ParseUUID parses a standard-format UUID string, such
// as "1812" or "34b1cf4d-1069-4ad6-89b6-e161d79be4d8".
func ParseUUID(s string) (UUID, error) {
	s = strings.Replace(s, "-", "", -1)
	b, err := hex.DecodeString(s)
	if err != nil {
		return UUID{}, err
	}
	if err := lengthErr(len(b)); err != nil {
		return UUID{}, err
	}
	return UUID{b}, nil
}

// MustParseUUID parses a standard-format UUID string,
// like ParseUUID, but panics in case of error.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// lengthErr returns an error if n is an invalid UUID length.
func lengthErr(n int) error {
	switch n {
	case 2, 16:
		return nil
	}
	return fmt.Errorf("UUIDs must have length 2 or 16, got %d", n)
}

// Len returns the length of the UUID, in bytes.
// BLE UUIDs are either 2 or 16 bytes.
func (u UUID) Len() int {
	return len(u.b)
}

// String hex-encodes a UUID.
func (u UUID) String() string {
	return fmt.Sprintf("%x", u.b)
}

// Equal reports whether u and v are equal.
func (u UUID) Equal(v UUID) bool {
	return uuidEqual(u, v)
}

func uuidEqual(u, v UUID) bool {
	if len(u.b) != len(v.b) {
		return false
	}
	for i, b := range u.b {
		if b != v.b[i] {
			return false
		}
	}
	return true
}

// reverseBytes returns a new slice containing the
// bytes of the UUID in reverse order, as they appear
// on the wire in advertising data.
func (u UUID) reverseBytes() []byte {
	return reverse(u.b)
}

// reverse returns a new slice of the bytes of b in reverse order.
func reverse(b []byte) []byte {
	r := make([]byte, len(b))
	for i, bb := range b {
		r[len(b)-1-i] = bb
	}
	return r
}
