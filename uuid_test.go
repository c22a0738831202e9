package hid

import (
	"bytes"
	"testing"
)

func TestUUID16(t *testing.T) {
	if want, got := (UUID{[]byte{0x18, 0x12}}), UUID16(0x1812); !got.Equal(want) {
		t.Errorf("UUID16: got %x, want %x", got, want)
	}
}

func TestParseUUID(t *testing.T) {
	cases := []struct {
		s       string
		wantLen int
		wantErr bool
	}{
		{s: "1812", wantLen: 2},
		{s: "34b1cf4d-1069-4ad6-89b6-e161d79be4d8", wantLen: 16},
		{s: "341069", wantErr: true},
		{s: "zzzz", wantErr: true},
	}
	for _, tt := range cases {
		u, err := ParseUUID(tt.s)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseUUID(%q): expected error", tt.s)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseUUID(%q): %v", tt.s, err)
			continue
		}
		if u.Len() != tt.wantLen {
			t.Errorf("ParseUUID(%q): got len %d want %d", tt.s, u.Len(), tt.wantLen)
		}
	}
}

func TestReverse(t *testing.T) {
	cases := []struct {
		fwd  []byte
		back []byte
	}{
		{fwd: []byte{0, 1}, back: []byte{1, 0}},
		{fwd: []byte{0, 1, 2}, back: []byte{2, 1, 0}},
		{fwd: []byte{0, 1, 2, 3}, back: []byte{3, 2, 1, 0}},
		{
			fwd:  []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			back: []byte{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		},
	}

	for _, tt := range cases {
		got := reverse(tt.fwd)
		if !bytes.Equal(got, tt.back) {
			t.Errorf("reverse(%x): got %x want %x", tt.fwd, got, tt.back)
		}

		u := UUID{tt.fwd}
		got = u.reverseBytes()
		if !bytes.Equal(got, tt.back) {
			t.Errorf("UUID.reverseBytes(%x): got %x want %x", tt.fwd, got, tt.back)
		}
	}
}
