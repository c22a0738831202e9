package hid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyboardReport(t *testing.T) {
	cases := []struct {
		name string
		mods byte
		keys []byte
		want []byte
	}{
		{
			name: "empty",
			want: []byte{0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "two keys",
			keys: []byte{0x04, 0x05},
			want: []byte{0, 0, 0x04, 0x05, 0, 0, 0, 0},
		},
		{
			name: "full rollover",
			keys: []byte{1, 2, 3, 4, 5, 6},
			want: []byte{0, 0, 1, 2, 3, 4, 5, 6},
		},
		{
			name: "shifted letter",
			mods: ModLeftShift,
			keys: []byte{0x04},
			want: []byte{0x02, 0, 0x04, 0, 0, 0, 0, 0},
		},
		{
			name: "modifiers only",
			mods: ModLeftControl | ModRightAlt,
			want: []byte{0x41, 0, 0, 0, 0, 0, 0, 0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kb := NewKeyboard(newFakeTransport(), nil)
			kb.SetModifiers(tc.mods)
			require.NoError(t, kb.SetKeys(tc.keys...))
			assert.Equal(t, tc.want, kb.Report())
		})
	}
}

func TestKeyboardSetKeysClearsSlots(t *testing.T) {
	kb := NewKeyboard(newFakeTransport(), nil)
	require.NoError(t, kb.SetKeys(1, 2, 3, 4, 5, 6))
	require.NoError(t, kb.SetKeys(9))
	assert.Equal(t, []byte{0, 0, 9, 0, 0, 0, 0, 0}, kb.Report())

	require.NoError(t, kb.SetKeys())
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, kb.Report())
}

func TestKeyboardTooManyKeys(t *testing.T) {
	kb := NewKeyboard(newFakeTransport(), nil)
	err := kb.SetKeys(1, 2, 3, 4, 5, 6, 7)
	require.Error(t, err)
	// The report is untouched on error.
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, kb.Report())
}

func TestKeyboardNotify(t *testing.T) {
	ft := newFakeTransport()
	kb := NewKeyboard(ft, nil)
	require.NoError(t, kb.Start())
	kb.HandleEvent(Event{Type: EventConnected, Peer: testPeer()})

	kb.SetModifiers(ModLeftShift)
	require.NoError(t, kb.SetKeys(0x04))
	require.NoError(t, kb.Notify())

	assert.Equal(t, []byte{0x02, 0, 0x04, 0, 0, 0, 0, 0}, ft.lastNotify(ft.reportHandle()))
}

func TestKeyboardOutputReport(t *testing.T) {
	ft := newFakeTransport()
	kb := NewKeyboard(ft, nil)

	var got []byte
	kb.SetOutputReportFunc(func(data []byte) {
		got = append([]byte(nil), data...)
	})

	require.NoError(t, kb.Start())
	kb.HandleEvent(Event{Type: EventConnected, Peer: testPeer()})

	kb.HandleEvent(Event{
		Type:   EventCharacteristicWritten,
		Peer:   testPeer(),
		Handle: ft.outputHandle(),
		Data:   []byte{0x02}, // caps lock LED
	})
	assert.Equal(t, []byte{0x02}, got)

	// Writes to other handles are not the LED report.
	got = nil
	kb.HandleEvent(Event{
		Type:   EventCharacteristicWritten,
		Peer:   testPeer(),
		Handle: ft.reportHandle(),
		Data:   []byte{0xff},
	})
	assert.Nil(t, got)
}
