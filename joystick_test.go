package hid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoystickReport(t *testing.T) {
	cases := []struct {
		name    string
		x, y    int
		buttons []bool
		want    []byte
	}{
		{
			name: "centered",
			want: []byte{0, 0, 0},
		},
		{
			name: "deflected",
			x:    -64, y: 100,
			want: []byte{0xc0, 0x64, 0x00},
		},
		{
			name:    "buttons",
			buttons: []bool{true, false, true},
			want:    []byte{0, 0, 0x05},
		},
		{
			name:    "all eight buttons",
			buttons: []bool{true, true, true, true, true, true, true, true},
			want:    []byte{0, 0, 0xff},
		},
		{
			name:    "extra buttons ignored",
			buttons: []bool{false, false, false, false, false, false, false, false, true, true},
			want:    []byte{0, 0, 0},
		},
		{
			name: "clamped",
			x:    999, y: -999,
			want: []byte{0x7f, 0x81, 0x00},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j := NewJoystick(newFakeTransport(), nil)
			j.SetAxes(tc.x, tc.y)
			j.SetButtons(tc.buttons...)
			assert.Equal(t, tc.want, j.Report())
		})
	}
}

func TestJoystickNotify(t *testing.T) {
	ft := newFakeTransport()
	j := NewJoystick(ft, nil)
	require.NoError(t, j.Start())
	j.HandleEvent(Event{Type: EventConnected, Peer: testPeer()})

	j.SetAxes(10, 20)
	j.SetButtons(true)
	require.NoError(t, j.Notify())
	assert.Equal(t, []byte{0x0a, 0x14, 0x01}, ft.lastNotify(ft.reportHandle()))
}

func TestJoystickAdvertisesAsJoystick(t *testing.T) {
	ft := newFakeTransport()
	j := NewJoystick(ft, nil)
	require.NoError(t, j.Start())

	payload, err := UnmarshalAdvPayload(ft.advPayload)
	require.NoError(t, err)
	assert.Equal(t, AppearanceJoystick, payload.Appearance)
	assert.Equal(t, "Bluetooth Joystick", payload.LocalName)
}
