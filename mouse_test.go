package hid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMouseReport(t *testing.T) {
	cases := []struct {
		name                string
		x, y, w             int
		left, right, middle bool
		want                []byte
	}{
		{
			name: "idle",
			want: []byte{0, 0, 0, 0},
		},
		{
			name: "motion",
			x:    -5, y: 120, w: -1,
			want: []byte{0x00, 0xfb, 0x78, 0xff},
		},
		{
			name: "left drag",
			x:    1, y: 1, left: true,
			want: []byte{0x01, 0x01, 0x01, 0x00},
		},
		{
			name:  "all buttons",
			left:  true,
			right: true, middle: true,
			want: []byte{0x07, 0, 0, 0},
		},
		{
			name: "clamped",
			x:    300, y: -300, w: 1000,
			want: []byte{0x00, 0x7f, 0x81, 0x7f},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMouse(newFakeTransport(), nil)
			m.SetAxes(tc.x, tc.y)
			m.SetWheel(tc.w)
			m.SetButtons(tc.left, tc.right, tc.middle)
			assert.Equal(t, tc.want, m.Report())
		})
	}
}

func TestMouseButtonRelease(t *testing.T) {
	m := NewMouse(newFakeTransport(), nil)
	m.SetButtons(true, true, true)
	m.SetButtons(false, true, false)
	assert.Equal(t, []byte{ButtonRight, 0, 0, 0}, m.Report())
}

func TestClampAxis(t *testing.T) {
	assert.Equal(t, int8(0), clampAxis(0))
	assert.Equal(t, int8(127), clampAxis(127))
	assert.Equal(t, int8(127), clampAxis(128))
	assert.Equal(t, int8(-127), clampAxis(-127))
	assert.Equal(t, int8(-127), clampAxis(-128))
	assert.Equal(t, int8(-42), clampAxis(-42))
}
