package drive

import (
	"testing"

	"github.com/OCAP2/handpose/internal/rig"
	"github.com/OCAP2/handpose/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestResolve_Squeeze(t *testing.T) {
	h := rig.NewHand(1, core.Right)
	h.Squeeze = 0.7
	h.Grip = 0.2

	assert.Equal(t, 0.7, NewResolver(ModeSqueeze, 0).Resolve(h))
}

func TestResolve_Grip(t *testing.T) {
	h := rig.NewHand(1, core.Right)
	h.Squeeze = 0.7
	h.Grip = 0.2

	assert.Equal(t, 0.2, NewResolver(ModeGrip, 0).Resolve(h))
}

func TestResolve_CustomIgnoresAxes(t *testing.T) {
	r := NewResolver(ModeCustom, 0.4)
	h := rig.NewHand(1, core.Left)

	for _, axis := range []float64{0, 0.3, 1} {
		h.Grip = axis
		h.Squeeze = axis
		assert.Equal(t, 0.4, r.Resolve(h))
	}
	assert.Equal(t, 0.4, r.Resolve(nil))
}

func TestResolve_CustomNotClamped(t *testing.T) {
	assert.Equal(t, 1.8, NewResolver(ModeCustom, 1.8).Resolve(nil))
	assert.Equal(t, -0.5, NewResolver(ModeCustom, -0.5).Resolve(nil))
}

func TestResolve_UnknownIsZero(t *testing.T) {
	h := rig.NewHand(1, core.Right)
	h.Squeeze = 1
	h.Grip = 1

	assert.Equal(t, 0.0, NewResolver(ModeUnknown, 5).Resolve(h))
	assert.Equal(t, 0.0, NewResolver(Mode(42), 5).Resolve(h))
}

func TestResolve_NilHandAxisModes(t *testing.T) {
	assert.Equal(t, 0.0, NewResolver(ModeSqueeze, 0).Resolve(nil))
	assert.Equal(t, 0.0, NewResolver(ModeGrip, 0).Resolve(nil))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"squeeze", ModeSqueeze, true},
		{"Grip", ModeGrip, true},
		{" custom ", ModeCustom, true},
		{"trigger", ModeUnknown, false},
		{"", ModeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMode(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "squeeze", ModeSqueeze.String())
	assert.Equal(t, "custom", ModeCustom.String())
	assert.Equal(t, "unknown", Mode(9).String())
}
