// Package drive resolves the scalar that drives a pose blend.
package drive

import (
	"strings"

	"github.com/OCAP2/handpose/pkg/core"
)

// Mode selects where the drive value comes from.
type Mode uint8

const (
	// ModeSqueeze reads the hand's secondary grip axis.
	ModeSqueeze Mode = iota
	// ModeGrip reads the hand's primary grip axis.
	ModeGrip
	// ModeCustom uses a fixed configured value.
	ModeCustom
	// ModeUnknown always resolves to 0.
	ModeUnknown
)

func (m Mode) String() string {
	switch m {
	case ModeSqueeze:
		return "squeeze"
	case ModeGrip:
		return "grip"
	case ModeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseMode converts a config string to a Mode. Unrecognised strings map to
// ModeUnknown and ok is false.
func ParseMode(s string) (m Mode, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "squeeze":
		return ModeSqueeze, true
	case "grip":
		return ModeGrip, true
	case "custom":
		return ModeCustom, true
	default:
		return ModeUnknown, false
	}
}

// Resolver maps a hand to its drive value. It is read-only once built and may
// be shared between sessions.
type Resolver struct {
	Mode   Mode
	Custom float64
}

// NewResolver creates a resolver for the given mode and custom value.
func NewResolver(mode Mode, custom float64) Resolver {
	return Resolver{Mode: mode, Custom: custom}
}

// Resolve returns the drive value for hand. The value is not clamped; custom
// values outside [0,1] are passed through unchanged.
func (r Resolver) Resolve(hand core.Hand) float64 {
	switch r.Mode {
	case ModeSqueeze:
		if hand == nil {
			return 0
		}
		return hand.SqueezeAxis()
	case ModeGrip:
		if hand == nil {
			return 0
		}
		return hand.GripAxis()
	case ModeCustom:
		return r.Custom
	default:
		return 0
	}
}
