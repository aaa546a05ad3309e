// Package curve implements keyframed scalar remapping curves.
//
// Segments between keys are cubic Hermite splines driven by each key's
// in and out tangents. Outside the key range the curve either holds the end
// values or extends the end tangents, depending on its WrapMode.
package curve

import (
	"fmt"
	"slices"
	"strings"
)

// Key is a single curve keyframe.
type Key struct {
	Time       float64 `json:"time" mapstructure:"time"`
	Value      float64 `json:"value" mapstructure:"value"`
	InTangent  float64 `json:"inTangent" mapstructure:"inTangent"`
	OutTangent float64 `json:"outTangent" mapstructure:"outTangent"`
}

// WrapMode controls evaluation outside the key range.
type WrapMode uint8

const (
	// WrapClamp holds the first/last key value.
	WrapClamp WrapMode = iota
	// WrapLinear extends the first/last key along its tangent.
	WrapLinear
)

func (w WrapMode) String() string {
	if w == WrapLinear {
		return "linear"
	}
	return "clamp"
}

// ParseWrapMode converts a config string to a WrapMode.
func ParseWrapMode(s string) (WrapMode, error) {
	switch strings.ToLower(s) {
	case "", "clamp":
		return WrapClamp, nil
	case "linear":
		return WrapLinear, nil
	default:
		return WrapClamp, fmt.Errorf("unknown wrap mode: %q", s)
	}
}

// Curve maps a scalar input to a scalar output. The zero value evaluates to 0
// everywhere.
type Curve struct {
	keys []Key
	wrap WrapMode
}

// New creates a curve from keys, sorted by time.
func New(wrap WrapMode, keys ...Key) *Curve {
	k := slices.Clone(keys)
	slices.SortStableFunc(k, func(a, b Key) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return &Curve{keys: k, wrap: wrap}
}

// Linear returns a straight line from (t0,v0) to (t1,v1).
func Linear(t0, v0, t1, v1 float64) *Curve {
	var slope float64
	if t1 != t0 {
		slope = (v1 - v0) / (t1 - t0)
	}
	return New(WrapClamp,
		Key{Time: t0, Value: v0, InTangent: slope, OutTangent: slope},
		Key{Time: t1, Value: v1, InTangent: slope, OutTangent: slope},
	)
}

// Default is the identity mapping on [0,1].
func Default() *Curve {
	return Linear(0, 0, 1, 1)
}

// Keys returns a copy of the curve keys.
func (c *Curve) Keys() []Key {
	return slices.Clone(c.keys)
}

// Wrap returns the curve wrap mode.
func (c *Curve) Wrap() WrapMode {
	return c.wrap
}

// Evaluate returns the curve value at t.
func (c *Curve) Evaluate(t float64) float64 {
	if c == nil || len(c.keys) == 0 {
		return 0
	}

	first, last := c.keys[0], c.keys[len(c.keys)-1]
	if len(c.keys) == 1 {
		return first.Value
	}

	if t <= first.Time {
		if c.wrap == WrapLinear {
			return first.Value + (t-first.Time)*first.InTangent
		}
		return first.Value
	}
	if t >= last.Time {
		if c.wrap == WrapLinear {
			return last.Value + (t-last.Time)*last.OutTangent
		}
		return last.Value
	}

	// first key with Time > t; t is strictly inside the range so i >= 1
	i, _ := slices.BinarySearchFunc(c.keys, t, func(k Key, t float64) int {
		if k.Time <= t {
			return -1
		}
		return 1
	})
	return hermite(c.keys[i-1], c.keys[i], t)
}

func hermite(k0, k1 Key, t float64) float64 {
	dt := k1.Time - k0.Time
	if dt == 0 {
		return k1.Value
	}
	s := (t - k0.Time) / dt

	// straight segments interpolate directly so linear keys map exactly
	slope := (k1.Value - k0.Value) / dt
	if k0.OutTangent == slope && k1.InTangent == slope {
		return k0.Value + s*(k1.Value-k0.Value)
	}

	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return h00*k0.Value + h10*dt*k0.OutTangent + h01*k1.Value + h11*dt*k1.InTangent
}
