package blend

import "github.com/OCAP2/handpose/pkg/core"

// Weights holds the per-channel blend multipliers. A finger weight of exactly
// 0 leaves that finger to whatever else animates it.
type Weights struct {
	Fingers      [core.FingerCount]float64
	HandPosition float64
	HandRotation float64
}

// DefaultWeights returns full finger weights and no hand offset blending.
func DefaultWeights() Weights {
	return Weights{Fingers: [core.FingerCount]float64{1, 1, 1, 1, 1}}
}

// Finger returns the weight for f.
func (w Weights) Finger(f core.Finger) float64 {
	return w.Fingers[f]
}

// WithFinger returns a copy of w with the weight of f replaced.
func (w Weights) WithFinger(f core.Finger, v float64) Weights {
	w.Fingers[f] = v
	return w
}

// BlendsHand reports whether either hand offset channel is enabled.
func (w Weights) BlendsHand() bool {
	return w.HandPosition != 0 || w.HandRotation != 0
}
