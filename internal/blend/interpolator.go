// Package blend interpolates hand poses between two snapshots and writes the
// result onto a live hand.
package blend

import (
	"github.com/OCAP2/handpose/pkg/core"
)

// Interpolator blends poses using a fixed weight table.
type Interpolator struct {
	weights Weights
}

// NewInterpolator creates an interpolator with the given weights.
func NewInterpolator(w Weights) *Interpolator {
	return &Interpolator{weights: w}
}

// Weights returns the interpolator's weight table.
func (ip *Interpolator) Weights() Weights {
	return ip.weights
}

// Blend interpolates from -> to by value, stores the result in dst and applies
// it to hand.
//
// Fingers with a zero weight are not written to dst nor to the hand. The hand
// offset and rotation are only touched when one of the hand weights is
// non-zero; in that case both are written to the hand's grab anchor.
func (ip *Interpolator) Blend(dst *core.PoseSnapshot, from, to *core.PoseSnapshot, hand core.Hand, value float64) {
	for _, f := range core.Fingers {
		w := ip.weights.Fingers[f]
		if w == 0 {
			continue
		}
		dst.Fingers[f].Lerp(&from.Fingers[f], &to.Fingers[f], w*value)
		if hand != nil {
			dst.Fingers[f].Apply(hand.Finger(f))
		}
	}

	if !ip.weights.BlendsHand() {
		return
	}

	dst.HandOffset = core.LerpVec3(from.HandOffset, to.HandOffset, value*ip.weights.HandPosition)
	dst.RotationOffset = core.NlerpQuat(from.RotationOffset, to.RotationOffset, value*ip.weights.HandRotation)
	if hand == nil {
		return
	}
	if anchor := hand.GrabAnchor(); anchor != nil {
		anchor.SetLocalRotation(dst.RotationOffset)
		anchor.SetLocalPosition(dst.HandOffset)
	}
}
