// Package rig provides an in-memory hand rig used by the simulator and tests.
// It records the last transform written to every joint and to the grab anchor.
package rig

import (
	"github.com/OCAP2/handpose/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// Finger stores the joint transforms written to one finger.
type Finger struct {
	Joints [core.JointCount]core.JointPose
	writes int
}

// SetJoint implements core.FingerRig.
func (f *Finger) SetJoint(j core.Joint, pose core.JointPose) {
	f.Joints[j] = pose
	f.writes++
}

// Writes returns how many joint writes the finger has received.
func (f *Finger) Writes() int {
	return f.writes
}

// Anchor stores the grab anchor local transform.
type Anchor struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	writes   int
}

// SetLocalPosition implements core.Anchor.
func (a *Anchor) SetLocalPosition(p mgl64.Vec3) {
	a.Position = p
	a.writes++
}

// SetLocalRotation implements core.Anchor.
func (a *Anchor) SetLocalRotation(q mgl64.Quat) {
	a.Rotation = q
	a.writes++
}

// Writes returns how many transform writes the anchor has received.
func (a *Anchor) Writes() int {
	return a.writes
}

// Hand is a plain hand actor. Axis values and the grabbing flag are set
// directly by the owner.
type Hand struct {
	id      core.ActorID
	side    core.Handedness
	fingers [core.FingerCount]*Finger
	anchor  *Anchor

	Grabbing bool
	Grip     float64
	Squeeze  float64
	IK       bool
}

// NewHand creates a hand whose joints and anchor start at identity.
func NewHand(id core.ActorID, side core.Handedness) *Hand {
	h := &Hand{
		id:     id,
		side:   side,
		anchor: &Anchor{Rotation: mgl64.QuatIdent()},
		IK:     true,
	}
	for i := range h.fingers {
		f := &Finger{}
		for j := range f.Joints {
			f.Joints[j] = core.IdentityJoint()
		}
		h.fingers[i] = f
	}
	return h
}

// ID implements core.Hand.
func (h *Hand) ID() core.ActorID { return h.id }

// Handedness implements core.Hand.
func (h *Hand) Handedness() core.Handedness { return h.side }

// Finger implements core.Hand.
func (h *Hand) Finger(f core.Finger) core.FingerRig { return h.fingers[f] }

// GrabAnchor implements core.Hand.
func (h *Hand) GrabAnchor() core.Anchor { return h.anchor }

// IsGrabbing implements core.Hand.
func (h *Hand) IsGrabbing() bool { return h.Grabbing }

// GripAxis implements core.Hand.
func (h *Hand) GripAxis() float64 { return h.Grip }

// SqueezeAxis implements core.Hand.
func (h *Hand) SqueezeAxis() float64 { return h.Squeeze }

// IKEnabled implements core.Hand.
func (h *Hand) IKEnabled() bool { return h.IK }

// FingerState returns the concrete finger for inspection.
func (h *Hand) FingerState(f core.Finger) *Finger {
	return h.fingers[f]
}

// AnchorState returns the concrete anchor for inspection.
func (h *Hand) AnchorState() *Anchor {
	return h.anchor
}
