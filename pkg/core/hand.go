// pkg/core/hand.go
package core

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ActorID is the stable identity of a hand within a session.
type ActorID uint16

// Handedness tells left and right hands apart.
type Handedness uint8

const (
	Right Handedness = iota
	Left
)

func (h Handedness) String() string {
	switch h {
	case Right:
		return "right"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// ParseHandedness converts "right"/"left" (any case) to a Handedness.
func ParseHandedness(s string) (Handedness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "right", "r":
		return Right, nil
	case "left", "l":
		return Left, nil
	default:
		return Right, fmt.Errorf("invalid handedness: %q", s)
	}
}

// FingerRig receives joint transforms for a single finger.
type FingerRig interface {
	SetJoint(j Joint, pose JointPose)
}

// Anchor is the local transform the hand is posed relative to while holding.
type Anchor interface {
	SetLocalPosition(p mgl64.Vec3)
	SetLocalRotation(q mgl64.Quat)
}

// Hand is a posable hand actor.
type Hand interface {
	ID() ActorID
	Handedness() Handedness
	Finger(f Finger) FingerRig
	GrabAnchor() Anchor
	IsGrabbing() bool
	GripAxis() float64
	SqueezeAxis() float64
}

// IKReporter is implemented by hands that expose their IK state.
type IKReporter interface {
	IKEnabled() bool
}
