// pkg/core/pose.go
package core

import "github.com/go-gl/mathgl/mgl64"

// Finger identifies one of the five fingers of a hand.
type Finger uint8

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerCount is the number of fingers in every snapshot.
const FingerCount = 5

// Fingers lists every finger in snapshot order.
var Fingers = [FingerCount]Finger{Thumb, Index, Middle, Ring, Pinky}

var fingerNames = [FingerCount]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if int(f) < len(fingerNames) {
		return fingerNames[f]
	}
	return "unknown"
}

// Joint identifies a joint along a finger chain, from the palm outwards.
type Joint uint8

const (
	JointKnuckle Joint = iota
	JointMiddle
	JointDistal
	JointTip
)

// JointCount is the number of joints per finger.
const JointCount = 4

// JointPose is the local transform of a single finger joint.
type JointPose struct {
	Position mgl64.Vec3 `json:"position"`
	Rotation mgl64.Quat `json:"rotation"`
}

// IdentityJoint returns a joint at the origin with no rotation.
func IdentityJoint() JointPose {
	return JointPose{Rotation: mgl64.QuatIdent()}
}

// FingerPose holds the joint transforms of one finger.
type FingerPose struct {
	Joints [JointCount]JointPose `json:"joints"`
}

// NewFingerPose returns a finger with every joint at identity.
func NewFingerPose() FingerPose {
	var p FingerPose
	for i := range p.Joints {
		p.Joints[i] = IdentityJoint()
	}
	return p
}

// Lerp sets p to the interpolation between from and to by t.
// t is clamped to [0,1].
func (p *FingerPose) Lerp(from, to *FingerPose, t float64) {
	for i := range p.Joints {
		p.Joints[i] = JointPose{
			Position: LerpVec3(from.Joints[i].Position, to.Joints[i].Position, t),
			Rotation: NlerpQuat(from.Joints[i].Rotation, to.Joints[i].Rotation, t),
		}
	}
}

// Apply writes every joint of p onto rig.
func (p *FingerPose) Apply(rig FingerRig) {
	if rig == nil {
		return
	}
	for i := range p.Joints {
		rig.SetJoint(Joint(i), p.Joints[i])
	}
}

// PoseSnapshot is a full hand pose: five fingers plus the offset of the hand
// relative to its grab anchor.
type PoseSnapshot struct {
	Fingers        [FingerCount]FingerPose `json:"fingers"`
	HandOffset     mgl64.Vec3              `json:"handOffset"`
	RotationOffset mgl64.Quat              `json:"rotationOffset"`
}

// NewPoseSnapshot returns a snapshot with identity rotations everywhere.
func NewPoseSnapshot() PoseSnapshot {
	s := PoseSnapshot{RotationOffset: mgl64.QuatIdent()}
	for i := range s.Fingers {
		s.Fingers[i] = NewFingerPose()
	}
	return s
}

// Finger returns the pose of finger f.
func (s *PoseSnapshot) Finger(f Finger) *FingerPose {
	return &s.Fingers[f]
}

// Apply writes the complete snapshot onto h, fingers and grab anchor.
func (s *PoseSnapshot) Apply(h Hand) {
	for _, f := range Fingers {
		s.Fingers[f].Apply(h.Finger(f))
	}
	if anchor := h.GrabAnchor(); anchor != nil {
		anchor.SetLocalRotation(s.RotationOffset)
		anchor.SetLocalPosition(s.HandOffset)
	}
}
