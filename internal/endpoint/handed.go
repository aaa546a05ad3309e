package endpoint

import "github.com/OCAP2/handpose/pkg/core"

// HandedSource holds an optional right and left snapshot and serves the one
// matching each hand.
type HandedSource struct {
	Right    core.PoseSnapshot
	Left     core.PoseSnapshot
	RightSet bool
	LeftSet  bool
}

// NewHandedSource creates a source from optional right and left snapshots.
func NewHandedSource(right, left *core.PoseSnapshot) *HandedSource {
	s := &HandedSource{}
	if right != nil {
		s.SetPose(core.Right, *right)
	}
	if left != nil {
		s.SetPose(core.Left, *left)
	}
	return s
}

// SetPose stores the snapshot for one side.
func (s *HandedSource) SetPose(side core.Handedness, snap core.PoseSnapshot) {
	switch side {
	case core.Right:
		s.Right, s.RightSet = snap, true
	case core.Left:
		s.Left, s.LeftSet = snap, true
	}
}

// SnapshotFor implements PoseSource.
func (s *HandedSource) SnapshotFor(hand core.Hand) (core.PoseSnapshot, bool) {
	if hand == nil {
		return core.PoseSnapshot{}, false
	}
	switch hand.Handedness() {
	case core.Right:
		return s.Right, s.RightSet
	case core.Left:
		return s.Left, s.LeftSet
	default:
		return core.PoseSnapshot{}, false
	}
}

// Default implements PoseSource, preferring the right hand pose.
func (s *HandedSource) Default() (core.PoseSnapshot, bool) {
	if s.RightSet {
		return s.Right, true
	}
	if s.LeftSet {
		return s.Left, true
	}
	return core.PoseSnapshot{}, false
}
