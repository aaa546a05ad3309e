package main

import (
	"github.com/OCAP2/handpose/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// curl angles in degrees per joint, knuckle to tip
var (
	fingerCurl = [core.JointCount]float64{70, 95, 65, 0}
	thumbCurl  = [core.JointCount]float64{25, 45, 40, 0}
)

var (
	curlAxis  = mgl64.Vec3{1, 0, 0}
	thumbAxis = mgl64.Vec3{0, 0, 1}
)

// openPose is a flat hand.
func openPose() core.PoseSnapshot {
	return core.NewPoseSnapshot()
}

// closedPose is a fist with the thumb folded over the fingers.
func closedPose() core.PoseSnapshot {
	snap := core.NewPoseSnapshot()
	for _, f := range core.Fingers {
		angles, axis := fingerCurl, curlAxis
		if f == core.Thumb {
			angles, axis = thumbCurl, thumbAxis
		}
		for j := range snap.Fingers[f].Joints {
			snap.Fingers[f].Joints[j].Rotation = mgl64.QuatRotate(mgl64.DegToRad(angles[j]), axis)
		}
	}
	snap.HandOffset = mgl64.Vec3{0, -0.01, 0.02}
	return snap
}
