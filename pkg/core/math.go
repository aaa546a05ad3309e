// pkg/core/math.go
package core

import "github.com/go-gl/mathgl/mgl64"

// LerpVec3 linearly interpolates between a and b. t is clamped to [0,1].
func LerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	t = mgl64.Clamp(t, 0, 1)
	return a.Add(b.Sub(a).Mul(t))
}

// NlerpQuat interpolates between a and b along the shortest arc and
// normalizes the result. t is clamped to [0,1].
func NlerpQuat(a, b mgl64.Quat, t float64) mgl64.Quat {
	t = mgl64.Clamp(t, 0, 1)
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatNlerp(a, b, t)
}
