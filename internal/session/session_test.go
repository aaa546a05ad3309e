package session

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/OCAP2/handpose/internal/blend"
	"github.com/OCAP2/handpose/internal/channel"
	"github.com/OCAP2/handpose/internal/curve"
	"github.com/OCAP2/handpose/internal/drive"
	"github.com/OCAP2/handpose/internal/endpoint"
	"github.com/OCAP2/handpose/internal/rig"
	"github.com/OCAP2/handpose/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleLog struct {
	samples []Sample
}

func (l *sampleLog) ObserveBlend(s Sample) {
	l.samples = append(l.samples, s)
}

func (l *sampleLog) actors() []core.ActorID {
	out := make([]core.ActorID, 0, len(l.samples))
	for _, s := range l.samples {
		out = append(out, s.Actor)
	}
	return out
}

func curled(deg float64, offset mgl64.Vec3) core.PoseSnapshot {
	s := core.NewPoseSnapshot()
	q := mgl64.QuatRotate(mgl64.DegToRad(deg), mgl64.Vec3{1, 0, 0})
	for f := range s.Fingers {
		for j := range s.Fingers[f].Joints {
			s.Fingers[f].Joints[j].Rotation = q
		}
	}
	s.HandOffset = offset
	return s
}

func angleDeg(q mgl64.Quat) float64 {
	return mgl64.RadToDeg(2 * math.Acos(mgl64.Clamp(math.Abs(q.W), -1, 1)))
}

type fixture struct {
	from, to *endpoint.Endpoint
	trigger  *channel.Level
	observer *sampleLog
	session  *Session
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	open := curled(0, mgl64.Vec3{0, 0, 0})
	closed := curled(45, mgl64.Vec3{0, 0, 0.02})

	f := &fixture{
		from:     endpoint.New(endpoint.From, endpoint.NewHandedSource(&open, &open)),
		to:       endpoint.New(endpoint.To, endpoint.NewHandedSource(&closed, &closed)),
		trigger:  channel.NewLevel("trigger"),
		observer: &sampleLog{},
	}
	cfg.Channels = append(cfg.Channels, f.trigger)
	f.session = New(Dependencies{
		From:     f.from,
		To:       f.to,
		Config:   cfg,
		Observer: f.observer,
	})
	f.session.Init()
	return f
}

func customConfig(v float64) Config {
	cfg := DefaultConfig()
	cfg.Resolver = drive.NewResolver(drive.ModeCustom, v)
	return cfg
}

func TestTick_HalfwayScenario(t *testing.T) {
	cfg := customConfig(0.5)
	cfg.Weights.HandPosition = 1
	f := newFixture(t, cfg)

	hand := rig.NewHand(1, core.Right)
	f.to.Attach(hand)

	f.session.Tick()

	cur := f.session.Current()
	for _, finger := range core.Fingers {
		for j := range cur.Fingers[finger].Joints {
			assert.InDelta(t, 22.5, angleDeg(cur.Fingers[finger].Joints[j].Rotation), 1e-9)
			assert.InDelta(t, 22.5, angleDeg(hand.FingerState(finger).Joints[j].Rotation), 1e-9)
		}
	}
	assert.InDelta(t, 0.01, cur.HandOffset.Z(), 1e-12)
	assert.InDelta(t, 0.01, hand.AnchorState().Position.Z(), 1e-12)
	assert.Equal(t, 0.5, f.trigger.Value())
	assert.Equal(t, Animating, f.session.State())
	assert.Equal(t, 1, f.session.ActiveCount())
}

func TestTick_SqueezeDrivesBlend(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	hand := rig.NewHand(1, core.Left)
	hand.Squeeze = 1
	f.from.Attach(hand)

	f.session.Tick()

	assert.InDelta(t, 45, angleDeg(hand.FingerState(core.Ring).Joints[core.JointTip].Rotation), 1e-9)
	assert.Equal(t, 1.0, f.trigger.Value())
}

func TestTick_NotInitializedIsNoop(t *testing.T) {
	f := newFixture(t, customConfig(1))
	f.session.Teardown()
	hand := rig.NewHand(1, core.Right)
	f.from.Attach(hand)

	f.session.Tick()

	assert.Zero(t, hand.FingerState(core.Index).Writes())
	assert.Zero(t, f.trigger.Calls())
	assert.False(t, f.session.Enabled())
}

func TestTick_NoHandsIsNoop(t *testing.T) {
	f := newFixture(t, customConfig(1))

	f.session.Tick()
	f.session.Tick()

	assert.Zero(t, f.trigger.Calls())
	assert.Equal(t, Idle, f.session.State())
	assert.Equal(t, uint64(2), f.session.Frame())
}

func TestTick_GrabbingHandExcluded(t *testing.T) {
	f := newFixture(t, customConfig(1))
	hand := rig.NewHand(1, core.Right)
	hand.Grabbing = true
	f.from.Attach(hand)
	f.to.Attach(hand)

	f.session.Tick()
	f.session.Tick()

	assert.Zero(t, hand.FingerState(core.Thumb).Writes())
	assert.Zero(t, hand.AnchorState().Writes())
	assert.Zero(t, f.trigger.Calls())
	assert.Equal(t, 1, f.session.ActiveCount(), "grabbing hands still count as active")

	hand.Grabbing = false
	f.session.Tick()
	assert.Equal(t, core.JointCount, hand.FingerState(core.Thumb).Writes())
}

func TestTick_ResetsChannelsWhenLastHandLeaves(t *testing.T) {
	f := newFixture(t, customConfig(0.8))
	hand := rig.NewHand(1, core.Right)
	f.to.Attach(hand)

	f.session.Tick()
	require.Equal(t, 0.8, f.trigger.Value())
	require.Equal(t, 1, f.trigger.Calls())

	f.to.Detach(hand.ID())
	f.session.Tick()
	assert.Equal(t, 0.0, f.trigger.Value())
	assert.Equal(t, 2, f.trigger.Calls())
	assert.Equal(t, Idle, f.session.State())

	// stays untouched while idle
	f.session.Tick()
	f.session.Tick()
	assert.Equal(t, 2, f.trigger.Calls())

	// reactivation drives it again
	f.from.Attach(hand)
	f.session.Tick()
	assert.Equal(t, 0.8, f.trigger.Value())
	assert.Equal(t, 3, f.trigger.Calls())
}

func TestTick_ResetAfterGrabbingOnlyFrame(t *testing.T) {
	f := newFixture(t, customConfig(0.8))
	hand := rig.NewHand(1, core.Right)
	hand.Grabbing = true
	f.to.Attach(hand)

	f.session.Tick()
	f.to.Detach(hand.ID())
	f.session.Tick()

	// the hand was active, though never animated, so the reset still fires
	assert.Equal(t, 1, f.trigger.Calls())
	assert.Equal(t, 0.0, f.trigger.Value())
}

func TestTick_OrderFromThenToWithoutDuplicates(t *testing.T) {
	f := newFixture(t, customConfig(0.3))
	h1 := rig.NewHand(9, core.Right)
	h2 := rig.NewHand(3, core.Left)
	h3 := rig.NewHand(5, core.Right)

	f.to.Attach(h3)
	f.from.Attach(h1)
	f.from.Attach(h2)
	f.to.Attach(h1)

	f.session.Tick()

	assert.Equal(t, []core.ActorID{9, 3, 5}, f.observer.actors())
	assert.Equal(t, 3, f.session.ActiveCount())
	assert.Equal(t, 3, f.trigger.Calls(), "one auxiliary update per animated hand")
}

func TestTick_MissingSnapshotSkipsHand(t *testing.T) {
	open := curled(0, mgl64.Vec3{})
	closed := curled(45, mgl64.Vec3{})
	trigger := channel.NewLevel("trigger")
	from := endpoint.New(endpoint.From, endpoint.NewHandedSource(&open, nil))
	to := endpoint.New(endpoint.To, endpoint.NewHandedSource(&closed, nil))
	cfg := customConfig(1)
	cfg.Channels = []channel.Sink{trigger}
	s := New(Dependencies{From: from, To: to, Config: cfg})
	s.Init()

	left := rig.NewHand(2, core.Left)
	right := rig.NewHand(1, core.Right)
	from.Attach(left)
	from.Attach(right)

	s.Tick()

	assert.Zero(t, left.FingerState(core.Index).Writes())
	assert.Equal(t, core.JointCount, right.FingerState(core.Index).Writes())
	assert.Equal(t, 1, trigger.Calls())
	_, tracked := s.Tracked(left.ID())
	assert.False(t, tracked)
}

func TestTick_CustomModeIgnoresAxes(t *testing.T) {
	f := newFixture(t, customConfig(0.25))
	hand := rig.NewHand(1, core.Right)
	f.from.Attach(hand)

	var results []core.PoseSnapshot
	for _, axis := range []float64{0, 0.5, 1} {
		hand.Grip = axis
		hand.Squeeze = axis
		f.session.Tick()
		results = append(results, f.session.Current())
	}

	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[0], results[2])
}

func TestTick_Idempotent(t *testing.T) {
	cfg := customConfig(0.6)
	cfg.Weights.HandPosition = 0.5
	cfg.Weights.HandRotation = 1
	f := newFixture(t, cfg)
	hand := rig.NewHand(1, core.Right)
	f.from.Attach(hand)

	require.True(t, f.session.Animate(hand))
	first := f.session.Current()
	require.True(t, f.session.Animate(hand))

	assert.Equal(t, first, f.session.Current())
}

func TestTick_ZeroWeightFingerUntouched(t *testing.T) {
	cfg := customConfig(1)
	cfg.Weights = cfg.Weights.WithFinger(core.Index, 0)
	f := newFixture(t, cfg)
	hand := rig.NewHand(1, core.Right)
	f.from.Attach(hand)

	f.session.Tick()

	assert.Zero(t, hand.FingerState(core.Index).Writes())
	assert.Equal(t, core.JointCount, hand.FingerState(core.Middle).Writes())
	assert.Equal(t, 1.0, f.trigger.Value(), "auxiliary channels ignore finger weights")
}

func TestTick_ShapedValueForwarded(t *testing.T) {
	cfg := customConfig(0.25)
	cfg.Curve = curve.New(curve.WrapClamp, curve.Key{Time: 0, Value: 0}, curve.Key{Time: 1, Value: 1})
	f := newFixture(t, cfg)
	f.from.Attach(rig.NewHand(1, core.Right))

	f.session.Tick()

	assert.InDelta(t, cfg.Curve.Evaluate(0.25), f.trigger.Value(), 1e-12)
	require.Len(t, f.observer.samples, 1)
	assert.Equal(t, 0.25, f.observer.samples[0].Drive)
	assert.InDelta(t, 0.15625, f.observer.samples[0].Shaped, 1e-12)
}

func TestTick_CustomValueBeyondRange(t *testing.T) {
	cfg := customConfig(1.5)
	cfg.Curve = curve.New(curve.WrapLinear, curve.Default().Keys()...)
	f := newFixture(t, cfg)
	hand := rig.NewHand(1, core.Right)
	f.from.Attach(hand)

	f.session.Tick()

	assert.InDelta(t, 1.5, f.trigger.Value(), 1e-12, "curve extrapolates unclamped drive values")
	assert.InDelta(t, 45, angleDeg(hand.FingerState(core.Pinky).Joints[0].Rotation), 1e-9)
}

// The explicit-value path does not drive auxiliary channels while the
// resolver path does. Callers using AnimateWithValue must sync them.
func TestAnimateWithValue_DoesNotDriveChannels(t *testing.T) {
	f := newFixture(t, customConfig(0.9))
	hand := rig.NewHand(1, core.Right)

	require.True(t, f.session.AnimateWithValue(hand, 0.5))

	assert.Zero(t, f.trigger.Calls())
	cur := f.session.Current()
	assert.InDelta(t, 22.5, angleDeg(cur.Fingers[core.Index].Joints[0].Rotation), 1e-9)
	assert.InDelta(t, 22.5, angleDeg(hand.FingerState(core.Index).Joints[0].Rotation), 1e-9)

	require.Len(t, f.observer.samples, 1)
	assert.True(t, f.observer.samples[0].External)
	assert.Equal(t, 0.5, f.observer.samples[0].Drive)
}

func TestAnimateWithValue_ZeroWeightFingerUntouched(t *testing.T) {
	cfg := customConfig(0.9)
	cfg.Weights = cfg.Weights.WithFinger(core.Index, 0)
	f := newFixture(t, cfg)
	hand := rig.NewHand(1, core.Right)

	require.True(t, f.session.AnimateWithValue(hand, 1))

	assert.Zero(t, hand.FingerState(core.Index).Writes())
	assert.Equal(t, core.JointCount, hand.FingerState(core.Middle).Writes())
	assert.InDelta(t, 45, angleDeg(hand.FingerState(core.Middle).Joints[0].Rotation), 1e-9)
}

func TestAnimateWithValue_MissingSnapshot(t *testing.T) {
	s := New(Dependencies{
		From:   endpoint.New(endpoint.From, endpoint.NewHandedSource(nil, nil)),
		To:     endpoint.New(endpoint.To, endpoint.NewHandedSource(nil, nil)),
		Config: DefaultConfig(),
	})
	s.Init()

	assert.False(t, s.AnimateWithValue(rig.NewHand(1, core.Right), 1))
	assert.False(t, s.Animate(nil))
}

func TestInit_UsesFromDefaultPose(t *testing.T) {
	right := curled(10, mgl64.Vec3{1, 0, 0})
	left := curled(20, mgl64.Vec3{-1, 0, 0})

	s := New(Dependencies{
		From:   endpoint.New(endpoint.From, endpoint.NewHandedSource(&right, &left)),
		To:     endpoint.New(endpoint.To, nil),
		Config: DefaultConfig(),
	})
	s.Init()
	assert.Equal(t, right, s.Current())

	s = New(Dependencies{
		From:   endpoint.New(endpoint.From, endpoint.NewHandedSource(nil, &left)),
		To:     endpoint.New(endpoint.To, nil),
		Config: DefaultConfig(),
	})
	s.Init()
	assert.Equal(t, left, s.Current())

	s = New(Dependencies{Config: DefaultConfig()})
	s.Init()
	assert.Equal(t, core.NewPoseSnapshot(), s.Current())
}

func TestInit_ClearsTrackedState(t *testing.T) {
	f := newFixture(t, customConfig(0.4))
	hand := rig.NewHand(4, core.Left)
	hand.IK = true
	f.from.Attach(hand)

	f.session.Tick()
	f.session.Tick()

	st, ok := f.session.Tracked(4)
	require.True(t, ok)
	assert.True(t, st.WasIKEnabled)
	assert.Equal(t, uint64(2), st.Frames)
	assert.Equal(t, uint64(1), st.FirstFrame)
	assert.Equal(t, uint64(2), st.LastFrame)
	assert.Equal(t, 0.4, st.LastDrive)

	f.session.Init()

	_, ok = f.session.Tracked(4)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), f.session.Frame())
	assert.Equal(t, Idle, f.session.State())
}

func TestTeardown_ResetsActiveChannels(t *testing.T) {
	f := newFixture(t, customConfig(0.7))
	f.from.Attach(rig.NewHand(1, core.Right))
	f.session.Tick()
	require.Equal(t, 0.7, f.trigger.Value())

	f.session.Teardown()
	assert.Equal(t, 0.0, f.trigger.Value())

	// second teardown is a no-op
	f.session.Teardown()
	assert.Equal(t, 2, f.trigger.Calls())
}

func TestTeardown_IdleLeavesChannels(t *testing.T) {
	f := newFixture(t, customConfig(0.7))
	f.session.Teardown()
	assert.Zero(t, f.trigger.Calls())
}

func TestLogger_StampsFrameAndSession(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	open := curled(0, mgl64.Vec3{})
	s := New(Dependencies{
		From:   endpoint.New(endpoint.From, endpoint.NewHandedSource(&open, nil)),
		To:     endpoint.New(endpoint.To, endpoint.NewHandedSource(nil, nil)),
		Config: DefaultConfig(),
		Logger: logger,
	})
	s.Init()
	s.from.Attach(rig.NewHand(1, core.Right))

	s.Tick()

	out := buf.String()
	assert.Contains(t, out, "No snapshot for hand")
	assert.Contains(t, out, "frame=1")
	assert.Contains(t, out, "session="+s.ID().String())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "animating", Animating.String())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, drive.ModeSqueeze, cfg.Resolver.Mode)
	assert.Equal(t, blend.DefaultWeights(), cfg.Weights)
	assert.Equal(t, 0.5, cfg.Curve.Evaluate(0.5))
}
