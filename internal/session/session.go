// Package session tracks the hands attached to a pair of pose endpoints and
// blends each of them once per frame.
//
// A Session is driven from a single goroutine: Init on enable, Tick once per
// frame after the rig and grab updates, Teardown on disable.
package session

import (
	"log/slog"

	"github.com/OCAP2/handpose/internal/blend"
	"github.com/OCAP2/handpose/internal/cache"
	"github.com/OCAP2/handpose/internal/channel"
	"github.com/OCAP2/handpose/internal/curve"
	"github.com/OCAP2/handpose/internal/drive"
	"github.com/OCAP2/handpose/internal/endpoint"
	"github.com/OCAP2/handpose/internal/logging"
	"github.com/OCAP2/handpose/pkg/core"
	"github.com/google/uuid"
)

// Priority is the scheduler priority sessions should be registered with so
// they run after skeletal and grab updates.
const Priority = 100000

// State is the coarse session state.
type State uint8

const (
	Idle State = iota
	Animating
)

func (s State) String() string {
	if s == Animating {
		return "animating"
	}
	return "idle"
}

// Config is the read-only blend configuration of a session.
type Config struct {
	Resolver drive.Resolver
	Weights  blend.Weights
	Curve    *curve.Curve
	Channels []channel.Sink
}

// DefaultConfig returns squeeze driving, full finger weights, no hand offset
// blending and a linear curve.
func DefaultConfig() Config {
	return Config{
		Resolver: drive.NewResolver(drive.ModeSqueeze, 0),
		Weights:  blend.DefaultWeights(),
		Curve:    curve.Default(),
	}
}

// Sample describes one blend performed by a session.
type Sample struct {
	Session    uuid.UUID
	Frame      uint64
	Actor      core.ActorID
	Handedness core.Handedness
	Drive      float64
	Shaped     float64
	External   bool
}

// Observer is notified after every blend.
type Observer interface {
	ObserveBlend(s Sample)
}

// Dependencies holds everything a session needs.
type Dependencies struct {
	From     *endpoint.Endpoint
	To       *endpoint.Endpoint
	Config   Config
	Logger   *slog.Logger
	Observer Observer
}

// Session blends every hand attached to its endpoints.
type Session struct {
	id       uuid.UUID
	from     *endpoint.Endpoint
	to       *endpoint.Endpoint
	resolver drive.Resolver
	interp   *blend.Interpolator
	curve    *curve.Curve
	aux      *channel.Driver
	actors   *cache.ActorTable
	observer Observer
	logger   *slog.Logger

	current    core.PoseSnapshot
	enabled    bool
	frame      uint64
	lastActive int

	// per-frame scratch
	active []core.Hand
	seen   map[core.ActorID]struct{}
}

// New creates a disabled session. Call Init before the first Tick.
func New(deps Dependencies) *Session {
	c := deps.Config.Curve
	if c == nil {
		c = curve.Default()
	}

	s := &Session{
		id:       uuid.New(),
		from:     deps.From,
		to:       deps.To,
		resolver: deps.Config.Resolver,
		interp:   blend.NewInterpolator(deps.Config.Weights),
		curve:    c,
		aux:      channel.NewDriver(deps.Config.Channels...),
		actors:   cache.NewActorTable(),
		observer: deps.Observer,
		current:  core.NewPoseSnapshot(),
		seen:     make(map[core.ActorID]struct{}),
	}

	base := deps.Logger
	if base == nil {
		base = slog.Default()
	}
	s.logger = slog.New(logging.NewContextHandler(base.Handler(), func() []slog.Attr {
		return []slog.Attr{slog.Uint64("frame", s.frame)}
	})).With("session", s.id.String())

	return s
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Init (re)enables the session. The current pose is reset to the from
// endpoint's default snapshot when it has one and all tracked actor state is
// dropped.
func (s *Session) Init() {
	s.current = core.NewPoseSnapshot()
	if s.from != nil {
		if snap, ok := s.from.Default(); ok {
			s.current = snap
		}
	}
	s.actors.Reset()
	s.lastActive = 0
	s.frame = 0
	s.enabled = true

	s.logger.Info("Session initialized",
		"driver", s.resolver.Mode.String(),
		"channels", s.aux.Len(),
	)
}

// Teardown disables the session. Auxiliary channels are reset if any hand
// was still being animated.
func (s *Session) Teardown() {
	if !s.enabled {
		return
	}
	if s.lastActive != 0 {
		s.aux.Reset()
	}
	s.lastActive = 0
	s.enabled = false
	s.logger.Info("Session torn down", "trackedActors", s.actors.Len())
}

// Enabled reports whether Init has been called without a matching Teardown.
func (s *Session) Enabled() bool {
	return s.enabled
}

// Tick runs one frame: every attached hand that is not grabbing gets blended,
// and when the last hand leaves the auxiliary channels are reset to 0.
func (s *Session) Tick() {
	if !s.enabled {
		return
	}
	s.frame++

	active := s.activeHands()
	count := len(active)

	if count == 0 {
		if s.lastActive != 0 {
			s.aux.Reset()
			s.logger.Debug("All hands released, auxiliary channels reset")
		}
		s.lastActive = 0
		return
	}

	for _, hand := range active {
		if hand.IsGrabbing() {
			continue
		}
		s.Animate(hand)
	}

	s.lastActive = count
}

// activeHands returns the union of hands attached to both endpoints, from
// endpoint first, each in attach order, without duplicates.
func (s *Session) activeHands() []core.Hand {
	s.active = s.active[:0]
	clear(s.seen)
	for _, ep := range []*endpoint.Endpoint{s.from, s.to} {
		if ep == nil {
			continue
		}
		for _, h := range ep.Hands() {
			if _, dup := s.seen[h.ID()]; dup {
				continue
			}
			s.seen[h.ID()] = struct{}{}
			s.active = append(s.active, h)
		}
	}
	return s.active
}

// Animate blends hand using its drive value and forwards the curve-shaped
// value to the auxiliary channels. Returns false if either endpoint has no
// snapshot for the hand.
func (s *Session) Animate(hand core.Hand) bool {
	from, to, ok := s.snapshots(hand)
	if !ok {
		return false
	}

	value := s.resolver.Resolve(hand)
	s.interp.Blend(&s.current, &from, &to, hand, value)

	shaped := s.curve.Evaluate(value)
	s.aux.SetLevel(shaped)

	s.track(hand, value, shaped, false)
	return true
}

// AnimateWithValue blends hand with an explicit value instead of resolving
// one. Auxiliary channels are not driven on this path; callers that need them
// in sync must set them themselves.
func (s *Session) AnimateWithValue(hand core.Hand, value float64) bool {
	from, to, ok := s.snapshots(hand)
	if !ok {
		return false
	}

	s.interp.Blend(&s.current, &from, &to, hand, value)

	s.track(hand, value, 0, true)
	return true
}

func (s *Session) snapshots(hand core.Hand) (from, to core.PoseSnapshot, ok bool) {
	if hand == nil || s.from == nil || s.to == nil {
		return from, to, false
	}
	from, okFrom := s.from.SnapshotFor(hand)
	to, okTo := s.to.SnapshotFor(hand)
	if !okFrom || !okTo {
		s.logger.Debug("No snapshot for hand, skipping",
			"actor", hand.ID(),
			"handedness", hand.Handedness().String(),
			"from", okFrom,
			"to", okTo,
		)
		return from, to, false
	}
	return from, to, true
}

func (s *Session) track(hand core.Hand, value, shaped float64, external bool) {
	st := s.actors.Observe(hand, s.frame)
	st.LastFrame = s.frame
	st.LastDrive = value
	st.Frames++

	if s.observer != nil {
		s.observer.ObserveBlend(Sample{
			Session:    s.id,
			Frame:      s.frame,
			Actor:      hand.ID(),
			Handedness: hand.Handedness(),
			Drive:      value,
			Shaped:     shaped,
			External:   external,
		})
	}
}

// Current returns a copy of the most recently blended pose.
func (s *Session) Current() core.PoseSnapshot {
	return s.current
}

// State returns Animating when at least one hand was attached last frame.
func (s *Session) State() State {
	if s.lastActive > 0 {
		return Animating
	}
	return Idle
}

// ActiveCount returns the number of attached hands seen on the last frame.
func (s *Session) ActiveCount() int {
	return s.lastActive
}

// Frame returns the number of frames ticked since Init.
func (s *Session) Frame() uint64 {
	return s.frame
}

// Tracked returns the retained state for actor id.
func (s *Session) Tracked(id core.ActorID) (cache.ActorState, bool) {
	return s.actors.Get(id)
}
