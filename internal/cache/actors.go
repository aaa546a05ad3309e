// Package cache holds per-actor state retained across frames.
package cache

import (
	"github.com/OCAP2/handpose/pkg/core"
)

// ActorState is the per-hand state a session keeps between frames.
type ActorState struct {
	ID           core.ActorID
	WasIKEnabled bool
	FirstFrame   uint64
	LastFrame    uint64
	Frames       uint64
	LastDrive    float64
}

// ActorTable is a dense table of ActorState indexed by actor id. Entries are
// created on first sight and only removed by Reset.
// Not safe for concurrent use; a session owns exactly one table.
type ActorTable struct {
	states  []ActorState
	present []bool
	count   int
}

// NewActorTable creates an empty table.
func NewActorTable() *ActorTable {
	return &ActorTable{}
}

// Observe returns the state for hand, creating it if this is the first time
// the hand is seen. New entries capture the hand's current IK state when the
// hand reports one.
func (t *ActorTable) Observe(hand core.Hand, frame uint64) *ActorState {
	id := int(hand.ID())
	if id >= len(t.states) {
		t.grow(id + 1)
	}
	if !t.present[id] {
		st := ActorState{ID: hand.ID(), FirstFrame: frame}
		if ik, ok := hand.(core.IKReporter); ok {
			st.WasIKEnabled = ik.IKEnabled()
		}
		t.states[id] = st
		t.present[id] = true
		t.count++
	}
	return &t.states[id]
}

// Get returns a copy of the state for id.
func (t *ActorTable) Get(id core.ActorID) (ActorState, bool) {
	i := int(id)
	if i >= len(t.states) || !t.present[i] {
		return ActorState{}, false
	}
	return t.states[i], true
}

// Len returns the number of tracked actors.
func (t *ActorTable) Len() int {
	return t.count
}

// Reset drops every entry.
func (t *ActorTable) Reset() {
	clear(t.states)
	clear(t.present)
	t.states = t.states[:0]
	t.present = t.present[:0]
	t.count = 0
}

func (t *ActorTable) grow(n int) {
	if n <= cap(t.states) {
		t.states = t.states[:n]
		t.present = t.present[:n]
		return
	}
	states := make([]ActorState, n, max(n, 2*cap(t.states)))
	copy(states, t.states)
	present := make([]bool, n, cap(states))
	copy(present, t.present)
	t.states, t.present = states, present
}
