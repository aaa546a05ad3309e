// Package endpoint models the two pose targets of a blend and the hands
// currently attached to each of them.
package endpoint

import (
	"github.com/OCAP2/handpose/pkg/core"
)

// Role names the side of the blend an endpoint sits on.
type Role uint8

const (
	From Role = iota
	To
)

func (r Role) String() string {
	if r == To {
		return "to"
	}
	return "from"
}

// PoseSource produces pose snapshots for hands.
type PoseSource interface {
	// SnapshotFor returns the snapshot to use for hand. ok is false when the
	// source has no pose for that hand.
	SnapshotFor(hand core.Hand) (snap core.PoseSnapshot, ok bool)
	// Default returns a snapshot usable before any hand is attached.
	Default() (snap core.PoseSnapshot, ok bool)
}

// Endpoint is one side of a blend: a pose source plus the ordered set of
// hands being posed toward it.
type Endpoint struct {
	role   Role
	source PoseSource
	hands  []core.Hand
	index  map[core.ActorID]int
}

// New creates an endpoint with the given role and source.
func New(role Role, source PoseSource) *Endpoint {
	return &Endpoint{
		role:   role,
		source: source,
		index:  make(map[core.ActorID]int),
	}
}

// Role returns the endpoint's role.
func (e *Endpoint) Role() Role {
	return e.role
}

// Source returns the endpoint's pose source.
func (e *Endpoint) Source() PoseSource {
	return e.source
}

// Attach adds hand to the endpoint. Re-attaching a hand keeps its original
// position in the order. Returns false if the hand was already attached.
func (e *Endpoint) Attach(hand core.Hand) bool {
	if hand == nil {
		return false
	}
	if _, ok := e.index[hand.ID()]; ok {
		return false
	}
	e.index[hand.ID()] = len(e.hands)
	e.hands = append(e.hands, hand)
	return true
}

// Detach removes the hand with the given id. Returns false if it was not
// attached.
func (e *Endpoint) Detach(id core.ActorID) bool {
	i, ok := e.index[id]
	if !ok {
		return false
	}
	e.hands = append(e.hands[:i], e.hands[i+1:]...)
	delete(e.index, id)
	for j := i; j < len(e.hands); j++ {
		e.index[e.hands[j].ID()] = j
	}
	return true
}

// Has reports whether the hand with id is attached.
func (e *Endpoint) Has(id core.ActorID) bool {
	_, ok := e.index[id]
	return ok
}

// Hands returns the attached hands in attach order. The slice is owned by the
// endpoint and must not be modified.
func (e *Endpoint) Hands() []core.Hand {
	return e.hands
}

// Len returns the number of attached hands.
func (e *Endpoint) Len() int {
	return len(e.hands)
}

// SnapshotFor looks up the snapshot for hand from the endpoint's source.
func (e *Endpoint) SnapshotFor(hand core.Hand) (core.PoseSnapshot, bool) {
	if e.source == nil {
		return core.PoseSnapshot{}, false
	}
	return e.source.SnapshotFor(hand)
}

// Default returns the source's default snapshot.
func (e *Endpoint) Default() (core.PoseSnapshot, bool) {
	if e.source == nil {
		return core.PoseSnapshot{}, false
	}
	return e.source.Default()
}
