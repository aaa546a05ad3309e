package endpoint

import (
	"testing"

	"github.com/OCAP2/handpose/internal/rig"
	"github.com/OCAP2/handpose/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(hands []core.Hand) []core.ActorID {
	out := make([]core.ActorID, 0, len(hands))
	for _, h := range hands {
		out = append(out, h.ID())
	}
	return out
}

func TestEndpoint_AttachKeepsInsertionOrder(t *testing.T) {
	e := New(From, nil)

	require.True(t, e.Attach(rig.NewHand(7, core.Right)))
	require.True(t, e.Attach(rig.NewHand(2, core.Left)))
	require.True(t, e.Attach(rig.NewHand(5, core.Right)))
	assert.False(t, e.Attach(rig.NewHand(2, core.Left)), "duplicate attach")
	assert.False(t, e.Attach(nil))

	assert.Equal(t, []core.ActorID{7, 2, 5}, ids(e.Hands()))
	assert.Equal(t, 3, e.Len())
}

func TestEndpoint_Detach(t *testing.T) {
	e := New(To, nil)
	for _, id := range []core.ActorID{1, 2, 3, 4} {
		e.Attach(rig.NewHand(id, core.Right))
	}

	assert.True(t, e.Detach(2))
	assert.False(t, e.Detach(2))
	assert.False(t, e.Has(2))
	assert.True(t, e.Has(4))
	assert.Equal(t, []core.ActorID{1, 3, 4}, ids(e.Hands()))

	// index stays consistent after a removal
	assert.True(t, e.Detach(4))
	assert.Equal(t, []core.ActorID{1, 3}, ids(e.Hands()))
}

func TestEndpoint_NilSource(t *testing.T) {
	e := New(From, nil)

	_, ok := e.SnapshotFor(rig.NewHand(1, core.Right))
	assert.False(t, ok)
	_, ok = e.Default()
	assert.False(t, ok)
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "from", From.String())
	assert.Equal(t, "to", To.String())
}

func TestHandedSource_SnapshotFor(t *testing.T) {
	right := core.NewPoseSnapshot()
	right.HandOffset = mgl64.Vec3{1, 0, 0}

	s := NewHandedSource(&right, nil)
	e := New(To, s)

	got, ok := e.SnapshotFor(rig.NewHand(1, core.Right))
	require.True(t, ok)
	assert.Equal(t, right, got)

	_, ok = e.SnapshotFor(rig.NewHand(2, core.Left))
	assert.False(t, ok, "left pose not set")

	_, ok = s.SnapshotFor(nil)
	assert.False(t, ok)
}

func TestHandedSource_DefaultPrefersRight(t *testing.T) {
	right := core.NewPoseSnapshot()
	right.HandOffset = mgl64.Vec3{1, 0, 0}
	left := core.NewPoseSnapshot()
	left.HandOffset = mgl64.Vec3{-1, 0, 0}

	got, ok := NewHandedSource(&right, &left).Default()
	require.True(t, ok)
	assert.Equal(t, right.HandOffset, got.HandOffset)

	got, ok = NewHandedSource(nil, &left).Default()
	require.True(t, ok)
	assert.Equal(t, left.HandOffset, got.HandOffset)

	_, ok = NewHandedSource(nil, nil).Default()
	assert.False(t, ok)
}
