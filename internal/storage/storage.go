// Package storage defines the pose library: named hand poses stored per side,
// and the glue that turns a stored pose into an endpoint source.
package storage

import (
	"errors"
	"fmt"

	"github.com/OCAP2/handpose/internal/endpoint"
	"github.com/OCAP2/handpose/pkg/core"
)

// ErrPoseNotFound is returned when no pose with the given name and side exists.
var ErrPoseNotFound = errors.New("pose not found")

// Pose is a named snapshot for one side.
type Pose struct {
	Name       string
	Handedness core.Handedness
	Snapshot   core.PoseSnapshot
}

// Backend is the interface all pose library implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SavePose inserts or replaces the pose stored under name and side.
	SavePose(name string, side core.Handedness, snap core.PoseSnapshot) error
	// LoadPose returns ErrPoseNotFound when nothing is stored.
	LoadPose(name string, side core.Handedness) (core.PoseSnapshot, error)
	// ListPoses returns the distinct pose names, sorted.
	ListPoses() ([]string, error)
}

// Source loads both sides of a named pose into a HandedSource. A side that is
// missing is left unset; a name with neither side stored is an error.
func Source(b Backend, name string) (*endpoint.HandedSource, error) {
	src := &endpoint.HandedSource{}
	found := 0

	for _, side := range []core.Handedness{core.Right, core.Left} {
		snap, err := b.LoadPose(name, side)
		if errors.Is(err, ErrPoseNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s pose %q: %w", side, name, err)
		}
		src.SetPose(side, snap)
		found++
	}

	if found == 0 {
		return nil, fmt.Errorf("%w: %q", ErrPoseNotFound, name)
	}
	return src, nil
}

// Seed stores snap under name for every side that has no pose yet and reports
// how many sides were written.
func Seed(b Backend, name string, snap core.PoseSnapshot) (int, error) {
	written := 0
	for _, side := range []core.Handedness{core.Right, core.Left} {
		_, err := b.LoadPose(name, side)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrPoseNotFound) {
			return written, err
		}
		if err := b.SavePose(name, side, snap); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
