// Package memory implements storage.Backend with an in-process map and an
// optional JSON library file loaded on Init and written on Close.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/OCAP2/handpose/internal/storage"
	"github.com/OCAP2/handpose/pkg/core"
)

// Config holds configuration for the memory backend.
type Config struct {
	// Path of the library file. Empty keeps the library in memory only. A
	// ".gz" suffix reads and writes gzip-compressed JSON.
	Path string
}

type poseKey struct {
	name string
	side core.Handedness
}

// Backend stores poses in memory.
type Backend struct {
	cfg   Config
	poses map[poseKey]core.PoseSnapshot
	mu    sync.RWMutex
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new memory backend
func New(cfg Config) *Backend {
	return &Backend{
		cfg:   cfg,
		poses: make(map[poseKey]core.PoseSnapshot),
	}
}

// Init loads the library file if one is configured and exists.
func (b *Backend) Init() error {
	if b.cfg.Path == "" {
		return nil
	}

	poses, err := readLibrary(b.cfg.Path)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range poses {
		b.poses[poseKey{p.Name, p.Handedness}] = p.Snapshot
	}
	return nil
}

// Close writes the library file if one is configured.
func (b *Backend) Close() error {
	if b.cfg.Path == "" {
		return nil
	}

	b.mu.RLock()
	poses := b.snapshotLocked()
	b.mu.RUnlock()

	if err := writeLibrary(b.cfg.Path, poses); err != nil {
		return fmt.Errorf("failed to write pose library: %w", err)
	}
	return nil
}

// SavePose stores or replaces a pose.
func (b *Backend) SavePose(name string, side core.Handedness, snap core.PoseSnapshot) error {
	if name == "" {
		return fmt.Errorf("pose name is empty")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.poses[poseKey{name, side}] = snap
	return nil
}

// LoadPose returns a stored pose.
func (b *Backend) LoadPose(name string, side core.Handedness) (core.PoseSnapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap, ok := b.poses[poseKey{name, side}]
	if !ok {
		return core.PoseSnapshot{}, fmt.Errorf("%w: %s %q", storage.ErrPoseNotFound, side, name)
	}
	return snap, nil
}

// ListPoses returns the distinct pose names, sorted.
func (b *Backend) ListPoses() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]struct{}, len(b.poses))
	names := make([]string, 0, len(b.poses))
	for k := range b.poses {
		if _, ok := seen[k.name]; ok {
			continue
		}
		seen[k.name] = struct{}{}
		names = append(names, k.name)
	}
	sort.Strings(names)
	return names, nil
}

// snapshotLocked returns all poses ordered by name then side.
func (b *Backend) snapshotLocked() []storage.Pose {
	poses := make([]storage.Pose, 0, len(b.poses))
	for k, snap := range b.poses {
		poses = append(poses, storage.Pose{Name: k.name, Handedness: k.side, Snapshot: snap})
	}
	sort.Slice(poses, func(i, j int) bool {
		if poses[i].Name != poses[j].Name {
			return poses[i].Name < poses[j].Name
		}
		return poses[i].Handedness < poses[j].Handedness
	})
	return poses
}
