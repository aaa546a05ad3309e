package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/OCAP2/handpose/internal/storage"
	"github.com/OCAP2/handpose/pkg/core"
)

// libraryVersion is bumped when the file layout changes.
const libraryVersion = 1

// LibraryFile is the root JSON structure of a pose library file.
type LibraryFile struct {
	Version int        `json:"version"`
	Poses   []PoseJSON `json:"poses"`
}

// PoseJSON is one stored pose.
type PoseJSON struct {
	Name       string            `json:"name"`
	Handedness string            `json:"handedness"`
	Snapshot   core.PoseSnapshot `json:"snapshot"`
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// readLibrary returns no poses when the file does not exist.
func readLibrary(path string) ([]storage.Pose, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open pose library: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var lib LibraryFile
	if err := json.NewDecoder(r).Decode(&lib); err != nil {
		return nil, fmt.Errorf("failed to decode pose library: %w", err)
	}
	if lib.Version > libraryVersion {
		return nil, fmt.Errorf("unsupported pose library version %d", lib.Version)
	}

	poses := make([]storage.Pose, 0, len(lib.Poses))
	for _, p := range lib.Poses {
		side, err := core.ParseHandedness(p.Handedness)
		if err != nil {
			return nil, fmt.Errorf("pose %q: %w", p.Name, err)
		}
		poses = append(poses, storage.Pose{Name: p.Name, Handedness: side, Snapshot: p.Snapshot})
	}
	return poses, nil
}

func writeLibrary(path string, poses []storage.Pose) error {
	lib := LibraryFile{Version: libraryVersion, Poses: make([]PoseJSON, 0, len(poses))}
	for _, p := range poses {
		lib.Poses = append(lib.Poses, PoseJSON{
			Name:       p.Name,
			Handedness: p.Handedness.String(),
			Snapshot:   p.Snapshot,
		})
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if !compressed(path) {
		encoder := json.NewEncoder(f)
		encoder.SetIndent("", "  ")
		return encoder.Encode(lib)
	}

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(lib); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return gz.Close()
}
