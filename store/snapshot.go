// Package store persists board snapshots. A Snapshot is the committed
// element tree and viewport of a board, encoded as YAML. Stores keep named
// snapshots in BadgerDB or as plain files, and a Persister saves a board
// whenever a gesture or command finishes.
package store

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"flermboard/board"
)

const snapshotVersion = 1

var (
	ErrNotFound       = errors.New("snapshot not found")
	ErrInvalidName    = errors.New("invalid snapshot name")
	ErrUnsupported    = errors.New("unsupported snapshot version")
	ErrInvalidContent = errors.New("invalid snapshot content")
)

type Snapshot struct {
	Version  int              `yaml:"version"`
	Viewport board.Viewport   `yaml:"viewport"`
	Elements []*board.Element `yaml:"elements"`
}

// Store saves and loads named snapshots.
type Store interface {
	Save(ctx context.Context, name string, s Snapshot) error
	Load(ctx context.Context, name string) (Snapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// Capture takes a snapshot of the board's state. An uncommitted preview is
// included; callers persist after terminal events, when none is pending.
func Capture(b *board.Board) Snapshot {
	els := b.Elements()
	out := make([]*board.Element, len(els))
	for i, el := range els {
		out[i] = el.Clone()
	}
	return Snapshot{Version: snapshotVersion, Viewport: b.Viewport(), Elements: out}
}

// Options returns the board options that restore the snapshot.
func (s Snapshot) Options() []board.Option {
	return []board.Option{board.WithElements(s.Elements), board.WithViewport(s.Viewport)}
}

func Encode(s Snapshot) ([]byte, error) {
	if s.Version == 0 {
		s.Version = snapshotVersion
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates an encoded snapshot.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version > snapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupported, s.Version)
	}
	if err := board.ValidateTree(s.Elements); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if s.Viewport.Zoom <= 0 {
		s.Viewport = board.DefaultViewport()
	}
	return s, nil
}

func validName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r == 0 {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
