// Package file stores the room snapshot as a single file. Saves are atomic:
// the snapshot is written to a temporary file in the same directory,
// fsynced and renamed into place, so a reader never sees a partial file.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/core"
	"github.com/dkeye/watchroom/internal/domain"
	"github.com/dkeye/watchroom/internal/storage/codec"
)

var _ core.Store = (*Store)(nil)

type Store struct {
	path  string
	codec codec.Codec
}

func New(path string, c codec.Codec) *Store {
	if c == nil {
		c = codec.JSON{}
	}
	return &Store{path: path, codec: c}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context) (*domain.Room, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotInitialized.Withf("no snapshot at %s", s.path)
	}
	if err != nil {
		return nil, domain.ErrStoreUnavailable.Withf("reading %s: %v", s.path, err)
	}
	// An empty file is what a truncated-but-never-written session leaves.
	if len(data) == 0 {
		return nil, domain.ErrNotInitialized.Withf("empty snapshot at %s", s.path)
	}
	room, err := s.codec.Decode(data)
	if err != nil {
		return nil, domain.ErrCorruptState.Withf("decoding %s: %v", s.path, err)
	}
	return room, nil
}

func (s *Store) Save(ctx context.Context, room *domain.Room) error {
	data, err := s.codec.Encode(room)
	if err != nil {
		return fmt.Errorf("encoding room: %w", err)
	}

	temporaryPath := s.path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating temporary snapshot: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary snapshot: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary snapshot: %w", err)
	}
	if err := os.Rename(temporaryPath, s.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}

	if dir, err := os.Open(filepath.Dir(s.path)); err == nil {
		dir.Sync()
		dir.Close()
	}

	log.Debug().
		Str("module", "storage.file").
		Str("path", s.path).
		Str("codec", s.codec.Name()).
		Uint64("revision", room.Revision).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Msg("snapshot saved")
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}
