package core

import (
	"context"

	"github.com/dkeye/watchroom/internal/domain"
)

// Store persists the full room snapshot. Implementations hold no business
// logic. Load fails with domain.ErrNotInitialized when nothing was saved
// yet and domain.ErrCorruptState when the saved form cannot be parsed.
// Save must be atomic: a concurrent Load sees the previous or the new
// snapshot, never a partial one.
type Store interface {
	Load(ctx context.Context) (*domain.Room, error)
	Save(ctx context.Context, room *domain.Room) error
	// Reset removes any saved snapshot.
	Reset(ctx context.Context) error
}

// AuditLog is the append-only, human-readable record of room events.
// Position is the only ordering; lines carry no timestamps.
type AuditLog interface {
	Append(lines ...string) error
	Lines() ([]string, error)
	Reset() error
}
