// Package sqlstore keeps the room snapshot in a SQL database, one row per
// slot. It works against SQLite (modernc.org/sqlite) and PostgreSQL
// (lib/pq); the single-row upsert is what makes Save atomic.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/dkeye/watchroom/internal/core"
	"github.com/dkeye/watchroom/internal/domain"
	"github.com/dkeye/watchroom/internal/storage/codec"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var _ core.Store = (*Store)(nil)

type Store struct {
	db     *sql.DB
	driver string
	slot   string
	codec  codec.Codec
}

// Open connects, pings and creates the schema.
func Open(ctx context.Context, driver, dsn, slot string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer connection keeps SQLite from reporting SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s := New(db, driver, slot)
	if err := s.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection. Snapshots are stored as JSON text.
func New(db *sql.DB, driver, slot string) *Store {
	if slot == "" {
		slot = "default"
	}
	return &Store{db: db, driver: driver, slot: slot, codec: codec.JSON{}}
}

func (s *Store) Close() error { return s.db.Close() }

// CreateSchema is safe to call multiple times.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS room_snapshot (
    slot TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    revision BIGINT NOT NULL,
    payload TEXT NOT NULL,
    saved_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func (s *Store) Load(ctx context.Context) (*domain.Room, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT payload FROM room_snapshot WHERE slot = ?`), s.slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotInitialized.Withf("no snapshot in slot %s", s.slot)
	}
	if err != nil {
		return nil, domain.ErrStoreUnavailable.Withf("query snapshot: %v", err)
	}
	room, err := s.codec.Decode([]byte(payload))
	if err != nil {
		return nil, domain.ErrCorruptState.Withf("decoding slot %s: %v", s.slot, err)
	}
	return room, nil
}

func (s *Store) Save(ctx context.Context, room *domain.Room) error {
	data, err := s.codec.Encode(room)
	if err != nil {
		return fmt.Errorf("encoding room: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.bind(`
		INSERT INTO room_snapshot (slot, room_id, revision, payload, saved_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (slot) DO UPDATE SET
			room_id = excluded.room_id,
			revision = excluded.revision,
			payload = excluded.payload,
			saved_at = excluded.saved_at
	`), s.slot, string(room.ID), int64(room.Revision), string(data))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	log.Debug().
		Str("module", "storage.sql").
		Str("driver", s.driver).
		Str("slot", s.slot).
		Uint64("revision", room.Revision).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Msg("snapshot saved")
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM room_snapshot WHERE slot = ?`), s.slot); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Revision reports the revision of the saved snapshot without decoding it.
func (s *Store) Revision(ctx context.Context) (uint64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT revision FROM room_snapshot WHERE slot = ?`), s.slot).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotInitialized
	}
	if err != nil {
		return 0, err
	}
	return uint64(rev), nil
}

// bind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) bind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
