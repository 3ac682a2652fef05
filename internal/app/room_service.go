package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/core"
	"github.com/dkeye/watchroom/internal/domain"
)

const DefaultAdminName = "AdminGPU"

var _ core.RoomService = (*RoomService)(nil)

// Options configures NewRoomService.
type Options struct {
	Store  core.Store
	Audit  core.AuditLog
	Policy Policy
	// AdminName is used only when a new room has to be created.
	AdminName string
	// Fresh discards any saved snapshot and audit log first.
	Fresh bool
}

// RoomService holds the authoritative in-memory room. All mutations run
// under mu; the store is a write-through copy of room, never the
// synchronization point.
type RoomService struct {
	mu     sync.RWMutex
	room   *domain.Room
	store  core.Store
	audit  core.AuditLog
	policy Policy
}

// NewRoomService loads the saved room or creates a new one with its
// admin. A corrupt snapshot is fatal here: the service never starts on
// top of state it cannot trust.
func NewRoomService(ctx context.Context, opts Options) (*RoomService, error) {
	if opts.Policy == nil {
		opts.Policy = RolePolicy{}
	}
	if opts.AdminName == "" {
		opts.AdminName = DefaultAdminName
	}
	s := &RoomService{store: opts.Store, audit: opts.Audit, policy: opts.Policy}

	if opts.Fresh {
		if err := s.store.Reset(ctx); err != nil {
			return nil, fmt.Errorf("reset store: %w", err)
		}
		if err := s.audit.Reset(); err != nil {
			return nil, fmt.Errorf("reset audit log: %w", err)
		}
	}

	room, err := s.store.Load(ctx)
	switch {
	case err == nil:
		if verr := room.Validate(); verr != nil {
			return nil, domain.ErrCorruptState.Withf("saved room is inconsistent: %v", verr)
		}
		s.room = room
		log.Info().Str("module", "app.room").Str("room", string(room.ID)).Uint64("revision", room.Revision).Int("users", len(room.Users)).Msg("room loaded")
		return s, nil
	case errors.Is(err, domain.ErrNotInitialized):
	default:
		return nil, fmt.Errorf("load room: %w", err)
	}

	room, admin, err := domain.NewRoom(opts.AdminName)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	room.Revision = 1
	admin.Joined = room.Revision
	room.Users[admin.ID] = admin
	if err := s.store.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("save new room: %w", err)
	}
	s.room = room
	s.appendAudit(fmt.Sprintf("Room %s created by %s.", room.ID, admin.Username))
	log.Info().Str("module", "app.room").Str("room", string(room.ID)).Str("admin", admin.Username).Msg("room created")
	return s, nil
}

// Room returns a snapshot copy of the current state.
func (s *RoomService) Room(ctx context.Context) *domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room.Clone()
}

func (s *RoomService) Members(ctx context.Context) []core.MemberDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := s.room.Members()
	out := make([]core.MemberDTO, 0, len(members))
	for _, u := range members {
		out = append(out, core.MemberDTO{ID: u.ID, Username: u.Username, Roles: u.Roles, Personal: u.Personal})
	}
	return out
}

// mutation edits next, the working copy, and returns the audit lines
// describing what it did. A returned error discards next.
type mutation func(next *domain.Room, actor domain.User) ([]string, error)

// mutate runs one atomic unit: resolve the actor, authorize, apply fn to
// a copy, persist, swap, log. The lock is held until the audit lines are
// appended so log order matches mutation order.
func (s *RoomService) mutate(ctx context.Context, op, actorName string, a Action, fn mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, err := s.authorize(op, actorName, a)
	if err != nil {
		return err
	}

	next := s.room.Clone()
	next.Revision++
	lines, err := fn(next, actor)
	if err != nil {
		s.rejected(op, actorName, err)
		return err
	}

	if err := s.store.Save(ctx, next); err != nil {
		log.Error().Err(err).Str("module", "app.room").Str("op", op).Str("actor", actorName).Msg("persist failed, mutation dropped")
		return domain.ErrStoreUnavailable.Withf("%s: %v", op, err)
	}
	s.room = next
	s.appendAudit(lines...)
	return nil
}

// record runs an operation that only appends to the audit log.
func (s *RoomService) record(op, actorName string, a Action, fn func(actor domain.User) ([]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor, err := s.authorize(op, actorName, a)
	if err != nil {
		return err
	}
	lines, err := fn(actor)
	if err != nil {
		s.rejected(op, actorName, err)
		return err
	}
	s.appendAudit(lines...)
	return nil
}

// read runs fn against the current room under the read lock. fn must not
// modify the room.
func (s *RoomService) read(op, actorName string, fn func(room *domain.Room) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.authorize(op, actorName, ActRead); err != nil {
		return err
	}
	return fn(s.room)
}

func (s *RoomService) authorize(op, actorName string, a Action) (domain.User, error) {
	actor, ok := s.room.UserByName(actorName)
	if !ok {
		err := domain.ErrUnknownActor.Withf("%s is not in the room", actorName)
		s.rejected(op, actorName, err)
		return domain.User{}, err
	}
	if err := s.policy.Authorize(s.room, actor, a); err != nil {
		s.rejected(op, actorName, err)
		return domain.User{}, err
	}
	return actor, nil
}

func (s *RoomService) rejected(op, actor string, err error) {
	log.Debug().Str("module", "app.room").Str("op", op).Str("actor", actor).Str("code", domain.CodeOf(err)).Msg(err.Error())
}

// appendAudit is best effort: the state change is already persisted and
// stays authoritative when the log cannot be written.
func (s *RoomService) appendAudit(lines ...string) {
	if len(lines) == 0 {
		return
	}
	if err := s.audit.Append(lines...); err != nil {
		log.Error().Err(err).Str("module", "app.room").Strs("lines", lines).Msg("audit append failed")
	}
}

func (s *RoomService) target(room *domain.Room, name string) (domain.User, error) {
	u, ok := room.UserByName(name)
	if !ok {
		return domain.User{}, domain.ErrUnknownUser.Withf("user %s not found", name)
	}
	return u, nil
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
