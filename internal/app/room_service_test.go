package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sourcegraph/conc"

	"github.com/dkeye/watchroom/internal/audit"
	"github.com/dkeye/watchroom/internal/domain"
	"github.com/dkeye/watchroom/internal/storage/file"
)

// memStore is an in-memory core.Store whose saves can be made to fail.
type memStore struct {
	mu    sync.Mutex
	room  *domain.Room
	fail  bool
	saves int
}

func (m *memStore) Load(ctx context.Context) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.room == nil {
		return nil, domain.ErrNotInitialized
	}
	return m.room.Clone(), nil
}

func (m *memStore) Save(ctx context.Context, r *domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.saves++
	m.room = r.Clone()
	return nil
}

func (m *memStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.room = nil
	return nil
}

func setupService(t *testing.T) (*RoomService, *memStore, *audit.MemoryLog) {
	t.Helper()
	store := &memStore{}
	log := audit.NewMemoryLog()
	s, err := NewRoomService(context.Background(), Options{Store: store, Audit: log})
	if err != nil {
		t.Fatalf("NewRoomService: %v", err)
	}
	return s, store, log
}

func mustAdd(t *testing.T, s *RoomService, names ...string) {
	t.Helper()
	for _, n := range names {
		if _, err := s.AddUser(context.Background(), DefaultAdminName, n); err != nil {
			t.Fatalf("AddUser(%s): %v", n, err)
		}
	}
}

func auditLines(t *testing.T, l *audit.MemoryLog) []string {
	t.Helper()
	lines, _ := l.Lines()
	return lines
}

func TestNewRoomServiceCreatesRoom(t *testing.T) {
	s, store, log := setupService(t)
	room := s.Room(context.Background())
	if len(room.Users) != 1 || room.Revision != 1 {
		t.Fatalf("room = %+v", room)
	}
	admin, ok := room.UserByName(DefaultAdminName)
	if !ok || !admin.Roles.IsAdmin {
		t.Fatalf("admin missing: %+v", admin)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	lines := auditLines(t, log)
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "Room ") || !strings.HasSuffix(lines[0], "created by AdminGPU.") {
		t.Errorf("audit = %q", lines)
	}
}

func TestScenarioMovieNight(t *testing.T) {
	ctx := context.Background()
	s, _, log := setupService(t)
	mustAdd(t, s, "Bob", "Carol")

	if err := s.SetCoAdmin(ctx, DefaultAdminName, "Bob", true); err != nil {
		t.Fatalf("promote: %v", err)
	}
	pl, err := s.CreatePlaylist(ctx, "Bob", "Movie Night")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	cur, err := s.ShowCurrent(ctx, "Carol")
	if err != nil || cur.ID != pl.ID || !cur.Current {
		t.Fatalf("ShowCurrent = %+v, %v", cur, err)
	}

	before := len(auditLines(t, log))
	if err := s.Kick(ctx, "Carol", "Bob"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("member kicking co-admin: err = %v", err)
	}
	if _, ok := s.Room(ctx).UserByName("Bob"); !ok {
		t.Error("Bob was removed by a denied kick")
	}
	if got := len(auditLines(t, log)); got != before {
		t.Errorf("denied kick wrote %d audit lines", got-before)
	}

	want := []string{
		"Bob joined the room.",
		"Carol joined the room.",
		"Bob promoted to co-admin.",
		fmt.Sprintf("Bob created playlist %s (Movie Night).", pl.ID),
	}
	lines := auditLines(t, log)[1:]
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("audit =\n%s\nwant\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
}

func TestKickMatrix(t *testing.T) {
	tests := []struct {
		actor, target string
		want          error
	}{
		{"Member", "Other", domain.ErrPermissionDenied},
		{"Member", "Co", domain.ErrPermissionDenied},
		{"Co", "Other", nil},
		{"Co", "Co2", nil},
		{"Co", DefaultAdminName, domain.ErrPermissionDenied},
		{DefaultAdminName, "Co", nil},
		{DefaultAdminName, "Member", nil},
		{DefaultAdminName, DefaultAdminName, domain.ErrLastAdmin},
		{DefaultAdminName, "Nobody", domain.ErrUnknownUser},
		{"Nobody", "Member", domain.ErrUnknownActor},
	}
	for _, tt := range tests {
		t.Run(tt.actor+"->"+tt.target, func(t *testing.T) {
			ctx := context.Background()
			s, _, _ := setupService(t)
			mustAdd(t, s, "Member", "Other", "Co", "Co2")
			_ = s.SetCoAdmin(ctx, DefaultAdminName, "Co", true)
			_ = s.SetCoAdmin(ctx, DefaultAdminName, "Co2", true)

			err := s.Kick(ctx, tt.actor, tt.target)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Kick: %v", err)
				}
				if _, ok := s.Room(ctx).UserByName(tt.target); ok {
					t.Error("target still in room")
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDeniedPromoteChangesNothing(t *testing.T) {
	ctx := context.Background()
	s, store, log := setupService(t)
	mustAdd(t, s, "Bob", "Carol")
	_ = s.SetCoAdmin(ctx, DefaultAdminName, "Bob", true)

	rev := s.Room(ctx).Revision
	saves := store.saves
	lines := len(auditLines(t, log))

	if err := s.SetCoAdmin(ctx, "Bob", "Carol", true); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("co-admin promoting: err = %v", err)
	}
	room := s.Room(ctx)
	carol, _ := room.UserByName("Carol")
	if carol.Roles.IsCoAdmin {
		t.Error("Carol was promoted")
	}
	if room.Revision != rev || store.saves != saves || len(auditLines(t, log)) != lines {
		t.Error("denied promote had side effects")
	}
}

func TestPollTally(t *testing.T) {
	ctx := context.Background()
	s, _, log := setupService(t)
	mustAdd(t, s, "Bob")

	if _, err := s.CreatePoll(ctx, "Bob", "Which?", []string{"A", "B"}); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("member creating poll: err = %v", err)
	}
	p, err := s.CreatePoll(ctx, DefaultAdminName, "Which?", []string{"A", "B", "A"})
	if err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}
	if len(p.Options) != 2 {
		t.Fatalf("options = %v", p.Options)
	}

	accepted := 0
	for i, opt := range []string{"A", "B", "B", "A", "B", "C", "A", "B", "B"} {
		voter := "Bob"
		if i%2 == 0 {
			voter = DefaultAdminName
		}
		err := s.Vote(ctx, voter, p.ID, opt)
		if opt == "C" {
			if !errors.Is(err, domain.ErrInvalidOption) {
				t.Fatalf("vote C: err = %v", err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("vote %s: %v", opt, err)
		}
		accepted++
	}

	res, err := s.EndPoll(ctx, DefaultAdminName, p.ID)
	if err != nil {
		t.Fatalf("EndPoll: %v", err)
	}
	if res.Winner != "B" || res.String() != "A=3, B=5" || res.Total != accepted {
		t.Errorf("result = %+v (accepted %d)", res, accepted)
	}
	if _, ok := s.Room(ctx).Polls[p.ID]; ok {
		t.Error("closed poll still in room")
	}
	lines := auditLines(t, log)
	if last := lines[len(lines)-1]; last != fmt.Sprintf("Poll %s closed - A=3, B=5 (winner = B)", p.ID) {
		t.Errorf("last audit line = %q", last)
	}
	if err := s.Vote(ctx, "Bob", p.ID, "A"); !errors.Is(err, domain.ErrPollNotFound) {
		t.Errorf("vote after close: err = %v", err)
	}
}

func TestDeleteCurrentPlaylistClearsPointer(t *testing.T) {
	ctx := context.Background()
	s, _, _ := setupService(t)
	first, _ := s.CreatePlaylist(ctx, DefaultAdminName, "First")
	second, _ := s.CreatePlaylist(ctx, DefaultAdminName, "Second")

	if err := s.DeletePlaylist(ctx, DefaultAdminName, first.ID); err != nil {
		t.Fatalf("DeletePlaylist: %v", err)
	}
	room := s.Room(ctx)
	if room.CurrentPlaylist != nil {
		t.Fatalf("current = %v, want nil", *room.CurrentPlaylist)
	}
	if err := room.Validate(); err != nil {
		t.Fatalf("room invalid: %v", err)
	}
	if _, err := s.ShowCurrent(ctx, DefaultAdminName); !errors.Is(err, domain.ErrNoCurrentPlaylist) {
		t.Errorf("ShowCurrent err = %v", err)
	}
	if err := s.SwitchPlaylist(ctx, DefaultAdminName, second.ID); err != nil {
		t.Fatalf("SwitchPlaylist: %v", err)
	}
	if err := s.SwitchPlaylist(ctx, DefaultAdminName, first.ID); !errors.Is(err, domain.ErrPlaylistNotFound) {
		t.Errorf("switch to deleted: err = %v", err)
	}
}

func TestQueueOperations(t *testing.T) {
	ctx := context.Background()
	s, _, _ := setupService(t)
	if err := s.AddToCurrent(ctx, DefaultAdminName, "Alien"); !errors.Is(err, domain.ErrNoCurrentPlaylist) {
		t.Fatalf("no current: err = %v", err)
	}
	_, _ = s.CreatePlaylist(ctx, DefaultAdminName, "Tonight")

	for _, m := range []string{"Alien", "Aliens", "Alien"} {
		if err := s.AddToCurrent(ctx, DefaultAdminName, m); err != nil {
			t.Fatalf("AddToCurrent: %v", err)
		}
	}
	if _, err := s.RemoveFromCurrent(ctx, DefaultAdminName, 3); !errors.Is(err, domain.ErrInvalidIndex) {
		t.Errorf("out of range: err = %v", err)
	}
	if got, err := s.RemoveFromCurrent(ctx, DefaultAdminName, 1); err != nil || got != "Aliens" {
		t.Errorf("RemoveFromCurrent = %q, %v", got, err)
	}
	for _, want := range []string{"Alien", "Alien"} {
		if got, err := s.NextInCurrent(ctx, DefaultAdminName); err != nil || got != want {
			t.Fatalf("NextInCurrent = %q, %v", got, err)
		}
	}
	if _, err := s.NextInCurrent(ctx, DefaultAdminName); !errors.Is(err, domain.ErrQueueEmpty) {
		t.Errorf("empty queue: err = %v", err)
	}
}

func TestStoreFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	s, store, log := setupService(t)
	rev := s.Room(ctx).Revision
	lines := len(auditLines(t, log))

	store.fail = true
	_, err := s.AddUser(ctx, DefaultAdminName, "Bob")
	if !errors.Is(err, domain.ErrStoreUnavailable) || domain.KindOf(err) != domain.KindStoreUnavailable {
		t.Fatalf("err = %v, want store unavailable", err)
	}
	room := s.Room(ctx)
	if _, ok := room.UserByName("Bob"); ok || room.Revision != rev {
		t.Error("failed save mutated the room")
	}
	if len(auditLines(t, log)) != lines {
		t.Error("failed save was logged")
	}

	store.fail = false
	if _, err := s.AddUser(ctx, DefaultAdminName, "Bob"); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestConcurrentAddUser(t *testing.T) {
	const n = 50
	for round := 0; round < 3; round++ {
		ctx := context.Background()
		s, _, log := setupService(t)

		var wg conc.WaitGroup
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("user%02d", i)
			wg.Go(func() {
				if _, err := s.AddUser(ctx, DefaultAdminName, name); err != nil {
					t.Errorf("AddUser(%s): %v", name, err)
				}
			})
		}
		wg.Wait()

		room := s.Room(ctx)
		if len(room.Users) != n+1 {
			t.Fatalf("users = %d, want %d", len(room.Users), n+1)
		}
		ids := map[domain.UserID]bool{}
		for id, u := range room.Users {
			if ids[id] || id != u.ID {
				t.Fatalf("duplicate or mismatched id %s", id)
			}
			ids[id] = true
		}
		if room.Revision != uint64(n+1) {
			t.Errorf("revision = %d, want %d", room.Revision, n+1)
		}
		if got := len(auditLines(t, log)); got != n+1 {
			t.Errorf("audit lines = %d, want %d", got, n+1)
		}
	}
}

func TestChatAndReactions(t *testing.T) {
	ctx := context.Background()
	s, store, log := setupService(t)
	mustAdd(t, s, "Bob")
	saves := store.saves

	if err := s.Chat(ctx, "Bob", "hello"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if emoji, err := s.React(ctx, "Bob", "2"); err != nil || emoji != "👍" {
		t.Fatalf("React = %q, %v", emoji, err)
	}
	if store.saves != saves {
		t.Error("chat or reaction persisted state")
	}
	if err := s.SetGlobal(ctx, "Bob", domain.GlobalChat, false); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("member toggling chat: err = %v", err)
	}
	if err := s.SetGlobal(ctx, DefaultAdminName, domain.GlobalChat, false); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}
	if err := s.Chat(ctx, "Bob", "anyone?"); !errors.Is(err, domain.ErrChatDisabled) {
		t.Errorf("chat while disabled: err = %v", err)
	}

	lines := auditLines(t, log)
	want := []string{"[chat] Bob: hello", "[reaction] Bob: 👍", "AdminGPU turned chat OFF for everyone."}
	if got := lines[len(lines)-3:]; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("audit tail = %q", got)
	}
}

func TestPersonalSettings(t *testing.T) {
	ctx := context.Background()
	s, _, _ := setupService(t)
	mustAdd(t, s, "Bob")

	if err := s.ToggleSelf(ctx, "Bob", domain.SettingScreenLock, true); err != nil {
		t.Fatalf("ToggleSelf: %v", err)
	}
	if err := s.ForcePersonal(ctx, DefaultAdminName, "Bob", domain.SettingScreenLock, false); !errors.Is(err, domain.ErrScreenLockNotForceable) {
		t.Fatalf("force screen lock: err = %v", err)
	}
	if err := s.ForcePersonal(ctx, DefaultAdminName, "Bob", domain.SettingAudio, false); err != nil {
		t.Fatalf("ForcePersonal: %v", err)
	}
	if err := s.RaiseHand(ctx, "Bob"); err != nil {
		t.Fatalf("RaiseHand: %v", err)
	}
	bob, _ := s.Room(ctx).UserByName("Bob")
	if !bob.Personal.ScreenLocked || bob.Personal.AudioOn || !bob.Personal.HandRaised || !bob.Personal.VideoOn {
		t.Errorf("personal = %+v", bob.Personal)
	}
}

func TestReloadFromFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.New(filepath.Join(dir, "room_state.json"), nil)
	log := audit.NewFileLog(filepath.Join(dir, "group_chat.txt"))

	s, err := NewRoomService(ctx, Options{Store: store, Audit: log})
	if err != nil {
		t.Fatal(err)
	}
	mustAdd(t, s, "Bob")
	pl, _ := s.CreatePlaylist(ctx, DefaultAdminName, "Movie Night")
	_ = s.AddToCurrent(ctx, DefaultAdminName, "Alien")
	want := s.Room(ctx)

	reloaded, err := NewRoomService(ctx, Options{Store: store, Audit: log, AdminName: "Ignored"})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Room(ctx)
	if got.ID != want.ID || got.Revision != want.Revision || len(got.Users) != 2 {
		t.Fatalf("reloaded = %+v", got)
	}
	if _, ok := got.UserByName("Ignored"); ok {
		t.Error("reload created a new admin")
	}
	if cur, _ := got.Current(); cur.ID != pl.ID || len(cur.Movies) != 1 {
		t.Errorf("current = %+v", cur)
	}

	fresh, err := NewRoomService(ctx, Options{Store: store, Audit: log, Fresh: true})
	if err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if r := fresh.Room(ctx); r.ID == want.ID || len(r.Users) != 1 {
		t.Errorf("fresh room = %+v", r)
	}
	if lines, _ := log.Lines(); len(lines) != 1 {
		t.Errorf("fresh audit = %q", lines)
	}
}
