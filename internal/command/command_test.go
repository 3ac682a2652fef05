package command

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkeye/watchroom/internal/app"
	"github.com/dkeye/watchroom/internal/audit"
	"github.com/dkeye/watchroom/internal/core"
	"github.com/dkeye/watchroom/internal/domain"
	"github.com/dkeye/watchroom/internal/storage/file"
)

const admin = app.DefaultAdminName

func setupDispatcher(t *testing.T) (*Dispatcher, *app.RoomService) {
	t.Helper()
	svc, err := app.NewRoomService(context.Background(), app.Options{
		Store: file.New(filepath.Join(t.TempDir(), "room_state.json"), nil),
		Audit: audit.NewMemoryLog(),
	})
	if err != nil {
		t.Fatalf("NewRoomService: %v", err)
	}
	return NewDispatcher(svc), svc
}

func run(t *testing.T, d *Dispatcher, actor, line string) Result {
	t.Helper()
	return d.Execute(context.Background(), actor, line)
}

func mustRun(t *testing.T, d *Dispatcher, actor, line string) Result {
	t.Helper()
	res := run(t, d, actor, line)
	if !res.OK() {
		t.Fatalf("%s: %q = %+v", actor, line, res)
	}
	return res
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{line: "add Bob", want: []string{"add", "Bob"}},
		{line: "  vote   p1  A ", want: []string{"vote", "p1", "A"}},
		{line: `poll "Which one?" 'Die Hard' Alien`, want: []string{"poll", "Which one?", "Die Hard", "Alien"}},
		{line: `say ""`, want: []string{"say", ""}},
		{line: ""},
		{line: `chat it's fine`, wantErr: true},
	}
	for _, tt := range tests {
		toks, err := tokenize(tt.line)
		if tt.wantErr {
			if err == nil {
				t.Errorf("tokenize(%q) expected error", tt.line)
			}
			continue
		}
		if err != nil {
			t.Errorf("tokenize(%q): %v", tt.line, err)
			continue
		}
		got := make([]string, 0, len(toks))
		for _, tk := range toks {
			got = append(got, tk.text)
		}
		if len(got) != len(tt.want) || strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("tokenize(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestRestKeepsSpacing(t *testing.T) {
	toks, _ := tokenize("chat hello   there  world")
	a := Args{line: "chat hello   there  world", toks: toks[1:]}
	if got := a.Rest(0); got != "hello   there  world" {
		t.Errorf("Rest = %q", got)
	}
	toks, _ = tokenize(`currentAdd "The Thing"`)
	a = Args{line: `currentAdd "The Thing"`, toks: toks[1:]}
	if got := a.Rest(0); got != "The Thing" {
		t.Errorf("quoted Rest = %q", got)
	}
}

func TestScenario(t *testing.T) {
	d, svc := setupDispatcher(t)
	ctx := context.Background()

	mustRun(t, d, admin, "add Bob")
	mustRun(t, d, admin, "add Carol")
	mustRun(t, d, admin, "prom Bob")
	res := mustRun(t, d, "Bob", "playlistCreate Movie Night")
	pl := res.Data.(domain.Playlist)
	if pl.Name != "Movie Night" {
		t.Fatalf("playlist name = %q", pl.Name)
	}

	res = run(t, d, "Carol", "kick Bob")
	if res.Status != StatusDenied || res.Code != "permission_denied" {
		t.Fatalf("kick by member = %+v", res)
	}

	mustRun(t, d, "Bob", "cpadd Alien")
	mustRun(t, d, "Bob", `currentAdd "The Thing"`)
	res = mustRun(t, d, "Carol", "currentShow")
	want := "Playlist " + string(pl.ID) + " (Movie Night) [current]:\n  1. Alien\n  2. The Thing\n"
	if res.Output != want {
		t.Errorf("currentShow output =\n%q\nwant\n%q", res.Output, want)
	}

	mustRun(t, d, "Bob", "cprem 1")
	if v, _ := svc.ShowCurrent(ctx, "Bob"); len(v.Movies) != 1 || v.Movies[0] != "The Thing" {
		t.Errorf("after cprem 1: %v", v.Movies)
	}
	res = run(t, d, "Bob", "cprem 0")
	if res.Code != "invalid_index" || res.Status != StatusInvalidArgument {
		t.Errorf("cprem 0 = %+v", res)
	}
}

func TestStatuses(t *testing.T) {
	d, _ := setupDispatcher(t)
	mustRun(t, d, admin, "add Bob")

	tests := []struct {
		actor, line string
		status      Status
		code        string
	}{
		{admin, "dance", StatusInvalidArgument, "unrecognized_command"},
		{admin, "", StatusInvalidArgument, "unrecognized_command"},
		{admin, "plist x", StatusInvalidArgument, "unrecognized_command"},
		{admin, "add", StatusInvalidArgument, "bad_arguments"},
		{admin, "add Bob", StatusInvalidArgument, "duplicate_name"},
		{admin, `add "two words"`, StatusInvalidArgument, "invalid_username"},
		{admin, "kick Nobody", StatusNotFound, "unknown_user"},
		{"Nobody", "chat hi", StatusNotFound, "unknown_actor"},
		{"Bob", "add Eve", StatusDenied, "permission_denied"},
		{"Bob", "toggle volume on", StatusInvalidArgument, "unknown_setting"},
		{"Bob", "toggle video maybe", StatusInvalidArgument, "bad_arguments"},
		{admin, "force Bob screen_lock on", StatusInvalidArgument, "screen_lock_not_forceable"},
		{admin, "currentShow", StatusNotFound, "no_current_playlist"},
		{admin, "pshow nope", StatusNotFound, "playlist_not_found"},
		{admin, "vote nope A", StatusNotFound, "poll_not_found"},
		{admin, `poll "  " A`, StatusInvalidArgument, "invalid_poll"},
		{admin, "kick " + admin, StatusDenied, "last_admin"},
		{admin, `chat "unterminated`, StatusInvalidArgument, "bad_arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res := run(t, d, tt.actor, tt.line)
			if res.Status != tt.status || res.Code != tt.code {
				t.Errorf("%q as %s = %+v, want %s/%s", tt.line, tt.actor, res, tt.status, tt.code)
			}
		})
	}
}

func TestSuggestion(t *testing.T) {
	d, _ := setupDispatcher(t)
	res := run(t, d, admin, "promot Bob")
	if !strings.Contains(res.Message, `did you mean "promote"`) {
		t.Errorf("message = %q", res.Message)
	}
}

func TestPollCommands(t *testing.T) {
	d, _ := setupDispatcher(t)
	mustRun(t, d, admin, "add Bob")
	res := mustRun(t, d, admin, `poll "Pizza or sushi?" pizza sushi pizza`)
	p := res.Data.(domain.Poll)
	if len(p.Options) != 2 {
		t.Fatalf("options = %v", p.Options)
	}
	mustRun(t, d, "Bob", "vote "+string(p.ID)+" sushi")
	mustRun(t, d, admin, "vote "+string(p.ID)+" sushi")
	if res := run(t, d, "Bob", "vote "+string(p.ID)+" tacos"); res.Code != "invalid_option" {
		t.Errorf("bad option = %+v", res)
	}
	if res := run(t, d, "Bob", "pend "+string(p.ID)); res.Status != StatusDenied {
		t.Errorf("member closing poll = %+v", res)
	}
	res = mustRun(t, d, admin, "pend "+string(p.ID))
	if want := "Poll " + string(p.ID) + " closed - pizza=0, sushi=2 (winner = sushi)"; res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}
}

func TestPlaylistShowAll(t *testing.T) {
	d, _ := setupDispatcher(t)
	res := mustRun(t, d, admin, "pshow")
	if res.Output != "No playlists.\n" {
		t.Errorf("empty output = %q", res.Output)
	}
	a := mustRun(t, d, admin, "playlistCreate Friday").Data.(domain.Playlist)
	b := mustRun(t, d, admin, "playlistCreate Saturday").Data.(domain.Playlist)
	mustRun(t, d, admin, "padd "+string(b.ID)+" Heat")

	res = mustRun(t, d, admin, "playlistShow")
	want := "* " + string(a.ID) + "  Friday (0)\n  " + string(b.ID) + "  Saturday (1)\n"
	if res.Output != want {
		t.Errorf("output = %q, want %q", res.Output, want)
	}
	views := res.Data.([]core.PlaylistView)
	if len(views) != 2 || !views[0].Current {
		t.Errorf("views = %+v", views)
	}

	mustRun(t, d, admin, "pswitch "+string(b.ID))
	mustRun(t, d, admin, "playlistDelete "+string(b.ID))
	if res := run(t, d, admin, "cpnext"); res.Code != "no_current_playlist" {
		t.Errorf("cpnext after deleting current = %+v", res)
	}
}

func TestHelpListsEveryCommand(t *testing.T) {
	d, _ := setupDispatcher(t)
	res := run(t, d, "anyone", "help")
	for _, c := range Commands {
		if !strings.Contains(res.Output, c.Name) {
			t.Errorf("help is missing %s", c.Name)
		}
	}
}

func TestShareAndPlaylistRemove(t *testing.T) {
	d, svc := setupDispatcher(t)
	ctx := context.Background()
	mustRun(t, d, admin, "add Bob")

	if res := run(t, d, "Bob", "share on"); res.Status != StatusDenied {
		t.Errorf("share by member = %+v", res)
	}
	if res := run(t, d, admin, "share maybe"); res.Status != StatusInvalidArgument {
		t.Errorf("share maybe = %+v", res)
	}
	mustRun(t, d, admin, "share on")
	if !svc.Room(ctx).ScreenSharingAllowed {
		t.Error("screen sharing still off")
	}

	pl := mustRun(t, d, admin, "playlistCreate Weekend").Data.(domain.Playlist)
	mustRun(t, d, admin, "padd "+string(pl.ID)+" Heat")
	mustRun(t, d, admin, "padd "+string(pl.ID)+" Ronin")
	res := mustRun(t, d, admin, "prem "+string(pl.ID)+" 1")
	if res.Message != "removed 'Heat'" {
		t.Errorf("prem message = %q", res.Message)
	}
	if res := run(t, d, admin, "prem "+string(pl.ID)+" 5"); res.Code != "invalid_index" {
		t.Errorf("prem out of range = %+v", res)
	}
	if res := run(t, d, admin, "prem nope 1"); res.Status != StatusNotFound {
		t.Errorf("prem unknown playlist = %+v", res)
	}
	v, err := svc.ShowPlaylist(ctx, admin, pl.ID)
	if err != nil || len(v.Movies) != 1 || v.Movies[0] != "Ronin" {
		t.Errorf("playlist after prem = %+v, %v", v, err)
	}
}
