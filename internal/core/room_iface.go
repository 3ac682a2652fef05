package core

import (
	"context"

	"github.com/dkeye/watchroom/internal/domain"
)

// MemberDTO is a read-only view of a user for APIs.
type MemberDTO struct {
	ID       domain.UserID           `json:"id"`
	Username string                  `json:"username"`
	Roles    domain.Roles            `json:"roles"`
	Personal domain.PersonalSettings `json:"personal"`
}

// PlaylistView is a playlist as shown to actors.
type PlaylistView struct {
	ID      domain.PlaylistID `json:"id"`
	Name    string            `json:"name"`
	Movies  []string          `json:"movies"`
	Current bool              `json:"current"`
}

// RoomService is the single authority over one room. Every mutating call
// runs as one atomic load, check, mutate, persist and log unit; calls
// from different actors are linearized. Actors are addressed by username.
type RoomService interface {
	Room(ctx context.Context) *domain.Room
	Members(ctx context.Context) []MemberDTO

	AddUser(ctx context.Context, actor, name string) (domain.User, error)
	SetCoAdmin(ctx context.Context, actor, target string, makeCoAdmin bool) error
	Kick(ctx context.Context, actor, target string) error

	Chat(ctx context.Context, actor, text string) error
	React(ctx context.Context, actor, code string) (string, error)
	ToggleSelf(ctx context.Context, actor string, setting domain.PersonalSetting, on bool) error
	RaiseHand(ctx context.Context, actor string) error

	CreatePlaylist(ctx context.Context, actor, name string) (domain.Playlist, error)
	DeletePlaylist(ctx context.Context, actor string, id domain.PlaylistID) error
	AddToPlaylist(ctx context.Context, actor string, id domain.PlaylistID, title string) error
	RemoveFromPlaylist(ctx context.Context, actor string, id domain.PlaylistID, index int) (string, error)
	ShowPlaylists(ctx context.Context, actor string) ([]PlaylistView, error)
	ShowPlaylist(ctx context.Context, actor string, id domain.PlaylistID) (PlaylistView, error)
	SwitchPlaylist(ctx context.Context, actor string, id domain.PlaylistID) error

	AddToCurrent(ctx context.Context, actor, title string) error
	RemoveFromCurrent(ctx context.Context, actor string, index int) (string, error)
	ShowCurrent(ctx context.Context, actor string) (PlaylistView, error)
	NextInCurrent(ctx context.Context, actor string) (string, error)

	CreatePoll(ctx context.Context, actor, question string, options []string) (domain.Poll, error)
	Vote(ctx context.Context, actor string, id domain.PollID, option string) error
	EndPoll(ctx context.Context, actor string, id domain.PollID) (domain.PollResult, error)

	SetGlobal(ctx context.Context, actor string, setting domain.GlobalSetting, on bool) error
	ForcePersonal(ctx context.Context, actor, target string, setting domain.PersonalSetting, on bool) error
	SetScreenSharing(ctx context.Context, actor string, allow bool) error
}
