package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

type RoomID string

// Room is the whole shared state of one viewing session. Every map is
// keyed by the id stored inside its values.
type Room struct {
	ID                   RoomID                  `json:"room_id"`
	Revision             uint64                  `json:"revision"`
	Global               GlobalSettings          `json:"global_settings"`
	Users                map[UserID]User         `json:"users"`
	Playlists            map[PlaylistID]Playlist `json:"playlists"`
	CurrentPlaylist      *PlaylistID             `json:"current_playlist"`
	Polls                map[PollID]Poll         `json:"polls"`
	ScreenSharingAllowed bool                    `json:"screen_sharing_allowed"`
}

// NewRoom creates a room whose only member is its admin.
func NewRoom(adminName string) (*Room, User, error) {
	admin, err := NewUser(adminName)
	if err != nil {
		return nil, User{}, err
	}
	admin.Roles.IsAdmin = true
	r := &Room{
		ID:        RoomID(uuid.NewString()),
		Global:    DefaultGlobalSettings(),
		Users:     map[UserID]User{admin.ID: admin},
		Playlists: map[PlaylistID]Playlist{},
		Polls:     map[PollID]Poll{},
	}
	return r, admin, nil
}

// Clone returns a deep copy that shares nothing with r.
func (r *Room) Clone() *Room {
	out := *r
	out.Users = make(map[UserID]User, len(r.Users))
	for id, u := range r.Users {
		out.Users[id] = u
	}
	out.Playlists = make(map[PlaylistID]Playlist, len(r.Playlists))
	for id, p := range r.Playlists {
		out.Playlists[id] = p.clone()
	}
	out.Polls = make(map[PollID]Poll, len(r.Polls))
	for id, p := range r.Polls {
		out.Polls[id] = p.clone()
	}
	if r.CurrentPlaylist != nil {
		cp := *r.CurrentPlaylist
		out.CurrentPlaylist = &cp
	}
	return &out
}

// UserByName resolves a username among present users.
func (r *Room) UserByName(name string) (User, bool) {
	for _, u := range r.Users {
		if u.Username == name {
			return u, true
		}
	}
	return User{}, false
}

// AdminCount is the number of present users holding the admin flag.
func (r *Room) AdminCount() int {
	n := 0
	for _, u := range r.Users {
		if u.Roles.IsAdmin {
			n++
		}
	}
	return n
}

// Current returns the playlist the queue operations act on.
func (r *Room) Current() (Playlist, bool) {
	if r.CurrentPlaylist == nil {
		return Playlist{}, false
	}
	p, ok := r.Playlists[*r.CurrentPlaylist]
	return p, ok
}

func (r *Room) SetCurrent(id PlaylistID) {
	r.CurrentPlaylist = &id
}

// Members lists users in join order.
func (r *Room) Members() []User {
	out := make([]User, 0, len(r.Users))
	for _, u := range r.Users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Joined != out[j].Joined {
			return out[i].Joined < out[j].Joined
		}
		return out[i].Username < out[j].Username
	})
	return out
}

// OrderedPlaylists lists playlists in creation order.
func (r *Room) OrderedPlaylists() []Playlist {
	out := make([]Playlist, 0, len(r.Playlists))
	for _, p := range r.Playlists {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// NewPlaylistID returns a short id not yet used by a playlist.
func (r *Room) NewPlaylistID() PlaylistID {
	for {
		id := PlaylistID(shortID())
		if _, taken := r.Playlists[id]; !taken {
			return id
		}
	}
}

// NewPollID returns a short id not yet used by an open poll.
func (r *Room) NewPollID() PollID {
	for {
		id := PollID(shortID())
		if _, taken := r.Polls[id]; !taken {
			return id
		}
	}
}

// Short ids are typed by people in commands, so they stay at 8 hex chars.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Validate checks the cross-entity invariants of a loaded or mutated room.
func (r *Room) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("room id missing")
	}
	if r.AdminCount() == 0 {
		return fmt.Errorf("room has no admin")
	}
	names := make(map[string]bool, len(r.Users))
	for id, u := range r.Users {
		if id != u.ID {
			return fmt.Errorf("user %s stored under key %s", u.ID, id)
		}
		if names[u.Username] {
			return fmt.Errorf("username %q is not unique", u.Username)
		}
		names[u.Username] = true
	}
	for id, p := range r.Playlists {
		if id != p.ID {
			return fmt.Errorf("playlist %s stored under key %s", p.ID, id)
		}
	}
	if r.CurrentPlaylist != nil {
		if _, ok := r.Playlists[*r.CurrentPlaylist]; !ok {
			return fmt.Errorf("current playlist %s does not exist", *r.CurrentPlaylist)
		}
	}
	for id, p := range r.Polls {
		if id != p.ID {
			return fmt.Errorf("poll %s stored under key %s", p.ID, id)
		}
		if len(p.Votes) != len(p.Options) {
			return fmt.Errorf("poll %s votes do not match its options", id)
		}
		for _, o := range p.Options {
			if _, ok := p.Votes[o]; !ok {
				return fmt.Errorf("poll %s has no count for %q", id, o)
			}
		}
	}
	return nil
}
