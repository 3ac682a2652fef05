package app

import (
	"context"
	"fmt"

	"github.com/dkeye/watchroom/internal/core"
	"github.com/dkeye/watchroom/internal/domain"
)

// CreatePlaylist adds an empty playlist. The first playlist of a room
// without a current one becomes current.
func (s *RoomService) CreatePlaylist(ctx context.Context, actor, name string) (domain.Playlist, error) {
	var created domain.Playlist
	err := s.mutate(ctx, "playlist_create", actor, ActPlaylistEdit, func(next *domain.Room, who domain.User) ([]string, error) {
		pl, err := domain.NewPlaylist(next.NewPlaylistID(), name)
		if err != nil {
			return nil, err
		}
		pl.Order = next.Revision
		next.Playlists[pl.ID] = pl
		if _, ok := next.Current(); !ok {
			next.SetCurrent(pl.ID)
		}
		created = pl
		return []string{fmt.Sprintf("%s created playlist %s (%s).", who.Username, pl.ID, name)}, nil
	})
	return created, err
}

// DeletePlaylist removes a playlist. Deleting the current one clears the
// pointer; the next created playlist becomes current.
func (s *RoomService) DeletePlaylist(ctx context.Context, actor string, id domain.PlaylistID) error {
	return s.mutate(ctx, "playlist_delete", actor, ActPlaylistEdit, func(next *domain.Room, who domain.User) ([]string, error) {
		pl, err := playlist(next, id)
		if err != nil {
			return nil, err
		}
		delete(next.Playlists, id)
		if next.CurrentPlaylist != nil && *next.CurrentPlaylist == id {
			next.CurrentPlaylist = nil
		}
		return []string{fmt.Sprintf("%s deleted playlist %s (%s).", who.Username, id, pl.Name)}, nil
	})
}

func (s *RoomService) AddToPlaylist(ctx context.Context, actor string, id domain.PlaylistID, title string) error {
	return s.mutate(ctx, "playlist_add", actor, ActPlaylistEdit, func(next *domain.Room, who domain.User) ([]string, error) {
		pl, err := playlist(next, id)
		if err != nil {
			return nil, err
		}
		if err := pl.Append(title); err != nil {
			return nil, err
		}
		next.Playlists[id] = pl
		return []string{fmt.Sprintf("%s added '%s' to playlist %s.", who.Username, title, id)}, nil
	})
}

// RemoveFromPlaylist takes a zero-based index.
func (s *RoomService) RemoveFromPlaylist(ctx context.Context, actor string, id domain.PlaylistID, index int) (string, error) {
	var removed string
	err := s.mutate(ctx, "playlist_remove", actor, ActPlaylistEdit, func(next *domain.Room, who domain.User) ([]string, error) {
		pl, err := playlist(next, id)
		if err != nil {
			return nil, err
		}
		removed, err = pl.RemoveAt(index)
		if err != nil {
			return nil, err
		}
		next.Playlists[id] = pl
		return []string{fmt.Sprintf("%s removed '%s' from playlist %s.", who.Username, removed, id)}, nil
	})
	return removed, err
}

func (s *RoomService) ShowPlaylists(ctx context.Context, actor string) ([]core.PlaylistView, error) {
	var out []core.PlaylistView
	err := s.read("playlist_show", actor, func(room *domain.Room) error {
		for _, pl := range room.OrderedPlaylists() {
			out = append(out, view(room, pl))
		}
		return nil
	})
	return out, err
}

func (s *RoomService) ShowPlaylist(ctx context.Context, actor string, id domain.PlaylistID) (core.PlaylistView, error) {
	var out core.PlaylistView
	err := s.read("playlist_show", actor, func(room *domain.Room) error {
		pl, err := playlist(room, id)
		if err != nil {
			return err
		}
		out = view(room, pl)
		return nil
	})
	return out, err
}

func (s *RoomService) SwitchPlaylist(ctx context.Context, actor string, id domain.PlaylistID) error {
	return s.mutate(ctx, "playlist_switch", actor, ActPlaylistEdit, func(next *domain.Room, who domain.User) ([]string, error) {
		pl, err := playlist(next, id)
		if err != nil {
			return nil, err
		}
		next.SetCurrent(id)
		return []string{fmt.Sprintf("%s switched to playlist %s (%s).", who.Username, id, pl.Name)}, nil
	})
}

func (s *RoomService) AddToCurrent(ctx context.Context, actor, title string) error {
	return s.mutate(ctx, "current_add", actor, ActQueueEdit, func(next *domain.Room, who domain.User) ([]string, error) {
		pl, err := current(next)
		if err != nil {
			return nil, err
		}
		if err := pl.Append(title); err != nil {
			return nil, err
		}
		next.Playlists[pl.ID] = pl
		return []string{fmt.Sprintf("%s added '%s' to current playlist.", who.Username, title)}, nil
	})
}

// RemoveFromCurrent takes a zero-based index.
func (s *RoomService) RemoveFromCurrent(ctx context.Context, actor string, index int) (string, error) {
	var removed string
	err := s.mutate(ctx, "current_remove", actor, ActQueueEdit, func(next *domain.Room, who domain.User) ([]string, error) {
		pl, err := current(next)
		if err != nil {
			return nil, err
		}
		removed, err = pl.RemoveAt(index)
		if err != nil {
			return nil, err
		}
		next.Playlists[pl.ID] = pl
		return []string{fmt.Sprintf("%s removed '%s' from current playlist.", who.Username, removed)}, nil
	})
	return removed, err
}

func (s *RoomService) ShowCurrent(ctx context.Context, actor string) (core.PlaylistView, error) {
	var out core.PlaylistView
	err := s.read("current_show", actor, func(room *domain.Room) error {
		pl, err := current(room)
		if err != nil {
			return err
		}
		out = view(room, pl)
		return nil
	})
	return out, err
}

// NextInCurrent pops the head of the current playlist and returns it.
func (s *RoomService) NextInCurrent(ctx context.Context, actor string) (string, error) {
	var removed string
	err := s.mutate(ctx, "current_next", actor, ActQueueEdit, func(next *domain.Room, who domain.User) ([]string, error) {
		pl, err := current(next)
		if err != nil {
			return nil, err
		}
		removed, err = pl.PopFront()
		if err != nil {
			return nil, err
		}
		next.Playlists[pl.ID] = pl
		return []string{fmt.Sprintf("%s advanced to next item in current playlist (removed '%s').", who.Username, removed)}, nil
	})
	return removed, err
}

func playlist(room *domain.Room, id domain.PlaylistID) (domain.Playlist, error) {
	pl, ok := room.Playlists[id]
	if !ok {
		return domain.Playlist{}, domain.ErrPlaylistNotFound.Withf("playlist %s not found", id)
	}
	return pl, nil
}

func current(room *domain.Room) (domain.Playlist, error) {
	pl, ok := room.Current()
	if !ok {
		return domain.Playlist{}, domain.ErrNoCurrentPlaylist
	}
	return pl, nil
}

func view(room *domain.Room, pl domain.Playlist) core.PlaylistView {
	movies := make([]string, len(pl.Movies))
	copy(movies, pl.Movies)
	return core.PlaylistView{
		ID:      pl.ID,
		Name:    pl.Name,
		Movies:  movies,
		Current: room.CurrentPlaylist != nil && *room.CurrentPlaylist == pl.ID,
	}
}
