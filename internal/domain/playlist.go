package domain

type PlaylistID string

// Playlist is an ordered list of titles. When current, the same order is
// the play queue and index 0 is "now playing".
type Playlist struct {
	ID     PlaylistID `json:"playlist_id"`
	Name   string     `json:"name"`
	Movies []string   `json:"movies"`
	Order  uint64     `json:"order"`
}

func NewPlaylist(id PlaylistID, name string) (Playlist, error) {
	if name == "" {
		return Playlist{}, ErrEmptyValue.Withf("playlist name must not be empty")
	}
	return Playlist{ID: id, Name: name, Movies: []string{}}, nil
}

func (p *Playlist) Append(title string) error {
	if title == "" {
		return ErrEmptyValue.Withf("title must not be empty")
	}
	p.Movies = append(p.Movies, title)
	return nil
}

// RemoveAt deletes the title at the zero-based index and returns it.
func (p *Playlist) RemoveAt(index int) (string, error) {
	if index < 0 || index >= len(p.Movies) {
		return "", ErrInvalidIndex
	}
	removed := p.Movies[index]
	p.Movies = append(p.Movies[:index:index], p.Movies[index+1:]...)
	return removed, nil
}

// PopFront advances the queue.
func (p *Playlist) PopFront() (string, error) {
	if len(p.Movies) == 0 {
		return "", ErrQueueEmpty
	}
	return p.RemoveAt(0)
}

func (p Playlist) clone() Playlist {
	movies := make([]string, len(p.Movies))
	copy(movies, p.Movies)
	p.Movies = movies
	return p
}
