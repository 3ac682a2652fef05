package command

import (
	"fmt"
	"strings"

	"github.com/dkeye/watchroom/internal/core"
)

// FormatPlaylist renders a playlist with 1-based positions, matching the
// indexes playlistRemove and currentRemove accept.
func FormatPlaylist(v core.PlaylistView) string {
	var b strings.Builder
	marker := ""
	if v.Current {
		marker = " [current]"
	}
	fmt.Fprintf(&b, "Playlist %s (%s)%s:\n", v.ID, v.Name, marker)
	if len(v.Movies) == 0 {
		b.WriteString("  (empty)\n")
	}
	for i, m := range v.Movies {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, m)
	}
	return b.String()
}

// FormatPlaylists renders the playlist index, current one starred.
func FormatPlaylists(views []core.PlaylistView) string {
	if len(views) == 0 {
		return "No playlists.\n"
	}
	var b strings.Builder
	for _, v := range views {
		star := " "
		if v.Current {
			star = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s (%d)\n", star, v.ID, v.Name, len(v.Movies))
	}
	return b.String()
}
