package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/concert-time-machine/ctm/internal/services"
)

var (
	_ list.Item = artistItem{}
	_ list.Item = concertItem{}
	_ list.Item = songItem{}
)

// artistItem wraps [services.Artist] to implement [list.Item].
type artistItem struct {
	artist services.Artist
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string {
	if i.artist.Disambiguation != "" {
		return i.artist.Disambiguation
	}
	return i.artist.SortName
}

// concertItem wraps [services.Concert] to implement [list.Item].
type concertItem struct {
	concert services.Concert
}

func (i concertItem) FilterValue() string { return i.concert.Venue.Name }
func (i concertItem) Title() string {
	return fmt.Sprintf("%s • %s", i.concert.EventDate, i.concert.Venue.Name)
}
func (i concertItem) Description() string {
	return fmt.Sprintf("%s • %d songs", i.concert.Location(), i.concert.TotalSongs())
}

// songItem pairs a performed song with its resolved track, when one exists.
type songItem struct {
	position int
	song     services.PerformedSong
	track    *services.StreamingTrack
}

func (i songItem) FilterValue() string { return i.song.Title }
func (i songItem) Title() string {
	marker := " "
	if i.track != nil {
		marker = "♪"
	}
	return fmt.Sprintf("%s %d. %s", marker, i.position, i.song.Title)
}
func (i songItem) Description() string {
	if i.track == nil {
		return fmt.Sprintf("%s • not available", i.song.Artist)
	}
	desc := i.song.Artist
	if i.track.Album.Name != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Name)
	}
	return desc
}
