// package services defines interfaces for interacting with HTTP APIs
//
// setlist.fm (concert data), Spotify (track resolution and playback)
package services

import (
	"context"
)

// ConcertService defines the interface for concert data providers that can
// search artists and retrieve historical setlists.
type ConcertService interface {
	// SearchArtists searches artists by name, sorted by relevance.
	// Returns an error on a non-success status; an invalid API key is
	// surfaced with actionable guidance.
	SearchArtists(ctx context.Context, query string, opts ...ArtistSearchOption) ([]Artist, error)

	// ArtistSetlists fetches one page of an artist's concert history.
	// Never fails: any error degrades to an empty page with total 0.
	ArtistSetlists(ctx context.Context, artistMBID string, page int) *SetlistPage

	// SetlistByID fetches a single concert by setlist ID.
	// Returns nil rather than an error on failure.
	SetlistByID(ctx context.Context, setlistID string) *Concert

	// Name returns the name of the service (e.g., "setlist.fm")
	Name() string
}

// StreamingService defines the interface for music streaming providers used
// for track resolution and playback control.
type StreamingService interface {
	// SearchTrack searches for a track by artist and song title.
	// Returns nil when no match is found or the search fails.
	SearchTrack(ctx context.Context, artist, title string) *StreamingTrack

	// ArtistInfo looks up artist metadata (images, genres) by name.
	// Returns nil when no match is found or the lookup fails.
	ArtistInfo(ctx context.Context, name string) *StreamingArtist

	// Devices lists the user's available playback devices.
	Devices(ctx context.Context) ([]Device, error)

	// PlayerState returns the user's current playback state, or nil when
	// no playback session is active.
	PlayerState(ctx context.Context) (*PlayerState, error)

	// PlayTrack starts playback of a track URI on the active device,
	// falling back to the first available device. Reports success as a
	// boolean; failures are logged, never returned.
	PlayTrack(ctx context.Context, uri string) bool

	// PlayOn starts playback of a track URI on a specific device.
	PlayOn(ctx context.Context, deviceID, uri string) bool

	// PausePlayback pauses the user's playback.
	PausePlayback(ctx context.Context) bool

	// ResumePlayback resumes the user's playback.
	ResumePlayback(ctx context.Context) bool

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Artist represents a performing artist from the concert database
type Artist struct {
	MBID           string `json:"mbid"`
	Name           string `json:"name"`
	SortName       string `json:"sortName,omitempty"`
	Disambiguation string `json:"disambiguation,omitempty"`
	URL            string `json:"url,omitempty"`
}

// Coords represents venue coordinates
type Coords struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Country represents a venue's country
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// City represents a venue's city
type City struct {
	Name      string  `json:"name"`
	State     string  `json:"state,omitempty"`
	StateCode string  `json:"stateCode,omitempty"`
	Coords    *Coords `json:"coords,omitempty"`
	Country   Country `json:"country"`
}

// Venue represents a concert venue
type Venue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City City   `json:"city"`
}

// Cover identifies the original artist of a covered song
type Cover struct {
	MBID string `json:"mbid"`
	Name string `json:"name"`
}

// Song represents a single performed song in a setlist
type Song struct {
	Name  string `json:"name"`
	Tape  bool   `json:"tape,omitempty"` // Played from tape, not performed live
	Cover *Cover `json:"cover,omitempty"`
	Info  string `json:"info,omitempty"`
}

// Set represents one segment of a concert (main set, encore, etc.)
type Set struct {
	Name   string `json:"name,omitempty"`
	Encore int    `json:"encore,omitempty"`
	Songs  []Song `json:"song"`
}

// Sets wraps the set list as nested by the upstream API
type Sets struct {
	Set []Set `json:"set"`
}

// Concert represents a single historical concert with its full setlist
type Concert struct {
	ID        string `json:"id"`
	VersionID string `json:"versionId"`
	EventDate string `json:"eventDate"` // DD-MM-YYYY as reported upstream
	Artist    Artist `json:"artist"`
	Venue     Venue  `json:"venue"`
	Sets      Sets   `json:"sets"`
	Info      string `json:"info,omitempty"`
	URL       string `json:"url,omitempty"`
}

// AllSongs flattens every set into a single ordered song list.
func (c *Concert) AllSongs() []Song {
	var songs []Song
	for _, set := range c.Sets.Set {
		songs = append(songs, set.Songs...)
	}
	return songs
}

// TotalSongs returns the number of songs performed across all sets.
func (c *Concert) TotalSongs() int {
	total := 0
	for _, set := range c.Sets.Set {
		total += len(set.Songs)
	}
	return total
}

// Location renders the venue, city, and country for display.
func (c *Concert) Location() string {
	parts := c.Venue.Name
	if c.Venue.City.Name != "" {
		if parts != "" {
			parts += ", "
		}
		parts += c.Venue.City.Name
	}
	if c.Venue.City.Country.Code != "" {
		if parts != "" {
			parts += ", "
		}
		parts += c.Venue.City.Country.Code
	}
	return parts
}

// SetlistPage represents one page of an artist's concert history
type SetlistPage struct {
	Concerts []Concert
	Total    int
}

// PerformedSong pairs an artist with a song title for track resolution
type PerformedSong struct {
	Artist string
	Title  string
}

// Image represents an image resource from the streaming provider
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// TrackArtist represents a credited artist on a streaming track
type TrackArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album represents album metadata on a streaming track
type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// StreamingTrack represents a playable track from the streaming provider
type StreamingTrack struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Artists    []TrackArtist `json:"artists"`
	Album      Album         `json:"album"`
	URI        string        `json:"uri"`
	DurationMS int           `json:"duration_ms"`
	PreviewURL string        `json:"preview_url"`
}

// PrimaryArtist returns the first credited artist's name, if any.
func (t *StreamingTrack) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

type followers struct {
	Total int `json:"total"`
}

// StreamingArtist represents artist metadata from the streaming provider
type StreamingArtist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Images    []Image   `json:"images"`
	Genres    []string  `json:"genres"`
	Followers followers `json:"followers"`
}

// Device represents an available playback device
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

// PlayerState represents the user's current playback session
type PlayerState struct {
	IsPlaying  bool            `json:"is_playing"`
	ProgressMS int             `json:"progress_ms"`
	Device     Device          `json:"device"`
	Item       *StreamingTrack `json:"item"`
}
