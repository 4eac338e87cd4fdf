// package models defines the data model for the concert time machine cache
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models in the concert cache.
// Implementations include CachedSetlist and CachedTrack.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// CachedSetlist is a locally cached snapshot of a concert setlist fetched
// from setlist.fm. Payload holds the full concert JSON so a cached concert
// can be replayed without a network round trip.
type CachedSetlist struct {
	SetlistID   string
	VersionID   string
	ArtistMBID  string
	ArtistName  string
	EventDate   string
	VenueName   string
	CityName    string
	CountryCode string
	SongCount   int
	Payload     string
	Created     time.Time
	Updated     time.Time
}

func (s *CachedSetlist) ID() string           { return s.SetlistID }
func (s *CachedSetlist) CreatedAt() time.Time { return s.Created }
func (s *CachedSetlist) UpdatedAt() time.Time { return s.Updated }

// Validate checks required fields for a cached setlist.
func (s *CachedSetlist) Validate() error {
	if s.SetlistID == "" {
		return fmt.Errorf("setlist ID is required")
	}
	if s.ArtistMBID == "" {
		return fmt.Errorf("artist MBID is required")
	}
	if s.Payload == "" {
		return fmt.Errorf("setlist payload is required")
	}
	return nil
}

// CachedTrack is a resolved streaming track for a performed song, keyed by a
// normalized "artist|title" lookup key so repeat performances across concerts
// reuse the same resolution.
type CachedTrack struct {
	TrackID    string
	Sequence   int
	SongKey    string
	SpotifyID  string
	Name       string
	Artist     string
	Album      string
	URI        string
	DurationMS int
	PreviewURL string
	Created    time.Time
	Updated    time.Time
}

func (t *CachedTrack) ID() string           { return t.TrackID }
func (t *CachedTrack) CreatedAt() time.Time { return t.Created }
func (t *CachedTrack) UpdatedAt() time.Time { return t.Updated }

// Validate checks required fields for a cached track.
func (t *CachedTrack) Validate() error {
	if t.TrackID == "" {
		return fmt.Errorf("track ID is required")
	}
	if t.SongKey == "" {
		return fmt.Errorf("song key is required")
	}
	if t.SpotifyID == "" || t.URI == "" {
		return fmt.Errorf("spotify ID and URI are required")
	}
	return nil
}
