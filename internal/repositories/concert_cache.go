package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/concert-time-machine/ctm/internal/models"
	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
)

// ConcertCacheAdapter snapshots fetched concerts into SetlistRepository so
// previously browsed setlists survive restarts and network outages.
type ConcertCacheAdapter struct {
	repo *SetlistRepository
}

// NewConcertCacheAdapter creates a new ConcertCacheAdapter with the given repository
func NewConcertCacheAdapter(repo *SetlistRepository) *ConcertCacheAdapter {
	return &ConcertCacheAdapter{repo: repo}
}

// Snapshot stores the concert, replacing any older snapshot of the same setlist.
func (a *ConcertCacheAdapter) Snapshot(concert *services.Concert) error {
	if concert == nil {
		return fmt.Errorf("%w: no concert to snapshot", shared.ErrInvalidInput)
	}

	payload, err := shared.MarshalJSON(concert, false)
	if err != nil {
		return fmt.Errorf("failed to encode concert: %w", err)
	}

	cached := &models.CachedSetlist{
		SetlistID:   concert.ID,
		VersionID:   concert.VersionID,
		ArtistMBID:  concert.Artist.MBID,
		ArtistName:  concert.Artist.Name,
		EventDate:   concert.EventDate,
		VenueName:   concert.Venue.Name,
		CityName:    concert.Venue.City.Name,
		CountryCode: concert.Venue.City.Country.Code,
		SongCount:   concert.TotalSongs(),
		Payload:     string(payload),
	}

	return a.repo.Save(cached)
}

// Load rebuilds a concert from its cached snapshot. Returns false when the
// setlist has never been snapshotted or the payload cannot be decoded.
func (a *ConcertCacheAdapter) Load(setlistID string) (*services.Concert, bool) {
	cached, err := a.repo.Get(setlistID)
	if err != nil {
		return nil, false
	}

	var concert services.Concert
	if err := json.Unmarshal([]byte(cached.Payload), &concert); err != nil {
		return nil, false
	}

	return &concert, true
}
