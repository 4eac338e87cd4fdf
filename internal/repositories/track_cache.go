package repositories

import (
	"fmt"
	"strings"

	"github.com/concert-time-machine/ctm/internal/models"
)

// TrackCacheAdapter implements tasks.TrackCache using TrackRepository.
//
// Provides automatic resolution caching with deduplication via the song_key
// constraint. Duplicate resolutions are silently ignored.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// Lookup returns the cached resolution for a song key, if one exists.
func (a *TrackCacheAdapter) Lookup(songKey string) (*models.CachedTrack, bool) {
	track, err := a.repo.GetBySongKey(songKey)
	if err != nil {
		return nil, false
	}
	return track, true
}

// Store caches a resolved track. Returns nil if the song key is already
// cached; only actual failures propagate.
func (a *TrackCacheAdapter) Store(track *models.CachedTrack) error {
	err := a.repo.Create(track)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}
