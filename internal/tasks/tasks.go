// package tasks implements setlist-to-streaming track resolution.
//
// The core abstraction is ResolutionEngine, which maps each performed song in a concert
// to a playable streaming track. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"github.com/charmbracelet/log"

	"github.com/concert-time-machine/ctm/internal/models"
	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
)

// TrackCache persists resolved tracks between runs so repeat performances of
// the same song skip the search call. Implemented by repositories.TrackCache.
type TrackCache interface {
	Lookup(songKey string) (*models.CachedTrack, bool)
	Store(track *models.CachedTrack) error
}

// SongResolution represents the outcome of resolving a single performed song.
type SongResolution struct {
	Song      services.PerformedSong   // Performed song the lookup was for
	Track     *services.StreamingTrack // Resolved track (nil if not found)
	FromCache bool                     // Whether the track came from the local cache
}

// SetlistResolution contains all data from resolving one concert's setlist.
type SetlistResolution struct {
	ConcertID     string           // Setlist ID of the resolved concert
	Generation    uint64           // Selection generation the resolution was started under
	Resolutions   []SongResolution // Per-song outcomes in setlist order
	ResolvedCount int              // Number of songs with a playable track
	FailedCount   int              // Number of songs with no match
	TotalSongs    int              // Total songs processed
}

// ResolutionEngine resolves performed songs to streaming tracks, optionally
// backed by a persistent cache.
type ResolutionEngine struct {
	service services.StreamingService
	cache   TrackCache
	logger  *log.Logger
}

// NewResolutionEngine creates an engine. The cache may be nil.
func NewResolutionEngine(service services.StreamingService, cache TrackCache) *ResolutionEngine {
	return &ResolutionEngine{
		service: service,
		cache:   cache,
		logger:  shared.NewLogger(nil),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ResolutionEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
