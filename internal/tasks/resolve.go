package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/concert-time-machine/ctm/internal/models"
	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
)

// ResolveOpts contains configuration for setlist resolution.
type ResolveOpts struct {
	BatchSize int     // Concurrent lookups (default: 5)
	RateLimit float64 // Requests per second (default: 10)
}

type resolveJob struct {
	index int
	song  services.PerformedSong
}

type resolveResult struct {
	index      int
	resolution SongResolution
}

// PerformedSongs extracts the lookup pairs for a concert's setlist. Covers
// resolve against the original artist; everything else against the headliner.
func PerformedSongs(concert *services.Concert) []services.PerformedSong {
	var songs []services.PerformedSong
	for _, song := range concert.AllSongs() {
		artist := concert.Artist.Name
		if song.Cover != nil && song.Cover.Name != "" {
			artist = song.Cover.Name
		}
		songs = append(songs, services.PerformedSong{Artist: artist, Title: song.Name})
	}
	return songs
}

// ResolveSetlist resolves every performed song in a concert to a streaming
// track using a bounded worker pool with rate-limited dispatch.
//
// Unresolvable songs are recorded as misses, never errors: a partially
// playable concert is still playable. The generation tag is carried through
// so callers can discard a resolution the user has navigated away from.
func (e *ResolutionEngine) ResolveSetlist(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	concert *services.Concert,
	generation uint64,
	opts ResolveOpts,
) (*SetlistResolution, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: streaming service not initialized", shared.ErrServiceUnavailable)
	}
	if concert == nil {
		return nil, fmt.Errorf("%w: no concert selected", shared.ErrInvalidInput)
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.BatchSize > 10 {
		opts.BatchSize = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10.0
	}

	songs := PerformedSongs(concert)
	result := &SetlistResolution{
		ConcertID:   concert.ID,
		Generation:  generation,
		Resolutions: make([]SongResolution, len(songs)),
		TotalSongs:  len(songs),
	}
	if len(songs) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), opts.BatchSize)

	jobs := make(chan resolveJob, len(songs))
	results := make(chan resolveResult, len(songs))

	var wg sync.WaitGroup
	for i := 0; i < opts.BatchSize; i++ {
		wg.Add(1)
		go e.resolveWorker(ctx, &wg, limiter, jobs, results)
	}

	for i, song := range songs {
		jobs <- resolveJob{index: i, song: song}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Resolutions[res.index] = res.resolution

		if res.resolution.Track != nil {
			result.ResolvedCount++
			e.sendProgress(prog, trackResolvedUpdate(completed, len(songs), res.resolution.Track))
		} else {
			result.FailedCount++
			e.sendProgress(prog, trackMissUpdate(completed, len(songs), res.resolution.Song))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("resolution interrupted: %w", err)
	}

	e.sendProgress(prog, resolveDoneUpdate(result.ResolvedCount, result.TotalSongs))
	return result, nil
}

// ResolveByID fetches a setlist by ID and resolves its songs.
func (e *ResolutionEngine) ResolveByID(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	concerts services.ConcertService,
	setlistID string,
	generation uint64,
	opts ResolveOpts,
) (*services.Concert, *SetlistResolution, error) {
	e.sendProgress(prog, fetchSetlistUpdate(setlistID))

	concert := concerts.SetlistByID(ctx, setlistID)
	if concert == nil {
		return nil, nil, fmt.Errorf("%w: %s", shared.ErrSetlistNotFound, setlistID)
	}

	resolution, err := e.ResolveSetlist(ctx, prog, concert, generation, opts)
	return concert, resolution, err
}

// resolveWorker consumes lookup jobs, pacing upstream calls with the shared
// limiter. Cache hits bypass the limiter entirely.
func (e *ResolutionEngine) resolveWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan resolveJob,
	results chan<- resolveResult,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- resolveResult{index: job.index, resolution: SongResolution{Song: job.song}}
			continue
		default:
		}

		if track, ok := e.cached(job.song); ok {
			results <- resolveResult{index: job.index, resolution: SongResolution{Song: job.song, Track: track, FromCache: true}}
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			results <- resolveResult{index: job.index, resolution: SongResolution{Song: job.song}}
			continue
		}

		track := e.service.SearchTrack(ctx, job.song.Artist, job.song.Title)
		if track != nil {
			e.remember(job.song, track)
		}
		results <- resolveResult{index: job.index, resolution: SongResolution{Song: job.song, Track: track}}
	}
}

// ResolveSong resolves a single performed song, consulting the cache first.
// Returns nil when no match is found.
func (e *ResolutionEngine) ResolveSong(ctx context.Context, song services.PerformedSong) *services.StreamingTrack {
	if track, ok := e.cached(song); ok {
		return track
	}

	track := e.service.SearchTrack(ctx, song.Artist, song.Title)
	if track != nil {
		e.remember(song, track)
	}
	return track
}

// cached looks the song up in the persistent cache.
func (e *ResolutionEngine) cached(song services.PerformedSong) (*services.StreamingTrack, bool) {
	if e.cache == nil {
		return nil, false
	}

	key := shared.NormalizeSongKey(song.Artist, song.Title)
	cached, ok := e.cache.Lookup(key)
	if !ok {
		return nil, false
	}

	track := &services.StreamingTrack{
		ID:         cached.SpotifyID,
		Name:       cached.Name,
		URI:        cached.URI,
		DurationMS: cached.DurationMS,
		PreviewURL: cached.PreviewURL,
		Album:      services.Album{Name: cached.Album},
	}
	if cached.Artist != "" {
		track.Artists = []services.TrackArtist{{Name: cached.Artist}}
	}
	return track, true
}

// remember stores a successful resolution. Cache failures are logged, never
// propagated; the cache is an optimization.
func (e *ResolutionEngine) remember(song services.PerformedSong, track *services.StreamingTrack) {
	if e.cache == nil {
		return
	}

	now := time.Now()
	cached := &models.CachedTrack{
		TrackID:    shared.GenerateID(),
		SongKey:    shared.NormalizeSongKey(song.Artist, song.Title),
		SpotifyID:  track.ID,
		Name:       track.Name,
		Artist:     track.PrimaryArtist(),
		Album:      track.Album.Name,
		URI:        track.URI,
		DurationMS: track.DurationMS,
		PreviewURL: track.PreviewURL,
		Created:    now,
		Updated:    now,
	}

	if err := e.cache.Store(cached); err != nil {
		e.logger.Warn("failed to cache resolved track", "key", cached.SongKey, "error", err)
	}
}
