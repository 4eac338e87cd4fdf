// package store holds the process-wide concert selection state
package store

import (
	"sync"

	"github.com/concert-time-machine/ctm/internal/services"
)

// Store is the single source of truth for what the user has selected:
// current artist, concert list, concert, song index, play intent, and the
// last-resolved streaming track for the current song.
//
// Every selection change bumps a generation counter. Asynchronous track
// resolutions carry the generation they were started under, and results from
// a superseded generation are discarded, so rapid navigation can never
// display a track for a song the user already left.
type Store struct {
	mu         sync.Mutex
	artist     *services.Artist
	concerts   []services.Concert
	concert    *services.Concert
	songIndex  int
	playing    bool
	resolved   *services.StreamingTrack
	generation uint64
}

// New creates an empty selection store.
func New() *Store {
	return &Store{}
}

// SelectArtist replaces the selected artist.
func (s *Store) SelectArtist(artist *services.Artist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artist = artist
}

// Artist returns the selected artist, if any.
func (s *Store) Artist() *services.Artist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artist
}

// SetConcerts replaces the browsable concert list.
func (s *Store) SetConcerts(concerts []services.Concert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concerts = concerts
}

// Concerts returns the current concert list.
func (s *Store) Concerts() []services.Concert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.concerts
}

// SelectConcert replaces the selected concert and unconditionally resets the
// song index to 0.
func (s *Store) SelectConcert(concert *services.Concert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concert = concert
	s.songIndex = 0
	s.resolved = nil
	s.generation++
}

// Concert returns the selected concert, if any.
func (s *Store) Concert() *services.Concert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.concert
}

// SongIndex returns the current song index.
func (s *Store) SongIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.songIndex
}

// CurrentSong returns the song at the current index.
func (s *Store) CurrentSong() (services.Song, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.concert == nil {
		return services.Song{}, false
	}
	songs := s.concert.AllSongs()
	if s.songIndex < 0 || s.songIndex >= len(songs) {
		return services.Song{}, false
	}
	return songs[s.songIndex], true
}

// NextSong advances the song index, clamping at the last song. A no-op past
// the end; no wraparound.
func (s *Store) NextSong() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.concert == nil {
		return
	}
	if s.songIndex < s.concert.TotalSongs()-1 {
		s.songIndex++
		s.resolved = nil
		s.generation++
	}
}

// PreviousSong moves the song index back, clamping at 0. A no-op at the
// first song; no wraparound.
func (s *Store) PreviousSong() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.songIndex > 0 {
		s.songIndex--
		s.resolved = nil
		s.generation++
	}
}

// SetSongIndex jumps directly to a song, clamping into [0, totalSongs-1].
func (s *Store) SetSongIndex(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.concert == nil {
		return
	}
	total := s.concert.TotalSongs()
	if total == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > total-1 {
		index = total - 1
	}
	if index != s.songIndex {
		s.songIndex = index
		s.resolved = nil
		s.generation++
	}
}

// SetPlaying records the local play intent.
func (s *Store) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = playing
}

// Playing returns the local play intent.
func (s *Store) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Generation returns the tag a track resolution started now must carry.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// SetResolvedTrack records the streaming track resolved for the current
// song. The result is discarded when generation no longer matches, i.e. the
// user has navigated since the resolution started. Reports whether the
// result was adopted.
func (s *Store) SetResolvedTrack(generation uint64, track *services.StreamingTrack) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}
	s.resolved = track
	return true
}

// ResolvedTrack returns the streaming track for the current song, if resolved.
func (s *Store) ResolvedTrack() *services.StreamingTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolved
}

// Reset clears all selection state back to initial values.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.artist = nil
	s.concerts = nil
	s.concert = nil
	s.songIndex = 0
	s.playing = false
	s.resolved = nil
	s.generation++
}
