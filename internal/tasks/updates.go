package tasks

import (
	"fmt"

	"github.com/concert-time-machine/ctm/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSetlist Phase = iota
	SearchTracks
	ResolveDone
)

func (p Phase) String() string {
	switch p {
	case FetchSetlist:
		return "fetch_setlist"
	case SearchTracks:
		return "search_tracks"
	case ResolveDone:
		return "resolve_done"
	default:
		return ""
	}
}

func fetchSetlistUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSetlist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching setlist %s...", id),
	}
}

func trackResolvedUpdate(step, total int, track *services.StreamingTrack) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, track.Name),
		Data:    track,
	}
}

func trackMissUpdate(step, total int, song services.PerformedSong) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s - %s: no match", step, total, song.Artist, song.Title),
	}
}

func resolveDoneUpdate(resolved, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveDone,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Resolved %d of %d songs", resolved, total),
	}
}
