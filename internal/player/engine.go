// package player bridges song selection to an external playback engine
//
// The engine abstraction covers asynchronously-initializing playback surfaces
// that report readiness and state changes through events.
package player

import (
	"context"
)

// Event is the closed set of notifications a playback engine can emit.
// Payloads are decoded at the engine boundary so consumers never handle
// untyped data.
type Event interface {
	isEvent()
}

// InitFailed reports that the engine could not initialize.
// DRMUnsupported distinguishes a missing secure-playback capability from a
// generic initialization failure.
type InitFailed struct {
	Message        string
	DRMUnsupported bool
}

// AuthFailed reports that the engine rejected the supplied token.
type AuthFailed struct {
	Message string
}

// AccountIneligible reports that the account cannot stream (e.g. not premium).
type AccountIneligible struct {
	Message string
}

// PlaybackFailed reports a failure during playback itself.
type PlaybackFailed struct {
	Message string
}

// Ready reports that the engine has an active device.
type Ready struct {
	DeviceID string
}

// NotReady reports that the engine's device went offline.
type NotReady struct {
	DeviceID string
}

// StateChanged mirrors the engine's playback state. The engine is the source
// of truth for these fields once ready.
type StateChanged struct {
	Paused      bool
	PositionMS  int
	DurationMS  int
	TrackURI    string
	TrackName   string
	TrackArtist string
	AlbumName   string
	ArtworkURL  string
}

func (InitFailed) isEvent()        {}
func (AuthFailed) isEvent()        {}
func (AccountIneligible) isEvent() {}
func (PlaybackFailed) isEvent()    {}
func (Ready) isEvent()             {}
func (NotReady) isEvent()          {}
func (StateChanged) isEvent()      {}

// TokenSupplier re-resolves the current user token on every call. Engines
// must not capture a token at construction time; it can be refreshed
// out-of-band.
type TokenSupplier func(ctx context.Context) (string, bool)

// EngineConfig carries the construction parameters shared by all engines.
type EngineConfig struct {
	Name   string  // Device name announced to the streaming provider
	Volume float64 // Initial volume in [0, 1]
	Tokens TokenSupplier
}

// Engine abstracts a playback surface. Connect starts event delivery;
// Disconnect stops it and closes the event channel. All control operations
// are safe to call before the engine is ready.
type Engine interface {
	Connect(ctx context.Context) error
	Disconnect()
	Events() <-chan Event

	TogglePlay(ctx context.Context) error
	Seek(ctx context.Context, positionMS int) error
	SetVolume(ctx context.Context, volume float64) error

	// Activate prepares the engine's device for playback started by a
	// direct user action. Callers sequence it before changing track.
	Activate(ctx context.Context) error
}

// EngineFactory constructs an engine for the given config. The manager picks
// a NullEngine itself when no user token is available.
type EngineFactory func(config EngineConfig) Engine
