// Spotify Connect implementation of [Engine]
//
// Drives playback through the Web API's player endpoints and synthesizes the
// engine event stream by polling the account's playback state.
package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
)

const defaultPollInterval = time.Second

// ConnectAPI is the slice of the streaming API the Connect engine drives.
// Implemented by [services.SpotifyService].
type ConnectAPI interface {
	Devices(ctx context.Context) ([]services.Device, error)
	PlayerState(ctx context.Context) (*services.PlayerState, error)
	PausePlayback(ctx context.Context) bool
	ResumePlayback(ctx context.Context) bool
	TransferPlayback(ctx context.Context, deviceID string, play bool) bool
	SeekPosition(ctx context.Context, positionMS int) bool
	SetVolume(ctx context.Context, percent int) bool
}

// ConnectEngine implements Engine on top of Spotify Connect. Unlike an
// embedded playback SDK it cannot announce a new device, so it attaches to
// whichever device the account reports, preferring the active one.
type ConnectEngine struct {
	api          ConnectAPI
	config       EngineConfig
	events       chan Event
	stop         chan struct{}
	stopOnce     sync.Once
	pollInterval time.Duration
	logger       *log.Logger

	mu       sync.Mutex
	deviceID string
	ready    bool
}

// NewConnectEngine returns an engine factory backed by the given API client.
func NewConnectEngine(api ConnectAPI) EngineFactory {
	return func(config EngineConfig) Engine {
		return &ConnectEngine{
			api:          api,
			config:       config,
			events:       make(chan Event, 16),
			stop:         make(chan struct{}),
			pollInterval: defaultPollInterval,
			logger:       shared.NewLogger(nil),
		}
	}
}

// emit delivers an event without ever blocking the poll loop.
func (e *ConnectEngine) emit(event Event) {
	select {
	case e.events <- event:
	default:
		e.logger.Warn("dropping engine event, consumer is behind")
	}
}

// Connect verifies the token, attaches to a playback device, and starts the
// state poll loop. A missing device is not fatal; the poll loop picks one up
// when it appears.
func (e *ConnectEngine) Connect(ctx context.Context) error {
	if e.config.Tokens == nil {
		return fmt.Errorf("%w: no token supplier", shared.ErrEngineInit)
	}
	if _, ok := e.config.Tokens(ctx); !ok {
		e.emit(AuthFailed{Message: "no valid user token"})
		close(e.events)
		return fmt.Errorf("%w: no valid user token", shared.ErrEngineAuth)
	}

	devices, err := e.api.Devices(ctx)
	if err != nil {
		e.emit(InitFailed{Message: err.Error()})
		close(e.events)
		return fmt.Errorf("%w: %v", shared.ErrEngineInit, err)
	}

	var target *services.Device
	for i := range devices {
		if devices[i].IsActive {
			target = &devices[i]
			break
		}
	}
	if target == nil && len(devices) > 0 {
		target = &devices[0]
	}

	if target != nil {
		e.mu.Lock()
		e.deviceID = target.ID
		e.ready = true
		e.mu.Unlock()

		if percent := int(e.config.Volume * 100); percent > 0 {
			e.api.SetVolume(ctx, percent)
		}
		e.emit(Ready{DeviceID: target.ID})
	}

	go e.poll()
	return nil
}

// poll mirrors the account's playback state into engine events until
// Disconnect is called.
func (e *ConnectEngine) poll() {
	defer close(e.events)

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.pollOnce()
		}
	}
}

func (e *ConnectEngine) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), e.pollInterval)
	defer cancel()

	state, err := e.api.PlayerState(ctx)
	if err != nil {
		e.logger.Debug("player state poll failed", "error", err)
		return
	}

	e.mu.Lock()
	wasReady := e.ready
	device := e.deviceID
	e.mu.Unlock()

	if state == nil {
		if wasReady {
			e.mu.Lock()
			e.ready = false
			e.mu.Unlock()
			e.emit(NotReady{DeviceID: device})
		}
		return
	}

	if !wasReady || state.Device.ID != device {
		e.mu.Lock()
		e.deviceID = state.Device.ID
		e.ready = true
		e.mu.Unlock()
		e.emit(Ready{DeviceID: state.Device.ID})
	}

	changed := StateChanged{
		Paused:     !state.IsPlaying,
		PositionMS: state.ProgressMS,
	}
	if state.Item != nil {
		changed.DurationMS = state.Item.DurationMS
		changed.TrackURI = state.Item.URI
		changed.TrackName = state.Item.Name
		changed.TrackArtist = state.Item.PrimaryArtist()
		changed.AlbumName = state.Item.Album.Name
		if len(state.Item.Album.Images) > 0 {
			changed.ArtworkURL = state.Item.Album.Images[0].URL
		}
	}
	e.emit(changed)
}

// Disconnect stops the poll loop. The event channel closes once the loop exits.
func (e *ConnectEngine) Disconnect() {
	e.stopOnce.Do(func() { close(e.stop) })
}

func (e *ConnectEngine) Events() <-chan Event { return e.events }

// TogglePlay flips the account's playback between playing and paused.
func (e *ConnectEngine) TogglePlay(ctx context.Context) error {
	state, err := e.api.PlayerState(ctx)
	if err != nil {
		return fmt.Errorf("failed to read playback state: %w", err)
	}
	if state == nil {
		return fmt.Errorf("%w: no active playback session", shared.ErrNoDevice)
	}

	if state.IsPlaying {
		if !e.api.PausePlayback(ctx) {
			return fmt.Errorf("pause command failed")
		}
		return nil
	}

	if !e.api.ResumePlayback(ctx) {
		return fmt.Errorf("resume command failed")
	}
	return nil
}

// Seek seeks within the current track.
func (e *ConnectEngine) Seek(ctx context.Context, positionMS int) error {
	if !e.api.SeekPosition(ctx, positionMS) {
		return fmt.Errorf("seek command failed")
	}
	return nil
}

// SetVolume sets playback volume from a fraction in [0, 1].
func (e *ConnectEngine) SetVolume(ctx context.Context, volume float64) error {
	if !e.api.SetVolume(ctx, int(volume*100)) {
		return fmt.Errorf("volume command failed")
	}
	return nil
}

// Activate transfers the playback session to the attached device so
// subsequent play commands land on it.
func (e *ConnectEngine) Activate(ctx context.Context) error {
	e.mu.Lock()
	device := e.deviceID
	ready := e.ready
	e.mu.Unlock()

	if !ready || device == "" {
		return nil
	}

	if !e.api.TransferPlayback(ctx, device, false) {
		return fmt.Errorf("failed to activate device %s", device)
	}
	return nil
}
