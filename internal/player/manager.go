package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
)

// State is the locally mirrored playback state. The engine is the source of
// truth for these fields once it reports ready.
type State struct {
	Ready       bool
	DeviceID    string
	Paused      bool
	PositionMS  int
	DurationMS  int
	TrackURI    string
	TrackName   string
	TrackArtist string
	AlbumName   string
	ArtworkURL  string
}

// Manager bridges "should be playing this track" intent to a playback engine
// and mirrors the engine's asynchronous state reports back into local state.
// Mirroring is strictly one-directional: the manager never re-issues a
// contradicting command in response to a state event.
type Manager struct {
	service services.StreamingService
	factory EngineFactory
	config  EngineConfig
	logger  *log.Logger

	initOnce sync.Once
	engine   Engine
	done     chan struct{}

	mu         sync.Mutex
	state      State
	desiredURI string
	lastErr    error
	onChange   func(State)
}

// NewManager creates a playback manager. The factory is only invoked once a
// valid user token exists; without one the manager stays inert on a
// NullEngine.
func NewManager(service services.StreamingService, factory EngineFactory, config EngineConfig) *Manager {
	return &Manager{
		service: service,
		factory: factory,
		config:  config,
		logger:  shared.NewLogger(nil),
		done:    make(chan struct{}),
	}
}

// Initialize constructs and connects the engine exactly once. Concurrent
// callers block on the first attempt rather than starting a second one.
// A failed connect handshake is logged, not fatal: playback degrades to the
// manual-device fallback paths.
func (m *Manager) Initialize(ctx context.Context) error {
	var initErr error
	m.initOnce.Do(func() {
		if m.config.Tokens == nil {
			initErr = fmt.Errorf("%w: no token supplier", shared.ErrConfiguration)
			return
		}

		if _, ok := m.config.Tokens(ctx); !ok {
			m.logger.Info("no user token, playback engine disabled")
			m.engine = NewNullEngine(m.config)
			go m.consume()
			return
		}

		m.engine = m.factory(m.config)
		go m.consume()

		if err := m.engine.Connect(ctx); err != nil {
			m.logger.Warn("engine connect failed, continuing in degraded mode", "error", err)
			m.setLastError(err)
		}
	})
	return initErr
}

// consume drains engine events until the engine disconnects.
func (m *Manager) consume() {
	defer close(m.done)
	for event := range m.engine.Events() {
		m.handleEvent(event)
	}
}

func (m *Manager) handleEvent(event Event) {
	m.mu.Lock()

	switch ev := event.(type) {
	case Ready:
		m.state.Ready = true
		m.state.DeviceID = ev.DeviceID
		m.logger.Info("playback engine ready", "device", ev.DeviceID)

	case NotReady:
		m.state.Ready = false
		m.logger.Warn("playback device went offline", "device", ev.DeviceID)

	case StateChanged:
		// Discard stale reports: an event for a track the user has
		// already navigated away from must not clobber local state.
		if ev.TrackURI != "" && m.desiredURI != "" && ev.TrackURI != m.desiredURI {
			m.logger.Debug("ignoring stale state event", "uri", ev.TrackURI, "want", m.desiredURI)
			m.mu.Unlock()
			return
		}
		m.state.Paused = ev.Paused
		m.state.PositionMS = ev.PositionMS
		m.state.DurationMS = ev.DurationMS
		if ev.TrackURI != "" {
			m.state.TrackURI = ev.TrackURI
			m.state.TrackName = ev.TrackName
			m.state.TrackArtist = ev.TrackArtist
			m.state.AlbumName = ev.AlbumName
			m.state.ArtworkURL = ev.ArtworkURL
		}

	case InitFailed:
		err := fmt.Errorf("%w: %s", shared.ErrEngineInit, ev.Message)
		if ev.DRMUnsupported {
			err = fmt.Errorf("%w: secure playback unsupported: %s", shared.ErrEngineInit, ev.Message)
		}
		m.lastErr = err
		m.logger.Error("engine initialization failed", "error", err)

	case AuthFailed:
		m.lastErr = fmt.Errorf("%w: %s", shared.ErrEngineAuth, ev.Message)
		m.logger.Error("engine rejected token", "message", ev.Message)

	case AccountIneligible:
		m.lastErr = fmt.Errorf("%w: %s", shared.ErrEngineAccount, ev.Message)
		m.logger.Error("account cannot stream", "message", ev.Message)

	case PlaybackFailed:
		m.logger.Error("playback failed", "message", ev.Message)
	}

	state := m.state
	notify := m.onChange
	m.mu.Unlock()

	if notify != nil {
		notify(state)
	}
}

// PlayTrack starts playback of the given track URI. With a ready device the
// command targets it directly; otherwise it falls back to whichever device
// the account reports as active. Reports success as a boolean.
func (m *Manager) PlayTrack(ctx context.Context, uri string) bool {
	m.mu.Lock()
	m.desiredURI = uri
	ready := m.state.Ready
	device := m.state.DeviceID
	m.mu.Unlock()

	var ok bool
	if ready && device != "" {
		ok = m.service.PlayOn(ctx, device, uri)
	} else {
		ok = m.service.PlayTrack(ctx, uri)
	}

	if ok {
		m.mu.Lock()
		m.state.Paused = false
		m.state.TrackURI = uri
		m.mu.Unlock()
	}
	return ok
}

// TogglePlayPause flips between playing and paused. With a ready engine it
// delegates to the engine's toggle primitive; otherwise it reads the
// account's playback state and issues the complementary command. Fallback
// failures are logged, never surfaced.
func (m *Manager) TogglePlayPause(ctx context.Context) {
	m.mu.Lock()
	ready := m.state.Ready
	engine := m.engine
	m.mu.Unlock()

	if engine != nil && ready {
		if err := engine.TogglePlay(ctx); err != nil {
			m.logger.Warn("engine toggle failed", "error", err)
		}
		return
	}

	state, err := m.service.PlayerState(ctx)
	if err != nil || state == nil {
		m.logger.Warn("cannot read playback state for toggle", "error", err)
		return
	}

	var ok bool
	if state.IsPlaying {
		ok = m.service.PausePlayback(ctx)
	} else {
		ok = m.service.ResumePlayback(ctx)
	}

	if ok {
		m.mu.Lock()
		m.state.Paused = state.IsPlaying
		m.mu.Unlock()
	}
}

// Seek seeks within the current track. A no-op when no engine exists.
func (m *Manager) Seek(ctx context.Context, positionMS int) {
	if m.engine == nil {
		return
	}
	if err := m.engine.Seek(ctx, positionMS); err != nil {
		m.logger.Warn("seek failed", "error", err)
	}
}

// SetVolume sets playback volume from a fraction in [0, 1]. A no-op when no
// engine exists.
func (m *Manager) SetVolume(ctx context.Context, volume float64) {
	if m.engine == nil {
		return
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	if err := m.engine.SetVolume(ctx, volume); err != nil {
		m.logger.Warn("set volume failed", "error", err)
	}
}

// Activate prepares the playback device before an autoplay-restricted
// action. Callers sequence it before PlayTrack.
func (m *Manager) Activate(ctx context.Context) error {
	if m.engine == nil {
		return nil
	}
	return m.engine.Activate(ctx)
}

// OnChange registers a callback invoked with a state snapshot after every
// engine event. Used by the UI to redraw.
func (m *Manager) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// State returns a snapshot of the mirrored playback state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Ready reports whether the engine has an active device.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Ready
}

// LastError returns the most recent engine failure, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
}

// Close disconnects the engine and waits for event delivery to finish.
func (m *Manager) Close() {
	m.mu.Lock()
	engine := m.engine
	m.mu.Unlock()

	if engine == nil {
		return
	}
	engine.Disconnect()
	<-m.done
}
