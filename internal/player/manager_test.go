package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
)

// FakeEngine is a scriptable engine for exercising the manager
// deterministically.
type FakeEngine struct {
	events     chan Event
	closeOnce  sync.Once
	connectErr error
	connected  bool
	toggles    int
	seeks      []int
	volumes    []float64
	activated  bool
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{events: make(chan Event, 16)}
}

func (e *FakeEngine) Connect(context.Context) error {
	e.connected = true
	if e.connectErr != nil {
		e.closeOnce.Do(func() { close(e.events) })
	}
	return e.connectErr
}

func (e *FakeEngine) Disconnect() {
	e.closeOnce.Do(func() { close(e.events) })
}
func (e *FakeEngine) Events() <-chan Event { return e.events }

func (e *FakeEngine) TogglePlay(context.Context) error {
	e.toggles++
	return nil
}

func (e *FakeEngine) Seek(_ context.Context, positionMS int) error {
	e.seeks = append(e.seeks, positionMS)
	return nil
}

func (e *FakeEngine) SetVolume(_ context.Context, volume float64) error {
	e.volumes = append(e.volumes, volume)
	return nil
}

func (e *FakeEngine) Activate(context.Context) error {
	e.activated = true
	return nil
}

// fakeStreaming records playback commands issued by the manager.
type fakeStreaming struct {
	playedOn    []string
	playedURIs  []string
	fallbacks   []string
	paused      int
	resumed     int
	state       *services.PlayerState
	stateErr    error
	commandFail bool
}

func (f *fakeStreaming) SearchTrack(context.Context, string, string) *services.StreamingTrack {
	return nil
}
func (f *fakeStreaming) ArtistInfo(context.Context, string) *services.StreamingArtist { return nil }
func (f *fakeStreaming) Devices(context.Context) ([]services.Device, error)           { return nil, nil }

func (f *fakeStreaming) PlayerState(context.Context) (*services.PlayerState, error) {
	return f.state, f.stateErr
}

func (f *fakeStreaming) PlayTrack(_ context.Context, uri string) bool {
	f.fallbacks = append(f.fallbacks, uri)
	return !f.commandFail
}

func (f *fakeStreaming) PlayOn(_ context.Context, deviceID, uri string) bool {
	f.playedOn = append(f.playedOn, deviceID)
	f.playedURIs = append(f.playedURIs, uri)
	return !f.commandFail
}

func (f *fakeStreaming) PausePlayback(context.Context) bool {
	f.paused++
	return !f.commandFail
}

func (f *fakeStreaming) ResumePlayback(context.Context) bool {
	f.resumed++
	return !f.commandFail
}

func (f *fakeStreaming) Name() string { return "fake" }

func validTokens(context.Context) (string, bool) { return "token", true }
func noTokens(context.Context) (string, bool)    { return "", false }

// newTestManager wires a manager to a fake engine and returns a channel that
// receives a state snapshot after every handled event.
func newTestManager(t *testing.T, service *fakeStreaming, engine *FakeEngine, tokens TokenSupplier) (*Manager, chan State) {
	t.Helper()

	config := EngineConfig{Name: "test", Volume: 0.5, Tokens: tokens}
	manager := NewManager(service, func(EngineConfig) Engine { return engine }, config)

	updates := make(chan State, 16)
	manager.OnChange(func(s State) { updates <- s })

	if err := manager.Initialize(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	t.Cleanup(manager.Close)

	return manager, updates
}

func waitUpdate(t *testing.T, updates chan State) State {
	t.Helper()
	select {
	case state := <-updates:
		return state
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state update")
		return State{}
	}
}

func TestManagerInitialize(t *testing.T) {
	t.Run("Inert Without Token", func(t *testing.T) {
		engine := NewFakeEngine()
		manager, _ := newTestManager(t, &fakeStreaming{}, engine, noTokens)

		if engine.connected {
			t.Error("expected factory engine to stay unused without a token")
		}
		if manager.Ready() {
			t.Error("expected manager to stay not ready")
		}
	})

	t.Run("Connects With Token", func(t *testing.T) {
		engine := NewFakeEngine()
		newTestManager(t, &fakeStreaming{}, engine, validTokens)

		if !engine.connected {
			t.Error("expected engine to be connected")
		}
	})

	t.Run("Degrades On Connect Failure", func(t *testing.T) {
		engine := NewFakeEngine()
		engine.connectErr = errors.New("handshake refused")

		manager, _ := newTestManager(t, &fakeStreaming{}, engine, validTokens)

		if manager.LastError() == nil {
			t.Error("expected connect failure to be recorded")
		}
		if manager.Ready() {
			t.Error("expected manager to stay not ready")
		}
	})

	t.Run("Second Initialize Is A No-Op", func(t *testing.T) {
		engine := NewFakeEngine()
		manager, _ := newTestManager(t, &fakeStreaming{}, engine, validTokens)

		if err := manager.Initialize(context.Background()); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("Missing Token Supplier", func(t *testing.T) {
		manager := NewManager(&fakeStreaming{}, func(EngineConfig) Engine { return NewFakeEngine() }, EngineConfig{})
		if err := manager.Initialize(context.Background()); !errors.Is(err, shared.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	})
}

func TestManagerEvents(t *testing.T) {
	t.Run("Ready Caches Device", func(t *testing.T) {
		engine := NewFakeEngine()
		manager, updates := newTestManager(t, &fakeStreaming{}, engine, validTokens)

		engine.events <- Ready{DeviceID: "d1"}
		state := waitUpdate(t, updates)

		if !state.Ready || state.DeviceID != "d1" {
			t.Errorf("unexpected state %+v", state)
		}
		if !manager.Ready() {
			t.Error("expected manager to be ready")
		}
	})

	t.Run("NotReady Clears Readiness", func(t *testing.T) {
		engine := NewFakeEngine()
		manager, updates := newTestManager(t, &fakeStreaming{}, engine, validTokens)

		engine.events <- Ready{DeviceID: "d1"}
		waitUpdate(t, updates)
		engine.events <- NotReady{DeviceID: "d1"}
		state := waitUpdate(t, updates)

		if state.Ready || manager.Ready() {
			t.Error("expected manager to be not ready")
		}
	})

	t.Run("StateChanged Mirrors Engine", func(t *testing.T) {
		engine := NewFakeEngine()
		manager, updates := newTestManager(t, &fakeStreaming{}, engine, validTokens)

		engine.events <- StateChanged{
			Paused:     false,
			PositionMS: 1000,
			DurationMS: 354000,
			TrackURI:   "spotify:track:t1",
			TrackName:  "Bohemian Rhapsody",
		}
		state := waitUpdate(t, updates)

		if state.Paused || state.PositionMS != 1000 || state.TrackName != "Bohemian Rhapsody" {
			t.Errorf("unexpected state %+v", state)
		}
		if manager.State().TrackURI != "spotify:track:t1" {
			t.Error("expected track URI to be mirrored")
		}
	})

	t.Run("Stale StateChanged Is Discarded", func(t *testing.T) {
		engine := NewFakeEngine()
		service := &fakeStreaming{}
		manager, updates := newTestManager(t, service, engine, validTokens)

		engine.events <- Ready{DeviceID: "d1"}
		waitUpdate(t, updates)

		// User intent is now track t2; a late report for t1 must not
		// clobber local state.
		manager.PlayTrack(context.Background(), "spotify:track:t2")

		engine.events <- StateChanged{Paused: true, TrackURI: "spotify:track:t1", TrackName: "Old Song"}
		engine.events <- StateChanged{Paused: false, TrackURI: "spotify:track:t2", TrackName: "New Song"}
		state := waitUpdate(t, updates)

		if state.TrackName == "Old Song" {
			t.Error("expected stale event to be ignored")
		}
		if state.TrackURI != "spotify:track:t2" || state.TrackName != "New Song" {
			t.Errorf("unexpected state %+v", state)
		}
	})

	t.Run("Failure Classification", func(t *testing.T) {
		tests := []struct {
			name  string
			event Event
			want  error
		}{
			{"init failure", InitFailed{Message: "boom"}, shared.ErrEngineInit},
			{"drm failure", InitFailed{Message: "EME unavailable", DRMUnsupported: true}, shared.ErrEngineInit},
			{"auth failure", AuthFailed{Message: "bad token"}, shared.ErrEngineAuth},
			{"account failure", AccountIneligible{Message: "premium required"}, shared.ErrEngineAccount},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				engine := NewFakeEngine()
				manager, updates := newTestManager(t, &fakeStreaming{}, engine, validTokens)

				engine.events <- tt.event
				waitUpdate(t, updates)

				if err := manager.LastError(); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestManagerPlayTrack(t *testing.T) {
	t.Run("Targets Ready Device", func(t *testing.T) {
		engine := NewFakeEngine()
		service := &fakeStreaming{}
		manager, updates := newTestManager(t, service, engine, validTokens)

		engine.events <- Ready{DeviceID: "d1"}
		waitUpdate(t, updates)

		if !manager.PlayTrack(context.Background(), "spotify:track:t1") {
			t.Fatal("expected play to succeed")
		}
		if len(service.playedOn) != 1 || service.playedOn[0] != "d1" {
			t.Errorf("expected play on d1, got %v", service.playedOn)
		}
		if len(service.fallbacks) != 0 {
			t.Error("expected no fallback path")
		}
	})

	t.Run("Falls Back Without Device", func(t *testing.T) {
		engine := NewFakeEngine()
		service := &fakeStreaming{}
		manager, _ := newTestManager(t, service, engine, validTokens)

		if !manager.PlayTrack(context.Background(), "spotify:track:t1") {
			t.Fatal("expected play to succeed")
		}
		if len(service.fallbacks) != 1 || service.fallbacks[0] != "spotify:track:t1" {
			t.Errorf("expected fallback play, got %v", service.fallbacks)
		}
	})

	t.Run("Reports Failure As Boolean", func(t *testing.T) {
		engine := NewFakeEngine()
		service := &fakeStreaming{commandFail: true}
		manager, _ := newTestManager(t, service, engine, validTokens)

		if manager.PlayTrack(context.Background(), "spotify:track:t1") {
			t.Error("expected play to report failure")
		}
	})
}

func TestManagerTogglePlayPause(t *testing.T) {
	t.Run("Delegates To Ready Engine", func(t *testing.T) {
		engine := NewFakeEngine()
		manager, updates := newTestManager(t, &fakeStreaming{}, engine, validTokens)

		engine.events <- Ready{DeviceID: "d1"}
		waitUpdate(t, updates)

		manager.TogglePlayPause(context.Background())
		if engine.toggles != 1 {
			t.Errorf("expected 1 engine toggle, got %d", engine.toggles)
		}
	})

	t.Run("Fallback Pauses Playing Session", func(t *testing.T) {
		engine := NewFakeEngine()
		service := &fakeStreaming{state: &services.PlayerState{IsPlaying: true}}
		manager, _ := newTestManager(t, service, engine, validTokens)

		manager.TogglePlayPause(context.Background())
		if service.paused != 1 || service.resumed != 0 {
			t.Errorf("expected pause, got paused=%d resumed=%d", service.paused, service.resumed)
		}
	})

	t.Run("Fallback Resumes Paused Session", func(t *testing.T) {
		engine := NewFakeEngine()
		service := &fakeStreaming{state: &services.PlayerState{IsPlaying: false}}
		manager, _ := newTestManager(t, service, engine, validTokens)

		manager.TogglePlayPause(context.Background())
		if service.resumed != 1 || service.paused != 0 {
			t.Errorf("expected resume, got paused=%d resumed=%d", service.paused, service.resumed)
		}
	})

	t.Run("Fallback Status Failure Is Silent", func(t *testing.T) {
		engine := NewFakeEngine()
		service := &fakeStreaming{stateErr: errors.New("status unavailable")}
		manager, _ := newTestManager(t, service, engine, validTokens)

		manager.TogglePlayPause(context.Background())
		if service.paused != 0 || service.resumed != 0 {
			t.Error("expected no command after status failure")
		}
	})
}

func TestManagerEngineControls(t *testing.T) {
	t.Run("Seek And Volume Delegate", func(t *testing.T) {
		engine := NewFakeEngine()
		manager, _ := newTestManager(t, &fakeStreaming{}, engine, validTokens)

		manager.Seek(context.Background(), 30000)
		manager.SetVolume(context.Background(), 1.5)

		if len(engine.seeks) != 1 || engine.seeks[0] != 30000 {
			t.Errorf("unexpected seeks %v", engine.seeks)
		}
		if len(engine.volumes) != 1 || engine.volumes[0] != 1.0 {
			t.Errorf("expected clamped volume 1.0, got %v", engine.volumes)
		}
	})

	t.Run("No-Ops Without Engine", func(t *testing.T) {
		manager := NewManager(&fakeStreaming{}, NewNullEngine, EngineConfig{Tokens: noTokens})

		manager.Seek(context.Background(), 30000)
		manager.SetVolume(context.Background(), 0.5)
		if err := manager.Activate(context.Background()); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("Activate Delegates", func(t *testing.T) {
		engine := NewFakeEngine()
		manager, _ := newTestManager(t, &fakeStreaming{}, engine, validTokens)

		if err := manager.Activate(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !engine.activated {
			t.Error("expected engine activation")
		}
	})
}
