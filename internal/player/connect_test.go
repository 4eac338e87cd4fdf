package player

import (
	"context"
	"errors"
	"testing"

	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
)

type fakeConnectAPI struct {
	devices     []services.Device
	devicesErr  error
	state       *services.PlayerState
	stateErr    error
	paused      int
	resumed     int
	seeks       []int
	volumes     []int
	transferred []string
}

func (f *fakeConnectAPI) Devices(context.Context) ([]services.Device, error) {
	return f.devices, f.devicesErr
}

func (f *fakeConnectAPI) PlayerState(context.Context) (*services.PlayerState, error) {
	return f.state, f.stateErr
}

func (f *fakeConnectAPI) PausePlayback(context.Context) bool {
	f.paused++
	return true
}

func (f *fakeConnectAPI) ResumePlayback(context.Context) bool {
	f.resumed++
	return true
}

func (f *fakeConnectAPI) TransferPlayback(_ context.Context, deviceID string, _ bool) bool {
	f.transferred = append(f.transferred, deviceID)
	return true
}

func (f *fakeConnectAPI) SeekPosition(_ context.Context, positionMS int) bool {
	f.seeks = append(f.seeks, positionMS)
	return true
}

func (f *fakeConnectAPI) SetVolume(_ context.Context, percent int) bool {
	f.volumes = append(f.volumes, percent)
	return true
}

func newConnectEngine(api *fakeConnectAPI, tokens TokenSupplier) *ConnectEngine {
	factory := NewConnectEngine(api)
	engine := factory(EngineConfig{Name: "test", Volume: 0.5, Tokens: tokens})
	return engine.(*ConnectEngine)
}

func drainEvents(engine *ConnectEngine) []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-engine.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestConnectEngine(t *testing.T) {
	t.Run("Connect", func(t *testing.T) {
		t.Run("Prefers Active Device", func(t *testing.T) {
			api := &fakeConnectAPI{devices: []services.Device{
				{ID: "idle"},
				{ID: "active", IsActive: true},
			}}
			engine := newConnectEngine(api, validTokens)

			if err := engine.Connect(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer engine.Disconnect()

			events := drainEvents(engine)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			ready, ok := events[0].(Ready)
			if !ok || ready.DeviceID != "active" {
				t.Errorf("expected Ready on active device, got %+v", events[0])
			}

			if len(api.volumes) != 1 || api.volumes[0] != 50 {
				t.Errorf("expected initial volume 50, got %v", api.volumes)
			}
		})

		t.Run("No Devices Still Connects", func(t *testing.T) {
			api := &fakeConnectAPI{}
			engine := newConnectEngine(api, validTokens)

			if err := engine.Connect(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer engine.Disconnect()

			if events := drainEvents(engine); len(events) != 0 {
				t.Errorf("expected no events, got %v", events)
			}
		})

		t.Run("Token Failure", func(t *testing.T) {
			engine := newConnectEngine(&fakeConnectAPI{}, noTokens)

			err := engine.Connect(context.Background())
			if !errors.Is(err, shared.ErrEngineAuth) {
				t.Fatalf("expected ErrEngineAuth, got %v", err)
			}

			events := drainEvents(engine)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if _, ok := events[0].(AuthFailed); !ok {
				t.Errorf("expected AuthFailed, got %+v", events[0])
			}
		})

		t.Run("Device Listing Failure", func(t *testing.T) {
			api := &fakeConnectAPI{devicesErr: errors.New("upstream down")}
			engine := newConnectEngine(api, validTokens)

			if err := engine.Connect(context.Background()); !errors.Is(err, shared.ErrEngineInit) {
				t.Fatalf("expected ErrEngineInit, got %v", err)
			}
		})
	})

	t.Run("Poll", func(t *testing.T) {
		t.Run("Synthesizes StateChanged", func(t *testing.T) {
			api := &fakeConnectAPI{
				devices: []services.Device{{ID: "d1", IsActive: true}},
				state: &services.PlayerState{
					IsPlaying:  true,
					ProgressMS: 1000,
					Device:     services.Device{ID: "d1"},
					Item: &services.StreamingTrack{
						URI:        "spotify:track:t1",
						Name:       "Bohemian Rhapsody",
						Artists:    []services.TrackArtist{{Name: "Queen"}},
						DurationMS: 354000,
					},
				},
			}
			engine := newConnectEngine(api, validTokens)
			if err := engine.Connect(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer engine.Disconnect()
			drainEvents(engine)

			engine.pollOnce()

			events := drainEvents(engine)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			changed, ok := events[0].(StateChanged)
			if !ok {
				t.Fatalf("expected StateChanged, got %+v", events[0])
			}
			if changed.Paused || changed.TrackURI != "spotify:track:t1" || changed.TrackArtist != "Queen" {
				t.Errorf("unexpected event %+v", changed)
			}
		})

		t.Run("Session Loss Emits NotReady", func(t *testing.T) {
			api := &fakeConnectAPI{devices: []services.Device{{ID: "d1", IsActive: true}}}
			engine := newConnectEngine(api, validTokens)
			if err := engine.Connect(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer engine.Disconnect()
			drainEvents(engine)

			engine.pollOnce()

			events := drainEvents(engine)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if notReady, ok := events[0].(NotReady); !ok || notReady.DeviceID != "d1" {
				t.Errorf("expected NotReady for d1, got %+v", events[0])
			}
		})
	})

	t.Run("TogglePlay", func(t *testing.T) {
		t.Run("Pauses When Playing", func(t *testing.T) {
			api := &fakeConnectAPI{state: &services.PlayerState{IsPlaying: true}}
			engine := newConnectEngine(api, validTokens)

			if err := engine.TogglePlay(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if api.paused != 1 {
				t.Errorf("expected pause, got %d", api.paused)
			}
		})

		t.Run("Resumes When Paused", func(t *testing.T) {
			api := &fakeConnectAPI{state: &services.PlayerState{IsPlaying: false, Device: services.Device{ID: "d1"}}}
			engine := newConnectEngine(api, validTokens)

			if err := engine.TogglePlay(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if api.resumed != 1 {
				t.Errorf("expected resume, got %d", api.resumed)
			}
		})

		t.Run("No Session", func(t *testing.T) {
			engine := newConnectEngine(&fakeConnectAPI{}, validTokens)

			if err := engine.TogglePlay(context.Background()); !errors.Is(err, shared.ErrNoDevice) {
				t.Errorf("expected ErrNoDevice, got %v", err)
			}
		})
	})

	t.Run("Activate Transfers To Attached Device", func(t *testing.T) {
		api := &fakeConnectAPI{devices: []services.Device{{ID: "d1", IsActive: true}}}
		engine := newConnectEngine(api, validTokens)
		if err := engine.Connect(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer engine.Disconnect()

		if err := engine.Activate(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(api.transferred) != 1 || api.transferred[0] != "d1" {
			t.Errorf("unexpected transfers %v", api.transferred)
		}
	})
}
