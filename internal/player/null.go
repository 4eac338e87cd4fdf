package player

import "context"

// NullEngine is the inert engine used when no user token is available. It
// never becomes ready and every operation is a no-op, keeping the rest of
// the player usable in a browse-only mode.
type NullEngine struct {
	events chan Event
}

// NewNullEngine constructs an inert engine.
func NewNullEngine(EngineConfig) Engine {
	return &NullEngine{events: make(chan Event)}
}

func (e *NullEngine) Connect(context.Context) error { return nil }

func (e *NullEngine) Disconnect() {
	close(e.events)
}

func (e *NullEngine) Events() <-chan Event { return e.events }

func (e *NullEngine) TogglePlay(context.Context) error         { return nil }
func (e *NullEngine) Seek(context.Context, int) error          { return nil }
func (e *NullEngine) SetVolume(context.Context, float64) error { return nil }
func (e *NullEngine) Activate(context.Context) error           { return nil }
