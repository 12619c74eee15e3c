package eventmock

import (
	"context"
	"sync"

	"p2p-lending/internal/domain/event"
)

var _ event.Publisher = (*Recorder)(nil)

// Recorder keeps every published event. Err, when set, is returned after recording.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Types returns the published event types in order.
func (r *Recorder) Types() []event.Type {
	evs := r.Events()
	out := make([]event.Type, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

func (r *Recorder) Count(t event.Type) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
