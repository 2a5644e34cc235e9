package server

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/usemin/internal/notify"
)

// Tracker remembers the last published build event. It is a notify.Publisher
// so it can sit next to the NATS publisher.
type Tracker struct {
	mu   sync.RWMutex
	last notify.Event
	seen bool
}

func (t *Tracker) Publish(_ context.Context, ev notify.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last, t.seen = ev, true
	return nil
}

func (t *Tracker) Close() error { return nil }

// LastBuild returns the last event, if any.
func (t *Tracker) LastBuild() (notify.Event, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last, t.seen
}
