package observability

import (
	"sync"

	"github.com/hearthd/hearthd/pkg/domain"
)

// Fanout delivers each event to every registered consumer in order.
// Consumers must not block. Add is safe to call while events flow.
type Fanout struct {
	mu        sync.RWMutex
	consumers []interface{ Notify(domain.Event) }
}

// NewFanout creates a fanout over the given consumers.
func NewFanout(consumers ...interface{ Notify(domain.Event) }) *Fanout {
	return &Fanout{consumers: consumers}
}

// Add registers another consumer.
func (f *Fanout) Add(c interface{ Notify(domain.Event) }) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumers = append(f.consumers, c)
}

// Notify implements ports.Notifier.
func (f *Fanout) Notify(ev domain.Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.consumers {
		c.Notify(ev)
	}
}
