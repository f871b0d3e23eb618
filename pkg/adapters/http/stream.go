package http

import (
	"sync"

	"github.com/hearthd/hearthd/pkg/domain"
)

// StreamManager fans engine lifecycle events out to SSE subscribers. It
// implements ports.Notifier so the façade can hang it off the flow
// managers and entry registry directly.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan domain.Event]struct{}
}

// NewStreamManager creates an empty broadcaster.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan domain.Event]struct{}),
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the client goes away.
func (sm *StreamManager) Subscribe() (chan domain.Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan domain.Event, 16)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Notify implements ports.Notifier. Slow clients drop events rather than
// stall the engine.
func (sm *StreamManager) Notify(ev domain.Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
