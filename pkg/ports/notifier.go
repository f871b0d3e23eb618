package ports

import "github.com/hearthd/hearthd/pkg/domain"

// Notifier receives lifecycle events from the flow manager and entry
// registry. Implementations must not block; slow consumers drop.
type Notifier interface {
	Notify(event domain.Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(event domain.Event)

func (f NotifierFunc) Notify(event domain.Event) { f(event) }
