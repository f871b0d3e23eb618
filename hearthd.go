package hearthd

import (
	"context"
	"log/slog"
	"time"

	"github.com/hearthd/hearthd/internal/logging"
	"github.com/hearthd/hearthd/pkg/adapters/memory"
	"github.com/hearthd/hearthd/pkg/entries"
	"github.com/hearthd/hearthd/pkg/flow"
	"github.com/hearthd/hearthd/pkg/observability"
	"github.com/hearthd/hearthd/pkg/ports"
	"github.com/hearthd/hearthd/pkg/registry"
)

// Hub assembles the setup engine: the handler registry, the entry
// registry, and one flow manager per wizard kind.
type Hub struct {
	Handlers     *registry.Registry
	Entries      *entries.Registry
	ConfigFlows  *flow.Manager
	OptionsFlows *flow.Manager

	events *observability.Fanout

	store       ports.EntryStore
	pipeline    ports.SetupPipeline
	logger      *slog.Logger
	idleTimeout time.Duration
}

// Option configures the Hub.
type Option func(*Hub)

// WithStore selects the entry store backend. Defaults to in-memory.
func WithStore(store ports.EntryStore) Option {
	return func(h *Hub) { h.store = store }
}

// WithPipeline installs the setup pipeline that loads and unloads
// entries against live resources.
func WithPipeline(p ports.SetupPipeline) Option {
	return func(h *Hub) { h.pipeline = p }
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) { h.logger = logger }
}

// WithFlowIdleTimeout garbage-collects wizards nobody touched for the
// given duration. Zero keeps abandoned flows forever.
func WithFlowIdleTimeout(d time.Duration) Option {
	return func(h *Hub) { h.idleTimeout = d }
}

// New wires a Hub. Integrations register their handlers on hub.Handlers
// afterwards; call Restore before serving if the store is durable.
func New(opts ...Option) *Hub {
	h := &Hub{
		Handlers: registry.New(),
		events:   observability.NewFanout(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.store == nil {
		h.store = memory.NewStore()
	}

	h.Entries = entries.NewRegistry(h.store,
		entries.WithPipeline(h.pipeline),
		entries.WithNotifier(h.events),
		entries.WithLogger(h.logger),
	)

	flowOpts := []flow.Option{
		flow.WithNotifier(h.events),
		flow.WithLogger(h.logger),
		flow.WithIdleTimeout(h.idleTimeout),
	}
	h.ConfigFlows = flow.NewConfigManager(h.Handlers, h.Entries, flowOpts...)
	h.OptionsFlows = flow.NewOptionsManager(h.Handlers, h.Entries, flowOpts...)

	return h
}

// Events exposes the lifecycle event fanout so callers can attach
// consumers (SSE broadcasters, metrics, test probes).
func (h *Hub) Events() *observability.Fanout {
	return h.events
}

// Restore rebuilds the entry registry from the store. Call once at boot.
func (h *Hub) Restore(ctx context.Context) error {
	return h.Entries.Restore(ctx)
}

// Start launches background maintenance (idle-flow expiry). It returns
// immediately; maintenance stops when ctx is canceled.
func (h *Hub) Start(ctx context.Context) {
	h.ConfigFlows.StartJanitor(ctx)
	h.OptionsFlows.StartJanitor(ctx)
}

// Shutdown aborts all in-progress flows. Entries stay put; they are
// durable state, flows are not.
func (h *Hub) Shutdown() {
	h.ConfigFlows.DrainAbort()
	h.OptionsFlows.DrainAbort()
}
