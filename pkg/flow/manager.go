package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthd/hearthd/internal/logging"
	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/ports"
)

// StepInit is the designated first step of an options flow. Config flows
// start at the step named after their source ("user", "discovery", ...).
const StepInit = "init"

// Resolver turns a handler key into the factory that builds its handler.
// For options flows it also resolves the entry being reconfigured.
type Resolver func(handlerKey string) (ports.HandlerFactory, *domain.ConfigEntry, error)

// Finisher applies a terminal create-entry result: config flows create an
// entry, options flows rewrite one. It returns the affected entry ID.
type Finisher func(ctx context.Context, flow *domain.Flow, handler ports.StepHandler, result domain.StepResult) (string, error)

// flowEntry pairs a flow with its live handler and serialization lock.
type flowEntry struct {
	mu sync.Mutex

	flow    *domain.Flow
	handler ports.StepHandler

	// last holds the most recent non-terminal result, re-served on
	// polling reads.
	last domain.StepResult

	// done marks that a terminal result fired or the flow was aborted.
	// Guards the remove-exactly-once invariant against waiters that
	// were already queued on mu.
	done bool

	// lastActive is guarded by the manager mutex, not this one; the
	// expiry janitor reads it without touching per-flow locks.
	lastActive time.Time
}

// Manager owns the in-progress flows of one wizard kind.
type Manager struct {
	kind    domain.FlowKind
	resolve Resolver
	finish  Finisher

	mu    sync.Mutex
	flows map[string]*flowEntry

	idleTimeout time.Duration
	notifier    ports.Notifier
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithIdleTimeout enables garbage collection of flows that received no
// call for the given duration. Zero disables expiry.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idleTimeout = d }
}

// WithNotifier installs a lifecycle event consumer.
func WithNotifier(n ports.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithLogger configures a logger for internal events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// withClock overrides time for expiry tests.
func withClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a manager for one flow kind with the given strategy
// pair. Most callers want NewConfigManager or NewOptionsManager instead.
func NewManager(kind domain.FlowKind, resolve Resolver, finish Finisher, opts ...Option) *Manager {
	m := &Manager{
		kind:    kind,
		resolve: resolve,
		finish:  finish,
		flows:   make(map[string]*flowEntry),
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start resolves a handler, allocates a flow, and runs its initial step.
// The flow is stored only if that first result is non-terminal; a failed
// resolve or an immediately terminal result never leaves a flow behind.
func (m *Manager) Start(ctx context.Context, handlerKey string, flowCtx, input map[string]any) (domain.StepResult, error) {
	factory, entry, err := m.resolve(handlerKey)
	if err != nil {
		return domain.StepResult{}, err
	}

	// The flow owns its context; copy so the caller's map stays untouched
	// and cannot mutate the flow after creation.
	ctxCopy := make(map[string]any, len(flowCtx)+1)
	for k, v := range flowCtx {
		ctxCopy[k] = v
	}
	if _, ok := ctxCopy[domain.ContextSource]; !ok {
		ctxCopy[domain.ContextSource] = domain.SourceUser
	}
	flowCtx = ctxCopy

	f := &domain.Flow{
		ID:         uuid.NewString(),
		HandlerKey: handlerKey,
		Kind:       m.kind,
		Context:    flowCtx,
		Entry:      entry,
	}
	f.CurrentStepID = m.initialStep(f)

	handler, err := factory(f)
	if err != nil {
		return domain.StepResult{}, fmt.Errorf("handler construction failed: %w", err)
	}

	fe := &flowEntry{flow: f, handler: handler}
	result, err := m.step(ctx, fe, input)
	if err != nil {
		return domain.StepResult{}, err
	}

	m.notify(domain.EventFlowStarted, f)

	if result.Type.Terminal() {
		return m.applyTerminal(ctx, fe, result)
	}

	m.applyProgress(fe, result)
	fe.last = result

	m.mu.Lock()
	fe.lastActive = m.now()
	m.flows[f.ID] = fe
	m.mu.Unlock()

	return result, nil
}

func (m *Manager) initialStep(f *domain.Flow) string {
	if m.kind == domain.KindOptions {
		return StepInit
	}
	if src := f.Source(); src != "" {
		return src
	}
	return domain.SourceUser
}

// Advance runs the flow's current step with the submitted input and
// applies the result. Calls for the same flow ID serialize; a call that
// loses the race to a terminal result fails with ErrUnknownFlow exactly
// as if the flow had already been forgotten.
func (m *Manager) Advance(ctx context.Context, flowID string, input map[string]any) (domain.StepResult, error) {
	fe, err := m.acquire(flowID)
	if err != nil {
		return domain.StepResult{}, err
	}

	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.done {
		return domain.StepResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownFlow, flowID)
	}

	result, err := m.step(ctx, fe, input)
	if err != nil {
		return domain.StepResult{}, err
	}

	if result.Type.Terminal() {
		return m.applyTerminal(ctx, fe, result)
	}

	m.applyProgress(fe, result)
	fe.last = result

	m.mu.Lock()
	fe.lastActive = m.now()
	m.mu.Unlock()

	return result, nil
}

// step invokes the handler and validates the shape of what came back.
func (m *Manager) step(ctx context.Context, fe *flowEntry, input map[string]any) (domain.StepResult, error) {
	f := fe.flow
	result, err := fe.handler.Step(ctx, f.CurrentStepID, input)
	if err != nil {
		return domain.StepResult{}, fmt.Errorf("step %q of %s: %w", f.CurrentStepID, f.HandlerKey, err)
	}

	if !result.Type.Valid() {
		return domain.StepResult{}, fmt.Errorf("%w: %q from step %q", domain.ErrInvalidResult, result.Type, f.CurrentStepID)
	}

	switch result.Type {
	case domain.ResultForm, domain.ResultExternalStep, domain.ResultShowProgress:
		if result.StepID == "" {
			return domain.StepResult{}, fmt.Errorf("%w: %s result without step_id", domain.ErrInvalidResult, result.Type)
		}
	case domain.ResultProgressDone:
		if result.NextStepID == "" {
			return domain.StepResult{}, fmt.Errorf("%w: progress_done without next_step_id", domain.ErrInvalidResult)
		}
	}

	result.FlowID = f.ID
	result.Handler = f.HandlerKey
	return result, nil
}

// applyProgress records where a non-terminal result parked the flow.
func (m *Manager) applyProgress(fe *flowEntry, result domain.StepResult) {
	switch result.Type {
	case domain.ResultForm, domain.ResultExternalStep, domain.ResultShowProgress:
		fe.flow.CurrentStepID = result.StepID
	case domain.ResultProgressDone:
		fe.flow.CurrentStepID = result.NextStepID
	}
}

// applyTerminal finishes a flow: create-entry results run the finisher
// strategy, aborts do not touch the entry registry. Either way the flow
// leaves the in-progress set exactly once.
//
// Caller must hold fe.mu (or exclusively own fe, during Start).
func (m *Manager) applyTerminal(ctx context.Context, fe *flowEntry, result domain.StepResult) (domain.StepResult, error) {
	f := fe.flow

	if result.Type == domain.ResultCreateEntry {
		entryID, err := m.finish(ctx, f, fe.handler, result)
		if err != nil {
			// Finisher failure leaves the flow parked so the caller can
			// retry or abort explicitly.
			return domain.StepResult{}, err
		}
		result.EntryID = entryID
		result.Data = nil
	}

	fe.done = true
	fe.handler = nil

	m.mu.Lock()
	delete(m.flows, f.ID)
	m.mu.Unlock()

	if result.Type == domain.ResultAbort {
		m.notify(domain.EventFlowAborted, f)
	} else {
		m.notify(domain.EventFlowFinished, f)
	}

	m.logger.Debug("Flow finished",
		"flow_id", f.ID,
		"handler", f.HandlerKey,
		"result", string(result.Type),
	)
	return result, nil
}

// Current returns the most recent non-terminal result of an in-progress
// flow, serving polling reads without re-running the handler.
func (m *Manager) Current(flowID string) (domain.StepResult, error) {
	fe, err := m.acquire(flowID)
	if err != nil {
		return domain.StepResult{}, err
	}

	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.done {
		return domain.StepResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownFlow, flowID)
	}
	return fe.last, nil
}

// Progress returns summaries of the in-progress flows matching every
// given filter. Summaries never expose handlers or collected data.
func (m *Manager) Progress(filters ...func(domain.Summary) bool) []domain.Summary {
	m.mu.Lock()
	entries := make([]*flowEntry, 0, len(m.flows))
	for _, fe := range m.flows {
		entries = append(entries, fe)
	}
	m.mu.Unlock()

	out := make([]domain.Summary, 0, len(entries))
next:
	for _, fe := range entries {
		s := fe.flow.Summarize()
		for _, keep := range filters {
			if !keep(s) {
				continue next
			}
		}
		out = append(out, s)
	}
	return out
}

// NotSource filters Progress to flows whose source differs from src.
func NotSource(src string) func(domain.Summary) bool {
	return func(s domain.Summary) bool {
		v, _ := s.Context[domain.ContextSource].(string)
		return v != src
	}
}

// Abort removes a flow unconditionally. Aborting an unknown or already
// finished flow is a no-op.
func (m *Manager) Abort(flowID string) {
	fe, err := m.acquire(flowID)
	if err != nil {
		return
	}

	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.done {
		return
	}
	fe.done = true
	fe.handler = nil

	m.mu.Lock()
	delete(m.flows, flowID)
	m.mu.Unlock()

	m.notify(domain.EventFlowAborted, fe.flow)
}

// DrainAbort aborts every in-progress flow. Shutdown path.
func (m *Manager) DrainAbort() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.flows))
	for id := range m.flows {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Abort(id)
	}
}

// StartJanitor begins periodic expiry of idle flows. It returns
// immediately; the janitor stops when ctx is canceled. No-op unless
// WithIdleTimeout was set.
func (m *Manager) StartJanitor(ctx context.Context) {
	if m.idleTimeout <= 0 {
		return
	}

	interval := m.idleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireIdle()
			}
		}
	}()
}

func (m *Manager) expireIdle() {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var expired []string
	for id, fe := range m.flows {
		if fe.lastActive.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.logger.Info("Expiring idle flow", "flow_id", id)
		m.Abort(id)
	}
}

// acquire looks a flow up. Callers lock the returned entry's mutex; a
// waiter that queued behind a terminal result finds done set and reports
// ErrUnknownFlow, so removal from the map stays race-free.
func (m *Manager) acquire(flowID string) (*flowEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fe, ok := m.flows[flowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownFlow, flowID)
	}
	return fe, nil
}

func (m *Manager) notify(t domain.EventType, f *domain.Flow) {
	if m.notifier == nil {
		return
	}
	ev := domain.NewEvent(t)
	ev.FlowID = f.ID
	if f.Kind == domain.KindConfig {
		ev.Domain = f.HandlerKey
	} else if f.Entry != nil {
		ev.Domain = f.Entry.Domain
	}
	m.notifier.Notify(ev)
}
