package entries

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/hearthd/hearthd/internal/logging"
	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/ports"
)

// Registry holds all persisted config entries in creation order.
//
// A single mutex guards the registry. Entry operations are short map
// mutations plus one store write; per-entry locking buys nothing here
// (unlike flows, where handler calls can be slow).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*domain.ConfigEntry
	order   []string

	store    ports.EntryStore
	pipeline ports.SetupPipeline
	notifier ports.Notifier
	logger   *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithPipeline installs the setup pipeline notified on create/remove.
func WithPipeline(p ports.SetupPipeline) Option {
	return func(r *Registry) { r.pipeline = p }
}

// WithNotifier installs a lifecycle event consumer.
func WithNotifier(n ports.Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

// WithLogger configures a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates a registry backed by the given store.
func NewRegistry(store ports.EntryStore, opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*domain.ConfigEntry),
		store:   store,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Restore rebuilds the registry from the store. Called once at boot,
// before the registry is shared.
func (r *Registry) Restore(ctx context.Context) error {
	stored, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore entries: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*domain.ConfigEntry, len(stored))
	r.order = make([]string, 0, len(stored))
	for _, entry := range stored {
		r.entries[entry.EntryID] = entry.Clone()
		r.order = append(r.order, entry.EntryID)
	}
	return nil
}

// Create materializes a new entry from a completed config flow. The entry
// starts in StateNotLoaded; the setup pipeline is kicked off in the
// background and reports back through SetState.
func (r *Registry) Create(
	ctx context.Context, domainName, title string, data map[string]any,
	source string, connClass domain.ConnectionClass,
) (*domain.ConfigEntry, error) {
	entry := &domain.ConfigEntry{
		EntryID:         uuid.NewString(),
		Domain:          domainName,
		Title:           title,
		Data:            data,
		Source:          source,
		State:           domain.StateNotLoaded,
		ConnectionClass: connClass,
	}

	r.mu.Lock()
	if err := r.store.Save(ctx, entry); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to persist entry: %w", err)
	}
	r.entries[entry.EntryID] = entry
	r.order = append(r.order, entry.EntryID)
	r.mu.Unlock()

	r.notify(domain.EventEntryCreated, entry)
	go r.load(entry.Clone())

	return entry.Clone(), nil
}

// load drives the setup pipeline for a freshly created entry and records
// the outcome. Fire-and-forget from the caller's perspective.
func (r *Registry) load(entry *domain.ConfigEntry) {
	if r.pipeline == nil {
		return
	}

	state := domain.StateLoaded
	if err := r.pipeline.Load(context.Background(), entry); err != nil {
		r.logger.Warn("Entry setup failed",
			"entry_id", entry.EntryID,
			"domain", entry.Domain,
			"err", err,
		)
		state = domain.StateSetupError
	}
	if _, err := r.SetState(context.Background(), entry.EntryID, state); err != nil {
		// Entry was removed while loading. Nothing left to record.
		r.logger.Debug("Entry vanished during setup", "entry_id", entry.EntryID)
	}
}

// Get returns a copy of the entry, or domain.ErrUnknownEntry.
func (r *Registry) Get(entryID string) (*domain.ConfigEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEntry, entryID)
	}
	return entry.Clone(), nil
}

// List returns copies of all entries in creation order.
func (r *Registry) List() []*domain.ConfigEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ConfigEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].Clone())
	}
	return out
}

// UpdateData replaces the entry's data payload. Used by a completed
// options flow; the new data fully replaces the old.
func (r *Registry) UpdateData(ctx context.Context, entryID string, data map[string]any) (*domain.ConfigEntry, error) {
	return r.update(ctx, entryID, func(entry *domain.ConfigEntry) error {
		entry.Data = data
		return nil
	}, domain.EventEntryUpdated)
}

// UpdateTitle replaces the entry's display title.
func (r *Registry) UpdateTitle(ctx context.Context, entryID, title string) (*domain.ConfigEntry, error) {
	return r.update(ctx, entryID, func(entry *domain.ConfigEntry) error {
		entry.Title = title
		return nil
	}, domain.EventEntryUpdated)
}

// UpdateSystemOptions merges the recognized keys of patch into the
// entry's system options. Unknown keys are dropped at this layer;
// anything worth rejecting is validated upstream.
func (r *Registry) UpdateSystemOptions(ctx context.Context, entryID string, patch map[string]any) (*domain.ConfigEntry, error) {
	return r.update(ctx, entryID, func(entry *domain.ConfigEntry) error {
		if err := mapstructure.Decode(patch, &entry.SystemOptions); err != nil {
			return fmt.Errorf("invalid system options patch: %w", err)
		}
		return nil
	}, domain.EventEntryUpdated)
}

// SetState records the entry's lifecycle state. Called by the setup
// pipeline machinery, never by the flow engine.
func (r *Registry) SetState(ctx context.Context, entryID string, state domain.EntryState) (*domain.ConfigEntry, error) {
	return r.update(ctx, entryID, func(entry *domain.ConfigEntry) error {
		entry.State = state
		return nil
	}, domain.EventEntryUpdated)
}

func (r *Registry) update(
	ctx context.Context, entryID string,
	mutate func(*domain.ConfigEntry) error, event domain.EventType,
) (*domain.ConfigEntry, error) {
	r.mu.Lock()
	entry, ok := r.entries[entryID]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEntry, entryID)
	}

	updated := entry.Clone()
	if err := mutate(updated); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	if err := r.store.Save(ctx, updated); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to persist entry: %w", err)
	}
	r.entries[entryID] = updated
	r.mu.Unlock()

	r.notify(event, updated)
	return updated.Clone(), nil
}

// Remove unloads and deletes an entry. Teardown is best-effort: if the
// pipeline reports an unload failure the entry is removed anyway and the
// failure travels back in the result.
func (r *Registry) Remove(ctx context.Context, entryID string) (*domain.RemoveResult, error) {
	r.mu.Lock()
	entry, ok := r.entries[entryID]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEntry, entryID)
	}
	victim := entry.Clone()
	r.mu.Unlock()

	result := &domain.RemoveResult{}
	if r.pipeline != nil && victim.State != domain.StateNotLoaded {
		if err := r.pipeline.Unload(ctx, victim); err != nil {
			r.logger.Warn("Entry unload failed, removing anyway",
				"entry_id", entryID,
				"domain", victim.Domain,
				"err", err,
			)
			result.UnloadError = err.Error()
			result.RequireRestart = true
		}
	}

	r.mu.Lock()
	// The lock was dropped for unload; a concurrent Remove may have won.
	if _, ok := r.entries[entryID]; !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEntry, entryID)
	}
	if err := r.store.Delete(ctx, entryID); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("failed to delete entry: %w", err)
	}
	delete(r.entries, entryID)
	for i, id := range r.order {
		if id == entryID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.notify(domain.EventEntryRemoved, victim)
	return result, nil
}

func (r *Registry) notify(t domain.EventType, entry *domain.ConfigEntry) {
	if r.notifier == nil {
		return
	}
	ev := domain.NewEvent(t)
	ev.EntryID = entry.EntryID
	ev.Domain = entry.Domain
	r.notifier.Notify(ev)
}
