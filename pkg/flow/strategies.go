package flow

import (
	"context"
	"fmt"

	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/entries"
	"github.com/hearthd/hearthd/pkg/ports"
	"github.com/hearthd/hearthd/pkg/registry"
)

// NewConfigManager builds the manager for config flows: handler keys are
// integration domains, and a completed wizard creates a new entry.
func NewConfigManager(reg *registry.Registry, store *entries.Registry, opts ...Option) *Manager {
	resolve := func(handlerKey string) (ports.HandlerFactory, *domain.ConfigEntry, error) {
		factory, err := reg.Resolve(handlerKey)
		if err != nil {
			return nil, nil, err
		}
		return factory, nil, nil
	}

	finish := func(ctx context.Context, f *domain.Flow, handler ports.StepHandler, result domain.StepResult) (string, error) {
		connClass := domain.ConnClassUnknown
		if classifier, ok := handler.(ports.ConnectionClassifier); ok {
			connClass = classifier.ConnectionClass()
		}

		entry, err := store.Create(ctx, f.HandlerKey, result.Title, result.Data, f.Source(), connClass)
		if err != nil {
			return "", fmt.Errorf("failed to create entry for %s: %w", f.HandlerKey, err)
		}
		return entry.EntryID, nil
	}

	return NewManager(domain.KindConfig, resolve, finish, opts...)
}

// NewOptionsManager builds the manager for options flows: handler keys
// are entry IDs, and a completed wizard replaces that entry's data in
// full. (Handlers wanting merge semantics read the old data off
// flow.Entry and fold it in themselves.)
func NewOptionsManager(reg *registry.Registry, store *entries.Registry, opts ...Option) *Manager {
	resolve := func(handlerKey string) (ports.HandlerFactory, *domain.ConfigEntry, error) {
		entry, err := store.Get(handlerKey)
		if err != nil {
			return nil, nil, err
		}
		factory, err := reg.ResolveOptions(entry.Domain)
		if err != nil {
			return nil, nil, err
		}
		return factory, entry, nil
	}

	finish := func(ctx context.Context, f *domain.Flow, _ ports.StepHandler, result domain.StepResult) (string, error) {
		entry, err := store.UpdateData(ctx, f.HandlerKey, result.Data)
		if err != nil {
			return "", fmt.Errorf("failed to apply options for entry %s: %w", f.HandlerKey, err)
		}
		if result.Title != "" && result.Title != entry.Title {
			if _, err := store.UpdateTitle(ctx, f.HandlerKey, result.Title); err != nil {
				return "", err
			}
		}
		return entry.EntryID, nil
	}

	return NewManager(domain.KindOptions, resolve, finish, opts...)
}
