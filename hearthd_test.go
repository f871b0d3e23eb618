package hearthd_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthd/hearthd"
	"github.com/hearthd/hearthd/integrations/demo"
	"github.com/hearthd/hearthd/pkg/adapters/memory"
	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/ports"
)

func TestHub_EndToEnd(t *testing.T) {
	hub := hearthd.New()
	demo.Register(hub.Handlers)
	ctx := context.Background()

	var mu sync.Mutex
	var events []domain.EventType
	hub.Events().Add(ports.NotifierFunc(func(ev domain.Event) {
		mu.Lock()
		events = append(events, ev.Type)
		mu.Unlock()
	}))

	// Config wizard start to finish.
	result, err := hub.ConfigFlows.Start(ctx, "demo", nil, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ResultForm, result.Type)

	final, err := hub.ConfigFlows.Advance(ctx, result.FlowID, map[string]any{"name": "Kitchen"})
	require.NoError(t, err)
	require.Equal(t, domain.ResultCreateEntry, final.Type)

	entry, err := hub.Entries.Get(final.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", entry.Title)

	// Options wizard against the fresh entry.
	opts, err := hub.OptionsFlows.Start(ctx, final.EntryID, nil, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ResultForm, opts.Type)

	done, err := hub.OptionsFlows.Advance(ctx, opts.FlowID, map[string]any{"host": "10.0.0.7"})
	require.NoError(t, err)
	require.Equal(t, domain.ResultCreateEntry, done.Type)

	entry, err = hub.Entries.Get(final.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", entry.Data["host"])

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, events, domain.EventFlowStarted)
	assert.Contains(t, events, domain.EventFlowFinished)
	assert.Contains(t, events, domain.EventEntryCreated)
	assert.Contains(t, events, domain.EventEntryUpdated)
}

func TestHub_RestoreFromSharedStore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first := hearthd.New(hearthd.WithStore(store))
	demo.Register(first.Handlers)

	result, err := first.ConfigFlows.Start(ctx, "demo",
		map[string]any{domain.ContextSource: domain.SourceImport},
		map[string]any{"name": "Persisted"})
	require.NoError(t, err)
	require.Equal(t, domain.ResultCreateEntry, result.Type)

	second := hearthd.New(hearthd.WithStore(store))
	demo.Register(second.Handlers)
	require.NoError(t, second.Restore(ctx))

	entry, err := second.Entries.Get(result.EntryID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", entry.Title)
}

func TestHub_ShutdownAbortsFlows(t *testing.T) {
	hub := hearthd.New()
	demo.Register(hub.Handlers)
	ctx := context.Background()

	started, err := hub.ConfigFlows.Start(ctx, "demo", nil, nil)
	require.NoError(t, err)

	hub.Shutdown()

	_, err = hub.ConfigFlows.Current(started.FlowID)
	assert.ErrorIs(t, err, domain.ErrUnknownFlow)
}
