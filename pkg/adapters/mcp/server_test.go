package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthd/hearthd/integrations/demo"
	"github.com/hearthd/hearthd/pkg/adapters/memory"
	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/entries"
	"github.com/hearthd/hearthd/pkg/flow"
	"github.com/hearthd/hearthd/pkg/ports"
	"github.com/hearthd/hearthd/pkg/registry"
)

type fixture struct {
	srv     *Server
	configs *flow.Manager
	entries *entries.Registry
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	reg := registry.New()
	demo.Register(reg)
	store := entries.NewRegistry(memory.NewStore())
	configs := flow.NewConfigManager(reg, store)
	options := flow.NewOptionsManager(reg, store)
	return &fixture{
		srv:     NewServer(configs, options, store, reg, opts...),
		configs: configs,
		entries: store,
	}
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool results carry text content")
	return text.Text
}

func TestStartFlowTool_RunsWizard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.srv.handleStartFlow(ctx, toolRequest(map[string]any{"handler": "demo"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var form map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &form))
	assert.Equal(t, "form", form["type"])
	assert.Equal(t, "user", form["step_id"])
	flowID, _ := form["flow_id"].(string)
	require.NotEmpty(t, flowID)

	res, err = f.srv.handleAdvanceFlow(ctx, toolRequest(map[string]any{
		"flow_id": flowID,
		"input":   map[string]any{"name": "Kitchen"},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var final map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &final))
	assert.Equal(t, "create_entry", final["type"])
	assert.NotContains(t, final, "data", "collected data must not reach the tool response")
}

func TestTools_DeniedMutationTouchesNothing(t *testing.T) {
	denyAll := ports.GuardFunc(func(ctx context.Context, verb ports.Verb, resource string) bool {
		return false
	})
	f := newFixture(t, WithGuard(denyAll))
	ctx := context.Background()

	entry, err := f.entries.Create(ctx, "demo", "Kitchen", nil,
		domain.SourceUser, domain.ConnClassUnknown)
	require.NoError(t, err)

	res, err := f.srv.handleStartFlow(ctx, toolRequest(map[string]any{"handler": "demo"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "unauthorized")
	assert.Empty(t, f.configs.Progress(), "a denied start must not create a flow")

	res, err = f.srv.handleRemoveEntry(ctx, toolRequest(map[string]any{"entry_id": entry.EntryID}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	_, err = f.entries.Get(entry.EntryID)
	assert.NoError(t, err, "a denied remove must not delete the entry")

	res, err = f.srv.handleAdvanceFlow(ctx, toolRequest(map[string]any{"flow_id": "any"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = f.srv.handleAbortFlow(ctx, toolRequest(map[string]any{"flow_id": "any"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestTools_GuardSeesKindVerbs(t *testing.T) {
	var seen []ports.Verb
	guard := ports.GuardFunc(func(ctx context.Context, verb ports.Verb, resource string) bool {
		seen = append(seen, verb)
		return true
	})
	f := newFixture(t, WithGuard(guard))
	ctx := context.Background()

	entry, err := f.entries.Create(ctx, "demo", "Kitchen",
		map[string]any{"host": "a", "port": 1}, domain.SourceUser, domain.ConnClassUnknown)
	require.NoError(t, err)

	res, err := f.srv.handleStartFlow(ctx, toolRequest(map[string]any{"handler": "demo"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = f.srv.handleStartFlow(ctx, toolRequest(map[string]any{
		"handler": entry.EntryID,
		"kind":    "options",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = f.srv.handleRemoveEntry(ctx, toolRequest(map[string]any{"entry_id": entry.EntryID}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	assert.Equal(t, []ports.Verb{ports.VerbAdd, ports.VerbEdit, ports.VerbRemove}, seen)
}
