package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthd/hearthd/integrations/demo"
	httpAdapter "github.com/hearthd/hearthd/pkg/adapters/http"
	"github.com/hearthd/hearthd/pkg/adapters/memory"
	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/entries"
	"github.com/hearthd/hearthd/pkg/flow"
	"github.com/hearthd/hearthd/pkg/ports"
	"github.com/hearthd/hearthd/pkg/registry"
)

type fixture struct {
	handler http.Handler
	entries *entries.Registry
	configs *flow.Manager
	options *flow.Manager
	server  *httpAdapter.Server
}

func newFixture(t *testing.T, opts ...httpAdapter.Option) *fixture {
	t.Helper()
	reg := registry.New()
	demo.Register(reg)
	store := entries.NewRegistry(memory.NewStore())
	configs := flow.NewConfigManager(reg, store)
	options := flow.NewOptionsManager(reg, store)

	srv := httpAdapter.NewServer(configs, options, store, reg, opts...)
	return &fixture{
		handler: srv.Handler(),
		entries: store,
		configs: configs,
		options: options,
		server:  srv,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestFlowHandlers(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/flow_handlers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var domains []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &domains))
	assert.Equal(t, []string{"demo"}, domains)
}

func TestStartFlow_FormWireShape(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/flows/", map[string]any{"handler": "demo"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "form", body["type"])
	assert.Equal(t, "user", body["step_id"])
	assert.Equal(t, "demo", body["handler"])
	assert.NotEmpty(t, body["flow_id"])

	fields, ok := body["data_schema"].([]any)
	require.True(t, ok, "data_schema must be an ordered array")
	require.Len(t, fields, 4)
	first := fields[0].(map[string]any)
	assert.Equal(t, "name", first["name"])
	assert.Equal(t, true, first["required"])
	last := fields[3].(map[string]any)
	assert.Equal(t, "password", last["name"])
	assert.Equal(t, true, last["secret"])
}

func TestStartFlow_UnknownHandlerIs404(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/flows/", map[string]any{"handler": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartFlow_MissingHandlerIs400(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/flows/", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvanceFlow_ErrorsThenCreateEntry(t *testing.T) {
	f := newFixture(t)

	start := decode(t, f.do(t, http.MethodPost, "/api/flows/", map[string]any{"handler": "demo"}))
	flowID := start["flow_id"].(string)

	// Invalid input re-renders the form with field errors.
	rec := f.do(t, http.MethodPost, "/api/flows/"+flowID, map[string]any{"port": 8123})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "form", body["type"])
	errs := body["errors"].(map[string]any)
	assert.Equal(t, "required", errs["name"])

	// Valid input produces the terminal wire shape: entry ID under
	// "result", no data payload anywhere.
	rec = f.do(t, http.MethodPost, "/api/flows/"+flowID, map[string]any{"name": "Kitchen"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "create_entry", body["type"])
	assert.Equal(t, "Kitchen", body["title"])
	assert.NotEmpty(t, body["result"])
	_, leaked := body["data"]
	assert.False(t, leaked, "create_entry responses must not carry collected data")

	// The flow is gone afterwards.
	rec = f.do(t, http.MethodGet, "/api/flows/"+flowID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetFlow_ServesCurrentForm(t *testing.T) {
	f := newFixture(t)

	start := decode(t, f.do(t, http.MethodPost, "/api/flows/", map[string]any{"handler": "demo"}))
	flowID := start["flow_id"].(string)

	rec := f.do(t, http.MethodGet, "/api/flows/"+flowID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "form", body["type"])
	assert.Equal(t, "user", body["step_id"])
}

func TestListConfigFlows_ExcludesUserInitiated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.configs.Start(ctx, "demo", nil, nil)
	require.NoError(t, err)
	discovered, err := f.configs.Start(ctx, "demo", map[string]any{
		domain.ContextSource: domain.SourceDiscovery,
		"host":               "10.0.0.9",
	}, nil)
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/flows/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, discovered.FlowID, summaries[0]["flow_id"])
}

func TestAbortFlow(t *testing.T) {
	f := newFixture(t)

	start := decode(t, f.do(t, http.MethodPost, "/api/flows/", map[string]any{"handler": "demo"}))
	flowID := start["flow_id"].(string)

	rec := f.do(t, http.MethodDelete, "/api/flows/"+flowID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/flows/"+flowID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Aborting again is still a 204.
	rec = f.do(t, http.MethodDelete, "/api/flows/"+flowID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func createEntry(t *testing.T, f *fixture) string {
	t.Helper()
	result, err := f.configs.Start(context.Background(), "demo",
		map[string]any{domain.ContextSource: domain.SourceImport},
		map[string]any{"name": "Kitchen", "host": "10.0.0.5"})
	require.NoError(t, err)
	require.Equal(t, domain.ResultCreateEntry, result.Type)
	return result.EntryID
}

func TestListEntries_MetadataOnly(t *testing.T) {
	f := newFixture(t)
	entryID := createEntry(t, f)

	rec := f.do(t, http.MethodGet, "/api/entries/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	assert.Equal(t, entryID, listed[0]["entry_id"])
	assert.Equal(t, "demo", listed[0]["domain"])
	assert.Equal(t, "Kitchen", listed[0]["title"])
	assert.Equal(t, "import", listed[0]["source"])
	assert.Equal(t, true, listed[0]["supports_options"])
	_, leaked := listed[0]["data"]
	assert.False(t, leaked, "entry listings must not expose the data payload")
}

func TestSystemOptions_GetAndUpdate(t *testing.T) {
	f := newFixture(t)
	entryID := createEntry(t, f)

	rec := f.do(t, http.MethodGet, "/api/entries/"+entryID+"/system_options", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["disable_new_entities"])

	rec = f.do(t, http.MethodPost, "/api/entries/"+entryID+"/system_options", map[string]any{
		"disable_new_entities": true,
		"unrecognized":         "dropped",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["disable_new_entities"])
	_, echoed := body["unrecognized"]
	assert.False(t, echoed)
}

func TestRemoveEntry(t *testing.T) {
	f := newFixture(t)
	entryID := createEntry(t, f)

	rec := f.do(t, http.MethodDelete, "/api/entries/"+entryID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["require_restart"])

	rec = f.do(t, http.MethodDelete, "/api/entries/"+entryID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOptionsFlow_OverHTTP(t *testing.T) {
	f := newFixture(t)
	entryID := createEntry(t, f)

	rec := f.do(t, http.MethodPost, "/api/options/flows/", map[string]any{"handler": entryID})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "form", body["type"])
	assert.Equal(t, "init", body["step_id"])
	flowID := body["flow_id"].(string)

	rec = f.do(t, http.MethodPost, "/api/options/flows/"+flowID, map[string]any{"host": "10.0.0.99"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "create_entry", body["type"])
	assert.Equal(t, entryID, body["result"])

	entry, err := f.entries.Get(entryID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.99", entry.Data["host"])
}

func TestGuard_DeniedMutationIs401AndTouchesNothing(t *testing.T) {
	denyAll := ports.GuardFunc(func(ctx context.Context, verb ports.Verb, resource string) bool {
		return false
	})
	f := newFixture(t, httpAdapter.WithGuard(denyAll))
	entryID := createEntry(t, f)

	rec := f.do(t, http.MethodPost, "/api/flows/", map[string]any{"handler": "demo"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.configs.Progress(), "a denied start must not create a flow")

	rec = f.do(t, http.MethodDelete, "/api/entries/"+entryID, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, err := f.entries.Get(entryID)
	assert.NoError(t, err, "a denied remove must not delete the entry")

	rec = f.do(t, http.MethodPost, "/api/entries/"+entryID+"/system_options", map[string]any{
		"disable_new_entities": true,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	entry, err := f.entries.Get(entryID)
	require.NoError(t, err)
	assert.False(t, entry.SystemOptions.DisableNewEntities)
}

func TestGuard_DenialBodyMatchesNotFoundShape(t *testing.T) {
	denyAll := ports.GuardFunc(func(ctx context.Context, verb ports.Verb, resource string) bool {
		return false
	})
	denied := newFixture(t, httpAdapter.WithGuard(denyAll))
	open := newFixture(t)

	deniedRec := denied.do(t, http.MethodDelete, "/api/entries/some-id", nil)
	notFoundRec := open.do(t, http.MethodDelete, "/api/entries/some-id", nil)

	assert.Equal(t, http.StatusUnauthorized, deniedRec.Code)
	assert.Equal(t, http.StatusNotFound, notFoundRec.Code)

	// Same body shape either way, so a denial never confirms existence.
	deniedBody := decode(t, deniedRec)
	notFoundBody := decode(t, notFoundRec)
	assert.ElementsMatch(t, keys(deniedBody), keys(notFoundBody))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestStreamManager_DeliversAndDropsWhenSlow(t *testing.T) {
	sm := httpAdapter.NewStreamManager()

	ch, cancel := sm.Subscribe()
	defer cancel()

	sm.Notify(domain.NewEvent(domain.EventEntryCreated))
	ev := <-ch
	assert.Equal(t, domain.EventEntryCreated, ev.Type)

	// Fill the buffer past capacity; Notify must not block.
	for i := 0; i < 100; i++ {
		sm.Notify(domain.NewEvent(domain.EventEntryUpdated))
	}

	cancel()
	cancel() // double cancel is safe
}
