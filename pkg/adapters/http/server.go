// Package http exposes the setup engine over a JSON REST surface: entry
// CRUD, config and options flow endpoints, and an SSE event stream.
//
// Every mutating route consults the access guard before touching the
// engine; transports in front of this adapter are responsible for putting
// the caller's identity into the request context.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hearthd/hearthd/internal/logging"
	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/ports"
	"github.com/hearthd/hearthd/pkg/schema"
)

// FlowService is the slice of the flow manager the HTTP surface needs.
type FlowService interface {
	Start(ctx context.Context, handlerKey string, flowCtx, input map[string]any) (domain.StepResult, error)
	Advance(ctx context.Context, flowID string, input map[string]any) (domain.StepResult, error)
	Current(flowID string) (domain.StepResult, error)
	Progress(filters ...func(domain.Summary) bool) []domain.Summary
	Abort(flowID string)
}

// EntryService is the slice of the entry registry the HTTP surface needs.
type EntryService interface {
	List() []*domain.ConfigEntry
	Get(entryID string) (*domain.ConfigEntry, error)
	UpdateSystemOptions(ctx context.Context, entryID string, patch map[string]any) (*domain.ConfigEntry, error)
	Remove(ctx context.Context, entryID string) (*domain.RemoveResult, error)
}

// HandlerCatalog reports which integrations offer which wizards.
type HandlerCatalog interface {
	Domains() []string
	SupportsOptions(domainName string) bool
}

// Server wires the engine services into a chi router.
type Server struct {
	configFlows  FlowService
	optionsFlows FlowService
	entries      EntryService
	catalog      HandlerCatalog
	guard        ports.AccessGuard
	streams      *StreamManager
	logger       *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGuard installs the access guard. Defaults to allow-all.
func WithGuard(g ports.AccessGuard) Option {
	return func(s *Server) { s.guard = g }
}

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer assembles the HTTP surface over the given services.
func NewServer(configFlows, optionsFlows FlowService, entries EntryService, catalog HandlerCatalog, opts ...Option) *Server {
	s := &Server{
		configFlows:  configFlows,
		optionsFlows: optionsFlows,
		entries:      entries,
		catalog:      catalog,
		guard:        ports.AllowAll(),
		streams:      NewStreamManager(),
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Streams returns the SSE broadcaster so the façade can register it as an
// event notifier.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.getHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		prometheus.DefaultGatherer, promhttp.HandlerOpts{},
	))

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.subscribeEvents)
		r.Get("/flow_handlers", s.getFlowHandlers)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.listEntries)
			r.Delete("/{entryID}", s.removeEntry)
			r.Get("/{entryID}/system_options", s.getSystemOptions)
			r.Post("/{entryID}/system_options", s.updateSystemOptions)
		})

		r.Route("/flows", func(r chi.Router) {
			r.Get("/", s.listConfigFlows)
			r.Post("/", s.startFlow(s.configFlows, ports.VerbAdd))
			r.Get("/{flowID}", s.getFlow(s.configFlows, ports.VerbAdd))
			r.Post("/{flowID}", s.advanceFlow(s.configFlows, ports.VerbAdd))
			r.Delete("/{flowID}", s.abortFlow(s.configFlows))
		})

		r.Route("/options/flows", func(r chi.Router) {
			r.Post("/", s.startFlow(s.optionsFlows, ports.VerbEdit))
			r.Get("/{flowID}", s.getFlow(s.optionsFlows, ports.VerbEdit))
			r.Post("/{flowID}", s.advanceFlow(s.optionsFlows, ports.VerbEdit))
			r.Delete("/{flowID}", s.abortFlow(s.optionsFlows))
		})
	})

	return r
}

// entryPayload is an entry as listed to callers: metadata only, never the
// data payload itself.
type entryPayload struct {
	EntryID         string                 `json:"entry_id"`
	Domain          string                 `json:"domain"`
	Title           string                 `json:"title"`
	Source          string                 `json:"source"`
	State           domain.EntryState      `json:"state"`
	ConnectionClass domain.ConnectionClass `json:"connection_class"`
	SupportsOptions bool                   `json:"supports_options"`
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	all := s.entries.List()
	out := make([]entryPayload, 0, len(all))
	for _, e := range all {
		out = append(out, entryPayload{
			EntryID:         e.EntryID,
			Domain:          e.Domain,
			Title:           e.Title,
			Source:          e.Source,
			State:           e.State,
			ConnectionClass: e.ConnectionClass,
			SupportsOptions: s.catalog.SupportsOptions(e.Domain),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) removeEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	if !s.authorize(w, r, ports.VerbRemove, entryID) {
		return
	}

	result, err := s.entries.Remove(r.Context(), entryID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) getSystemOptions(w http.ResponseWriter, r *http.Request) {
	entry, err := s.entries.Get(chi.URLParam(r, "entryID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry.SystemOptions)
}

func (s *Server) updateSystemOptions(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	if !s.authorize(w, r, ports.VerbEdit, entryID) {
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := s.entries.UpdateSystemOptions(r.Context(), entryID, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry.SystemOptions)
}

func (s *Server) getFlowHandlers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Domains())
}

// listConfigFlows lists in-progress flows that were NOT user initiated —
// the discovery surface a frontend shows as "found, needs attention".
func (s *Server) listConfigFlows(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, ports.VerbAdd, "") {
		return
	}
	summaries := s.configFlows.Progress(notUserInitiated)
	s.writeJSON(w, http.StatusOK, summaries)
}

func notUserInitiated(sum domain.Summary) bool {
	src, _ := sum.Context[domain.ContextSource].(string)
	return src != domain.SourceUser
}

type startFlowRequest struct {
	Handler string         `json:"handler"`
	Context map[string]any `json:"context,omitempty"`
	Input   map[string]any `json:"input,omitempty"`
}

func (s *Server) startFlow(flows FlowService, verb ports.Verb) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body startFlowRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if body.Handler == "" {
			http.Error(w, "Missing handler", http.StatusBadRequest)
			return
		}
		if !s.authorize(w, r, verb, body.Handler) {
			return
		}

		result, err := flows.Start(r.Context(), body.Handler, body.Context, body.Input)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, wireResult(result))
	}
}

func (s *Server) getFlow(flows FlowService, verb ports.Verb) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flowID := chi.URLParam(r, "flowID")
		if !s.authorize(w, r, verb, flowID) {
			return
		}

		result, err := flows.Current(flowID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, wireResult(result))
	}
}

func (s *Server) advanceFlow(flows FlowService, verb ports.Verb) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flowID := chi.URLParam(r, "flowID")
		if !s.authorize(w, r, verb, flowID) {
			return
		}

		var input map[string]any
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		result, err := flows.Advance(r.Context(), flowID, input)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, wireResult(result))
	}
}

func (s *Server) abortFlow(flows FlowService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flows.Abort(chi.URLParam(r, "flowID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// wireResult converts a step result to its JSON shape. Form schemas are
// encoded to field descriptors; create-entry data never crosses the wire,
// only the produced entry ID does.
func wireResult(result domain.StepResult) map[string]any {
	out := map[string]any{
		"type":    result.Type,
		"flow_id": result.FlowID,
		"handler": result.Handler,
	}

	switch result.Type {
	case domain.ResultForm:
		out["step_id"] = result.StepID
		out["data_schema"] = schema.Encode(result.Schema)
		if result.Errors != nil {
			out["errors"] = result.Errors
		}
		if result.DescriptionPlaceholders != nil {
			out["description_placeholders"] = result.DescriptionPlaceholders
		}
	case domain.ResultCreateEntry:
		out["title"] = result.Title
		out["result"] = result.EntryID
	case domain.ResultAbort:
		out["reason"] = result.Reason
	case domain.ResultExternalStep:
		out["step_id"] = result.StepID
		out["url"] = result.URL
	case domain.ResultShowProgress:
		out["step_id"] = result.StepID
		out["progress_action"] = result.ProgressAction
	case domain.ResultProgressDone:
		out["next_step_id"] = result.NextStepID
	}
	return out
}

// authorize consults the guard, replying 401 on denial.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, verb ports.Verb, resource string) bool {
	if s.guard.Authorize(r.Context(), verb, resource) {
		return true
	}
	s.logger.Warn("Request denied",
		"verb", string(verb),
		"resource", resource,
		"path", r.URL.Path,
	)
	s.writeError(w, domain.ErrUnauthorized)
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

// writeError maps the engine's error taxonomy onto HTTP statuses. Unknown
// resources and unauthorized attempts carry the same body shape so a 404
// never confirms existence to a caller who merely lacks access.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnknownFlow),
		errors.Is(err, domain.ErrUnknownEntry),
		errors.Is(err, domain.ErrUnknownHandler):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"message": err.Error()})
}
