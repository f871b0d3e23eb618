// Package mcp exposes the setup engine as Model Context Protocol tools so
// agent frontends can drive wizards and inspect entries. It mirrors the
// HTTP adapter's wire shapes: form schemas are encoded to field
// descriptors and create-entry data never leaves the engine.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hearthd/hearthd"
	"github.com/hearthd/hearthd/internal/logging"
	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/ports"
	"github.com/hearthd/hearthd/pkg/schema"
)

// FlowService is the slice of the flow manager the MCP tools need.
type FlowService interface {
	Start(ctx context.Context, handlerKey string, flowCtx, input map[string]any) (domain.StepResult, error)
	Advance(ctx context.Context, flowID string, input map[string]any) (domain.StepResult, error)
	Current(flowID string) (domain.StepResult, error)
	Abort(flowID string)
}

// EntryService is the slice of the entry registry the MCP tools need.
type EntryService interface {
	List() []*domain.ConfigEntry
	Remove(ctx context.Context, entryID string) (*domain.RemoveResult, error)
}

// HandlerCatalog reports which integrations offer which wizards.
type HandlerCatalog interface {
	Domains() []string
	SupportsOptions(domainName string) bool
}

// Server bridges the engine services into an MCP tool surface. Every
// mutating tool consults the access guard, same as the HTTP routes.
type Server struct {
	configFlows  FlowService
	optionsFlows FlowService
	entries      EntryService
	catalog      HandlerCatalog
	guard        ports.AccessGuard
	logger       *slog.Logger

	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithGuard installs the access guard. Defaults to allow-all.
func WithGuard(g ports.AccessGuard) Option {
	return func(s *Server) { s.guard = g }
}

// NewServer assembles the MCP surface over the given services.
func NewServer(configFlows, optionsFlows FlowService, entries EntryService, catalog HandlerCatalog, opts ...Option) *Server {
	s := &Server{
		configFlows:  configFlows,
		optionsFlows: optionsFlows,
		entries:      entries,
		catalog:      catalog,
		guard:        ports.AllowAll(),
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = server.NewMCPServer("hearthd-mcp", strings.TrimSpace(hearthd.Version))
	s.registerTools()
	s.registerResources()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_flow",
		mcp.WithDescription("Start a configuration wizard for an integration. Returns the first step result; forms list their fields under data_schema."),
		mcp.WithString("handler",
			mcp.Required(),
			mcp.Description("Integration domain (config flows) or entry ID (options flows)"),
		),
		mcp.WithString("kind",
			mcp.Description("Flow kind: config (default) or options"),
		),
		mcp.WithObject("context",
			mcp.Description("Flow context, e.g. {\"source\": \"user\"}"),
		),
		mcp.WithObject("input",
			mcp.Description("Input for the first step, if already known"),
		),
	), s.handleStartFlow)

	s.mcpServer.AddTool(mcp.NewTool("advance_flow",
		mcp.WithDescription("Submit input to an in-progress wizard and receive the next step result."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow ID from a previous result")),
		mcp.WithString("kind", mcp.Description("Flow kind: config (default) or options")),
		mcp.WithObject("input", mcp.Description("Field values answering the current form")),
	), s.handleAdvanceFlow)

	s.mcpServer.AddTool(mcp.NewTool("abort_flow",
		mcp.WithDescription("Abandon an in-progress wizard. Idempotent."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow ID to abort")),
		mcp.WithString("kind", mcp.Description("Flow kind: config (default) or options")),
	), s.handleAbortFlow)

	s.mcpServer.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List configured entries: metadata only, never the stored data."),
	), s.handleListEntries)

	s.mcpServer.AddTool(mcp.NewTool("remove_entry",
		mcp.WithDescription("Remove a configured entry, unloading it first when it is loaded."),
		mcp.WithString("entry_id", mcp.Required(), mcp.Description("Entry ID to remove")),
	), s.handleRemoveEntry)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"hearthd://flow_handlers",
		"Flow handlers",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		type handlerInfo struct {
			Domain          string `json:"domain"`
			SupportsOptions bool   `json:"supports_options"`
		}
		domains := s.catalog.Domains()
		out := make([]handlerInfo, 0, len(domains))
		for _, d := range domains {
			out = append(out, handlerInfo{Domain: d, SupportsOptions: s.catalog.SupportsOptions(d)})
		}
		data, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

// flows picks the manager for a tool's kind argument, along with the
// verb the guard checks for that kind: config flows add entries, options
// flows edit one.
func (s *Server) flows(kind string) (FlowService, ports.Verb, error) {
	switch kind {
	case "", "config":
		return s.configFlows, ports.VerbAdd, nil
	case "options":
		return s.optionsFlows, ports.VerbEdit, nil
	default:
		return nil, "", fmt.Errorf("unknown flow kind %q", kind)
	}
}

// authorize consults the guard; a non-nil result is the denial to return.
func (s *Server) authorize(ctx context.Context, verb ports.Verb, resource string) *mcp.CallToolResult {
	if s.guard.Authorize(ctx, verb, resource) {
		return nil
	}
	s.logger.Warn("Tool call denied",
		"verb", string(verb),
		"resource", resource,
	)
	return mcp.NewToolResultError(domain.ErrUnauthorized.Error())
}

func (s *Server) handleStartFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	handler, err := req.RequireString("handler")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	flows, verb, err := s.flows(req.GetString("kind", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if denied := s.authorize(ctx, verb, handler); denied != nil {
		return denied, nil
	}

	args := req.GetArguments()
	flowCtx, _ := args["context"].(map[string]any)
	input, _ := args["input"].(map[string]any)

	result, err := flows.Start(ctx, handler, flowCtx, input)
	if err != nil {
		s.logger.Warn("Start flow failed", "handler", handler, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.resultText(result)
}

func (s *Server) handleAdvanceFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := req.RequireString("flow_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	flows, verb, err := s.flows(req.GetString("kind", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if denied := s.authorize(ctx, verb, flowID); denied != nil {
		return denied, nil
	}

	input, _ := req.GetArguments()["input"].(map[string]any)

	result, err := flows.Advance(ctx, flowID, input)
	if err != nil {
		s.logger.Warn("Advance flow failed", "flow_id", flowID, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.resultText(result)
}

func (s *Server) handleAbortFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	flowID, err := req.RequireString("flow_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	flows, verb, err := s.flows(req.GetString("kind", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if denied := s.authorize(ctx, verb, flowID); denied != nil {
		return denied, nil
	}

	flows.Abort(flowID)
	return mcp.NewToolResultText(fmt.Sprintf("Flow %s aborted", flowID)), nil
}

func (s *Server) handleListEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type entryInfo struct {
		EntryID         string `json:"entry_id"`
		Domain          string `json:"domain"`
		Title           string `json:"title"`
		Source          string `json:"source"`
		State           string `json:"state"`
		SupportsOptions bool   `json:"supports_options"`
	}

	all := s.entries.List()
	out := make([]entryInfo, 0, len(all))
	for _, e := range all {
		out = append(out, entryInfo{
			EntryID:         e.EntryID,
			Domain:          e.Domain,
			Title:           e.Title,
			Source:          e.Source,
			State:           string(e.State),
			SupportsOptions: s.catalog.SupportsOptions(e.Domain),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleRemoveEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID, err := req.RequireString("entry_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if denied := s.authorize(ctx, ports.VerbRemove, entryID); denied != nil {
		return denied, nil
	}

	result, err := s.entries.Remove(ctx, entryID)
	if err != nil {
		s.logger.Warn("Remove entry failed", "entry_id", entryID, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, marshalErr := json.MarshalIndent(result, "", "  ")
	if marshalErr != nil {
		return mcp.NewToolResultError(marshalErr.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// resultText renders a step result in the same shape the HTTP adapter
// uses, serialized for the tool response.
func (s *Server) resultText(result domain.StepResult) (*mcp.CallToolResult, error) {
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

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ServeStdio runs the MCP server on stdin/stdout until the client hangs up.
func (s *Server) ServeStdio() error {
	s.logger.Info("Starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE runs the MCP server over HTTP SSE on the given address.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s", addr)),
	)

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting MCP server on SSE", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
