// Package mcp exposes the arbor service as a Model Context Protocol
// server, so that agents can author and play dialog trees as tools.
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
	"github.com/mitchellh/mapstructure"

	"github.com/arborlabs/arbor"
	"github.com/arborlabs/arbor/pkg/dialog"
	"github.com/arborlabs/arbor/pkg/playback"
)

// ViewResponse is the structured result shared by the playback tools.
type ViewResponse struct {
	SessionID string        `json:"session_id" jsonschema_description:"Opaque session identifier"`
	View      playback.View `json:"view" jsonschema_description:"The current scene, its choices and the ended flag"`
}

// ValidateResponse is the structured result of the validate_graph tool.
type ValidateResponse struct {
	Valid  bool           `json:"valid" jsonschema_description:"True when no error-severity issues were found"`
	Issues []dialog.Issue `json:"issues" jsonschema_description:"All findings, errors and warnings"`
}

// Server wraps an arbor.Service and exposes it as an MCP server.
type Server struct {
	service   *arbor.Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(service *arbor.Service, logger *slog.Logger) *Server {
	s := &Server{
		service:   service,
		logger:    logger,
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// decodeArgs maps loosely typed tool arguments onto a typed struct.
// MCP clients routinely send numbers as float64 or quoted strings, so
// decoding is weakly typed.
func decodeArgs(args map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_session",
		mcp.WithDescription("Start playback of a stored dialog graph at the given scene. Returns a session ID and the first view."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("Name of the stored graph")),
		mcp.WithString("start", mcp.Required(), mcp.Description("Scene ID to start from")),
		mcp.WithOutputSchema[ViewResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStartSession))

	viewTool := mcp.NewTool("current_view",
		mcp.WithDescription("Return the current question and choices of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier returned by start_session")),
		mcp.WithOutputSchema[ViewResponse](),
	)
	s.mcpServer.AddTool(viewTool, mcp.NewStructuredToolHandler(s.handleCurrentView))

	chooseTool := mcp.NewTool("choose",
		mcp.WithDescription("Pick an answer by zero-based index and advance the session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based index into the current choices")),
		mcp.WithOutputSchema[ViewResponse](),
	)
	s.mcpServer.AddTool(chooseTool, mcp.NewStructuredToolHandler(s.handleChoose))

	validateTool := mcp.NewTool("validate_graph",
		mcp.WithDescription("Scan a stored graph for dangling references, empty scenes and unreachable scenes."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("Name of the stored graph")),
		mcp.WithString("start", mcp.Description("Optional scene ID; when set, unreachable scenes are reported too")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))
}

type startSessionArgs struct {
	Graph string `json:"graph"`
	Start string `json:"start"`
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest, rawArgs map[string]interface{}) (ViewResponse, error) {
	var args startSessionArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return ViewResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Graph == "" || args.Start == "" {
		return ViewResponse{}, fmt.Errorf("graph and start are required")
	}

	id, view, err := s.service.StartSession(ctx, args.Graph, args.Start)
	if err != nil {
		return ViewResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return ViewResponse{SessionID: id, View: view}, nil
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCurrentView(ctx context.Context, request mcp.CallToolRequest, rawArgs map[string]interface{}) (ViewResponse, error) {
	var args sessionArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return ViewResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}

	view, err := s.service.CurrentView(ctx, args.SessionID)
	if err != nil {
		return ViewResponse{}, fmt.Errorf("lookup failed: %w", err)
	}
	return ViewResponse{SessionID: args.SessionID, View: view}, nil
}

type chooseArgs struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

func (s *Server) handleChoose(ctx context.Context, request mcp.CallToolRequest, rawArgs map[string]interface{}) (ViewResponse, error) {
	var args chooseArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return ViewResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}

	view, err := s.service.Choose(ctx, args.SessionID, args.Index)
	if err != nil {
		s.logger.Warn("MCP choose rejected", "session_id", args.SessionID, "index", args.Index, "err", err)
		return ViewResponse{}, fmt.Errorf("choose failed: %w", err)
	}
	return ViewResponse{SessionID: args.SessionID, View: view}, nil
}

type validateArgs struct {
	Graph string `json:"graph"`
	Start string `json:"start"`
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, rawArgs map[string]interface{}) (ValidateResponse, error) {
	var args validateArgs
	if err := decodeArgs(rawArgs, &args); err != nil {
		return ValidateResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}

	issues, err := s.service.Validate(ctx, args.Graph, args.Start)
	if err != nil {
		return ValidateResponse{}, fmt.Errorf("validate failed: %w", err)
	}
	if issues == nil {
		issues = []dialog.Issue{}
	}
	return ValidateResponse{Valid: !dialog.HasErrors(issues), Issues: issues}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("arbor://graphs", "Stored Dialog Graphs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.service.ListGraphs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list graphs: %w", err)
		}
		jsonBytes, _ := json.Marshal(names)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "arbor://graphs",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
