// Package mcp exposes conversation turns as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/whitehatjr1001/cine-brain"
	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/dsl"
	"github.com/whitehatjr1001/cine-brain/pkg/runner"
	"golang.org/x/sync/errgroup"
)

// Resource URIs.
const (
	GraphURI    = "cinebrain://graph"
	SessionsURI = "cinebrain://sessions"
)

// Engine is the turn-level API exposed over MCP. *cinebrain.Engine implements it.
type Engine interface {
	Run(ctx context.Context, sessionID, message string) (*domain.Outcome, error)
	Resume(ctx context.Context, sessionID, message string) (*domain.Outcome, error)
	Inspect(ctx context.Context, sessionID string) (*domain.Checkpoint, error)
	Sessions(ctx context.Context) ([]string, error)
	Graph() *dsl.Graph
}

// TurnArgs are the arguments of run_turn and resume_turn.
type TurnArgs struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// TurnResult aligns with the HTTP outcome and is the structured output of the turn tools.
type TurnResult struct {
	SessionID string `json:"session_id" jsonschema_description:"Session to pass to resume_turn"`
	Status    string `json:"status" jsonschema_description:"completed, suspended or failed"`
	Stage     string `json:"stage,omitempty"`
	Prompt    string `json:"prompt,omitempty" jsonschema_description:"Question to answer with resume_turn when suspended"`
	Artifact  string `json:"artifact,omitempty" jsonschema_description:"Final report or reply"`
	VideoPath string `json:"video_path,omitempty"`
	AudioPath string `json:"audio_path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("cinebrain-mcp", strings.TrimSpace(cinebrain.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("run_turn",
		mcp.WithDescription("Send a message to CineBrain. Starts a new session when session_id is omitted. "+
			"A suspended result carries a plan to approve with resume_turn."),
		mcp.WithString("session_id", mcp.Description("Existing session id (optional)")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("resume_turn",
		mcp.WithDescription("Answer a suspended session: [ACCEPTED] runs the plan, [EDIT_PLAN] followed by changes revises it."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Suspended session id")),
		mcp.WithString("message", mcp.Description("Feedback on the presented plan")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleResume))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Return the stored checkpoint of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	), mcp.NewTypedToolHandler(s.handleGetSession))
}

func (s *Server) handleRun(ctx context.Context, _ mcp.CallToolRequest, args TurnArgs) (TurnResult, error) {
	if args.SessionID == "" {
		args.SessionID = uuid.NewString()
	}
	return s.turn(ctx, args, s.engine.Run)
}

func (s *Server) handleResume(ctx context.Context, _ mcp.CallToolRequest, args TurnArgs) (TurnResult, error) {
	if args.SessionID == "" {
		return TurnResult{}, errors.New("session_id is required")
	}
	return s.turn(ctx, args, s.engine.Resume)
}

func (s *Server) turn(ctx context.Context, args TurnArgs, fn func(context.Context, string, string) (*domain.Outcome, error)) (TurnResult, error) {
	message, err := runner.SanitizeInput(args.Message)
	if err != nil {
		s.logger.Warn("input rejected", "error", err, "size", len(args.Message))
		return TurnResult{}, fmt.Errorf("input rejected: %w", err)
	}
	out, err := fn(ctx, args.SessionID, message)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{
		SessionID: out.SessionID,
		Status:    string(out.Status),
		Stage:     out.Stage,
		Prompt:    out.Prompt,
		Artifact:  out.Artifact,
		VideoPath: out.VideoPath,
		AudioPath: out.AudioPath,
		Error:     out.Error,
	}, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ mcp.CallToolRequest, args TurnArgs) (*mcp.CallToolResult, error) {
	cp, err := s.engine.Inspect(ctx, args.SessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Stage graph",
		mcp.WithMIMEType("application/json"),
	), func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		g := s.engine.Graph()
		raw, _ := json.Marshal(map[string]any{"entry": g.Entry(), "edges": g.Edges()})
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GraphURI, MIMEType: "application/json", Text: string(raw)},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Stored sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.Sessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		raw, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: SessionsURI, MIMEType: "application/json", Text: string(raw)},
		}, nil
	})
}
