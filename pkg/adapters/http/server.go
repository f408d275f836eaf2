// Package http exposes the engine over a JSON HTTP API with server-sent
// state diffs.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/whitehatjr1001/cine-brain"
	"github.com/whitehatjr1001/cine-brain/internal/logging"
	"github.com/whitehatjr1001/cine-brain/pkg/domain"
	"github.com/whitehatjr1001/cine-brain/pkg/dsl"
	"github.com/whitehatjr1001/cine-brain/pkg/runner"
)

// Engine is the turn-level API served over HTTP. *cinebrain.Engine implements it.
type Engine interface {
	Run(ctx context.Context, sessionID, message string) (*domain.Outcome, error)
	Resume(ctx context.Context, sessionID, message string) (*domain.Outcome, error)
	Inspect(ctx context.Context, sessionID string) (*domain.Checkpoint, error)
	Sessions(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, sessionID string) error
	Graph() *dsl.Graph
}

// TurnRequest is the body of run and resume calls.
type TurnRequest struct {
	Message string `json:"message"`
}

// TurnResponse carries the outcome of a turn and what it changed.
type TurnResponse struct {
	Outcome *domain.Outcome   `json:"outcome"`
	Diff    *domain.StateDiff `json:"diff,omitempty"`
}

// Server serves the engine.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Metrics http.Handler
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/run", s.RunTurn)
			r.Post("/resume", s.ResumeTurn)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSession handles POST /sessions: it runs a turn on a fresh session id.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, uuid.NewString(), s.Engine.Run)
}

// RunTurn handles POST /sessions/{sessionID}/run.
func (s *Server) RunTurn(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, chi.URLParam(r, "sessionID"), s.Engine.Run)
}

// ResumeTurn handles POST /sessions/{sessionID}/resume.
func (s *Server) ResumeTurn(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, chi.URLParam(r, "sessionID"), s.Engine.Resume)
}

type turnFunc func(ctx context.Context, sessionID, message string) (*domain.Outcome, error)

func (s *Server) turn(w http.ResponseWriter, r *http.Request, sessionID string, fn turnFunc) {
	var body TurnRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			s.logger.Warn("invalid request body", "error", err)
			return
		}
	}
	message, err := runner.SanitizeInput(body.Message)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
		return
	}

	var before *domain.ConversationState
	if cp, err := s.Engine.Inspect(r.Context(), sessionID); err == nil {
		before = &cp.State
	}

	out, err := fn(r.Context(), sessionID, message)
	if err != nil {
		s.fail(w, err)
		return
	}

	diff := domain.Diff(before, &out.State)
	if diff != nil {
		if raw, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(sessionID, string(raw))
		}
	}
	writeJSON(w, http.StatusOK, TurnResponse{Outcome: out, Diff: diff})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	cp, err := s.Engine.Inspect(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, _ *http.Request) {
	g := s.Engine.Graph()
	writeJSON(w, http.StatusOK, map[string]any{
		"entry":  g.Entry(),
		"stages": g.Stages(),
		"edges":  g.Edges(),
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "cinebrain-http",
		"version": strings.TrimSpace(cinebrain.Version),
	})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionSuspended), errors.Is(err, domain.ErrNotSuspended):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled):
		status = 499
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a listener for sessionID. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of sessionID. Slow clients drop messages.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// SubscribeEvents handles GET /sessions/{sessionID}/events (SSE).
// The optional watch parameter ("messages,observations,changed") filters diffs.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watch []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watch = strings.Split(v, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !matches(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func matches(msg string, watch []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "messages":
			if len(diff.Messages) > 0 {
				return true
			}
		case "observations":
			if len(diff.Observations) > 0 {
				return true
			}
		case "changed":
			if len(diff.Changed) > 0 {
				return true
			}
		}
	}
	return false
}
