package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kosworks/scriptmate/internal/domain/chat"
	"github.com/kosworks/scriptmate/internal/domain/docs"
	"github.com/kosworks/scriptmate/internal/logger"
	"github.com/kosworks/scriptmate/internal/metrics"
	"github.com/kosworks/scriptmate/internal/usecase/assistant"
	"github.com/kosworks/scriptmate/internal/usecase/retrieval"
	"github.com/kosworks/scriptmate/internal/version"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 25
)

// Asker runs one assistant turn. Implemented by assistant.Service.
type Asker interface {
	Ask(ctx context.Context, req assistant.Request) assistant.Answer
}

// DocReader exposes the documentation index to HTTP clients. Implemented by
// retrieval.Service.
type DocReader interface {
	Ready() bool
	State() retrieval.State
	Meta() docs.IndexMeta
	GetByIDOrAlias(key string) (docs.Entry, bool)
	GetSuffixes(structureID string) []docs.Entry
	Search(query string, limit int) []docs.Entry
}

// Server is the HTTP API surface.
type Server struct {
	assistant Asker
	docs      DocReader
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(asker Asker, docs DocReader, log *zap.Logger) *Server {
	return &Server{assistant: asker, docs: docs, logger: log}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Post("/v1/ask", s.Ask)
	r.Get("/v1/docs/search", s.SearchDocs)
	r.Get("/v1/docs/{id}", s.GetDoc)
	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// requestLogger injects a request-scoped logger carrying the request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), reqLog)))
	})
}

// askRequest is the POST /v1/ask body.
type askRequest struct {
	Query   string           `json:"query"`
	History []historyMessage `json:"history,omitempty"`
	Stream  bool             `json:"stream,omitempty"`
}

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// askResponse is the POST /v1/ask reply.
type askResponse struct {
	TurnID    string `json:"turn_id"`
	Outcome   string `json:"outcome"`
	Content   string `json:"content"`
	Error     string `json:"error,omitempty"`
	Rounds    int    `json:"rounds"`
	ToolCalls int    `json:"tool_calls"`
}

// Ask handles POST /v1/ask. With stream=true the first round's content is
// delivered as SSE "delta" events, followed by one "done" event carrying the
// full result; otherwise the result is returned as a single JSON body.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}

	history, err := historyFromRequest(req.History)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	turn := assistant.Request{History: history, Query: req.Query}

	if req.Stream {
		s.askStream(w, r, turn)
		return
	}

	ans := s.assistant.Ask(r.Context(), turn)
	writeJSON(w, statusForOutcome(ans.Outcome), answerToResponse(ans))
}

func (s *Server) askStream(w http.ResponseWriter, r *http.Request, turn assistant.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusNotAcceptable, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	// Deltas arrive sequentially from the turn's goroutine; writing them
	// here serializes delivery onto this connection.
	turn.Stream = true
	turn.OnDelta = func(delta string) {
		writeSSE(w, "delta", delta)
		flusher.Flush()
	}

	ans := s.assistant.Ask(r.Context(), turn)

	payload, err := json.Marshal(answerToResponse(ans))
	if err != nil {
		logger.FromContext(r.Context()).Error("encode stream result", zap.Error(err))
		return
	}
	writeSSE(w, "done", string(payload))
	flusher.Flush()
}

// SearchDocs handles GET /v1/docs/search?q=...&limit=...
func (s *Server) SearchDocs(w http.ResponseWriter, r *http.Request) {
	if !s.docs.Ready() {
		writeError(w, http.StatusServiceUnavailable, "docs_not_loaded", "documentation index is not loaded")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "q is required")
		return
	}
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "validation_failed", "limit must be a positive integer")
			return
		}
		if v > maxSearchLimit {
			v = maxSearchLimit
		}
		limit = v
	}

	entries := s.docs.Search(query, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"entries": entriesToJSON(entries),
	})
}

// GetDoc handles GET /v1/docs/{id}, resolving ids and aliases. Structure
// entries include their suffixes.
func (s *Server) GetDoc(w http.ResponseWriter, r *http.Request) {
	if !s.docs.Ready() {
		writeError(w, http.StatusServiceUnavailable, "docs_not_loaded", "documentation index is not loaded")
		return
	}
	id := chi.URLParam(r, "id")
	entry, ok := s.docs.GetByIDOrAlias(id)
	if !ok {
		writeError(w, http.StatusNotFound, "doc_not_found", "no documentation entry for "+strconv.Quote(id))
		return
	}

	resp := map[string]any{"entry": entryToJSON(entry)}
	if entry.Type == docs.Structure {
		resp["suffixes"] = entriesToJSON(s.docs.GetSuffixes(entry.ID))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	state := s.docs.State()
	status := http.StatusOK
	if state == retrieval.StateError {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status":  string(state),
		"version": version.Version,
		"docs":    s.docs.Meta().ContentVersion,
	})
}

func historyFromRequest(rows []historyMessage) ([]chat.Message, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		role := chat.Role(row.Role)
		// Tool records are loop-internal; transcripts replay only the
		// visible conversation.
		if role != chat.RoleUser && role != chat.RoleAssistant && role != chat.RoleSystem {
			return nil, fmt.Errorf("unsupported history role %q", row.Role)
		}
		out = append(out, chat.Message{Role: role, Content: row.Content})
	}
	return out, nil
}

func answerToResponse(ans assistant.Answer) askResponse {
	return askResponse{
		TurnID:    ans.TurnID,
		Outcome:   string(ans.Outcome),
		Content:   ans.Content,
		Error:     ans.UserError,
		Rounds:    ans.Rounds,
		ToolCalls: ans.ToolCalls,
	}
}

func statusForOutcome(outcome assistant.Outcome) int {
	switch outcome {
	case assistant.Failed:
		return http.StatusBadGateway
	case assistant.Cancelled:
		// Rarely observable: the client that cancelled is usually gone.
		return http.StatusRequestTimeout
	default:
		return http.StatusOK
	}
}
