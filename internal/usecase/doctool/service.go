package doctool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/kosworks/scriptmate/internal/domain"
	"github.com/kosworks/scriptmate/internal/domain/chat"
	"github.com/kosworks/scriptmate/internal/domain/docs"
	"github.com/kosworks/scriptmate/internal/metrics"
)

// ToolName is the name the tool is declared under to the model.
const ToolName = "search_kos_docs"

const (
	minQueryLen       = 2
	defaultMaxResults = 5
	maxResultsFloor   = 1
	maxResultsCeil    = 10
	maxQueryLogLen    = 120
)

// Error codes of the result envelope.
const (
	CodeEmptyQuery    = "empty_query"
	CodeQueryTooShort = "query_too_short"
	CodeDocsNotLoaded = "docs_not_loaded"
	CodeMalformedArgs = "malformed_args"
	CodeInternalError = "internal_error"
)

// Args is the loosely-typed tool-call payload. Only these two fields are
// extracted; anything else in the payload is ignored.
type Args struct {
	Query      string `json:"query"`
	MaxResults *int   `json:"max_results"`
}

// ResultEntry is one documentation hit in the result envelope.
type ResultEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Signature   string `json:"signature,omitempty"`
	Description string `json:"description,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
}

// Result is the fixed envelope returned for every invocation. An empty entry
// list with OK set is a successful search with zero hits, not a failure.
type Result struct {
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	Message string        `json:"message,omitempty"`
	Entries []ResultEntry `json:"entries,omitempty"`
}

// Service is the externally callable tool boundary. It validates and bounds
// tool-call arguments, executes the search, and converts every outcome,
// including internal faults, into the Result envelope. It never lets an
// error or panic cross the boundary.
type Service struct {
	docs   Searcher
	logger *zap.Logger
}

// New creates the doc search tool.
func New(docs Searcher, logger *zap.Logger) *Service {
	return &Service{docs: docs, logger: logger}
}

// Declaration returns the tool declaration advertised to the model.
func (s *Service) Declaration() chat.ToolSpec {
	return chat.ToolSpec{
		Name: ToolName,
		Description: "Search the offline kOS (KerboScript) documentation index. " +
			"Use this to look up structures, suffixes, commands, and functions " +
			"before writing any kOS script. Returns matching entries with " +
			"signatures, descriptions, and examples.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search text, e.g. a suffix name like SHIP:ALTITUDE or a topic like \"maneuver node\".",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum entries to return, 1-10. Defaults to 5.",
					"minimum":     1,
					"maximum":     10,
				},
			},
			"required": []string{"query"},
		},
	}
}

// Invoke executes one tool call from its raw JSON argument payload.
func (s *Service) Invoke(_ context.Context, rawArgs string) Result {
	start := time.Now()

	var (
		res   Result
		query string
		limit = defaultMaxResults
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("doc tool panic recovered", zap.Any("panic", r))
				res = Result{OK: false, Error: CodeInternalError, Message: "internal error executing search"}
			}
		}()
		res, query, limit = s.invoke(rawArgs)
	}()

	s.observe(res, query, limit, time.Since(start))
	return res
}

// Run executes one tool call and serializes the envelope for the model.
func (s *Service) Run(ctx context.Context, rawArgs string) string {
	res := s.Invoke(ctx, rawArgs)
	data, err := json.Marshal(res)
	if err != nil {
		return `{"ok":false,"error":"internal_error","message":"failed to encode result"}`
	}
	return string(data)
}

func (s *Service) invoke(rawArgs string) (Result, string, int) {
	var args Args
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return failureResult(domain.ErrMalformedToolArgs), "", defaultMaxResults
	}

	query := strings.TrimSpace(args.Query)
	limit := defaultMaxResults
	if args.MaxResults != nil {
		limit = clamp(*args.MaxResults, maxResultsFloor, maxResultsCeil)
	}

	if err := s.validate(query); err != nil {
		return failureResult(err), query, limit
	}

	entries := s.docs.Search(query, limit)
	return Result{OK: true, Entries: resultEntries(entries)}, query, limit
}

func (s *Service) validate(query string) error {
	if query == "" {
		return domain.ErrEmptyQuery
	}
	if len([]rune(query)) < minQueryLen {
		return domain.ErrQueryTooShort
	}
	if !s.docs.Ready() {
		return domain.ErrDocsNotLoaded
	}
	return nil
}

// failureResult maps a validation error to its envelope code and the guidance
// message shown to the model.
func failureResult(err error) Result {
	switch {
	case errors.Is(err, domain.ErrMalformedToolArgs):
		return Result{OK: false, Error: CodeMalformedArgs,
			Message: "arguments must be a JSON object with a string \"query\" and optional integer \"max_results\""}
	case errors.Is(err, domain.ErrEmptyQuery):
		return Result{OK: false, Error: CodeEmptyQuery, Message: "query must not be empty"}
	case errors.Is(err, domain.ErrQueryTooShort):
		return Result{OK: false, Error: CodeQueryTooShort, Message: "query must be at least 2 characters"}
	case errors.Is(err, domain.ErrDocsNotLoaded):
		return Result{OK: false, Error: CodeDocsNotLoaded,
			Message: "the documentation index is still loading; answer from general knowledge or retry later"}
	}
	return Result{OK: false, Error: CodeInternalError, Message: "internal error executing search"}
}

// observe emits one telemetry record per invocation. It never blocks and has
// no failure path of its own.
func (s *Service) observe(res Result, query string, limit int, elapsed time.Duration) {
	status := "success"
	if res.Error != "" {
		status = res.Error
	}
	metrics.DocToolInvocationsTotal.WithLabelValues(status).Inc()
	metrics.DocToolDuration.Observe(elapsed.Seconds())
	metrics.DocToolResults.Observe(float64(len(res.Entries)))

	s.logger.Info("doc tool invoked",
		zap.String("query", sanitizeQuery(query)),
		zap.Int("limit", limit),
		zap.Duration("elapsed", elapsed),
		zap.Int("results", len(res.Entries)),
		zap.String("status", status),
	)
}

func resultEntries(entries []docs.Entry) []ResultEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]ResultEntry, len(entries))
	for i, e := range entries {
		out[i] = ResultEntry{
			ID:          e.ID,
			Name:        e.Name,
			Type:        string(e.Type),
			Signature:   e.Signature,
			Description: e.Description,
			Snippet:     e.Snippet,
		}
	}
	return out
}

// sanitizeQuery strips control and delimiter characters from a query copy and
// caps its length, so model-supplied text is safe to log.
func sanitizeQuery(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '`' || r == '"' || r == '\\' {
			return -1
		}
		return r
	}, query)
	runes := []rune(cleaned)
	if len(runes) > maxQueryLogLen {
		cleaned = string(runes[:maxQueryLogLen]) + "..."
	}
	return cleaned
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
