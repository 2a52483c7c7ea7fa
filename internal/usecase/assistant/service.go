package assistant

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kosworks/scriptmate/internal/domain/chat"
	"github.com/kosworks/scriptmate/internal/metrics"
	"github.com/kosworks/scriptmate/internal/usecase/retrieval"
)

// Outcome is the terminal state of a turn.
type Outcome string

// Turn outcomes.
const (
	// Completed means the model produced a final answer.
	Completed Outcome = "completed"
	// Cancelled means the caller's cancellation fired; distinct from Failed.
	Cancelled Outcome = "cancelled"
	// Failed means the model transport reported a terminal failure.
	Failed Outcome = "failed"
	// BudgetExhausted means the round ceiling was reached; the last content
	// received is returned as a best-effort answer.
	BudgetExhausted Outcome = "budget_exhausted"
)

const (
	// MaxRounds bounds the tool-calling loop so a turn terminates even if
	// the model requests tools forever.
	MaxRounds = 40

	// maxRelevantDocs caps the doc block prepended to the first user turn.
	maxRelevantDocs = 8
)

// Request is one user turn.
type Request struct {
	// History is the prior transcript, ordered. It is not mutated.
	History []chat.Message
	// Query is the new user message, un-enriched. The transcript owner
	// stores and displays this original text; only the model sees the
	// enriched form.
	Query string
	// Stream requests incremental delivery of the first round's content
	// through OnDelta. Later rounds are never streamed: intermediate rounds
	// are invisible to the user.
	Stream  bool
	OnDelta func(string)
}

// Answer is the turn result.
type Answer struct {
	TurnID    string
	Outcome   Outcome
	Content   string
	UserError string // stable user-facing message, set when Outcome is Failed
	Rounds    int
	ToolCalls int
}

// Service drives the per-turn protocol loop: request a model reply, execute
// any requested tool calls, append results, repeat until a terminal state.
type Service struct {
	responder Responder
	tool      ToolRunner
	docs      Retriever
	opts      chat.Options
	logger    *zap.Logger
}

// New creates the orchestration service.
func New(responder Responder, tool ToolRunner, docs Retriever,
	opts chat.Options, logger *zap.Logger) *Service {
	return &Service{responder: responder, tool: tool, docs: docs, opts: opts, logger: logger}
}

// Ask runs one user turn to a terminal state. The per-turn history is owned
// by this call and discarded on return.
func (s *Service) Ask(ctx context.Context, req Request) Answer {
	start := time.Now()
	turnID := uuid.NewString()
	log := s.logger.With(zap.String("turn_id", turnID))

	ans := s.run(ctx, req, log)
	ans.TurnID = turnID

	metrics.AssistantTurnsTotal.WithLabelValues(string(ans.Outcome)).Inc()
	metrics.AssistantTurnRounds.Observe(float64(ans.Rounds))
	metrics.AssistantTurnDuration.Observe(time.Since(start).Seconds())
	log.Info("turn finished",
		zap.String("outcome", string(ans.Outcome)),
		zap.Int("rounds", ans.Rounds),
		zap.Int("tool_calls", ans.ToolCalls),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ans
}

func (s *Service) run(ctx context.Context, req Request, log *zap.Logger) Answer {
	history := append(slices.Clone(req.History), chat.UserMessage(s.enrich(req.Query)))

	// The tool is declared only while the index is queryable; without it the
	// model answers from the prompt enrichment alone.
	var tools []chat.ToolSpec
	decl := s.tool.Declaration()
	if s.docs.Ready() {
		tools = []chat.ToolSpec{decl}
	}

	lastContent := ""
	toolCalls := 0

	for round := 1; round <= MaxRounds; round++ {
		if ctx.Err() != nil {
			return Answer{Outcome: Cancelled, Rounds: round - 1, ToolCalls: toolCalls}
		}

		var (
			reply chat.Reply
			err   error
		)
		if round == 1 && req.Stream && req.OnDelta != nil {
			reply, err = s.responder.RespondStream(ctx, history, tools, s.opts, req.OnDelta)
		} else {
			reply, err = s.responder.Respond(ctx, history, tools, s.opts)
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return Answer{Outcome: Cancelled, Rounds: round, ToolCalls: toolCalls}
			}
			msg := (&chat.Failure{Kind: chat.FailureUnknown}).UserMessage()
			if f, ok := chat.AsFailure(err); ok {
				msg = f.UserMessage()
			}
			log.Warn("model request failed", zap.Int("round", round), zap.Error(err))
			return Answer{Outcome: Failed, UserError: msg, Rounds: round, ToolCalls: toolCalls}
		}

		if reply.Content != "" {
			lastContent = reply.Content
		}

		if len(reply.ToolCalls) == 0 {
			return Answer{Outcome: Completed, Content: reply.Content,
				Rounds: round, ToolCalls: toolCalls}
		}

		history = append(history, chat.AssistantToolCalls(reply.Content, reply.ToolCalls))
		for _, call := range reply.ToolCalls {
			result := s.execute(ctx, decl.Name, call, log)
			history = append(history, chat.ToolResultMessage(call.ID, call.Name, result))
			toolCalls++
		}
	}

	log.Warn("round budget exhausted", zap.Int("rounds", MaxRounds))
	return Answer{Outcome: BudgetExhausted, Content: lastContent,
		Rounds: MaxRounds, ToolCalls: toolCalls}
}

// enrich prepends the relevant-docs block to the user query for the model.
func (s *Service) enrich(query string) string {
	block := retrieval.FormatForPrompt(s.docs.GetRelevantDocs(query, maxRelevantDocs))
	if block == "" {
		return query
	}
	return block + "\n\n" + query
}

// execute runs one requested call through the tool façade. A call naming an
// undeclared tool is answered with an error envelope rather than dropped, so
// the model can correct itself.
func (s *Service) execute(ctx context.Context, declared string, call chat.ToolCall, log *zap.Logger) string {
	if call.Name != declared {
		log.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return `{"ok":false,"error":"unknown_tool","message":"the only available tool is ` + declared + `"}`
	}
	return s.tool.Run(ctx, call.Arguments)
}
