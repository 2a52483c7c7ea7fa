package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kosworks/scriptmate/internal/domain/chat"
)

// Responder generates model replies over an OpenAI-compatible chat
// completions API.
type Responder struct {
	client *openai.Client
	logger *zap.Logger
}

// Config holds responder settings.
type Config struct {
	APIKey  string
	BaseURL string        // empty for the default endpoint
	Timeout time.Duration // per-request cap, 0 for none
	Logger  *zap.Logger
}

// NewResponder creates an OpenAI-compatible responder.
func NewResponder(cfg *Config) *Responder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{client: openai.NewClientWithConfig(clientCfg), logger: logger}
}

// Respond implements assistant.Responder with a fully buffered request.
func (r *Responder) Respond(ctx context.Context, history []chat.Message,
	tools []chat.ToolSpec, opts chat.Options) (chat.Reply, error) {
	resp, err := r.client.CreateChatCompletion(ctx, buildRequest(history, tools, opts, false))
	if err != nil {
		return chat.Reply{}, mapAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return chat.Reply{}, &chat.Failure{Kind: chat.FailureServer,
			Err: errors.New("response carried no choices")}
	}
	return replyFromMessage(resp.Choices[0].Message), nil
}

// RespondStream implements assistant.Responder with incremental delivery.
// Content deltas go to onDelta as they arrive; tool-call fragments are
// accumulated and returned only in the final Reply.
func (r *Responder) RespondStream(ctx context.Context, history []chat.Message,
	tools []chat.ToolSpec, opts chat.Options, onDelta func(string)) (chat.Reply, error) {
	stream, err := r.client.CreateChatCompletionStream(ctx, buildRequest(history, tools, opts, true))
	if err != nil {
		return chat.Reply{}, mapAPIError(err)
	}
	defer stream.Close()

	var content string
	calls := newToolCallAccumulator()
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return chat.Reply{}, mapAPIError(err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			content += delta.Content
			onDelta(delta.Content)
		}
		calls.add(delta.ToolCalls)
	}

	return chat.Reply{Content: content, ToolCalls: calls.finish()}, nil
}

func buildRequest(history []chat.Message, tools []chat.ToolSpec,
	opts chat.Options, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messagesToAPI(history),
		Temperature: opts.Temperature,
		Stream:      stream,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return req
}

func messagesToAPI(history []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msg := openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
		if m.Role == chat.RoleTool {
			msg.ToolCallID = m.ToolCallID
			msg.Name = m.ToolName
		}
		for _, c := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   c.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      c.Name,
					Arguments: c.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func replyFromMessage(msg openai.ChatCompletionMessage) chat.Reply {
	reply := chat.Reply{Content: msg.Content}
	for _, c := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, chat.ToolCall{
			ID:        c.ID,
			Name:      c.Function.Name,
			Arguments: c.Function.Arguments,
		})
	}
	return reply
}

// toolCallAccumulator reassembles tool calls from streaming fragments, which
// arrive as partial argument text keyed by call index.
type toolCallAccumulator struct {
	byIndex map[int]*chat.ToolCall
	order   []int
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{byIndex: make(map[int]*chat.ToolCall)}
}

func (a *toolCallAccumulator) add(fragments []openai.ToolCall) {
	for _, f := range fragments {
		idx := 0
		if f.Index != nil {
			idx = *f.Index
		}
		call, ok := a.byIndex[idx]
		if !ok {
			call = &chat.ToolCall{}
			a.byIndex[idx] = call
			a.order = append(a.order, idx)
		}
		if f.ID != "" {
			call.ID = f.ID
		}
		if f.Function.Name != "" {
			call.Name = f.Function.Name
		}
		call.Arguments += f.Function.Arguments
	}
}

func (a *toolCallAccumulator) finish() []chat.ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	sort.Ints(a.order)
	out := make([]chat.ToolCall, 0, len(a.order))
	for _, idx := range a.order {
		out = append(out, *a.byIndex[idx])
	}
	return out
}

// mapAPIError classifies a transport error into the chat failure taxonomy.
// Context cancellation passes through untouched so the loop can tell a
// cancelled turn from a failed one.
func mapAPIError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &chat.Failure{Kind: chat.FailureTimeout, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, fmt.Sprint(apiErr.Code), apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, "", string(reqErr.Body), err)
	}

	return &chat.Failure{Kind: chat.FailureNetwork, Err: err}
}

func classifyStatus(status int, code, message string, err error) *chat.Failure {
	switch status {
	case 401, 403:
		return &chat.Failure{Kind: chat.FailureAuth, Err: err}
	case 404:
		return &chat.Failure{Kind: chat.FailureModelNotFound, Err: err}
	case 429:
		return &chat.Failure{Kind: chat.FailureRateLimited, RetryAfter: retryAfterHint(message), Err: err}
	case 400:
		switch {
		case containsAny(code, message, "context_length", "maximum context"):
			return &chat.Failure{Kind: chat.FailureContextTooLong, Err: err}
		case containsAny(code, message, "content_filter", "content_policy"):
			return &chat.Failure{Kind: chat.FailureContentFiltered, Err: err}
		}
		return &chat.Failure{Kind: chat.FailureUnknown, Err: err}
	}
	if status >= 500 {
		return &chat.Failure{Kind: chat.FailureServer, Err: err}
	}
	return &chat.Failure{Kind: chat.FailureUnknown, Err: err}
}
