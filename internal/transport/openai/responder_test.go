package openai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kosworks/scriptmate/internal/domain/chat"
)

func TestMapAPIError_CancellationPassesThrough(t *testing.T) {
	wrapped := fmt.Errorf("send request: %w", context.Canceled)
	got := mapAPIError(wrapped)
	if !errors.Is(got, context.Canceled) {
		t.Fatalf("expected context.Canceled to pass through, got %v", got)
	}
	if _, ok := chat.AsFailure(got); ok {
		t.Error("cancellation must not be wrapped in a Failure")
	}
}

func TestMapAPIError_DeadlineIsTimeout(t *testing.T) {
	got := mapAPIError(context.DeadlineExceeded)
	f, ok := chat.AsFailure(got)
	if !ok || f.Kind != chat.FailureTimeout {
		t.Fatalf("got %v, want timeout failure", got)
	}
}

func TestMapAPIError_StatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		code    any
		message string
		want    chat.FailureKind
	}{
		{"unauthorized", 401, "invalid_api_key", "", chat.FailureAuth},
		{"forbidden", 403, nil, "", chat.FailureAuth},
		{"model missing", 404, "model_not_found", "", chat.FailureModelNotFound},
		{"rate limited", 429, "rate_limit_exceeded", "", chat.FailureRateLimited},
		{"context overflow by code", 400, "context_length_exceeded", "", chat.FailureContextTooLong},
		{"context overflow by message", 400, nil, "This model's maximum context length is 128000 tokens", chat.FailureContextTooLong},
		{"content filter", 400, "content_filter", "", chat.FailureContentFiltered},
		{"other bad request", 400, "invalid_request_error", "unknown field", chat.FailureUnknown},
		{"server error", 500, nil, "", chat.FailureServer},
		{"bad gateway", 502, nil, "", chat.FailureServer},
		{"teapot", 418, nil, "", chat.FailureUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := &openai.APIError{
				HTTPStatusCode: tt.status,
				Code:           tt.code,
				Message:        tt.message,
			}
			f, ok := chat.AsFailure(mapAPIError(apiErr))
			if !ok {
				t.Fatal("expected a Failure")
			}
			if f.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", f.Kind, tt.want)
			}
			if !errors.Is(f, apiErr) {
				t.Error("failure should wrap the original error")
			}
		})
	}
}

func TestMapAPIError_RequestError(t *testing.T) {
	reqErr := &openai.RequestError{HTTPStatusCode: 503, Err: errors.New("upstream down")}
	f, ok := chat.AsFailure(mapAPIError(reqErr))
	if !ok || f.Kind != chat.FailureServer {
		t.Fatalf("got %v, want server failure", f)
	}
}

func TestMapAPIError_PlainErrorIsNetwork(t *testing.T) {
	f, ok := chat.AsFailure(mapAPIError(errors.New("dial tcp: connection refused")))
	if !ok || f.Kind != chat.FailureNetwork {
		t.Fatalf("got %v, want network failure", f)
	}
}

func TestRetryAfterHint(t *testing.T) {
	tests := []struct {
		message string
		want    time.Duration
	}{
		{"Rate limit reached. Please try again in 20s.", 20 * time.Second},
		{"Please try again in 1.5 seconds.", 1500 * time.Millisecond},
		{"Please try again in 350ms.", 350 * time.Millisecond},
		{"Try Again In 6s", 6 * time.Second},
		{"Rate limit reached.", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := retryAfterHint(tt.message); got != tt.want {
			t.Errorf("retryAfterHint(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestMapAPIError_RateLimitCarriesHint(t *testing.T) {
	apiErr := &openai.APIError{
		HTTPStatusCode: 429,
		Message:        "Rate limit reached. Please try again in 20s.",
	}
	f, _ := chat.AsFailure(mapAPIError(apiErr))
	if f.RetryAfter != 20*time.Second {
		t.Errorf("RetryAfter = %v, want 20s", f.RetryAfter)
	}
}

func intp(v int) *int { return &v }

func TestToolCallAccumulator(t *testing.T) {
	acc := newToolCallAccumulator()

	// Fragments arrive with the id and name first, then argument text split
	// across chunks; the second call's fragments interleave with the first.
	acc.add([]openai.ToolCall{{
		Index: intp(0), ID: "call_a",
		Type:     openai.ToolTypeFunction,
		Function: openai.FunctionCall{Name: "search_kos_docs"},
	}})
	acc.add([]openai.ToolCall{{
		Index:    intp(0),
		Function: openai.FunctionCall{Arguments: `{"query":`},
	}})
	acc.add([]openai.ToolCall{{
		Index: intp(1), ID: "call_b",
		Type:     openai.ToolTypeFunction,
		Function: openai.FunctionCall{Name: "search_kos_docs", Arguments: `{"query":"b"}`},
	}})
	acc.add([]openai.ToolCall{{
		Index:    intp(0),
		Function: openai.FunctionCall{Arguments: `"apoapsis"}`},
	}})

	calls := acc.finish()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].ID != "call_a" || calls[0].Name != "search_kos_docs" {
		t.Errorf("call 0 = %+v", calls[0])
	}
	if calls[0].Arguments != `{"query":"apoapsis"}` {
		t.Errorf("call 0 arguments = %q", calls[0].Arguments)
	}
	if calls[1].ID != "call_b" || calls[1].Arguments != `{"query":"b"}` {
		t.Errorf("call 1 = %+v", calls[1])
	}
}

func TestToolCallAccumulator_Empty(t *testing.T) {
	if got := newToolCallAccumulator().finish(); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestBuildRequest(t *testing.T) {
	history := []chat.Message{
		chat.SystemMessage("you are a kOS assistant"),
		chat.UserMessage("what's my apoapsis"),
	}
	tools := []chat.ToolSpec{{
		Name:        "search_kos_docs",
		Description: "search docs",
		Parameters:  map[string]any{"type": "object"},
	}}
	opts := chat.Options{Model: "gpt-4o-mini", Temperature: 0.2, MaxTokens: 2048}

	req := buildRequest(history, tools, opts, true)

	if req.Model != "gpt-4o-mini" || !req.Stream || req.MaxTokens != 2048 {
		t.Errorf("request basics wrong: %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", req.Messages)
	}
	if len(req.Tools) != 1 || req.Tools[0].Function.Name != "search_kos_docs" {
		t.Errorf("tools = %+v", req.Tools)
	}
}

func TestMessagesToAPI_ToolMessages(t *testing.T) {
	history := []chat.Message{
		chat.AssistantToolCalls("", []chat.ToolCall{
			{ID: "call_1", Name: "search_kos_docs", Arguments: `{"query":"ship"}`},
		}),
		chat.ToolResultMessage("call_1", "search_kos_docs", `{"ok":true}`),
	}

	out := messagesToAPI(history)
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	if len(out[0].ToolCalls) != 1 || out[0].ToolCalls[0].ID != "call_1" {
		t.Errorf("assistant tool calls = %+v", out[0].ToolCalls)
	}
	if out[1].Role != "tool" || out[1].ToolCallID != "call_1" || out[1].Name != "search_kos_docs" {
		t.Errorf("tool message = %+v", out[1])
	}
}

func TestReplyFromMessage(t *testing.T) {
	reply := replyFromMessage(openai.ChatCompletionMessage{
		Content: "partial thought",
		ToolCalls: []openai.ToolCall{{
			ID:       "call_1",
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: "search_kos_docs", Arguments: `{"query":"ship"}`},
		}},
	})
	if reply.Content != "partial thought" {
		t.Errorf("Content = %q", reply.Content)
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Name != "search_kos_docs" {
		t.Errorf("ToolCalls = %+v", reply.ToolCalls)
	}
}
