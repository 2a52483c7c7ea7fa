package assistant

import (
	"context"

	"github.com/kosworks/scriptmate/internal/domain/chat"
	"github.com/kosworks/scriptmate/internal/domain/docs"
)

// Responder generates model replies for an ordered message history. Errors
// carry a *chat.Failure when the transport classified the fault.
type Responder interface {
	Respond(ctx context.Context, history []chat.Message, tools []chat.ToolSpec,
		opts chat.Options) (chat.Reply, error)

	// RespondStream behaves like Respond but delivers content deltas to
	// onDelta as they arrive. Tool-call requests are returned in the final
	// Reply, never streamed. onDelta is invoked sequentially from the
	// calling goroutine's context.
	RespondStream(ctx context.Context, history []chat.Message, tools []chat.ToolSpec,
		opts chat.Options, onDelta func(string)) (chat.Reply, error)
}

// ToolRunner executes one declared tool call and returns the JSON result
// envelope fed back to the model. It never returns an error: failures are
// part of the envelope so the model can self-correct on the next round.
type ToolRunner interface {
	Declaration() chat.ToolSpec
	Run(ctx context.Context, rawArgs string) string
}

// Retriever enriches the first user turn with relevant documentation.
type Retriever interface {
	Ready() bool
	GetRelevantDocs(query string, maxEntries int) []docs.Entry
}
