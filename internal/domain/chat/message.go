package chat

// Role identifies the author of a history record.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one model-requested tool invocation.
type ToolCall struct {
	// ID correlates the call with its result record.
	ID   string
	Name string
	// Arguments is the raw JSON argument text as received from the model.
	Arguments string
}

// Message is one record in a turn's history. The history is append-only,
// owned by a single turn, and discarded when the turn completes.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant records that request tool executions.
	ToolCalls []ToolCall

	// ToolCallID and ToolName tag a tool-result record with the originating
	// call, so the model correlates results by id rather than position.
	ToolCallID string
	ToolName   string
}

// SystemMessage creates a system record.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user record.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates a plain assistant record.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// AssistantToolCalls creates an assistant record carrying tool-call requests.
func AssistantToolCalls(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResultMessage creates a tool-result record for one executed call.
func ToolResultMessage(callID, toolName, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, ToolName: toolName}
}

// ToolSpec is the declaration of one callable tool, advertised to the model.
type ToolSpec struct {
	Name        string
	Description string
	// Parameters is a JSON-schema object describing the argument payload.
	Parameters map[string]any
}

// Options holds per-request model settings.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Reply is one model response within a turn: either final content, or a set
// of tool-call requests to execute before the next round.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}
