// Package llm provides the generative model client abstraction.
package llm

// Message represents one turn in a model conversation.
//
// Role is "user", "assistant", or "tool". Tool messages carry the result
// of a tool invocation back to the model; ToolName identifies which tool
// produced the payload and IsError marks a failed invocation so the model
// can adapt its next step.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
	IsError   bool       `json:"is_error,omitempty"`
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolDecl describes a callable tool to the model. Parameters is a JSON
// schema using only the object/string/number/integer/boolean/array types —
// this is the contract the model formats its calls against, so names,
// required fields, and types must stay stable.
type ToolDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatResponse is the provider-neutral response from a model call.
// Wire format conversion happens at the provider boundary (gemini.go).
type ChatResponse struct {
	Model        string
	Message      Message
	InputTokens  int
	OutputTokens int
}
