package llm

import "context"

// Client is the interface a model provider must implement.
//
// Chat sends one conversation turn: the agent's system instructions, the
// accumulated message history, and the tool catalog. The response carries
// either final text or requested tool calls. A non-nil error means a hard
// transport or provider failure; an undesired answer is not an error.
type Client interface {
	Chat(ctx context.Context, model, system string, messages []Message, tools []ToolDecl) (*ChatResponse, error)
}
