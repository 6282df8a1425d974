package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// Unavailable is the fixed user-facing string returned when every model
// in the fallback chain has failed. The chat UI shows it verbatim.
const Unavailable = "AI processing temporarily unavailable. Please try again."

// Chain wraps a [Client] with a priority-ordered model fallback list.
// A model is abandoned only on hard failure (transport or provider
// error), never on an undesired answer. Fallback is immediate — the
// chain is short and the goal is availability, not rate-limit avoidance.
type Chain struct {
	client Client
	models []string
	logger *slog.Logger
}

// NewChain creates a fallback chain over the given client.
func NewChain(client Client, models []string, logger *slog.Logger) *Chain {
	return &Chain{client: client, models: models, logger: logger}
}

// Models returns the chain in priority order. Callers that drive their
// own per-model retry (the agent loop restarts a whole exchange per
// model) iterate over this directly.
func (c *Chain) Models() []string {
	return c.models
}

// Client returns the underlying provider client.
func (c *Chain) Client() Client {
	return c.client
}

// Generate produces plain text for a one-shot prompt, trying each model
// in order. When the whole chain fails it returns [Unavailable] with a
// nil error — callers render the string, they don't branch on failure.
func (c *Chain) Generate(ctx context.Context, system, prompt string) string {
	messages := []Message{{Role: "user", Content: prompt}}

	for _, model := range c.models {
		resp, err := c.client.Chat(ctx, model, system, messages, nil)
		if err != nil {
			c.logger.Warn("model failed, trying next in chain", "model", model, "error", err)
			continue
		}
		if resp.Message.Content != "" {
			c.logger.Debug("generate succeeded", "model", model, "output_tokens", resp.OutputTokens)
			return resp.Message.Content
		}
	}

	c.logger.Error("all models in chain failed", "models", c.models)
	return Unavailable
}

// GenerateStrict is like Generate but reports chain exhaustion as an
// error instead of the apology string, for callers that need to branch.
func (c *Chain) GenerateStrict(ctx context.Context, system, prompt string) (string, error) {
	messages := []Message{{Role: "user", Content: prompt}}

	var lastErr error
	for _, model := range c.models {
		resp, err := c.client.Chat(ctx, model, system, messages, nil)
		if err != nil {
			lastErr = err
			c.logger.Warn("model failed, trying next in chain", "model", model, "error", err)
			continue
		}
		if resp.Message.Content != "" {
			return resp.Message.Content, nil
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("all models failed: %w", lastErr)
	}
	return "", fmt.Errorf("all models returned empty output")
}
