package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/icetonges/mything/internal/llm"
	"github.com/icetonges/mything/internal/tools"
)

// FailureAnswer is the fixed reply when every model in the fallback
// chain has failed. The chat UI shows it verbatim.
const FailureAnswer = llm.Unavailable

// finalAnswerPrompt forces a plain-text conclusion once the iteration
// budget is exhausted while the model still wants tools.
const finalAnswerPrompt = "Please provide your final answer now based on the information gathered."

// historyWindow is the maximum number of prior turns sent to the model.
const historyWindow = 6

// Turn is one caller-supplied conversation turn, most-recent-last.
type Turn struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// Step is one audit-trail entry accumulated during an exchange and
// returned alongside the final answer for transparency.
type Step struct {
	Type    string `json:"type"` // tool_call, tool_result, answer
	Content string `json:"content"`
	Tool    string `json:"tool,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Response is the outcome of one chat exchange.
type Response struct {
	Steps      []Step `json:"steps"`
	Answer     string `json:"answer"`
	AgentID    string `json:"agentId"`
	AgentName  string `json:"agentName"`
	AgentEmoji string `json:"agentEmoji"`
}

// Runner drives the multi-turn exchange between the model and the tool
// registry. It holds no mutable state across requests — every exchange
// threads its own accumulator.
type Runner struct {
	logger   *slog.Logger
	client   llm.Client
	models   []string
	registry *tools.Registry
	profiles map[string]*Profile
}

// NewRunner creates a runner over the given model fallback chain.
func NewRunner(logger *slog.Logger, client llm.Client, models []string, registry *tools.Registry) *Runner {
	return &Runner{
		logger:   logger,
		client:   client,
		models:   models,
		registry: registry,
		profiles: Profiles(),
	}
}

// Profile returns the profile for an agent id, defaulting to the
// portfolio agent for unknown ids.
func (r *Runner) Profile(agentID string) *Profile {
	if p, found := r.profiles[agentID]; found {
		return p
	}
	return r.profiles[AgentPortfolio]
}

// Run executes one chat exchange under the given agent. Each model in
// the fallback chain gets a fresh attempt at the whole exchange; a model
// is abandoned only on hard failure. When the chain is exhausted the
// response is the fixed failure answer with a single answer step and no
// tool trail.
func (r *Runner) Run(ctx context.Context, agentID, message string, history []Turn) *Response {
	profile := r.Profile(agentID)

	exchangeID, _ := uuid.NewV7()
	eid := exchangeID.String()

	r.logger.Info("exchange started",
		"exchange_id", eid,
		"agent", profile.ID,
		"history", len(history),
	)

	for _, model := range r.models {
		start := time.Now()
		resp, err := r.runExchange(ctx, eid, model, profile, message, history)
		if err != nil {
			r.logger.Warn("model failed, trying next in chain",
				"exchange_id", eid,
				"model", model,
				"error", err,
			)
			continue
		}

		r.logger.Info("exchange completed",
			"exchange_id", eid,
			"agent", profile.ID,
			"model", model,
			"steps", len(resp.Steps),
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
		return resp
	}

	r.logger.Error("all models failed", "exchange_id", eid, "agent", profile.ID, "models", r.models)
	return &Response{
		Steps:      []Step{{Type: "answer", Content: FailureAnswer}},
		Answer:     FailureAnswer,
		AgentID:    profile.ID,
		AgentName:  profile.Name,
		AgentEmoji: profile.Emoji,
	}
}

// runExchange drives one complete exchange against a single model.
// A non-nil error means a hard model failure; the caller restarts from
// scratch on the next model in the chain.
func (r *Runner) runExchange(ctx context.Context, eid, model string, profile *Profile, message string, history []Turn) (*Response, error) {
	// Assemble the last few turns plus the new user message. The steps
	// slice is the audit trail threaded through each iteration.
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	messages := make([]llm.Message, 0, len(history)+1)
	for _, t := range history {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: message})

	decls := r.registry.Declarations()
	var steps []Step

	for i := 0; i < profile.MaxIterations; i++ {
		resp, err := r.client.Chat(ctx, model, profile.SystemPrompt, messages, decls)
		if err != nil {
			return nil, fmt.Errorf("model call (iter %d): %w", i, err)
		}

		// No tool calls — the text is the final answer. Absent or
		// malformed tool-call structure lands here too, by design.
		if len(resp.Message.ToolCalls) == 0 {
			steps = append(steps, Step{Type: "answer", Content: resp.Message.Content})
			return r.respond(profile, steps, resp.Message.Content), nil
		}

		// Tool phase: execute each requested call, record the trail,
		// and feed all results back as one batch.
		messages = append(messages, resp.Message)
		for _, tc := range resp.Message.ToolCalls {
			messages = append(messages, r.executeCall(ctx, eid, profile, tc, &steps))
		}
	}

	// Budget exhausted while the model still wants tools: force a
	// plain-text conclusion and return whatever comes back, even empty.
	r.logger.Warn("iteration budget exhausted, forcing final answer",
		"exchange_id", eid,
		"agent", profile.ID,
		"max_iterations", profile.MaxIterations,
	)
	messages = append(messages, llm.Message{Role: "user", Content: finalAnswerPrompt})
	resp, err := r.client.Chat(ctx, model, profile.SystemPrompt, messages, nil)
	if err != nil {
		return nil, fmt.Errorf("forced final answer: %w", err)
	}

	steps = append(steps, Step{Type: "answer", Content: resp.Message.Content})
	return r.respond(profile, steps, resp.Message.Content), nil
}

// executeCall runs one tool invocation, appends its tool_call and
// tool_result steps, and returns the tool message for the model.
func (r *Runner) executeCall(ctx context.Context, eid string, profile *Profile, tc llm.ToolCall, steps *[]Step) llm.Message {
	argsJSON, _ := json.Marshal(tc.Args)
	*steps = append(*steps, Step{
		Type:    "tool_call",
		Content: fmt.Sprintf("%s(%s)", tc.Name, argsJSON),
		Tool:    tc.Name,
		Data:    tc.Args,
	})

	start := time.Now()
	result := r.registry.Execute(ctx, tc.Name, tc.Args)

	if result.Success {
		r.logger.Debug("tool executed",
			"exchange_id", eid,
			"agent", profile.ID,
			"tool", tc.Name,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	} else {
		// Failure is data for the model, not an abort.
		r.logger.Warn("tool failed",
			"exchange_id", eid,
			"agent", profile.ID,
			"tool", tc.Name,
			"error", result.Error,
		)
	}

	*steps = append(*steps, Step{
		Type:    "tool_result",
		Content: resultContent(result),
		Tool:    tc.Name,
		Data:    result.Data,
	})

	if result.Success {
		payload, _ := json.Marshal(result.Data)
		return llm.Message{Role: "tool", ToolName: tc.Name, Content: string(payload)}
	}
	return llm.Message{Role: "tool", ToolName: tc.Name, Content: result.Error, IsError: true}
}

func (r *Runner) respond(profile *Profile, steps []Step, answer string) *Response {
	return &Response{
		Steps:      steps,
		Answer:     answer,
		AgentID:    profile.ID,
		AgentName:  profile.Name,
		AgentEmoji: profile.Emoji,
	}
}

// resultContent renders a tool outcome for the audit trail.
func resultContent(result tools.Result) string {
	if !result.Success {
		payload, _ := json.MarshalIndent(map[string]string{"error": result.Error}, "", "  ")
		return string(payload)
	}
	payload, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", result.Data)
	}
	return string(payload)
}
