package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/icetonges/mything/internal/llm"
	"github.com/icetonges/mything/internal/store"
	"github.com/icetonges/mything/internal/tools"
)

// fakeClient replays scripted responses per model, recording every call.
type fakeClient struct {
	responses  map[string][]*llm.ChatResponse
	failModels map[string]bool
	calls      []fakeCall
	index      map[string]int
}

type fakeCall struct {
	Model    string
	System   string
	Messages []llm.Message
	Tools    []llm.ToolDecl
}

func (f *fakeClient) Chat(_ context.Context, model, system string, messages []llm.Message, toolDefs []llm.ToolDecl) (*llm.ChatResponse, error) {
	f.calls = append(f.calls, fakeCall{Model: model, System: system, Messages: messages, Tools: toolDefs})

	if f.failModels[model] {
		return nil, fmt.Errorf("provider error for %s", model)
	}

	if f.index == nil {
		f.index = make(map[string]int)
	}
	script := f.responses[model]
	i := f.index[model]
	if i >= len(script) {
		return nil, fmt.Errorf("fake: no more responses for %s (call %d)", model, i)
	}
	f.index[model]++
	return script[i], nil
}

func text(content string) *llm.ChatResponse {
	return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: content}}
}

func toolCalls(calls ...llm.ToolCall) *llm.ChatResponse {
	return &llm.ChatResponse{Message: llm.Message{Role: "assistant", ToolCalls: calls}}
}

// echoRegistry has one tool that echoes its argument and one that
// always fails.
func echoRegistry() *tools.Registry {
	return tools.NewRegistry(
		&tools.Tool{
			Decl: llm.ToolDecl{Name: "echo", Description: "Echo a value", Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"value": map[string]any{"type": "string"}},
			}},
			Handler: func(_ context.Context, args map[string]any) tools.Result {
				v, _ := args["value"].(string)
				return tools.Result{Success: true, Data: map[string]any{"echo": v}}
			},
		},
		&tools.Tool{
			Decl: llm.ToolDecl{Name: "broken", Description: "Always fails", Parameters: map[string]any{
				"type": "object", "properties": map[string]any{},
			}},
			Handler: func(context.Context, map[string]any) tools.Result {
				return tools.Result{Success: false, Error: "store unavailable"}
			},
		},
	)
}

func countSteps(steps []Step, typ string) int {
	n := 0
	for _, s := range steps {
		if s.Type == typ {
			n++
		}
	}
	return n
}

func TestRun_SimpleAnswer(t *testing.T) {
	client := &fakeClient{responses: map[string][]*llm.ChatResponse{
		"m1": {text("Hello there.")},
	}}
	r := NewRunner(slog.Default(), client, []string{"m1"}, echoRegistry())

	resp := r.Run(context.Background(), AgentPortfolio, "hi", nil)
	if resp.Answer != "Hello there." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if resp.AgentID != AgentPortfolio || resp.AgentEmoji == "" {
		t.Errorf("agent identity = %s/%s", resp.AgentID, resp.AgentEmoji)
	}
	if len(resp.Steps) != 1 || resp.Steps[0].Type != "answer" {
		t.Errorf("Steps = %+v", resp.Steps)
	}
	if len(client.calls[0].Tools) == 0 {
		t.Error("tool catalog should be sent to the model")
	}
}

func TestRun_ToolRoundThenAnswer(t *testing.T) {
	client := &fakeClient{responses: map[string][]*llm.ChatResponse{
		"m1": {
			toolCalls(llm.ToolCall{ID: "c1", Name: "echo", Args: map[string]any{"value": "ping"}}),
			text("The echo said ping."),
		},
	}}
	r := NewRunner(slog.Default(), client, []string{"m1"}, echoRegistry())

	resp := r.Run(context.Background(), AgentTechNews, "echo ping", nil)
	if resp.Answer != "The echo said ping." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if got := countSteps(resp.Steps, "tool_call"); got != 1 {
		t.Errorf("tool_call steps = %d, want 1", got)
	}
	if got := countSteps(resp.Steps, "tool_result"); got != 1 {
		t.Errorf("tool_result steps = %d, want 1", got)
	}

	// The second model call must carry the tool result back.
	second := client.calls[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != "tool" || last.ToolName != "echo" || !strings.Contains(last.Content, "ping") {
		t.Errorf("tool result message = %+v", last)
	}
}

func TestRun_MultipleCallsPerRound(t *testing.T) {
	client := &fakeClient{responses: map[string][]*llm.ChatResponse{
		"m1": {
			toolCalls(
				llm.ToolCall{Name: "echo", Args: map[string]any{"value": "a"}},
				llm.ToolCall{Name: "echo", Args: map[string]any{"value": "b"}},
			),
			text("done"),
		},
	}}
	r := NewRunner(slog.Default(), client, []string{"m1"}, echoRegistry())

	resp := r.Run(context.Background(), AgentPortfolio, "echo twice", nil)
	if got := countSteps(resp.Steps, "tool_call"); got != 2 {
		t.Errorf("tool_call steps = %d, want 2", got)
	}
	if countSteps(resp.Steps, "tool_call") != countSteps(resp.Steps, "tool_result") {
		t.Error("tool_call and tool_result step counts must match")
	}
}

func TestRun_UnknownToolDeliveredBack(t *testing.T) {
	client := &fakeClient{responses: map[string][]*llm.ChatResponse{
		"m1": {
			toolCalls(llm.ToolCall{Name: "launch_rockets", Args: map[string]any{}}),
			text("I don't have that capability."),
		},
	}}
	r := NewRunner(slog.Default(), client, []string{"m1"}, echoRegistry())

	resp := r.Run(context.Background(), AgentPortfolio, "do it", nil)
	if resp.Answer != "I don't have that capability." {
		t.Errorf("Answer = %q — unknown tool must not abort the loop", resp.Answer)
	}

	second := client.calls[1]
	last := second.Messages[len(second.Messages)-1]
	if !last.IsError || !strings.Contains(last.Content, "Unknown tool: launch_rockets") {
		t.Errorf("error payload = %+v", last)
	}
}

func TestRun_ToolErrorSurfacedAsData(t *testing.T) {
	client := &fakeClient{responses: map[string][]*llm.ChatResponse{
		"m1": {
			toolCalls(llm.ToolCall{Name: "broken", Args: map[string]any{}}),
			text("Sorry, the store is down."),
		},
	}}
	r := NewRunner(slog.Default(), client, []string{"m1"}, echoRegistry())

	resp := r.Run(context.Background(), AgentPortfolio, "try it", nil)
	if resp.Answer == FailureAnswer {
		t.Fatal("tool failure must not fail the exchange")
	}
	second := client.calls[1]
	last := second.Messages[len(second.Messages)-1]
	if !last.IsError || last.Content != "store unavailable" {
		t.Errorf("tool error message = %+v", last)
	}
}

func TestRun_BudgetExhaustionForcesAnswer(t *testing.T) {
	// The portfolio agent allows 3 iterations; script 3 tool rounds and
	// then the forced conclusion.
	wantsTools := toolCalls(llm.ToolCall{Name: "echo", Args: map[string]any{"value": "again"}})
	client := &fakeClient{responses: map[string][]*llm.ChatResponse{
		"m1": {wantsTools, wantsTools, wantsTools, text("Final summary.")},
	}}
	r := NewRunner(slog.Default(), client, []string{"m1"}, echoRegistry())

	resp := r.Run(context.Background(), AgentPortfolio, "loop forever", nil)
	if resp.Answer != "Final summary." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if got := countSteps(resp.Steps, "tool_call"); got != 3 {
		t.Errorf("tool_call steps = %d, want 3 (one per iteration)", got)
	}

	// The forced call must strip the tool catalog and append the
	// final-answer prompt.
	forced := client.calls[len(client.calls)-1]
	if len(forced.Tools) != 0 {
		t.Error("forced final call should not offer tools")
	}
	last := forced.Messages[len(forced.Messages)-1]
	if last.Role != "user" || !strings.Contains(last.Content, "final answer") {
		t.Errorf("forced prompt = %+v", last)
	}
}

func TestRun_ExhaustionAcceptsEmptyAnswer(t *testing.T) {
	wantsTools := toolCalls(llm.ToolCall{Name: "echo", Args: map[string]any{"value": "x"}})
	client := &fakeClient{responses: map[string][]*llm.ChatResponse{
		"m1": {wantsTools, wantsTools, wantsTools, text("")},
	}}
	r := NewRunner(slog.Default(), client, []string{"m1"}, echoRegistry())

	resp := r.Run(context.Background(), AgentPortfolio, "loop", nil)
	if resp.Answer != "" {
		t.Errorf("Answer = %q, want empty (returned as-is)", resp.Answer)
	}
	if countSteps(resp.Steps, "answer") != 1 {
		t.Error("exhaustion path should still record one answer step")
	}
}

func TestRun_FallbackToNextModel(t *testing.T) {
	client := &fakeClient{
		failModels: map[string]bool{"m1": true},
		responses: map[string][]*llm.ChatResponse{
			"m2": {text("backup answer")},
		},
	}
	r := NewRunner(slog.Default(), client, []string{"m1", "m2"}, echoRegistry())

	resp := r.Run(context.Background(), AgentPortfolio, "hi", nil)
	if resp.Answer != "backup answer" {
		t.Errorf("Answer = %q", resp.Answer)
	}
}

func TestRun_MidExchangeFailureRestartsCleanly(t *testing.T) {
	// m1 answers the first call with a tool request, then fails; the
	// steps from the abandoned attempt must not leak into m2's response.
	client := &fakeClient{
		responses: map[string][]*llm.ChatResponse{
			"m1": {toolCalls(llm.ToolCall{Name: "echo", Args: map[string]any{"value": "x"}})},
			"m2": {text("fresh answer")},
		},
	}
	r := NewRunner(slog.Default(), client, []string{"m1", "m2"}, echoRegistry())

	resp := r.Run(context.Background(), AgentPortfolio, "hi", nil)
	if resp.Answer != "fresh answer" {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if got := countSteps(resp.Steps, "tool_call"); got != 0 {
		t.Errorf("steps from the abandoned model leaked: %d tool_call steps", got)
	}
}

func TestRun_AllModelsFail(t *testing.T) {
	client := &fakeClient{failModels: map[string]bool{"m1": true, "m2": true}}
	r := NewRunner(slog.Default(), client, []string{"m1", "m2"}, echoRegistry())

	resp := r.Run(context.Background(), AgentDodPolicy, "hi", nil)
	if resp.Answer != FailureAnswer {
		t.Errorf("Answer = %q, want the fixed failure string", resp.Answer)
	}
	if len(resp.Steps) != 1 || resp.Steps[0].Type != "answer" {
		t.Errorf("Steps = %+v, want a single answer step", resp.Steps)
	}
	if countSteps(resp.Steps, "tool_call") != 0 {
		t.Error("failure response must carry no tool trail")
	}
	if resp.AgentID != AgentDodPolicy {
		t.Errorf("AgentID = %s", resp.AgentID)
	}
}

func TestRun_HistoryWindow(t *testing.T) {
	client := &fakeClient{responses: map[string][]*llm.ChatResponse{
		"m1": {text("ok")},
	}}
	r := NewRunner(slog.Default(), client, []string{"m1"}, echoRegistry())

	var history []Turn
	for i := 0; i < 10; i++ {
		history = append(history, Turn{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}

	r.Run(context.Background(), AgentPortfolio, "latest", history)

	// 6 history turns + the new user message.
	sent := client.calls[0].Messages
	if len(sent) != 7 {
		t.Fatalf("messages sent = %d, want 7", len(sent))
	}
	if sent[0].Content != "turn 4" {
		t.Errorf("oldest turn sent = %q, want turn 4", sent[0].Content)
	}
}

func TestRun_UnknownAgentDefaultsToPortfolio(t *testing.T) {
	client := &fakeClient{responses: map[string][]*llm.ChatResponse{
		"m1": {text("ok")},
	}}
	r := NewRunner(slog.Default(), client, []string{"m1"}, echoRegistry())

	resp := r.Run(context.Background(), "nonsense", "hi", nil)
	if resp.AgentID != AgentPortfolio {
		t.Errorf("AgentID = %s, want portfolio fallback", resp.AgentID)
	}
}

func TestRun_FIARAuditScenario(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if _, err := st.UpsertArticle(context.Background(), &store.Article{
		Title:       "FIAR milestones slip again",
		URL:         "https://example.com/fiar",
		Source:      "Defense News",
		Category:    "DoD Audit",
		Summary:     "The department missed two FIAR milestones.",
		PublishedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed article: %v", err)
	}

	message := "What's the latest on FIAR audits?"
	agentID := Route(message, "")
	if agentID != AgentDodPolicy {
		t.Fatalf("Route = %q, want dodPolicy", agentID)
	}

	client := &fakeClient{responses: map[string][]*llm.ChatResponse{
		"m1": {
			toolCalls(llm.ToolCall{Name: "search_dod_news", Args: map[string]any{"topic": "FIAR", "type": "audit"}}),
			text("FIAR milestones slipped again per Defense News."),
		},
	}}
	r := NewRunner(slog.Default(), client, []string{"m1"}, tools.NewPlatformRegistry(st))

	resp := r.Run(context.Background(), agentID, message, nil)
	if resp.AgentID != AgentDodPolicy || resp.Answer == "" {
		t.Errorf("response = %+v", resp)
	}

	// The tool result carried back to the model includes the seeded article.
	second := client.calls[1]
	last := second.Messages[len(second.Messages)-1]
	if last.IsError || !strings.Contains(last.Content, "FIAR milestones slip again") {
		t.Errorf("tool result = %+v", last)
	}
}

func TestProfiles_IterationBudgets(t *testing.T) {
	profiles := Profiles()
	for id, want := range map[string]int{
		AgentPortfolio:  3,
		AgentTechNews:   3,
		AgentDodPolicy:  4,
		AgentNoteHelper: 3,
	} {
		if got := profiles[id].MaxIterations; got != want {
			t.Errorf("%s MaxIterations = %d, want %d", id, got, want)
		}
	}
}
