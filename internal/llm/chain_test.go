package llm

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
)

// scriptedClient fails for models in failModels and answers otherwise.
type scriptedClient struct {
	failModels map[string]bool
	answer     string
	calls      []string
}

func (s *scriptedClient) Chat(_ context.Context, model, _ string, _ []Message, _ []ToolDecl) (*ChatResponse, error) {
	s.calls = append(s.calls, model)
	if s.failModels[model] {
		return nil, fmt.Errorf("provider error for %s", model)
	}
	return &ChatResponse{
		Model:   model,
		Message: Message{Role: "assistant", Content: s.answer},
	}, nil
}

func TestChain_FirstModelSucceeds(t *testing.T) {
	client := &scriptedClient{answer: "hello"}
	chain := NewChain(client, []string{"primary", "backup"}, slog.Default())

	got := chain.Generate(context.Background(), "", "hi")
	if got != "hello" {
		t.Errorf("Generate() = %q, want %q", got, "hello")
	}
	if len(client.calls) != 1 || client.calls[0] != "primary" {
		t.Errorf("calls = %v, want [primary]", client.calls)
	}
}

func TestChain_FallsBackOnFailure(t *testing.T) {
	client := &scriptedClient{
		failModels: map[string]bool{"primary": true},
		answer:     "from backup",
	}
	chain := NewChain(client, []string{"primary", "backup"}, slog.Default())

	got := chain.Generate(context.Background(), "", "hi")
	if got != "from backup" {
		t.Errorf("Generate() = %q, want %q", got, "from backup")
	}
	if len(client.calls) != 2 {
		t.Errorf("calls = %v, want both models tried", client.calls)
	}
}

func TestChain_AllFail(t *testing.T) {
	client := &scriptedClient{
		failModels: map[string]bool{"primary": true, "backup": true},
	}
	chain := NewChain(client, []string{"primary", "backup"}, slog.Default())

	got := chain.Generate(context.Background(), "", "hi")
	if got != Unavailable {
		t.Errorf("Generate() = %q, want the fixed unavailable string", got)
	}
}

func TestChain_GenerateStrictError(t *testing.T) {
	client := &scriptedClient{
		failModels: map[string]bool{"only": true},
	}
	chain := NewChain(client, []string{"only"}, slog.Default())

	if _, err := chain.GenerateStrict(context.Background(), "", "hi"); err == nil {
		t.Error("GenerateStrict() should error when the chain is exhausted")
	}
}

func TestToSchema(t *testing.T) {
	schema := toSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Search keyword"},
			"limit": map[string]any{"type": "number"},
			"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"query"},
	})

	if len(schema.Properties) != 3 {
		t.Fatalf("Properties = %d, want 3", len(schema.Properties))
	}
	if schema.Properties["query"].Description != "Search keyword" {
		t.Errorf("query description = %q", schema.Properties["query"].Description)
	}
	if schema.Properties["tags"].Items == nil {
		t.Error("tags schema should have Items")
	}
	if len(schema.Required) != 1 || schema.Required[0] != "query" {
		t.Errorf("Required = %v, want [query]", schema.Required)
	}
}

func TestToContents_ToolResultGrouping(t *testing.T) {
	msgs := []Message{
		{Role: "user", Content: "search for FIAR"},
		{Role: "assistant", ToolCalls: []ToolCall{{Name: "search_dod_news", Args: map[string]any{"topic": "FIAR"}}}},
		{Role: "tool", ToolName: "search_dod_news", Content: `{"count":1}`},
		{Role: "tool", ToolName: "get_platform_stats", Content: `{"totalNotes":3}`},
	}

	contents := toContents(msgs)
	// user, model, and one grouped function-response content
	if len(contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(contents))
	}
	if len(contents[2].Parts) != 2 {
		t.Errorf("function response parts = %d, want 2 grouped into one content", len(contents[2].Parts))
	}
}
