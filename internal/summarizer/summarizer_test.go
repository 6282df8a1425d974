package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/icetonges/mything/internal/llm"
)

// cannedClient returns a fixed reply, or an error when reply is empty.
type cannedClient struct {
	reply   string
	prompts []string
}

func (c *cannedClient) Chat(_ context.Context, _, _ string, messages []llm.Message, _ []llm.ToolDecl) (*llm.ChatResponse, error) {
	c.prompts = append(c.prompts, messages[len(messages)-1].Content)
	if c.reply == "" {
		return nil, fmt.Errorf("model offline")
	}
	return &llm.ChatResponse{Message: llm.Message{Role: "assistant", Content: c.reply}}, nil
}

func newSummarizer(reply string) (*Summarizer, *cannedClient) {
	client := &cannedClient{reply: reply}
	chain := llm.NewChain(client, []string{"test-model"}, slog.Default())
	return New(chain, slog.Default()), client
}

func TestProcessNote_ParsesModelOutput(t *testing.T) {
	s, client := newSummarizer("```json\n" + `{
		"headline": "Shipped the audit dashboard",
		"summary": "• one\n• two\n• three",
		"keyIdeas": ["dashboards"],
		"actionItems": ["demo it"],
		"themes": ["work"],
		"sentiment": "energized"
	}` + "\n```")

	a := s.ProcessNote(context.Background(), "Shipped the dashboard today.")
	if a.Headline != "Shipped the audit dashboard" {
		t.Errorf("Headline = %q", a.Headline)
	}
	if a.Sentiment != "energized" {
		t.Errorf("Sentiment = %q", a.Sentiment)
	}
	if len(a.KeyIdeas) != 1 || len(a.ActionItems) != 1 {
		t.Errorf("lists = %v / %v", a.KeyIdeas, a.ActionItems)
	}
	if !strings.Contains(client.prompts[0], "Shipped the dashboard today.") {
		t.Error("note content must be embedded in the prompt")
	}
}

func TestProcessNote_DefaultsMissingOptionalFields(t *testing.T) {
	s, _ := newSummarizer(`{"headline": "h", "summary": "s"}`)

	a := s.ProcessNote(context.Background(), "whatever")
	if a.Sentiment != "neutral" {
		t.Errorf("Sentiment = %q, want neutral", a.Sentiment)
	}
	if a.KeyIdeas == nil || a.ActionItems == nil || a.Themes == nil {
		t.Error("list fields must never be nil")
	}
}

func TestProcessNote_FallbackOnGarbage(t *testing.T) {
	s, _ := newSummarizer("I cannot help with that.")

	content := strings.Repeat("x", 150)
	a := s.ProcessNote(context.Background(), content)
	if a.Headline != strings.Repeat("x", 100) {
		t.Errorf("fallback headline length = %d", len(a.Headline))
	}
	if a.Themes[0] != "uncategorized" || a.Sentiment != "neutral" {
		t.Errorf("fallback = %+v", a)
	}
}

func TestProcessNote_FallbackOnMissingRequiredFields(t *testing.T) {
	s, _ := newSummarizer(`{"keyIdeas": ["no headline here"]}`)

	a := s.ProcessNote(context.Background(), "short note")
	if a.Headline != "short note" {
		t.Errorf("Headline = %q", a.Headline)
	}
	if a.Summary != fallbackSummary {
		t.Errorf("Summary = %q", a.Summary)
	}
}

func TestProcessNote_FallbackWhenChainDown(t *testing.T) {
	s, _ := newSummarizer("") // empty reply makes the client error

	a := s.ProcessNote(context.Background(), "offline note")
	if a.Headline != "offline note" || a.Sentiment != "neutral" {
		t.Errorf("fallback = %+v", a)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":           "hello-world",
		"  FIAR   audit -- notes": "fiar-audit-notes",
		"already-slugged":         "already-slugged",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}

	long := Slugify(strings.Repeat("a", 200))
	if len(long) != 80 {
		t.Errorf("slug length = %d, want 80", len(long))
	}
}

func TestNoteSlug(t *testing.T) {
	at := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	if got := NoteSlug("Big Idea!", "ignored", at); got != "2025-11-03-big-idea" {
		t.Errorf("NoteSlug = %q", got)
	}
	if got := NoteSlug("", "fallback content", at); got != "2025-11-03-fallback-content" {
		t.Errorf("NoteSlug fallback = %q", got)
	}
}
