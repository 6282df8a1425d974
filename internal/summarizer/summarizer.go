// Package summarizer enriches raw journal notes with AI-generated
// structure: a headline, bullet summary, key ideas, action items,
// themes and a sentiment label.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/icetonges/mything/internal/llm"
)

// Analysis is the structured enrichment derived from a note's content.
type Analysis struct {
	Headline    string   `json:"headline"`
	Summary     string   `json:"summary"`
	KeyIdeas    []string `json:"keyIdeas"`
	ActionItems []string `json:"actionItems"`
	Themes      []string `json:"themes"`
	Sentiment   string   `json:"sentiment"`
}

const notePrompt = `Analyze this personal note and return ONLY valid JSON (no markdown fences):

Note:
"""
%s
"""

Return exactly this JSON structure:
{
  "headline": "A single tweet-length headline (max 120 chars)",
  "summary": "Three bullet points as a single string, each on new line starting with •",
  "keyIdeas": ["idea 1", "idea 2", "idea 3"],
  "actionItems": ["action 1", "action 2"],
  "themes": ["theme1", "theme2"],
  "sentiment": "positive|neutral|reflective|energized|challenging"
}`

// fallbackSummary is stored when the model output cannot be used.
const fallbackSummary = "• Note captured successfully\n• AI processing encountered an issue\n• Content saved"

type Summarizer struct {
	chain  *llm.Chain
	logger *slog.Logger
}

func New(chain *llm.Chain, logger *slog.Logger) *Summarizer {
	return &Summarizer{chain: chain, logger: logger}
}

// ProcessNote analyzes the note content. It never fails: when the
// model chain is down or returns garbage, a degraded Analysis built
// from the raw content is returned so the note is still saved.
func (s *Summarizer) ProcessNote(ctx context.Context, content string) Analysis {
	raw, err := s.chain.GenerateStrict(ctx, "", fmt.Sprintf(notePrompt, content))
	if err != nil {
		s.logger.Warn("note analysis unavailable", "error", err)
		return fallbackAnalysis(content)
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		s.logger.Warn("note analysis unparseable", "error", err)
		return fallbackAnalysis(content)
	}
	return analysis
}

// parseAnalysis decodes the model output, tolerating markdown fences
// the model sometimes adds despite instructions.
func parseAnalysis(raw string) (Analysis, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var a Analysis
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	if a.Headline == "" || a.Summary == "" {
		return Analysis{}, fmt.Errorf("analysis missing required fields")
	}
	if a.KeyIdeas == nil {
		a.KeyIdeas = []string{}
	}
	if a.ActionItems == nil {
		a.ActionItems = []string{}
	}
	if a.Themes == nil {
		a.Themes = []string{}
	}
	if a.Sentiment == "" {
		a.Sentiment = "neutral"
	}
	return a, nil
}

func fallbackAnalysis(content string) Analysis {
	return Analysis{
		Headline:    firstRunes(content, 100),
		Summary:     fallbackSummary,
		KeyIdeas:    []string{},
		ActionItems: []string{},
		Themes:      []string{"uncategorized"},
		Sentiment:   "neutral",
	}
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9_\s-]`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	slugCollapse = regexp.MustCompile(`-+`)
)

// Slugify lowercases text into a URL-safe slug capped at 80 runes.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugCollapse.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return firstRunes(s, 80)
}

// NoteSlug builds the date-prefixed slug for a processed note. The
// headline drives the slug; the raw content is a fallback when the
// headline is empty.
func NoteSlug(headline, content string, at time.Time) string {
	base := headline
	if base == "" {
		base = firstRunes(content, 60)
	}
	return at.Format("2006-01-02") + "-" + Slugify(base)
}
