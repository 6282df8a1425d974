package summarizer

import (
	"context"
	"strings"
	"testing"

	"github.com/icetonges/mything/internal/store"
)

func pulseArticles() []store.Article {
	return []store.Article{
		{Title: "FIAR milestones slip again", Category: "DoD Audit", Summary: "The audit timeline moved right."},
		{Title: "Navy ERP consolidation", Category: "DoD Audit", Summary: "Fewer ledgers, fewer findings."},
		{Title: "Gemini 3 ships", Category: "AI/ML", Summary: "New flagship model."},
		{Title: "Obscure hobby post", Category: "Gardening", Summary: "Not a tracked category."},
	}
}

func TestTechPulse_Digest(t *testing.T) {
	s, client := newSummarizer("```json\n" + `{
		"executiveSummary": "Audit timelines slipped while AI shipped.",
		"categoryHighlights": {"DoD Audit": "FIAR milestones moved right again."}
	}` + "\n```")

	p := s.TechPulse(context.Background(), pulseArticles())
	if p.ExecutiveSummary != "Audit timelines slipped while AI shipped." {
		t.Errorf("executive summary = %q", p.ExecutiveSummary)
	}
	if p.CategoryHighlights["DoD Audit"] != "FIAR milestones moved right again." {
		t.Errorf("highlights = %v", p.CategoryHighlights)
	}

	prompt := client.prompts[0]
	for _, want := range []string{
		"[DoD Audit] FIAR milestones slip again: The audit timeline moved right.",
		"DoD Audit:\n- FIAR milestones slip again\n- Navy ERP consolidation",
		`"AI/ML": "One sentence`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	// Untracked and empty categories get no highlight slot.
	for _, absent := range []string{`"Gardening"`, `"Cloud": "One sentence`} {
		if strings.Contains(prompt, absent) {
			t.Errorf("prompt unexpectedly contains %q", absent)
		}
	}
}

func TestTechPulse_ChainDown(t *testing.T) {
	s, _ := newSummarizer("")

	p := s.TechPulse(context.Background(), pulseArticles())
	if p.ExecutiveSummary != pulseUnavailable {
		t.Errorf("executive summary = %q", p.ExecutiveSummary)
	}
	if len(p.CategoryHighlights) != 0 {
		t.Errorf("highlights = %v", p.CategoryHighlights)
	}
}

func TestTechPulse_MalformedOutput(t *testing.T) {
	s, _ := newSummarizer("Here's a narrative summary instead of JSON.")

	p := s.TechPulse(context.Background(), pulseArticles())
	if p.ExecutiveSummary != pulseMalformed {
		t.Errorf("executive summary = %q", p.ExecutiveSummary)
	}
	if len(p.CategoryHighlights) != 0 {
		t.Errorf("highlights = %v", p.CategoryHighlights)
	}
}

func TestTechPulse_NullHighlights(t *testing.T) {
	s, _ := newSummarizer(`{"executiveSummary": "Quiet week.", "categoryHighlights": null}`)

	p := s.TechPulse(context.Background(), pulseArticles())
	if p.ExecutiveSummary != "Quiet week." || p.CategoryHighlights == nil {
		t.Errorf("pulse = %+v", p)
	}
}
