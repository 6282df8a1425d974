package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/icetonges/mything/internal/llm"
	"github.com/icetonges/mything/internal/store"
)

// PulseCategories are the article categories covered by the tech-pulse
// digest, in display order.
var PulseCategories = []string{
	"AI/ML", "Cloud", "Cybersecurity", "Web Dev",
	"Federal Tech", "DoD Audit", "DoD Budget", "DoD Policy",
}

// Pulse is an AI digest of the recent article feed: an executive
// summary plus a one-line highlight per category that has articles.
type Pulse struct {
	ExecutiveSummary   string            `json:"executiveSummary"`
	CategoryHighlights map[string]string `json:"categoryHighlights"`
}

const (
	pulseUnavailable = "AI summary unavailable. Check the Gemini API key and model configuration."
	pulseMalformed   = "Summary generation encountered a formatting issue."
)

// TechPulse generates the digest with a single model call covering both
// the executive summary and every category highlight. Like ProcessNote
// it never fails: chain exhaustion or unusable output yields a degraded
// Pulse with an explanatory summary and no highlights.
func (s *Summarizer) TechPulse(ctx context.Context, articles []store.Article) Pulse {
	raw := s.chain.Generate(ctx, "", pulsePrompt(articles))
	if raw == llm.Unavailable {
		s.logger.Warn("tech pulse digest unavailable, model chain exhausted")
		return Pulse{ExecutiveSummary: pulseUnavailable, CategoryHighlights: map[string]string{}}
	}

	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var p Pulse
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		s.logger.Warn("tech pulse digest unparseable", "error", err)
		return Pulse{ExecutiveSummary: pulseMalformed, CategoryHighlights: map[string]string{}}
	}
	if p.CategoryHighlights == nil {
		p.CategoryHighlights = map[string]string{}
	}
	return p
}

func pulsePrompt(articles []store.Article) string {
	byCategory := make(map[string][]store.Article)
	for _, a := range articles {
		byCategory[a.Category] = append(byCategory[a.Category], a)
	}

	snippets := make([]string, 0, min(20, len(articles)))
	for _, a := range articles[:min(20, len(articles))] {
		snippets = append(snippets, fmt.Sprintf("[%s] %s: %s", a.Category, a.Title, firstRunes(a.Summary, 100)))
	}

	var sections, highlightKeys []string
	for _, cat := range PulseCategories {
		items := byCategory[cat]
		if len(items) == 0 {
			continue
		}
		titles := make([]string, 0, min(3, len(items)))
		for _, a := range items[:min(3, len(items))] {
			titles = append(titles, "- "+a.Title)
		}
		sections = append(sections, cat+":\n"+strings.Join(titles, "\n"))
		highlightKeys = append(highlightKeys, fmt.Sprintf(`    %q: "One sentence, max 20 words, most important development"`, cat))
	}

	return fmt.Sprintf(`You are a senior technology and federal government analyst.
Analyze these recent tech/government news articles and return ONLY valid JSON (no markdown, no explanation).

Articles for executive summary:
%s

Articles by category for highlights:
%s

Return exactly this JSON structure:
{
  "executiveSummary": "3 sentences. Professional tone. Mention specific technologies, agencies, or dollar amounts.",
  "categoryHighlights": {
%s
  }
}

Return ONLY the JSON object, no other text.`,
		strings.Join(snippets, "\n"),
		strings.Join(sections, "\n\n"),
		strings.Join(highlightKeys, ",\n"))
}
