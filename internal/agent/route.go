package agent

import (
	"regexp"
	"strings"
)

// Page identifiers with a bound agent. Page context overrides keyword
// inference entirely.
var pageBindings = map[string]string{
	"fed-finance": AgentDodPolicy,
	"ai-ml":       AgentTechNews,
}

// Keyword vocabularies, tested in fixed priority order:
// policy > news > notes. The ordering is a product decision — ambiguous
// multi-topic messages resolve to the first match.
var (
	policyWords = regexp.MustCompile(`\b(dod|pentagon|omb|fiar|audit|appropriation|budget|continuing resolution|a-11|a-123|comptroller|fasab)\b`)
	newsWords   = regexp.MustCompile(`\b(news|article|trend|latest|recent news|ai/ml|cloud|cybersec|tech trend|scrape)\b`)
	noteWords   = regexp.MustCompile(`\b(note|save|capture|log|my notes|recent thoughts|journal|wrote)\b`)
)

// Route maps a user message and the page being viewed to an agent id.
// It is a pure function: no model call, no state, same inputs always
// produce the same route.
func Route(message, page string) string {
	if agentID, bound := pageBindings[page]; bound {
		return agentID
	}

	msg := strings.ToLower(message)
	switch {
	case policyWords.MatchString(msg):
		return AgentDodPolicy
	case newsWords.MatchString(msg):
		return AgentTechNews
	case noteWords.MatchString(msg):
		return AgentNoteHelper
	default:
		return AgentPortfolio
	}
}
