package tools

import (
	"context"
	"strings"

	"github.com/icetonges/mything/internal/llm"
	"github.com/icetonges/mything/internal/store"
)

// NewPlatformRegistry builds the registry of the five platform tools
// backed by the data store. The catalog names, required fields, and types
// are the contract the model is prompted against — keep them stable.
func NewPlatformRegistry(st *store.Store) *Registry {
	return NewRegistry(
		searchTechArticlesTool(st),
		searchDodNewsTool(st),
		saveNoteTool(st),
		getRecentNotesTool(st),
		getPlatformStatsTool(st),
	)
}

func searchTechArticlesTool(st *store.Store) *Tool {
	return &Tool{
		Decl: llm.ToolDecl{
			Name:        "search_tech_articles",
			Description: "Search the database for tech news articles. Use for AI, cloud, cybersecurity, web dev topics.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":    map[string]any{"type": "string", "description": "Search keyword or topic"},
					"category": map[string]any{"type": "string", "description": "Filter: AI/ML | Cloud | Cybersecurity | Web Dev | Federal Tech"},
					"limit":    map[string]any{"type": "number", "description": "Max results (default 5)"},
				},
				"required": []string{},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) Result {
			limit := clamp(intArg(args, "limit", 0), 5, 10)
			articles, err := st.SearchArticles(ctx, stringArg(args, "query"), stringArg(args, "category"), limit)
			if err != nil {
				return fail(err.Error())
			}
			return ok(map[string]any{"count": len(articles), "articles": articles})
		},
	}
}

// dodTypeCategories maps the search_dod_news type argument to the fixed
// category label sets.
var dodTypeCategories = map[string][]string{
	"audit":  {"DoD Audit"},
	"budget": {"DoD Budget"},
	"policy": {"DoD Policy", "Federal Tech"},
	"all":    store.DodCategories,
}

func searchDodNewsTool(st *store.Store) *Tool {
	return &Tool{
		Decl: llm.ToolDecl{
			Name:        "search_dod_news",
			Description: "Search DoD-specific news: audit findings, budget updates, policy memos, OMB circulars.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic": map[string]any{"type": "string", "description": "Search topic (e.g. 'FIAR', 'A-11', 'continuing resolution')"},
					"type":  map[string]any{"type": "string", "description": "Category filter: audit | budget | policy | all (default: all)"},
					"limit": map[string]any{"type": "number", "description": "Max results (default 5)"},
				},
				"required": []string{},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) Result {
			cats, found := dodTypeCategories[stringArg(args, "type")]
			if !found {
				cats = dodTypeCategories["all"]
			}
			limit := clamp(intArg(args, "limit", 0), 5, 10)
			articles, err := st.SearchArticlesByCategories(ctx, cats, stringArg(args, "topic"), limit)
			if err != nil {
				return fail(err.Error())
			}
			return ok(map[string]any{"count": len(articles), "articles": articles})
		},
	}
}

// saveNotePlaceholderSummary marks a note as pending downstream AI
// enrichment.
const saveNotePlaceholderSummary = "• Note saved via AI agent\n• AI processing pending"

func saveNoteTool(st *store.Store) *Tool {
	return &Tool{
		Decl: llm.ToolDecl{
			Name:        "save_note",
			Description: "Save a note to the database. ALWAYS confirm exact content with the user before calling this.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content":   map[string]any{"type": "string", "description": "The note content to save"},
					"tags":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Optional tags"},
					"mood":      map[string]any{"type": "number", "description": "Mood 1-5 (1=sad, 5=energized)"},
					"quickType": map[string]any{"type": "string", "description": "Type: note | idea | goal | insight | trend"},
				},
				"required": []string{"content"},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) Result {
			content := stringArg(args, "content")
			if strings.TrimSpace(content) == "" {
				return fail("Content is required")
			}

			note := &store.Note{
				Content:   content,
				Tags:      stringSliceArg(args, "tags"),
				QuickType: stringArg(args, "quickType"),
				Headline:  headline(content),
				Summary:   saveNotePlaceholderSummary,
				Themes:    stringSliceArg(args, "tags"),
				Sentiment: "neutral",
			}
			if mood := intArg(args, "mood", 0); mood >= 1 && mood <= 5 {
				note.Mood = &mood
			}

			if err := st.CreateNote(ctx, note); err != nil {
				return fail(err.Error())
			}
			return ok(map[string]any{"id": note.ID, "headline": note.Headline})
		},
	}
}

// headline derives the provisional headline from the first 100 characters
// of content, respecting rune boundaries.
func headline(content string) string {
	runes := []rune(content)
	if len(runes) <= 100 {
		return content
	}
	return string(runes[:100])
}

func getRecentNotesTool(st *store.Store) *Tool {
	return &Tool{
		Decl: llm.ToolDecl{
			Name:        "get_recent_notes",
			Description: "Retrieve the most recent personal notes for reflection or summarization.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"limit": map[string]any{"type": "number", "description": "Number of notes to retrieve (default 5)"},
				},
				"required": []string{},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) Result {
			limit := clamp(intArg(args, "limit", 0), 5, 20)
			notes, err := st.RecentNotes(ctx, limit)
			if err != nil {
				return fail(err.Error())
			}
			return ok(map[string]any{"count": len(notes), "notes": notes})
		},
	}
}

func getPlatformStatsTool(st *store.Store) *Tool {
	return &Tool{
		Decl: llm.ToolDecl{
			Name:        "get_platform_stats",
			Description: "Get live usage statistics: total notes, articles, chats, and DoD content count.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		Handler: func(ctx context.Context, _ map[string]any) Result {
			stats, err := st.PlatformStats(ctx)
			if err != nil {
				return fail(err.Error())
			}
			return ok(stats)
		},
	}
}
