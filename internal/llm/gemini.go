package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/icetonges/mything/internal/config"
)

// GeminiClient implements [Client] against the Gemini API.
type GeminiClient struct {
	client *genai.Client
	logger *slog.Logger
}

// safetySettings relax blocking to high-confidence only. The platform
// persona is benign; the default thresholds are too aggressive for
// federal-finance vocabulary ("audit findings", "IG investigations").
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
}

// NewGeminiClient creates a Gemini-backed model client.
func NewGeminiClient(ctx context.Context, apiKey string, logger *slog.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{client: client, logger: logger}, nil
}

// Chat sends a single completion request and converts the wire response
// to the provider-neutral shape.
func (g *GeminiClient) Chat(ctx context.Context, model, system string, messages []Message, tools []ToolDecl) (*ChatResponse, error) {
	cfg := &genai.GenerateContentConfig{
		SafetySettings: safetySettings,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: toFunctionDeclarations(tools)}}
	}

	contents := toContents(messages)

	if g.logger.Enabled(ctx, config.LevelTrace) {
		payload, _ := json.Marshal(contents)
		g.logger.Log(ctx, config.LevelTrace, "gemini request",
			"model", model,
			"contents", string(payload),
		)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate (%s): %w", model, err)
	}

	out := &ChatResponse{
		Model:   model,
		Message: Message{Role: "assistant", Content: strings.TrimSpace(resp.Text())},
	}
	for _, fc := range resp.FunctionCalls() {
		out.Message.ToolCalls = append(out.Message.ToolCalls, ToolCall{
			ID:   fc.ID,
			Name: fc.Name,
			Args: fc.Args,
		})
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return out, nil
}

// toContents converts neutral messages to the Gemini content list.
// Assistant turns map to the model role; tool results become function
// response parts in a user-role content, which is what the API expects
// after a function call turn.
func toContents(messages []Message) []*genai.Content {
	var contents []*genai.Content
	var pendingResults []*genai.Part

	flush := func() {
		if len(pendingResults) > 0 {
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: pendingResults})
			pendingResults = nil
		}
	}

	for _, m := range messages {
		switch m.Role {
		case "tool":
			response := map[string]any{"content": m.Content}
			if m.IsError {
				response = map[string]any{"error": m.Content}
			}
			pendingResults = append(pendingResults, genai.NewPartFromFunctionResponse(m.ToolName, response))
		case "assistant":
			flush()
			parts := []*genai.Part{}
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Name,
					Args: tc.Args,
				}})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
		default:
			flush()
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	flush()

	return contents
}

// toFunctionDeclarations converts the neutral tool catalog to the wire shape.
func toFunctionDeclarations(tools []ToolDecl) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toSchema(t.Parameters),
		})
	}
	return decls
}

// toSchema converts a neutral JSON-schema map to a genai Schema. Only the
// small type enum used by the tool catalog is supported; unknown types
// fall back to string.
func toSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}

	s := &genai.Schema{}
	if typ, ok := m["type"].(string); ok {
		switch typ {
		case "object":
			s.Type = genai.TypeObject
		case "string":
			s.Type = genai.TypeString
		case "number":
			s.Type = genai.TypeNumber
		case "integer":
			s.Type = genai.TypeInteger
		case "boolean":
			s.Type = genai.TypeBoolean
		case "array":
			s.Type = genai.TypeArray
		default:
			s.Type = genai.TypeString
		}
	}
	if desc, ok := m["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				s.Properties[name] = toSchema(sub)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toSchema(items)
	}
	if req, ok := m["required"].([]string); ok {
		s.Required = req
	} else if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}

	return s
}
