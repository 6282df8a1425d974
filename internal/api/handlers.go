package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/icetonges/mything/internal/agent"
	"github.com/icetonges/mything/internal/store"
	"github.com/icetonges/mything/internal/summarizer"
)

// ChatRequest accepts either a bare message or a full turn history.
// The UI sends the history form; the bare form is easier for testing.
type ChatRequest struct {
	Message   string       `json:"message,omitempty"`
	Messages  []agent.Turn `json:"messages,omitempty"`
	Page      string       `json:"page,omitempty"`
	SessionID string       `json:"sessionId,omitempty"`
}

// ChatResponse carries the answer plus the agent's audit trail. Content
// and Reply duplicate the answer for older UI builds that read either.
type ChatResponse struct {
	Content    string       `json:"content"`
	Reply      string       `json:"reply"`
	SessionID  string       `json:"sessionId"`
	AgentID    string       `json:"agentId"`
	AgentName  string       `json:"agentName"`
	AgentEmoji string       `json:"agentEmoji"`
	Steps      []agent.Step `json:"steps"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, history := req.Message, []agent.Turn(nil)
	if message == "" {
		message, history = splitTurns(req.Messages)
	}
	if strings.TrimSpace(message) == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	agentID := agent.Route(message, req.Page)
	resp := s.runner.Run(r.Context(), agentID, message, history)

	// Transcript persistence is best-effort; a storage hiccup must not
	// lose the answer.
	turns := []store.ChatMessage{
		{SessionID: sessionID, Role: "user", Content: message, Page: req.Page},
		{SessionID: sessionID, Role: "assistant", Content: resp.Answer, Page: req.Page},
	}
	if err := s.store.SaveChatTurns(r.Context(), turns); err != nil {
		s.logger.Warn("chat transcript save failed", "session", sessionID, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ChatResponse{
		Content:    resp.Answer,
		Reply:      resp.Answer,
		SessionID:  sessionID,
		AgentID:    resp.AgentID,
		AgentName:  resp.AgentName,
		AgentEmoji: resp.AgentEmoji,
		Steps:      resp.Steps,
	}, s.logger)
}

// splitTurns extracts the newest user message; everything before it
// becomes the history.
func splitTurns(turns []agent.Turn) (string, []agent.Turn) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			return turns[i].Content, turns[:i]
		}
	}
	return "", nil
}

// NoteRequest is the note-creation payload.
type NoteRequest struct {
	Content   string   `json:"content"`
	Mood      *int     `json:"mood,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	QuickType string   `json:"quickType,omitempty"`
}

var quickTypes = map[string]bool{
	"idea": true, "trend": true, "goal": true, "note": true, "insight": true,
}

func (s *Server) handleNoteCreate(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" || len(req.Content) > 50000 {
		s.errorResponse(w, http.StatusBadRequest, "content must be 1-50000 characters")
		return
	}
	if req.Mood != nil && (*req.Mood < 1 || *req.Mood > 5) {
		s.errorResponse(w, http.StatusBadRequest, "mood must be between 1 and 5")
		return
	}
	if req.QuickType != "" && !quickTypes[req.QuickType] {
		s.errorResponse(w, http.StatusBadRequest, "invalid quickType")
		return
	}

	note := &store.Note{
		Content:   req.Content,
		Mood:      req.Mood,
		Tags:      req.Tags,
		QuickType: req.QuickType,
	}
	if err := s.store.CreateNote(r.Context(), note); err != nil {
		s.logger.Error("note create failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to save note")
		return
	}

	// Enrich after the raw note is durable. The summarizer degrades to
	// placeholder fields instead of failing, so enrichment errors here
	// mean the note row itself went away.
	analysis := s.summarizer.ProcessNote(r.Context(), req.Content)
	enrichment := store.Enrichment{
		Headline:    analysis.Headline,
		Summary:     analysis.Summary,
		KeyIdeas:    analysis.KeyIdeas,
		ActionItems: analysis.ActionItems,
		Themes:      analysis.Themes,
		Sentiment:   analysis.Sentiment,
		Slug:        summarizer.NoteSlug(analysis.Headline, req.Content, note.Date),
	}
	if err := s.store.EnrichNote(r.Context(), note.ID, enrichment); err != nil {
		s.logger.Error("note enrichment failed", "id", note.ID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to save note")
		return
	}

	updated, err := s.store.GetNote(r.Context(), note.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to save note")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, updated, s.logger)
}

func (s *Server) handleNoteList(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	notes, total, err := s.store.ListNotes(r.Context(), page)
	if err != nil {
		s.logger.Error("note list failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list notes")
		return
	}
	if notes == nil {
		notes = []store.Note{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"notes": notes,
		"total": total,
		"page":  page,
		"pages": (total + 19) / 20,
	}, s.logger)
}

func (s *Server) handleNoteGet(w http.ResponseWriter, r *http.Request) {
	note, err := s.store.GetNote(r.Context(), r.PathValue("id"))
	if err != nil || note.Deleted {
		s.errorResponse(w, http.StatusNotFound, "note not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, note, s.logger)
}

// NoteUpdateRequest is the partial-edit payload; absent fields are
// left untouched.
type NoteUpdateRequest struct {
	Content *string  `json:"content,omitempty"`
	Mood    *int     `json:"mood,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

func (s *Server) handleNoteUpdate(w http.ResponseWriter, r *http.Request) {
	var req NoteUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mood != nil && (*req.Mood < 1 || *req.Mood > 5) {
		s.errorResponse(w, http.StatusBadRequest, "mood must be between 1 and 5")
		return
	}

	id := r.PathValue("id")
	update := store.NoteUpdate{Content: req.Content, Mood: req.Mood, Tags: req.Tags}
	if err := s.store.UpdateNote(r.Context(), id, update); err != nil {
		s.errorResponse(w, http.StatusNotFound, "note not found")
		return
	}

	note, err := s.store.GetNote(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to load note")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, note, s.logger)
}

func (s *Server) handleNoteDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteNote(r.Context(), r.PathValue("id")); err != nil {
		s.errorResponse(w, http.StatusNotFound, "note not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"success": true}, s.logger)
}

func (s *Server) handleTechTrends(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	page := parseIntParam(r, "page", 1)

	articles, total, err := s.store.ListArticles(r.Context(), category, page)
	if err != nil {
		s.logger.Error("article list failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list articles")
		return
	}
	if articles == nil {
		articles = []store.Article{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"articles": articles,
		"total":    total,
		"page":     page,
	}, s.logger)
}

// TechPulseResponse is the dashboard digest: an AI executive summary
// and per-category highlights over the newest articles, plus counts.
// ExecutiveSummary is null when the feed is empty.
type TechPulseResponse struct {
	ExecutiveSummary   *string           `json:"executiveSummary"`
	CategoryHighlights map[string]string `json:"categoryHighlights"`
	CategoryCounts     map[string]int    `json:"categoryCounts"`
	GeneratedAt        time.Time         `json:"generatedAt"`
	ArticleCount       int               `json:"articleCount"`
}

// pulseTTL bounds how often the digest model call runs.
const pulseTTL = 2 * time.Hour

func (s *Server) handleTechPulse(w http.ResponseWriter, r *http.Request) {
	s.pulseMu.Lock()
	defer s.pulseMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if s.pulse != nil && time.Since(s.pulseAt) < pulseTTL {
		writeJSON(w, s.pulse, s.logger)
		return
	}

	articles, err := s.store.SearchArticles(r.Context(), "", "", 40)
	if err != nil {
		s.logger.Error("tech pulse article load failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load articles")
		return
	}

	resp := &TechPulseResponse{
		CategoryHighlights: map[string]string{},
		CategoryCounts:     map[string]int{},
		GeneratedAt:        time.Now().UTC(),
		ArticleCount:       len(articles),
	}
	if len(articles) > 0 {
		for _, cat := range summarizer.PulseCategories {
			resp.CategoryCounts[cat] = 0
		}
		for _, a := range articles {
			if _, ok := resp.CategoryCounts[a.Category]; ok {
				resp.CategoryCounts[a.Category]++
			}
		}

		pulse := s.summarizer.TechPulse(r.Context(), articles)
		if pulse.ExecutiveSummary != "" {
			resp.ExecutiveSummary = &pulse.ExecutiveSummary
		}
		resp.CategoryHighlights = pulse.CategoryHighlights
	}

	s.pulse, s.pulseAt = resp, time.Now()
	writeJSON(w, resp, s.logger)
}

// IngestArticle is one scraped article in the ingest payload.
type IngestArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Category    string `json:"category"`
	Summary     string `json:"summary"`
	PublishedAt string `json:"publishedAt"`
}

// IngestRequest is pushed by the external scraper.
type IngestRequest struct {
	Articles []IngestArticle `json:"articles"`
	Token    string          `json:"token"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.scraperToken == "" || req.Token != s.scraperToken {
		s.logger.Warn("ingest rejected: invalid token")
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	created, skipped := 0, 0
	for _, a := range req.Articles {
		publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil || a.Title == "" || a.URL == "" {
			s.logger.Warn("ingest article rejected", "url", a.URL, "error", err)
			skipped++
			continue
		}

		article := &store.Article{
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source,
			Category:    a.Category,
			Summary:     a.Summary,
			PublishedAt: publishedAt,
		}
		if _, err := s.store.UpsertArticle(r.Context(), article); err != nil {
			s.logger.Warn("ingest article failed", "url", a.URL, "error", err)
			skipped++
			continue
		}
		created++
	}

	s.logger.Info("ingest complete", "created", created, "skipped", skipped)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"success": true,
		"created": created,
		"skipped": skipped,
	}, s.logger)
}

// ContactRequest is a contact-form submission.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || len(req.Name) > 100 ||
		!strings.Contains(req.Email, "@") ||
		req.Subject == "" || len(req.Subject) > 200 ||
		req.Message == "" || len(req.Message) > 5000 {
		s.errorResponse(w, http.StatusBadRequest, "invalid contact submission")
		return
	}

	contact := &store.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := s.store.CreateContact(r.Context(), contact); err != nil {
		s.logger.Error("contact save failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to save message")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"success": true}, s.logger)
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.store.MonitorSnapshot(r.Context())
	if err != nil {
		s.logger.Error("monitor snapshot failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to build snapshot")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, snapshot, s.logger)
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return defaultVal
	}
	return n
}
