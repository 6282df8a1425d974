package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note is a daily journal entry. The list-typed fields are stored as
// JSON text columns.
type Note struct {
	ID            string     `json:"id"`
	Date          time.Time  `json:"date"`
	Content       string     `json:"content"`
	Headline      string     `json:"headline,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	KeyIdeas      []string   `json:"keyIdeas,omitempty"`
	ActionItems   []string   `json:"actionItems,omitempty"`
	Themes        []string   `json:"themes,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Mood          *int       `json:"mood,omitempty"`
	QuickType     string     `json:"quickType"`
	Sentiment     string     `json:"sentiment,omitempty"`
	Slug          string     `json:"slug,omitempty"`
	Deleted       bool       `json:"deleted"`
	AIProcessedAt *time.Time `json:"aiProcessedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// NoteSummary is the projection returned to the model by get_recent_notes.
// It deliberately omits the full content.
type NoteSummary struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Headline  string    `json:"headline,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	QuickType string    `json:"quickType"`
}

// Enrichment carries the AI-derived fields written back onto a note.
type Enrichment struct {
	Headline    string
	Summary     string
	KeyIdeas    []string
	ActionItems []string
	Themes      []string
	Sentiment   string
	Slug        string
}

// CreateNote persists a new note. ID, date, and created time are filled
// in when zero.
func (s *Store) CreateNote(ctx context.Context, n *Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if n.Date.IsZero() {
		n.Date = now
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.QuickType == "" {
		n.QuickType = "note"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, date, content, headline, summary, key_ideas, action_items,
			themes, tags, mood, quick_type, sentiment, slug, deleted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?)`,
		n.ID, n.Date, n.Content, n.Headline, n.Summary,
		marshalList(n.KeyIdeas), marshalList(n.ActionItems),
		marshalList(n.Themes), marshalList(n.Tags),
		n.Mood, n.QuickType, n.Sentiment, n.Slug, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// EnrichNote writes AI-derived fields onto an existing note and stamps
// the processing time.
func (s *Store) EnrichNote(ctx context.Context, id string, e Enrichment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes SET headline = ?, summary = ?, key_ideas = ?, action_items = ?,
			themes = ?, sentiment = ?, slug = ?, ai_processed_at = ?
		WHERE id = ?`,
		e.Headline, e.Summary, marshalList(e.KeyIdeas), marshalList(e.ActionItems),
		marshalList(e.Themes), e.Sentiment, e.Slug, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("enrich note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("note not found: %s", id)
	}
	return nil
}

// GetNote returns one note by id, including soft-deleted ones.
func (s *Store) GetNote(ctx context.Context, id string) (*Note, error) {
	row := s.db.QueryRowContext(ctx, noteColumns+" WHERE id = ?", id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("note not found: %s", id)
	}
	return n, err
}

// RecentNotes returns the most recent non-deleted notes as summaries,
// newest date first.
func (s *Store) RecentNotes(ctx context.Context, limit int) ([]NoteSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, headline, summary, sentiment, tags, quick_type
		FROM notes WHERE deleted = FALSE
		ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent notes: %w", err)
	}
	defer rows.Close()

	var notes []NoteSummary
	for rows.Next() {
		var ns NoteSummary
		var headline, summary, sentiment, tags sql.NullString
		if err := rows.Scan(&ns.ID, &ns.Date, &headline, &summary, &sentiment, &tags, &ns.QuickType); err != nil {
			return nil, fmt.Errorf("scan note summary: %w", err)
		}
		ns.Headline = headline.String
		ns.Summary = summary.String
		ns.Sentiment = sentiment.String
		ns.Tags = unmarshalList(tags.String)
		notes = append(notes, ns)
	}
	return notes, rows.Err()
}

// ListNotes returns one page of non-deleted notes (20 per page, newest
// date first) plus the total count.
func (s *Store) ListNotes(ctx context.Context, page int) ([]Note, int, error) {
	const perPage = 20
	if page < 1 {
		page = 1
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes WHERE deleted = FALSE").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		noteColumns+" WHERE deleted = FALSE ORDER BY date DESC LIMIT ? OFFSET ?",
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		notes = append(notes, *n)
	}
	return notes, total, rows.Err()
}

// NoteUpdate carries the user-editable fields for UpdateNote. Nil
// fields are left untouched.
type NoteUpdate struct {
	Content *string
	Mood    *int
	Tags    []string
}

// UpdateNote applies a partial edit to a note.
func (s *Store) UpdateNote(ctx context.Context, id string, u NoteUpdate) error {
	var sets []string
	var args []any
	if u.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *u.Content)
	}
	if u.Mood != nil {
		sets = append(sets, "mood = ?")
		args = append(args, *u.Mood)
	}
	if u.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, marshalList(u.Tags))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE notes SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("note not found: %s", id)
	}
	return nil
}

// DeleteNote soft-deletes a note.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE notes SET deleted = TRUE WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("note not found: %s", id)
	}
	return nil
}

const noteColumns = `SELECT id, date, content, headline, summary, key_ideas, action_items,
	themes, tags, mood, quick_type, sentiment, slug, deleted, ai_processed_at, created_at FROM notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var n Note
	var headline, summary, keyIdeas, actionItems, themes, tags, sentiment, slug sql.NullString
	var mood sql.NullInt64
	var processedAt sql.NullTime

	err := row.Scan(&n.ID, &n.Date, &n.Content, &headline, &summary, &keyIdeas, &actionItems,
		&themes, &tags, &mood, &n.QuickType, &sentiment, &slug, &n.Deleted, &processedAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	n.Headline = headline.String
	n.Summary = summary.String
	n.KeyIdeas = unmarshalList(keyIdeas.String)
	n.ActionItems = unmarshalList(actionItems.String)
	n.Themes = unmarshalList(themes.String)
	n.Tags = unmarshalList(tags.String)
	n.Sentiment = sentiment.String
	n.Slug = slug.String
	if mood.Valid {
		m := int(mood.Int64)
		n.Mood = &m
	}
	if processedAt.Valid {
		t := processedAt.Time
		n.AIProcessedAt = &t
	}
	return &n, nil
}

func marshalList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalList(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}
	return list
}
