package store

import (
	"context"
	"fmt"
	"time"
)

// Stats are the aggregate counts exposed to the model by
// get_platform_stats.
type Stats struct {
	TotalNotes    int `json:"totalNotes"`
	TotalArticles int `json:"totalArticles"`
	TotalChats    int `json:"totalChats"`
	Last24hNotes  int `json:"last24hNotes"`
	DodArticles   int `json:"dodArticles"`
}

// PlatformStats computes the aggregate counts in one pass.
func (s *Store) PlatformStats(ctx context.Context) (*Stats, error) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM notes WHERE deleted = FALSE),
			(SELECT COUNT(*) FROM articles),
			(SELECT COUNT(*) FROM chat_messages),
			(SELECT COUNT(*) FROM notes WHERE created_at >= ?),
			(SELECT COUNT(*) FROM articles WHERE category IN ('DoD Audit', 'DoD Budget', 'DoD Policy'))`,
		cutoff,
	).Scan(&st.TotalNotes, &st.TotalArticles, &st.TotalChats, &st.Last24hNotes, &st.DodArticles)
	if err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}
	return &st, nil
}

// Monitor is the admin dashboard snapshot.
type Monitor struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Records     MonitorRecords    `json:"records"`
	Activity    MonitorActivity   `json:"activity"`
	Sentiment   []SentimentCount  `json:"sentiment"`
	Recent      MonitorRecent     `json:"recentActivity"`
	Tables      []TableEstimate   `json:"tables"`
}

// MonitorRecords holds total row counts per entity.
type MonitorRecords struct {
	NotesTotal   int `json:"notesTotal"`
	NotesActive  int `json:"notesActive"`
	NotesDeleted int `json:"notesDeleted"`
	Articles     int `json:"articles"`
	Contacts     int `json:"contacts"`
	ChatMessages int `json:"chatMessages"`
}

// MonitorActivity holds windowed activity counts and a 7-day series.
type MonitorActivity struct {
	Notes24h    int            `json:"notes24h"`
	Notes7d     int            `json:"notes7d"`
	Notes30d    int            `json:"notes30d"`
	Articles7d  int            `json:"articles7d"`
	Chats24h    int            `json:"chats24h"`
	NotesPerDay map[string]int `json:"notesPerDay"`
}

// SentimentCount is one slice of the note sentiment breakdown.
type SentimentCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonitorRecent holds the latest items shown in the activity log.
type MonitorRecent struct {
	Notes    []NoteSummary `json:"notes"`
	Chats    []ChatMessage `json:"chats"`
	Articles []Article     `json:"articles"`
}

// TableEstimate is a rough per-table storage estimate. Averages are the
// same heuristics the dashboard always used: notes ~2KB, articles ~1KB,
// chat rows ~0.5KB.
type TableEstimate struct {
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	SizeKB int    `json:"sizeKB"`
}

// MonitorSnapshot assembles the admin dashboard data.
func (s *Store) MonitorSnapshot(ctx context.Context) (*Monitor, error) {
	now := time.Now().UTC()
	last24h := now.Add(-24 * time.Hour)
	last7d := now.Add(-7 * 24 * time.Hour)
	last30d := now.Add(-30 * 24 * time.Hour)

	m := &Monitor{GeneratedAt: now}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM notes),
			(SELECT COUNT(*) FROM notes WHERE deleted = FALSE),
			(SELECT COUNT(*) FROM notes WHERE deleted = TRUE),
			(SELECT COUNT(*) FROM articles),
			(SELECT COUNT(*) FROM contacts),
			(SELECT COUNT(*) FROM chat_messages),
			(SELECT COUNT(*) FROM notes WHERE created_at >= ?),
			(SELECT COUNT(*) FROM notes WHERE created_at >= ?),
			(SELECT COUNT(*) FROM notes WHERE created_at >= ?),
			(SELECT COUNT(*) FROM articles WHERE created_at >= ?),
			(SELECT COUNT(*) FROM chat_messages WHERE created_at >= ?)`,
		last24h, last7d, last30d, last7d, last24h,
	).Scan(
		&m.Records.NotesTotal, &m.Records.NotesActive, &m.Records.NotesDeleted,
		&m.Records.Articles, &m.Records.Contacts, &m.Records.ChatMessages,
		&m.Activity.Notes24h, &m.Activity.Notes7d, &m.Activity.Notes30d,
		&m.Activity.Articles7d, &m.Activity.Chats24h,
	)
	if err != nil {
		return nil, fmt.Errorf("monitor counts: %w", err)
	}

	// Sentiment breakdown over active notes.
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(sentiment, 'unknown'), COUNT(*)
		FROM notes WHERE deleted = FALSE AND sentiment IS NOT NULL AND sentiment != ''
		GROUP BY sentiment`)
	if err != nil {
		return nil, fmt.Errorf("monitor sentiment: %w", err)
	}
	for rows.Next() {
		var sc SentimentCount
		if err := rows.Scan(&sc.Label, &sc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		m.Sentiment = append(m.Sentiment, sc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Notes-per-day series for the sparkline, zero-filled for 7 days.
	m.Activity.NotesPerDay = make(map[string]int, 7)
	for i := 6; i >= 0; i-- {
		m.Activity.NotesPerDay[now.AddDate(0, 0, -i).Format("2006-01-02")] = 0
	}
	rows, err = s.db.QueryContext(ctx,
		"SELECT created_at FROM notes WHERE created_at >= ?", last7d)
	if err != nil {
		return nil, fmt.Errorf("monitor per-day: %w", err)
	}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan created_at: %w", err)
		}
		key := t.UTC().Format("2006-01-02")
		if _, ok := m.Activity.NotesPerDay[key]; ok {
			m.Activity.NotesPerDay[key]++
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Recent activity log.
	if m.Recent.Notes, err = s.RecentNotes(ctx, 10); err != nil {
		return nil, err
	}
	if m.Recent.Chats, err = s.recentUserChats(ctx, last24h, 8); err != nil {
		return nil, err
	}
	if m.Recent.Articles, err = s.queryArticles(ctx, `
		SELECT id, title, url, source, category, summary, published_at, created_at
		FROM articles WHERE created_at >= ? ORDER BY created_at DESC LIMIT 5`, last7d); err != nil {
		return nil, err
	}

	m.Tables = []TableEstimate{
		{Name: "notes", Rows: m.Records.NotesTotal, SizeKB: m.Records.NotesTotal * 2},
		{Name: "articles", Rows: m.Records.Articles, SizeKB: m.Records.Articles * 1},
		{Name: "chat_messages", Rows: m.Records.ChatMessages, SizeKB: m.Records.ChatMessages / 2},
		{Name: "contacts", Rows: m.Records.Contacts, SizeKB: m.Records.Contacts / 2},
	}

	return m, nil
}

func (s *Store) recentUserChats(ctx context.Context, since time.Time, limit int) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, COALESCE(page, ''), created_at
		FROM chat_messages WHERE created_at >= ? AND role = 'user'
		ORDER BY created_at DESC LIMIT ?`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent chats: %w", err)
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Page, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
