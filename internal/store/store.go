// Package store provides SQLite persistence for articles, notes, chat
// history, and contact submissions.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed data store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Tech news articles, ingested by the out-of-process scraper
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		category TEXT NOT NULL,
		summary TEXT NOT NULL,
		published_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category, published_at);
	CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at);

	-- Daily notes (soft-deleted, AI-enriched downstream)
	CREATE TABLE IF NOT EXISTS notes (
		id TEXT PRIMARY KEY,
		date TIMESTAMP NOT NULL,
		content TEXT NOT NULL,
		headline TEXT,
		summary TEXT,
		key_ideas TEXT,
		action_items TEXT,
		themes TEXT,
		tags TEXT,
		mood INTEGER,
		quick_type TEXT NOT NULL DEFAULT 'note',
		sentiment TEXT,
		slug TEXT,
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		ai_processed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notes_date ON notes(deleted, date);
	CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_at);

	-- Chat transcript, keyed by client session
	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		page TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_session ON chat_messages(session_id, created_at);

	-- Contact form submissions (mail delivery happens elsewhere)
	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		subject TEXT,
		message TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
