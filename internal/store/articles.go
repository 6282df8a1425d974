package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Article is a scraped tech news article.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DodCategories are the article categories that make up the DoD news feed.
var DodCategories = []string{"DoD Audit", "DoD Budget", "DoD Policy", "Federal Tech"}

// UpsertArticle inserts an article or, when the URL already exists,
// refreshes its summary and category. Returns true when a new row was
// created.
func (s *Store) UpsertArticle(ctx context.Context, a *Article) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (id, title, url, source, category, summary, published_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET summary = excluded.summary, category = excluded.category`,
		a.ID, a.Title, a.URL, a.Source, a.Category, a.Summary, a.PublishedAt.UTC(), a.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upsert article: %w", err)
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SearchArticles performs a case-insensitive substring search over title,
// summary, and source, with an optional category equality filter, ordered
// by publish time descending.
func (s *Store) SearchArticles(ctx context.Context, query, category string, limit int) ([]Article, error) {
	var conds []string
	var args []any

	if category != "" && category != "All" {
		conds = append(conds, "category = ?")
		args = append(args, category)
	}
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		conds = append(conds, "(LOWER(title) LIKE ? OR LOWER(summary) LIKE ? OR LOWER(source) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}

	q := "SELECT id, title, url, source, category, summary, published_at, created_at FROM articles"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY published_at DESC LIMIT ?"
	args = append(args, limit)

	return s.queryArticles(ctx, q, args...)
}

// SearchArticlesByCategories returns articles whose category is in cats,
// with an optional topic substring filter over title and summary.
func (s *Store) SearchArticlesByCategories(ctx context.Context, cats []string, topic string, limit int) ([]Article, error) {
	if len(cats) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(cats))
	placeholders = placeholders[:len(placeholders)-1]

	q := "SELECT id, title, url, source, category, summary, published_at, created_at FROM articles WHERE category IN (" + placeholders + ")"
	args := make([]any, 0, len(cats)+3)
	for _, c := range cats {
		args = append(args, c)
	}

	if topic != "" {
		pattern := "%" + strings.ToLower(topic) + "%"
		q += " AND (LOWER(title) LIKE ? OR LOWER(summary) LIKE ?)"
		args = append(args, pattern, pattern)
	}

	q += " ORDER BY published_at DESC LIMIT ?"
	args = append(args, limit)

	return s.queryArticles(ctx, q, args...)
}

// ListArticles returns one page of articles (20 per page, newest first)
// plus the total count for the filter.
func (s *Store) ListArticles(ctx context.Context, category string, page int) ([]Article, int, error) {
	const perPage = 20
	if page < 1 {
		page = 1
	}

	where := ""
	var args []any
	if category != "" && category != "All" {
		where = " WHERE category = ?"
		args = append(args, category)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	q := "SELECT id, title, url, source, category, summary, published_at, created_at FROM articles" +
		where + " ORDER BY published_at DESC LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)

	articles, err := s.queryArticles(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (s *Store) queryArticles(ctx context.Context, query string, args ...any) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &a.Source, &a.Category, &a.Summary, &a.PublishedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// CountArticles returns the total article count, optionally restricted to
// the given categories.
func (s *Store) CountArticles(ctx context.Context, cats []string) (int, error) {
	q := "SELECT COUNT(*) FROM articles"
	var args []any
	if len(cats) > 0 {
		placeholders := strings.Repeat("?,", len(cats))
		q += " WHERE category IN (" + placeholders[:len(placeholders)-1] + ")"
		for _, c := range cats {
			args = append(args, c)
		}
	}

	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}
