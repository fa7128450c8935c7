package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"contentforge/internal/core"

	"github.com/google/uuid"
)

const articleColumns = `id, article_json, settings_json, provider, model, status, wordpress_url, created_at, updated_at`

// SaveArticle inserts or replaces an article record. A missing ID is
// generated and timestamps are maintained.
func (s *Store) SaveArticle(ctx context.Context, rec *core.ArticleRecord) error {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.Status == "" {
		rec.Status = core.StatusDraft
	}
	rec.UpdatedAt = now

	articleJSON, err := json.Marshal(rec.Article)
	if err != nil {
		return fmt.Errorf("failed to encode article: %w", err)
	}
	settingsJSON, err := json.Marshal(rec.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO articles
	(id, title, slug, status, provider, model, word_count, article_json, settings_json, wordpress_url, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Article.Title,
		rec.Article.Slug,
		string(rec.Status),
		rec.Provider,
		rec.Model,
		rec.Article.WordCount,
		string(articleJSON),
		string(settingsJSON),
		rec.WordPressURL,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save article: %w", err)
	}
	return nil
}

// GetArticle returns the article with the given ID. A unique ID prefix of
// at least six characters is accepted as well.
func (s *Store) GetArticle(ctx context.Context, id string) (*core.ArticleRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	rec, err := scanArticle(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if len(id) < 6 {
		return nil, notFound("article", id)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id LIKE ? LIMIT 2`, escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query article: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []*core.ArticleRecord
	for rows.Next() {
		rec, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read articles: %w", err)
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, notFound("article", id)
	default:
		return nil, core.NewAppError(core.ErrCodeValidation, fmt.Sprintf("article ID prefix %q is ambiguous", id), nil)
	}
}

// ListArticles returns the newest articles first. A non-positive limit
// returns all of them.
func (s *Store) ListArticles(ctx context.Context, limit int) ([]core.ArticleRecord, error) {
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []core.ArticleRecord{}
	for rows.Next() {
		rec, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// DeleteArticle removes an article by exact ID.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("article", id)
	}
	return nil
}

// MarkPublished records the WordPress URL and flips the status.
func (s *Store) MarkPublished(ctx context.Context, id, wordpressURL string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET status = ?, wordpress_url = ?, updated_at = ? WHERE id = ?`,
		string(core.StatusPublished), wordpressURL, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("article", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*core.ArticleRecord, error) {
	var (
		rec                       core.ArticleRecord
		articleJSON, settingsJSON string
		provider, model, wpURL    sql.NullString
		status                    string
	)

	err := row.Scan(&rec.ID, &articleJSON, &settingsJSON, &provider, &model, &status, &wpURL, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}

	if err := json.Unmarshal([]byte(articleJSON), &rec.Article); err != nil {
		return nil, fmt.Errorf("failed to decode article %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(settingsJSON), &rec.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings for %s: %w", rec.ID, err)
	}
	rec.Provider = provider.String
	rec.Model = model.String
	rec.Status = core.ArticleStatus(status)
	rec.WordPressURL = wpURL.String

	return &rec, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
