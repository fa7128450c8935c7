package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"contentforge/internal/core"

	_ "github.com/mattn/go-sqlite3"
)

// DBFile is the database file name inside the data directory.
const DBFile = "contentforge.db"

// ErrNotFound is wrapped by every lookup that matched no row.
var ErrNotFound = errors.New("record not found")

// Store is the SQLite-backed local library: generated articles, settings,
// brand voices and internal link candidates.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new store instance with SQLite database
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables and seeds the default brand voice
func (s *Store) initialize() error {
	articlesTable := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		provider TEXT,
		model TEXT,
		word_count INTEGER,
		article_json TEXT NOT NULL,
		settings_json TEXT NOT NULL,
		wordpress_url TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`

	settingsTable := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME
	);`

	voicesTable := `
	CREATE TABLE IF NOT EXISTS brand_voices (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		tone TEXT,
		characteristics TEXT,
		style_guidelines TEXT,
		sample_content TEXT,
		created_at DATETIME
	);`

	linksTable := `
	CREATE TABLE IF NOT EXISTS internal_links (
		url TEXT PRIMARY KEY,
		title TEXT,
		excerpt TEXT,
		keywords TEXT,
		sitemap_url TEXT,
		last_updated DATETIME,
		created_at DATETIME
	);`

	indexes := `CREATE INDEX IF NOT EXISTS idx_articles_created ON articles (created_at DESC);`

	for _, stmt := range []string{articlesTable, settingsTable, voicesTable, linksTable, indexes} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return s.seedDefaultVoice()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Stats summarizes the library contents.
type Stats struct {
	ArticleCount      int
	PublishedCount    int
	InternalLinkCount int
	BrandVoiceCount   int
	DatabaseSize      int64
	LastUpdated       time.Time
}

// GetStats returns row counts and the database file size
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	queries := []struct {
		query  string
		target *int
	}{
		{"SELECT COUNT(*) FROM articles", &stats.ArticleCount},
		{"SELECT COUNT(*) FROM articles WHERE status = 'published'", &stats.PublishedCount},
		{"SELECT COUNT(*) FROM internal_links", &stats.InternalLinkCount},
		{"SELECT COUNT(*) FROM brand_voices", &stats.BrandVoiceCount},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.target); err != nil {
			return nil, fmt.Errorf("failed to get count: %w", err)
		}
	}

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats.DatabaseSize = fileInfo.Size()
		stats.LastUpdated = fileInfo.ModTime()
	}

	return stats, nil
}

func notFound(kind, key string) error {
	return core.NewNotFoundError(fmt.Sprintf("%s %q not found", kind, key), ErrNotFound)
}
