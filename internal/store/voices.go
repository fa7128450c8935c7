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
	"github.com/mattn/go-sqlite3"
)

// DefaultVoiceName is the brand voice every new library starts with.
const DefaultVoiceName = "Default Professional"

// DefaultVoice returns the seeded brand voice.
func DefaultVoice() core.BrandVoice {
	return core.BrandVoice{
		Name:        DefaultVoiceName,
		Description: "Clear, authoritative and approachable writing for a general professional audience.",
		Tone:        "professional",
		Characteristics: []string{
			"Uses concrete data and examples",
			"Explains jargon on first use",
			"Short paragraphs and active voice",
			"Confident without hype",
		},
		StyleGuidelines: "Address the reader as \"you\". Prefer plain words. Back claims with sources.",
	}
}

func (s *Store) seedDefaultVoice() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM brand_voices`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count brand voices: %w", err)
	}
	if count > 0 {
		return nil
	}
	voice := DefaultVoice()
	return s.SaveBrandVoice(context.Background(), &voice)
}

// SaveBrandVoice inserts or updates a brand voice by ID, generating an ID
// when missing. A name already used by another voice is a ValidationError.
func (s *Store) SaveBrandVoice(ctx context.Context, v *core.BrandVoice) error {
	if strings.TrimSpace(v.Name) == "" {
		return core.NewValidationError("name", "brand voice name is required")
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	if v.Characteristics == nil {
		v.Characteristics = []string{}
	}

	characteristics, err := json.Marshal(v.Characteristics)
	if err != nil {
		return fmt.Errorf("failed to encode characteristics: %w", err)
	}

	query := `
	INSERT INTO brand_voices
	(id, name, description, tone, characteristics, style_guidelines, sample_content, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		tone = excluded.tone,
		characteristics = excluded.characteristics,
		style_guidelines = excluded.style_guidelines,
		sample_content = excluded.sample_content`

	_, err = s.db.ExecContext(ctx, query,
		v.ID, v.Name, v.Description, v.Tone, string(characteristics), v.StyleGuidelines, v.SampleContent, v.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return core.NewValidationError("name", fmt.Sprintf("brand voice %q already exists", v.Name))
		}
		return fmt.Errorf("failed to save brand voice: %w", err)
	}
	return nil
}

const voiceColumns = `id, name, description, tone, characteristics, style_guidelines, sample_content, created_at`

// GetBrandVoice looks a voice up by ID or by case-insensitive name.
func (s *Store) GetBrandVoice(ctx context.Context, idOrName string) (*core.BrandVoice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+voiceColumns+` FROM brand_voices WHERE id = ? OR lower(name) = lower(?) LIMIT 1`,
		idOrName, idOrName)

	v, err := scanVoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("brand voice", idOrName)
	}
	return v, err
}

// ListBrandVoices returns all voices ordered by name.
func (s *Store) ListBrandVoices(ctx context.Context) ([]core.BrandVoice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+voiceColumns+` FROM brand_voices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand voices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var voices []core.BrandVoice
	for rows.Next() {
		v, err := scanVoice(rows)
		if err != nil {
			return nil, err
		}
		voices = append(voices, *v)
	}
	return voices, rows.Err()
}

func scanVoice(row scanner) (*core.BrandVoice, error) {
	var (
		v                                     core.BrandVoice
		description, tone, guidelines, sample sql.NullString
		characteristics                       string
	)
	err := row.Scan(&v.ID, &v.Name, &description, &tone, &characteristics, &guidelines, &sample, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan brand voice: %w", err)
	}

	v.Description = description.String
	v.Tone = tone.String
	v.StyleGuidelines = guidelines.String
	v.SampleContent = sample.String
	if err := json.Unmarshal([]byte(characteristics), &v.Characteristics); err != nil {
		v.Characteristics = []string{}
	}
	return &v, nil
}
