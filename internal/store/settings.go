package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Setting keys the application reads.
const (
	SettingGeminiAPIKey      = "gemini_api_key"
	SettingOpenRouterAPIKey  = "openrouter_api_key"
	SettingPreferredProvider = "preferred_provider"
	SettingDefaultBrandVoice = "default_brand_voice"
	SettingWordPressURL      = "wordpress_url"
	SettingWordPressUser     = "wordpress_username"
	SettingWordPressPassword = "wordpress_app_password"
)

var secretSuffixes = []string{"_api_key", "_password"}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool {
	for _, suffix := range secretSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// DisplayValue returns value as it may be shown to a user: secrets keep
// only their last four characters.
func DisplayValue(key, value string) string {
	if !IsSecret(key) {
		return value
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

// GetSetting returns the stored value for key.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound("setting", key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SettingOr returns the stored value for key, or fallback when it is unset.
func (s *Store) SettingOr(ctx context.Context, key, fallback string) string {
	value, err := s.GetSetting(ctx, key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// ListSettings returns every stored setting.
func (s *Store) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// DeleteSetting removes key.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("setting", key)
	}
	return nil
}
