package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"contentforge/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewStore(tmpDir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if store.db == nil {
		t.Error("Store database should not be nil")
	}

	dbPath := filepath.Join(tmpDir, DBFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should be created")
	}
	if store.Path() != dbPath {
		t.Errorf("Path() = %s, want %s", store.Path(), dbPath)
	}
}

func TestNewStore_InvalidDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	invalidPath := filepath.Join(tmpDir, "file.txt")
	_ = os.WriteFile(invalidPath, []byte("test"), 0644)

	_, err := NewStore(invalidPath)
	if err == nil {
		t.Error("Expected error when creating store in invalid directory")
	}
}

func TestNewStore_ReopenKeepsSeedOnce(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		store, err := NewStore(dir)
		if err != nil {
			t.Fatalf("NewStore #%d failed: %v", i, err)
		}
		voices, err := store.ListBrandVoices(context.Background())
		if err != nil {
			t.Fatalf("ListBrandVoices failed: %v", err)
		}
		if len(voices) != 1 || voices[0].Name != DefaultVoiceName {
			t.Errorf("open #%d: expected only the default voice, got %+v", i, voices)
		}
		_ = store.Close()
	}
}

func sampleRecord(title string, created time.Time) *core.ArticleRecord {
	settings := core.DefaultSettings()
	settings.Topic = title
	return &core.ArticleRecord{
		Article: core.GeneratedArticle{
			Title:       title,
			Content:     "## Intro\n\nBody text.",
			Slug:        "slug-" + title,
			SEOKeywords: []string{"coffee"},
			WordCount:   3,
		},
		Settings:  settings,
		Provider:  "gemini",
		Model:     "gemini-2.0-flash-exp",
		CreatedAt: created,
	}
}

func TestSaveAndGetArticle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("Pour Over", time.Now().UTC())
	if err := store.SaveArticle(ctx, rec); err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}
	if rec.ID == "" || rec.Status != core.StatusDraft || rec.UpdatedAt.IsZero() {
		t.Fatalf("SaveArticle should fill ID, status and timestamps: %+v", rec)
	}

	got, err := store.GetArticle(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if got.Article.Title != "Pour Over" || got.Settings.Topic != "Pour Over" || got.Provider != "gemini" {
		t.Errorf("round trip lost data: %+v", got)
	}
	if len(got.Article.SEOKeywords) != 1 || got.Article.SEOKeywords[0] != "coffee" {
		t.Errorf("keywords not restored: %v", got.Article.SEOKeywords)
	}

	byPrefix, err := store.GetArticle(ctx, rec.ID[:8])
	if err != nil {
		t.Fatalf("GetArticle by prefix failed: %v", err)
	}
	if byPrefix.ID != rec.ID {
		t.Errorf("prefix lookup returned %s, want %s", byPrefix.ID, rec.ID)
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"abc", "does-not-exist"} {
		_, err := store.GetArticle(ctx, id)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetArticle(%q) error = %v, want ErrNotFound", id, err)
		}
		if core.HTTPStatusCode(err) != 404 {
			t.Errorf("GetArticle(%q) should map to 404, got %d", id, core.HTTPStatusCode(err))
		}
	}
}

func TestGetArticle_AmbiguousPrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"abcdef-1", "abcdef-2"} {
		rec := sampleRecord(id, time.Now().UTC())
		rec.ID = id
		if err := store.SaveArticle(ctx, rec); err != nil {
			t.Fatalf("SaveArticle failed: %v", err)
		}
	}

	_, err := store.GetArticle(ctx, "abcdef")
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != core.ErrCodeValidation {
		t.Errorf("expected ambiguous prefix validation error, got %v", err)
	}
}

func TestListArticles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		if err := store.SaveArticle(ctx, sampleRecord(title, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveArticle failed: %v", err)
		}
	}

	all, err := store.ListArticles(ctx, 0)
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(all) != 3 || all[0].Article.Title != "third" || all[2].Article.Title != "first" {
		t.Errorf("expected newest first, got %v", titles(all))
	}

	limited, err := store.ListArticles(ctx, 2)
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 articles, got %d", len(limited))
	}
}

func titles(recs []core.ArticleRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Article.Title
	}
	return out
}

func TestDeleteArticle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("gone", time.Now().UTC())
	if err := store.SaveArticle(ctx, rec); err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}
	if err := store.DeleteArticle(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteArticle failed: %v", err)
	}
	if _, err := store.GetArticle(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted article still readable: %v", err)
	}
	if err := store.DeleteArticle(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should report not found, got %v", err)
	}
}

func TestMarkPublished(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("live", time.Now().UTC())
	if err := store.SaveArticle(ctx, rec); err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}
	if err := store.MarkPublished(ctx, rec.ID, "https://blog.test/live"); err != nil {
		t.Fatalf("MarkPublished failed: %v", err)
	}

	got, err := store.GetArticle(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if got.Status != core.StatusPublished || got.WordPressURL != "https://blog.test/live" {
		t.Errorf("publish not recorded: %+v", got)
	}

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.ArticleCount != 1 || stats.PublishedCount != 1 || stats.BrandVoiceCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if err := store.MarkPublished(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetSetting(ctx, SettingPreferredProvider); !errors.Is(err, ErrNotFound) {
		t.Errorf("unset key should be not found, got %v", err)
	}
	if got := store.SettingOr(ctx, SettingPreferredProvider, "gemini"); got != "gemini" {
		t.Errorf("SettingOr fallback = %q", got)
	}

	if err := store.SetSetting(ctx, SettingPreferredProvider, "openrouter"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := store.SetSetting(ctx, SettingPreferredProvider, "gemini"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	if err := store.SetSetting(ctx, SettingWordPressURL, "https://blog.test"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	value, err := store.GetSetting(ctx, SettingPreferredProvider)
	if err != nil || value != "gemini" {
		t.Errorf("GetSetting = %q, %v", value, err)
	}

	all, err := store.ListSettings(ctx)
	if err != nil {
		t.Fatalf("ListSettings failed: %v", err)
	}
	if len(all) != 2 || all[SettingWordPressURL] != "https://blog.test" {
		t.Errorf("ListSettings = %v", all)
	}

	if err := store.DeleteSetting(ctx, SettingWordPressURL); err != nil {
		t.Fatalf("DeleteSetting failed: %v", err)
	}
	if err := store.DeleteSetting(ctx, SettingWordPressURL); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should report not found, got %v", err)
	}
}

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{SettingGeminiAPIKey, "AIzaSyExample1234", "*************1234"},
		{SettingWordPressPassword, "abc", "***"},
		{SettingWordPressURL, "https://blog.test", "https://blog.test"},
		{SettingPreferredProvider, "gemini", "gemini"},
	}
	for _, tt := range tests {
		if got := DisplayValue(tt.key, tt.value); got != tt.want {
			t.Errorf("DisplayValue(%s, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestBrandVoices(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	def, err := store.GetBrandVoice(ctx, "default professional")
	if err != nil {
		t.Fatalf("default voice lookup by name failed: %v", err)
	}
	if len(def.Characteristics) == 0 {
		t.Error("default voice should carry characteristics")
	}

	voice := &core.BrandVoice{
		Name:            "Barista",
		Tone:            "friendly",
		Characteristics: []string{"warm", "hands-on"},
		SampleContent:   "Grab your kettle.",
	}
	if err := store.SaveBrandVoice(ctx, voice); err != nil {
		t.Fatalf("SaveBrandVoice failed: %v", err)
	}

	got, err := store.GetBrandVoice(ctx, voice.ID)
	if err != nil {
		t.Fatalf("GetBrandVoice by ID failed: %v", err)
	}
	if got.Name != "Barista" || len(got.Characteristics) != 2 || got.SampleContent != "Grab your kettle." {
		t.Errorf("voice round trip lost data: %+v", got)
	}

	voices, err := store.ListBrandVoices(ctx)
	if err != nil {
		t.Fatalf("ListBrandVoices failed: %v", err)
	}
	if len(voices) != 2 || voices[0].Name != "Barista" {
		t.Errorf("expected voices sorted by name, got %+v", voices)
	}

	dup := &core.BrandVoice{Name: "Barista"}
	if err := store.SaveBrandVoice(ctx, dup); !core.IsValidationError(err) {
		t.Errorf("duplicate voice name should be a validation error, got %v", err)
	}
	if _, err := store.GetBrandVoice(ctx, voice.ID); err != nil {
		t.Errorf("original voice lost after duplicate save: %v", err)
	}

	voice.Tone = "playful"
	if err := store.SaveBrandVoice(ctx, voice); err != nil {
		t.Fatalf("updating voice failed: %v", err)
	}
	if got, _ := store.GetBrandVoice(ctx, voice.ID); got == nil || got.Tone != "playful" {
		t.Errorf("update not applied: %+v", got)
	}
	if err := store.SaveBrandVoice(ctx, &core.BrandVoice{Name: " "}); !core.IsValidationError(err) {
		t.Errorf("blank name should be a validation error, got %v", err)
	}
	if _, err := store.GetBrandVoice(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInternalLinks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lastMod := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	links := []core.InternalLink{
		{URL: "https://site.test/a", Title: "A", Keywords: []string{"grinder"}, SitemapURL: "https://site.test/sitemap.xml", LastUpdated: lastMod},
		{URL: "https://site.test/b", Title: "B", SitemapURL: "https://site.test/sitemap.xml"},
	}

	n, err := store.SaveInternalLinks(ctx, links)
	if err != nil || n != 2 {
		t.Fatalf("SaveInternalLinks = %d, %v", n, err)
	}
	n, err = store.SaveInternalLinks(ctx, append(links, core.InternalLink{URL: "https://other.test/c", Title: "C", SitemapURL: "https://other.test/sitemap.xml"}))
	if err != nil || n != 1 {
		t.Fatalf("re-import should only add the new URL, got %d, %v", n, err)
	}

	got, err := store.ListInternalLinks(ctx)
	if err != nil {
		t.Fatalf("ListInternalLinks failed: %v", err)
	}
	if len(got) != 3 || got[0].URL != "https://site.test/a" {
		t.Fatalf("unexpected links: %+v", got)
	}
	if len(got[0].Keywords) != 1 || !got[0].LastUpdated.Equal(lastMod) {
		t.Errorf("link fields not restored: %+v", got[0])
	}
	if got[1].Keywords == nil {
		t.Error("keywords should decode to an empty slice")
	}

	removed, err := store.DeleteInternalLinks(ctx, "https://site.test/sitemap.xml")
	if err != nil || removed != 2 {
		t.Errorf("DeleteInternalLinks = %d, %v", removed, err)
	}
	removed, err = store.DeleteInternalLinks(ctx, "")
	if err != nil || removed != 1 {
		t.Errorf("DeleteInternalLinks(all) = %d, %v", removed, err)
	}
}
