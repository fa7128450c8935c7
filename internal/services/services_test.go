package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"contentforge/internal/config"
	"contentforge/internal/core"
	"contentforge/internal/llm"
	"contentforge/internal/pipeline"
	"contentforge/internal/store"
	"contentforge/internal/wordpress"

	"github.com/rs/zerolog"
)

type stubProvider struct {
	mu      sync.Mutex
	prompts []string
}

func (p *stubProvider) Generate(ctx context.Context, system, main string) (*core.GeneratedArticle, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, main)
	p.mu.Unlock()
	return &core.GeneratedArticle{
		Title:           "Brewing Better Coffee",
		Content:         "## Grind\n\nUse a burr grinder.\n\n## Water\n\nHeat to 94C.",
		MetaTitle:       "Brewing Better Coffee",
		MetaDescription: "A practical guide to brewing better coffee at home with simple tools.",
		Slug:            "brewing-better-coffee",
		WordCount:       9,
	}, nil
}

func (p *stubProvider) GenerateImage(ctx context.Context, prompt string) (*llm.Image, error) {
	return &llm.Image{Data: []byte("png"), MIMEType: "image/png"}, nil
}

func (p *stubProvider) Search(ctx context.Context, query string) (string, error) {
	return "research notes for " + query, nil
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-1" }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.AI.Gemini.APIKey = "cfg-gemini"
	cfg.Research.MaxCompetitors = 5
	cfg.Sitemap.BatchSize = 2
	cfg.WordPress.DefaultStatus = wordpress.StatusDraft
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) (*ArticleService, *store.Store, *stubProvider) {
	t.Helper()
	st, err := store.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	provider := &stubProvider{}
	svc := NewArticleService(cfg, st, zerolog.Nop()).
		WithProviderFactory(func(ctx context.Context, keys llm.Keys, opts llm.Options) (llm.Provider, error) {
			if _, _, err := keys.Choose(); err != nil {
				return nil, err
			}
			return provider, nil
		})
	return svc, st, provider
}

func TestKeysPrecedence(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t, testConfig())

	keys := svc.Keys(ctx, llm.Keys{})
	if keys.Gemini != "cfg-gemini" || keys.OpenRouter != "" {
		t.Errorf("config keys not used: %+v", keys)
	}

	_ = st.SetSetting(ctx, store.SettingGeminiAPIKey, "saved-gemini")
	_ = st.SetSetting(ctx, store.SettingOpenRouterAPIKey, "saved-or")
	_ = st.SetSetting(ctx, store.SettingPreferredProvider, "openrouter")

	keys = svc.Keys(ctx, llm.Keys{})
	if keys.Gemini != "saved-gemini" || keys.OpenRouter != "saved-or" || keys.Preferred != llm.KindOpenRouter {
		t.Errorf("saved settings should override config: %+v", keys)
	}

	keys = svc.Keys(ctx, llm.Keys{Gemini: "request", Preferred: llm.KindGemini})
	if keys.Gemini != "request" || keys.OpenRouter != "saved-or" || keys.Preferred != llm.KindGemini {
		t.Errorf("request keys should win: %+v", keys)
	}
}

func TestGenerateSavesDraft(t *testing.T) {
	ctx := context.Background()
	svc, st, provider := newTestService(t, testConfig())

	settings := core.DefaultSettings()
	settings.Topic = "coffee brewing"
	settings.EnableWebResearch = true
	settings.GenerateImages = true
	settings.NumContentImages = 1

	var stages []pipeline.Stage
	rec, res, err := svc.Generate(ctx, settings, GenerateOptions{}, func(ev pipeline.Event) {
		stages = append(stages, ev.Stage)
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if rec.Status != core.StatusDraft || rec.Provider != "stub" || rec.Settings.BrandVoiceID != "" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if len(rec.Article.Images) != 2 || !strings.HasPrefix(rec.Article.Images[0].URL, "data:image/png;base64,") {
		t.Errorf("images not generated: %+v", rec.Article.Images)
	}
	if !strings.Contains(res.Research, "research notes for coffee brewing") {
		t.Errorf("provider search should back research, got %q", res.Research)
	}
	if len(provider.prompts) != 1 || !strings.Contains(provider.prompts[0], "research notes") {
		t.Error("research should reach the prompt")
	}
	if stages[len(stages)-1] != pipeline.StageDone {
		t.Errorf("last stage = %s", stages[len(stages)-1])
	}

	got, err := st.GetArticle(ctx, rec.ID)
	if err != nil || got.Article.Title != "Brewing Better Coffee" {
		t.Errorf("article not stored: %v %+v", err, got)
	}
}

func TestGenerateUsesDefaultBrandVoice(t *testing.T) {
	ctx := context.Background()
	svc, st, provider := newTestService(t, testConfig())
	_ = st.SetSetting(ctx, store.SettingDefaultBrandVoice, store.DefaultVoiceName)

	settings := core.DefaultSettings()
	settings.Topic = "coffee"
	rec, res, err := svc.Generate(ctx, settings, GenerateOptions{}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if rec.Settings.BrandVoiceID != store.DefaultVoiceName || res.BrandVoice == nil {
		t.Errorf("default brand voice not applied: %+v", rec.Settings)
	}
	if !strings.Contains(provider.prompts[0], store.DefaultVoiceName) {
		t.Error("brand voice should reach the prompt")
	}
}

func TestGenerateWithoutKeys(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Gemini.APIKey = ""
	svc, _, _ := newTestService(t, cfg)

	settings := core.DefaultSettings()
	settings.Topic = "coffee"
	_, _, err := svc.Generate(context.Background(), settings, GenerateOptions{}, nil)
	if !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if core.HTTPStatusCode(err) != http.StatusBadRequest {
		t.Errorf("missing keys should map to 400, got %d", core.HTTPStatusCode(err))
	}
}

func TestEstimate(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Gemini.Model = "gemini-2.0-flash-exp"
	cfg.AI.Gemini.ImageModel = "imagen-3.0-generate-001"
	cfg.AI.OpenRouter.Model = "anthropic/claude-3.5-sonnet"
	svc, _, provider := newTestService(t, cfg)

	settings := core.DefaultSettings()
	settings.Topic = "coffee"
	settings.GenerateImages = true
	settings.NumContentImages = 2

	est, err := svc.Estimate(context.Background(), settings, GenerateOptions{})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if est.Model != "gemini-2.0-flash-exp" || est.Images != 3 || est.InputTokens == 0 || est.TotalCost <= 0 {
		t.Errorf("unexpected gemini estimate: %+v", est)
	}
	if len(provider.prompts) != 0 {
		t.Error("Estimate must not call the backend")
	}

	est, err = svc.Estimate(context.Background(), settings, GenerateOptions{
		Keys: llm.Keys{OpenRouter: "or-key", Preferred: llm.KindOpenRouter},
	})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if est.Model != "anthropic/claude-3.5-sonnet" || est.Images != 0 {
		t.Errorf("openrouter estimate should have no images: %+v", est)
	}

	settings.Topic = ""
	if _, err := svc.Estimate(context.Background(), settings, GenerateOptions{}); !core.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestTestKeys(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	svc.WithKeyTester(func(ctx context.Context, kind llm.Kind, key string, opts llm.Options) bool {
		return key == "good"
	})

	got := svc.TestKeys(context.Background(), llm.Keys{Gemini: "good"})
	want := []KeyStatus{
		{Provider: llm.KindGemini, Configured: true, Valid: true},
		{Provider: llm.KindOpenRouter},
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("TestKeys = %+v, want %+v", got, want)
	}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()

	var post map[string]any
	wp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&post)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":5,"link":"https://blog.test/coffee","status":"publish"}`)
	}))
	defer wp.Close()

	svc, st, _ := newTestService(t, testConfig())
	svc.WithHTTPClient(wp.Client())

	settings := core.DefaultSettings()
	settings.Topic = "coffee"
	rec, _, err := svc.Generate(ctx, settings, GenerateOptions{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Publish(ctx, PublishRequest{ID: rec.ID}); core.HTTPStatusCode(err) != http.StatusBadRequest {
		t.Errorf("publishing without a site should be a configuration error, got %v", err)
	}

	_ = st.SetSetting(ctx, store.SettingWordPressURL, wp.URL)
	_ = st.SetSetting(ctx, store.SettingWordPressUser, "editor")
	_ = st.SetSetting(ctx, store.SettingWordPressPassword, "secret")

	if _, _, err := svc.Publish(ctx, PublishRequest{ID: rec.ID, Status: "later"}); core.HTTPStatusCode(err) != http.StatusBadRequest {
		t.Errorf("unknown status should be rejected, got %v", err)
	}

	published, res, err := svc.Publish(ctx, PublishRequest{ID: rec.ID[:8], Status: wordpress.StatusPublish})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if res.Post.ID != 5 || published.WordPressURL != "https://blog.test/coffee" {
		t.Errorf("unexpected publish result: %+v %+v", res.Post, published)
	}
	if post["status"] != "publish" || !strings.Contains(post["content"].(string), "<h2>Grind</h2>") {
		t.Errorf("unexpected post body: %v", post)
	}

	stored, _ := st.GetArticle(ctx, rec.ID)
	if stored.Status != core.StatusPublished {
		t.Errorf("article should be marked published, got %s", stored.Status)
	}
}

func TestImportAndSearchLinks(t *testing.T) {
	ctx := context.Background()

	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<urlset><url><loc>%[1]s/espresso</loc></url><url><loc>%[1]s/tea</loc></url></urlset>`, base)
	})
	mux.HandleFunc("/espresso", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><head><title>Espresso Basics</title></head></html>`)
	})
	mux.HandleFunc("/tea", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><head><title>Green Tea</title></head></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	base = srv.URL

	svc, _, _ := newTestService(t, testConfig())

	links, err := svc.SearchLinks(ctx, "", 10)
	if err != nil || len(links) != 0 {
		t.Fatalf("empty library should return no links, got %v %v", links, err)
	}

	res, err := svc.ImportSitemap(ctx, srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("ImportSitemap failed: %v", err)
	}
	if res.Found != 2 || res.Added != 2 {
		t.Errorf("unexpected import result: %+v", res)
	}

	res, err = svc.ImportSitemap(ctx, srv.URL+"/sitemap.xml")
	if err != nil || res.Added != 0 {
		t.Errorf("reimport should add nothing: %+v %v", res, err)
	}

	links, err = svc.SearchLinks(ctx, "espresso", 5)
	if err != nil || len(links) != 1 || links[0].Title != "Espresso Basics" {
		t.Errorf("SearchLinks = %+v, %v", links, err)
	}
	links, _ = svc.SearchLinks(ctx, "", 1)
	if len(links) != 1 {
		t.Errorf("limit not applied: %d", len(links))
	}
}
