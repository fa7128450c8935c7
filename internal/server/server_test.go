package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contentforge/internal/config"
	"contentforge/internal/core"
	"contentforge/internal/cost"
	"contentforge/internal/llm"
	"contentforge/internal/services"
	"contentforge/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{}

func (stubProvider) Generate(ctx context.Context, system, main string) (*core.GeneratedArticle, error) {
	return &core.GeneratedArticle{
		Title:           "Home Espresso Guide",
		Content:         "## Beans\n\nFresh beans matter.",
		MetaTitle:       "Home Espresso Guide",
		MetaDescription: "Everything you need to pull a great shot of espresso at home, step by step.",
		Slug:            "home-espresso-guide",
		WordCount:       4,
	}, nil
}

func (stubProvider) GenerateImage(ctx context.Context, prompt string) (*llm.Image, error) {
	return nil, llm.ErrImagesUnsupported
}

func (stubProvider) Search(ctx context.Context, query string) (string, error) { return "notes", nil }
func (stubProvider) Name() string                                             { return "stub" }
func (stubProvider) Model() string                                            { return "stub-1" }

type testEnv struct {
	handler http.Handler
	store   *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{}
	cfg.AI.Gemini.APIKey = "test-key"
	cfg.WordPress.DefaultStatus = "draft"

	svc := services.NewArticleService(cfg, st, zerolog.Nop()).
		WithProviderFactory(func(ctx context.Context, keys llm.Keys, opts llm.Options) (llm.Provider, error) {
			return stubProvider{}, nil
		}).
		WithKeyTester(func(ctx context.Context, kind llm.Kind, key string, opts llm.Options) bool {
			return key == "valid"
		})

	srv := New(svc, config.Server{Host: "localhost", Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second}, zerolog.Nop())
	return &testEnv{handler: srv.Router(), store: st}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestGenerateAndLibrary(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/articles/generate", `{"settings":{"topic":"espresso at home","wordCount":800}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[GenerateResponse](t, rec)
	require.NotNil(t, resp.Article)
	assert.Equal(t, "Home Espresso Guide", resp.Article.Article.Title)
	assert.Equal(t, 800, resp.Article.Settings.WordCount)
	assert.Equal(t, core.FormatMarkdown, resp.Article.Settings.OutputFormat, "unset fields keep defaults")
	id := resp.Article.ID

	rec = env.do(t, http.MethodGet, "/api/articles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Articles []ArticleSummary `json:"articles"`
		Count    int              `json:"count"`
	}](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, id, list.Articles[0].ID)
	assert.Equal(t, "espresso at home", list.Articles[0].Topic)

	rec = env.do(t, http.MethodGet, "/api/articles/"+id[:8], "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[core.ArticleRecord](t, rec).ID)

	rec = env.do(t, http.MethodDelete, "/api/articles/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/articles/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEstimate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/articles/estimate", `{"settings":{"topic":"espresso at home","wordCount":1000}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	est := decode[cost.Estimate](t, rec)
	assert.Positive(t, est.InputTokens)
	assert.Equal(t, cost.EstimateOutputTokens(1000), est.OutputTokens)

	list := decode[struct {
		Count int `json:"count"`
	}](t, env.do(t, http.MethodGet, "/api/articles", ""))
	assert.Zero(t, list.Count, "estimate must not save an article")

	rec = env.do(t, http.MethodPost, "/api/articles/estimate", `{"settings":{"wordCount":1000}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateStream(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/articles/generate", `{"settings":{"topic":"espresso"}}`, "Accept", "text/event-stream")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: progress\ndata: {\"stage\":\"init\"")
	assert.Contains(t, body, "event: done\n")
	assert.Less(t, strings.Index(body, `"stage":"generate"`), strings.Index(body, "event: done"))
}

func TestGenerateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"settings":`},
		{"missing topic", `{"settings":{"wordCount":1000}}`},
		{"word count", `{"settings":{"topic":"x","wordCount":50}}`},
		{"provider", `{"settings":{"topic":"x"},"apiKeys":{"preferred":"claude"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/articles/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, http.StatusBadRequest, decode[errorBody](t, rec).Error.Status)
		})
	}
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/settings/wordpress_url", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/settings/gemini_api_key", `{"value":"AIzaSecret1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "**********1234", decode[settingBody](t, rec).Value)

	stored, err := env.store.GetSetting(context.Background(), "gemini_api_key")
	require.NoError(t, err)
	assert.Equal(t, "AIzaSecret1234", stored)

	env.do(t, http.MethodPut, "/api/settings/wordpress_url", `{"value":"https://blog.test"}`)
	rec = env.do(t, http.MethodGet, "/api/settings/wordpress_url", "")
	assert.Equal(t, "https://blog.test", decode[settingBody](t, rec).Value)

	rec = env.do(t, http.MethodGet, "/api/settings", "")
	all := decode[map[string]map[string]string](t, rec)["settings"]
	assert.Equal(t, "**********1234", all["gemini_api_key"])
}

func TestTestKeys(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/keys/test", `{"openRouter":"valid"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	results := decode[struct {
		Results []services.KeyStatus `json:"results"`
	}](t, rec).Results
	require.Len(t, results, 2)
	assert.Equal(t, services.KeyStatus{Provider: llm.KindGemini, Configured: true, Valid: false}, results[0])
	assert.Equal(t, services.KeyStatus{Provider: llm.KindOpenRouter, Configured: true, Valid: true}, results[1])
}

func TestInternalLinks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/internal-links?q=espresso", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"links":[],"count":0}`, rec.Body.String())

	_, err := env.store.SaveInternalLinks(context.Background(), []core.InternalLink{
		{URL: "https://site.test/espresso", Title: "Espresso Basics"},
		{URL: "https://site.test/tea", Title: "Tea"},
	})
	require.NoError(t, err)

	rec = env.do(t, http.MethodGet, "/api/internal-links?q=espresso", "")
	links := decode[struct {
		Links []core.InternalLink `json:"links"`
	}](t, rec).Links
	require.Len(t, links, 1)
	assert.Equal(t, "Espresso Basics", links[0].Title)

	rec = env.do(t, http.MethodGet, "/api/internal-links?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/internal-links/import", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishWithoutSite(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/articles/generate", `{"settings":{"topic":"espresso"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[GenerateResponse](t, rec).Article.ID

	rec = env.do(t, http.MethodPost, "/api/articles/"+id+"/publish", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/articles/missing-id/publish", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
