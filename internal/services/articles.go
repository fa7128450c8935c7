package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"contentforge/internal/competitor"
	"contentforge/internal/config"
	"contentforge/internal/core"
	"contentforge/internal/cost"
	"contentforge/internal/fetch"
	"contentforge/internal/llm"
	"contentforge/internal/pipeline"
	"contentforge/internal/prompt"
	"contentforge/internal/research"
	"contentforge/internal/search"
	"contentforge/internal/store"
	"contentforge/internal/visual"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProviderFactory builds the generation backend for a run.
type ProviderFactory func(ctx context.Context, keys llm.Keys, opts llm.Options) (llm.Provider, error)

// KeyTester probes one API key.
type KeyTester func(ctx context.Context, kind llm.Kind, key string, opts llm.Options) bool

// ArticleService generates, stores and publishes articles.
type ArticleService struct {
	cfg        *config.Config
	lib        Library
	log        zerolog.Logger
	httpClient *http.Client

	newProvider ProviderFactory
	testKey     KeyTester
	searchType  search.ProviderType
}

// NewArticleService wires the service from configuration.
func NewArticleService(cfg *config.Config, lib Library, log zerolog.Logger) *ArticleService {
	return &ArticleService{
		cfg:         cfg,
		lib:         lib,
		log:         log.With().Str("component", "articles").Logger(),
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		newProvider: llm.Select,
		testKey:     llm.TestKey,
		searchType:  search.ProviderType(cfg.Search.DefaultProvider),
	}
}

// WithProviderFactory replaces how generation backends are built.
func (s *ArticleService) WithProviderFactory(f ProviderFactory) *ArticleService {
	s.newProvider = f
	return s
}

// WithKeyTester replaces how API keys are probed.
func (s *ArticleService) WithKeyTester(t KeyTester) *ArticleService {
	s.testKey = t
	return s
}

// WithHTTPClient sets the client used for WordPress and image downloads.
func (s *ArticleService) WithHTTPClient(c *http.Client) *ArticleService {
	s.httpClient = c
	return s
}

// Library returns the underlying library.
func (s *ArticleService) Library() Library { return s.lib }

// Keys resolves the API keys for a run. Values in override win, then keys
// saved in the library, then configuration.
func (s *ArticleService) Keys(ctx context.Context, override llm.Keys) llm.Keys {
	keys := llm.Keys{
		Gemini:     s.cfg.AI.Gemini.APIKey,
		OpenRouter: s.cfg.AI.OpenRouter.APIKey,
		Preferred:  llm.Kind(s.cfg.AI.Provider),
	}
	if v := s.setting(ctx, store.SettingGeminiAPIKey); v != "" {
		keys.Gemini = v
	}
	if v := s.setting(ctx, store.SettingOpenRouterAPIKey); v != "" {
		keys.OpenRouter = v
	}
	if v := s.setting(ctx, store.SettingPreferredProvider); v != "" {
		keys.Preferred = llm.Kind(v)
	}

	if override.Gemini != "" {
		keys.Gemini = override.Gemini
	}
	if override.OpenRouter != "" {
		keys.OpenRouter = override.OpenRouter
	}
	if override.Preferred != "" {
		keys.Preferred = override.Preferred
	}
	return keys
}

func (s *ArticleService) setting(ctx context.Context, key string) string {
	v, err := s.lib.GetSetting(ctx, key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

// ProviderOptions returns the backend options for kind.
func (s *ArticleService) ProviderOptions(kind llm.Kind) llm.Options {
	if kind == llm.KindOpenRouter {
		c := s.cfg.AI.OpenRouter
		return llm.Options{
			Model:       c.Model,
			BaseURL:     c.BaseURL,
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
			Timeout:     config.Duration(c.Timeout, 0),
		}
	}
	c := s.cfg.AI.Gemini
	return llm.Options{
		Model:       c.Model,
		ImageModel:  c.ImageModel,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     config.Duration(c.Timeout, 0),
	}
}

// GenerateOptions adjusts one generation.
type GenerateOptions struct {
	Keys llm.Keys
	// ImagesDir stores images as files instead of data URIs.
	ImagesDir string
}

// NewPipeline builds a pipeline around the backend chosen for keys.
func (s *ArticleService) NewPipeline(ctx context.Context, opts GenerateOptions) (*pipeline.Pipeline, error) {
	keys := s.Keys(ctx, opts.Keys)
	kind, _, err := keys.Choose()
	if err != nil {
		return nil, core.NewConfigurationError(err.Error(), err)
	}

	provider, err := s.newProvider(ctx, keys, s.ProviderOptions(kind))
	if err != nil {
		return nil, err
	}
	provider = llm.WithLogging(provider, s.log)

	var searcher search.Provider
	if s.searchType != "" {
		searcher, err = search.NewProviderFactory().CreateProvider(ctx, s.searchType, s.cfg.SearchProviderConfig(string(s.searchType)))
		if err != nil {
			return nil, fmt.Errorf("failed to create search provider: %w", err)
		}
	}

	year := time.Now().Year()
	researcher := research.NewResearcher(searcher, provider, year, s.log).WithConfig(search.Config{
		MaxResults: s.cfg.Search.MaxResults,
		Language:   s.cfg.Search.Language,
	})
	analyzer := competitor.NewAnalyzer(fetch.NewClient(config.Duration(s.cfg.Research.FetchTimeout, 0)), s.cfg.Research.MaxCompetitors, s.log)

	var sink visual.Sink = visual.DataURISink{}
	dir := opts.ImagesDir
	if dir == "" {
		dir = s.cfg.Images.Directory
	}
	if dir != "" {
		sink = visual.FileSink{Dir: dir}
	}

	pcfg := pipeline.DefaultConfig()
	pcfg.ResearchTimeout = config.Duration(s.cfg.Research.Timeout, pcfg.ResearchTimeout)
	pcfg.CompetitorTimeout = config.Duration(s.cfg.Research.CompetitorTimeout, pcfg.CompetitorTimeout)
	pcfg.ImageTimeout = config.Duration(s.cfg.Images.Timeout, pcfg.ImageTimeout)
	pcfg.Year = year

	return pipeline.NewBuilder().
		WithGenerator(provider).
		WithResearcher(researcher).
		WithCompetitorAnalyzer(analyzer).
		WithBrandVoices(s.lib).
		WithInternalLinks(s.lib).
		WithImageSink(sink).
		WithConfig(pcfg).
		WithLogger(s.log).
		Build()
}

// Prepare fills library defaults into settings.
func (s *ArticleService) Prepare(ctx context.Context, settings core.GenerationSettings) core.GenerationSettings {
	if settings.BrandVoiceID == "" {
		settings.BrandVoiceID = s.setting(ctx, store.SettingDefaultBrandVoice)
	}
	return settings
}

// Start begins a generation. The caller drains run events and then calls
// Save with the result.
func (s *ArticleService) Start(ctx context.Context, settings core.GenerationSettings, opts GenerateOptions) (*pipeline.Run, core.GenerationSettings, error) {
	p, err := s.NewPipeline(ctx, opts)
	if err != nil {
		return nil, settings, err
	}
	settings = s.Prepare(ctx, settings)
	return p.Start(ctx, settings), settings, nil
}

// Generate runs a generation to completion and saves the article.
func (s *ArticleService) Generate(ctx context.Context, settings core.GenerationSettings, opts GenerateOptions, onEvent func(pipeline.Event)) (*core.ArticleRecord, *pipeline.Result, error) {
	run, settings, err := s.Start(ctx, settings, opts)
	if err != nil {
		return nil, nil, err
	}
	for ev := range run.Events() {
		if onEvent != nil {
			onEvent(ev)
		}
	}
	res, err := run.Wait()
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.Save(ctx, settings, res)
	if err != nil {
		return nil, res, err
	}
	return rec, res, nil
}

// Save stores a finished generation as a draft.
func (s *ArticleService) Save(ctx context.Context, settings core.GenerationSettings, res *pipeline.Result) (*core.ArticleRecord, error) {
	now := time.Now().UTC()
	rec := &core.ArticleRecord{
		ID:        uuid.NewString(),
		Article:   *res.Article,
		Settings:  settings,
		Provider:  res.Provider,
		Model:     res.Model,
		Status:    core.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.lib.SaveArticle(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save article: %w", err)
	}
	s.log.Info().Str("id", rec.ID).Str("title", rec.Article.Title).Msg("article saved")
	return rec, nil
}

// KeyStatus is the outcome of probing one backend.
type KeyStatus struct {
	Provider   llm.Kind `json:"provider"`
	Configured bool     `json:"configured"`
	Valid      bool     `json:"valid"`
}

// TestKeys probes the resolved key of each backend.
func (s *ArticleService) TestKeys(ctx context.Context, override llm.Keys) []KeyStatus {
	keys := s.Keys(ctx, override)
	probe := func(kind llm.Kind, key string) KeyStatus {
		st := KeyStatus{Provider: kind, Configured: strings.TrimSpace(key) != ""}
		if st.Configured {
			st.Valid = s.testKey(ctx, kind, key, s.ProviderOptions(kind))
		}
		return st
	}
	return []KeyStatus{
		probe(llm.KindGemini, keys.Gemini),
		probe(llm.KindOpenRouter, keys.OpenRouter),
	}
}

// Estimate predicts token usage and cost for settings without calling a
// backend. With no keys configured the default backend is assumed.
func (s *ArticleService) Estimate(ctx context.Context, settings core.GenerationSettings, opts GenerateOptions) (cost.Estimate, error) {
	if err := settings.Validate(); err != nil {
		return cost.Estimate{}, err
	}
	settings = s.Prepare(ctx, settings)

	kind, _, err := s.Keys(ctx, opts.Keys).Choose()
	if err != nil {
		kind = llm.KindGemini
	}
	popts := s.ProviderOptions(kind)

	in := prompt.Inputs{}
	if settings.BrandVoiceID != "" {
		if voice, err := s.lib.GetBrandVoice(ctx, settings.BrandVoiceID); err == nil {
			in.BrandVoice = voice
		}
	}
	system, main := prompt.NewBuilder(time.Now().Year()).Build(settings, in)

	req := cost.Request{
		System:    system,
		Main:      main,
		Settings:  settings,
		Model:     popts.Model,
		MaxTokens: popts.MaxTokens,
	}
	if kind == llm.KindGemini {
		req.ImageModel = popts.ImageModel
	}
	return cost.EstimateArticle(req), nil
}
