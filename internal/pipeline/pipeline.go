// Package pipeline sequences one article generation run: research,
// competitor analysis, generation, images and post-processing.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contentforge/internal/core"
	"contentforge/internal/markdown"
	"contentforge/internal/prompt"
	"contentforge/internal/sitemap"
	"contentforge/internal/visual"

	"github.com/rs/zerolog"
)

// eventBuffer holds every event a run can emit, so a caller that only
// waits never stalls the run.
const eventBuffer = 32

// Pipeline orchestrates article generation. It holds no per-run state and
// is safe for concurrent runs.
type Pipeline struct {
	generator  Generator
	researcher Researcher
	analyzer   CompetitorAnalyzer
	prompts    PromptBuilder
	voices     BrandVoiceSource
	links      InternalLinkSource
	sink       visual.Sink

	config *Config
	log    zerolog.Logger
}

// Config holds pipeline configuration
type Config struct {
	ResearchTimeout   time.Duration
	CompetitorTimeout time.Duration
	ImageTimeout      time.Duration

	// Year anchors freshness instructions in prompts
	Year int

	Quality QualityGateConfig
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		ResearchTimeout:   2 * time.Minute,
		CompetitorTimeout: time.Minute,
		ImageTimeout:      2 * time.Minute,
		Year:              time.Now().Year(),
		Quality:           DefaultQualityGateConfig(),
	}
}

// Result is the outcome of a successful run.
type Result struct {
	Article       *core.GeneratedArticle
	Provider      string
	Model         string
	Research      string
	Competitors   []core.CompetitorAnalysisResult
	BrandVoice    *core.BrandVoice
	InternalLinks []core.InternalLink // Candidates offered to the model
	ImageFailures []*core.PartialResourceFailure
	Warnings      []string
	Duration      time.Duration
}

// Run is one generation in progress.
type Run struct {
	events chan Event
	done   chan struct{}
	result *Result
	err    error
}

// Events returns the progress stream. It is closed when the run ends.
func (r *Run) Events() <-chan Event { return r.events }

// Wait blocks until the run ends and returns its outcome.
func (r *Run) Wait() (*Result, error) {
	<-r.done
	return r.result, r.err
}

func (r *Run) emit(ev Event) { r.events <- ev }

// Start begins a run in the background.
func (p *Pipeline) Start(ctx context.Context, settings core.GenerationSettings) *Run {
	run := &Run{
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(run.done)
		defer close(run.events)
		run.result, run.err = p.execute(ctx, settings, run.emit)
	}()
	return run
}

// Generate runs the pipeline to completion, passing each progress event to
// onEvent, which may be nil.
func (p *Pipeline) Generate(ctx context.Context, settings core.GenerationSettings, onEvent func(Event)) (*Result, error) {
	run := p.Start(ctx, settings)
	for ev := range run.Events() {
		if onEvent != nil {
			onEvent(ev)
		}
	}
	return run.Wait()
}

func (p *Pipeline) execute(ctx context.Context, settings core.GenerationSettings, emit func(Event)) (*Result, error) {
	start := time.Now()

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if p.generator == nil {
		return nil, core.NewConfigurationError("no generator configured", nil)
	}

	log := p.log.With().Str("topic", settings.Topic).Logger()
	emit(newEvent(StageInit, ""))

	result := &Result{
		Provider: p.generator.Name(),
		Model:    p.generator.Model(),
	}
	in := prompt.Inputs{}

	// Step 1: web research
	if !settings.EnableWebResearch || p.researcher == nil {
		emit(newEvent(StageResearch, DetailSkipped))
	} else {
		emit(newEvent(StageResearch, settings.SearchTerm()))
		rctx, cancel := context.WithTimeout(ctx, p.config.ResearchTimeout)
		brief, err := p.researcher.Brief(rctx, settings.SearchTerm())
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("web research skipped")
		} else {
			in.Research = brief
			result.Research = brief
		}
	}

	// Step 2: competitor analysis
	if !settings.EnableCompetitorAnalysis || len(settings.CompetitorURLs) == 0 || p.analyzer == nil {
		emit(newEvent(StageCompetitors, DetailSkipped))
	} else {
		emit(newEvent(StageCompetitors, fmt.Sprintf("%d URLs", len(settings.CompetitorURLs))))
		cctx, cancel := context.WithTimeout(ctx, p.config.CompetitorTimeout)
		in.Competitors = p.analyzer.AnalyzeAll(cctx, settings.CompetitorURLs)
		cancel()
		result.Competitors = in.Competitors
		if len(in.Competitors) == 0 {
			log.Warn().Msg("competitor analysis produced no results")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in.BrandVoice = p.brandVoice(ctx, settings, log)
	result.BrandVoice = in.BrandVoice
	in.InternalLinks = p.internalLinks(ctx, settings, log)
	result.InternalLinks = in.InternalLinks

	// Step 3: generation
	emit(newEvent(StageGenerate, p.generator.Name()))
	system, main := p.prompts.Build(settings, in)
	article, err := p.generator.Generate(ctx, system, main)
	if err != nil {
		log.Error().Err(err).Msg("article generation failed")
		return nil, fmt.Errorf("article generation failed: %w", err)
	}

	// Step 4: images
	images, failures, err := p.generateImages(ctx, article, settings, emit, log)
	if err != nil {
		return nil, err
	}
	result.ImageFailures = failures

	// Step 5: post-processing
	emit(newEvent(StagePostProcess, ""))
	article.Images = images
	article.Content = Assemble(article.Content, images, settings.OutputFormat)
	if settings.EnableInternalLinks && len(in.InternalLinks) > 0 {
		article.InternalLinksUsed = markdown.ReconcileInternalLinks(article.Content, article.InternalLinksUsed, in.InternalLinks)
	}
	result.Warnings = RunQualityGates(article, p.config.Quality.Gates(settings, in.InternalLinks))
	for _, w := range result.Warnings {
		log.Debug().Str("warning", w).Msg("quality gate")
	}

	result.Article = article
	result.Duration = time.Since(start)
	emit(newEvent(StageDone, ""))

	log.Info().
		Str("provider", result.Provider).
		Int("word_count", article.WordCount).
		Int("images", len(images)).
		Int("image_failures", len(failures)).
		Dur("duration", result.Duration).
		Msg("article generated")

	return result, nil
}

func (p *Pipeline) generateImages(ctx context.Context, article *core.GeneratedArticle, settings core.GenerationSettings, emit func(Event), log zerolog.Logger) ([]core.GeneratedImage, []*core.PartialResourceFailure, error) {
	plan := prompt.ImagePlan(article, settings)
	if len(plan) == 0 {
		emit(newEvent(StageImages, DetailSkipped))
		return []core.GeneratedImage{}, nil, nil
	}

	emit(newEvent(StageImages, fmt.Sprintf("%d images", len(plan))))

	images := []core.GeneratedImage{}
	var failures []*core.PartialResourceFailure
	contentIndex := 0

	for i, req := range plan {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		name := imageName(article.Slug, req.Type, contentIndex)
		if req.Type == core.ImageTypeContent {
			contentIndex++
		}
		emit(newEvent(StageImages, fmt.Sprintf("image %d of %d", i+1, len(plan))))

		url, err := p.renderImage(ctx, req.Prompt, name)
		if err != nil {
			failure := &core.PartialResourceFailure{Resource: string(req.Type) + " image", Index: i, Err: err}
			failures = append(failures, failure)
			log.Warn().Err(err).Int("index", i).Str("type", string(req.Type)).Msg("image skipped")
			continue
		}

		images = append(images, core.GeneratedImage{
			URL:     url,
			Prompt:  req.Prompt,
			AltText: req.AltText,
			Type:    req.Type,
		})
	}
	return images, failures, nil
}

func (p *Pipeline) renderImage(ctx context.Context, imagePrompt, name string) (string, error) {
	ictx, cancel := context.WithTimeout(ctx, p.config.ImageTimeout)
	defer cancel()

	img, err := p.generator.GenerateImage(ictx, imagePrompt)
	if err != nil {
		return "", err
	}
	return p.sink.Store(ictx, name, img)
}

func imageName(slug string, t core.ImageType, index int) string {
	if slug == "" {
		slug = "article"
	}
	if t == core.ImageTypeCover {
		return slug + "-cover"
	}
	return fmt.Sprintf("%s-%d", slug, index+1)
}

func (p *Pipeline) brandVoice(ctx context.Context, settings core.GenerationSettings, log zerolog.Logger) *core.BrandVoice {
	id := strings.TrimSpace(settings.BrandVoiceID)
	if id == "" || p.voices == nil {
		return nil
	}
	voice, err := p.voices.GetBrandVoice(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("brand_voice", id).Msg("brand voice skipped")
		return nil
	}
	return voice
}

// internalLinks picks the link candidates offered to the model: pages
// matching the keyword first, otherwise the first pages of the site.
func (p *Pipeline) internalLinks(ctx context.Context, settings core.GenerationSettings, log zerolog.Logger) []core.InternalLink {
	if !settings.EnableInternalLinks || p.links == nil {
		return nil
	}
	all, err := p.links.ListInternalLinks(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("internal links skipped")
		return nil
	}

	keyword := settings.TargetKeyword
	if strings.TrimSpace(keyword) == "" {
		keyword = settings.Topic
	}
	if ranked := sitemap.Search(all, keyword, prompt.MaxInternalLinks); len(ranked) > 0 {
		return ranked
	}
	if len(all) > prompt.MaxInternalLinks {
		all = all[:prompt.MaxInternalLinks]
	}
	return all
}
