package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"contentforge/internal/core"
	"contentforge/internal/llm"
	"contentforge/internal/prompt"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeGenerator struct {
	mu        sync.Mutex
	article   *core.GeneratedArticle
	err       error
	imageErrs map[int]error // by image call number, starting at 1
	prompts   []string
	imgCalls  int
	genCalls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, system, main string) (*core.GeneratedArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genCalls++
	f.prompts = append(f.prompts, main)
	if f.err != nil {
		return nil, f.err
	}
	a := *f.article
	return &a, nil
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, p string) (*llm.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imgCalls++
	if err := f.imageErrs[f.imgCalls]; err != nil {
		return nil, err
	}
	return &llm.Image{Data: []byte("png"), MIMEType: "image/png"}, nil
}

func (f *fakeGenerator) Name() string  { return "fake" }
func (f *fakeGenerator) Model() string { return "fake-1" }

type fakeResearcher struct {
	brief string
	err   error
	terms []string
}

func (r *fakeResearcher) Brief(ctx context.Context, term string) (string, error) {
	r.terms = append(r.terms, term)
	return r.brief, r.err
}

type fakeAnalyzer struct {
	results []core.CompetitorAnalysisResult
}

func (a *fakeAnalyzer) AnalyzeAll(ctx context.Context, urls []string) []core.CompetitorAnalysisResult {
	return a.results
}

type fakeLibrary struct {
	voice *core.BrandVoice
	links []core.InternalLink
}

func (l *fakeLibrary) GetBrandVoice(ctx context.Context, id string) (*core.BrandVoice, error) {
	if l.voice == nil || (id != l.voice.ID && id != l.voice.Name) {
		return nil, core.NewNotFoundError("brand voice not found", nil)
	}
	return l.voice, nil
}

func (l *fakeLibrary) ListInternalLinks(ctx context.Context) ([]core.InternalLink, error) {
	return l.links, nil
}

func sampleArticle() *core.GeneratedArticle {
	return &core.GeneratedArticle{
		Title:             "Pour Over Coffee Guide",
		Content:           "## Gear\n\nYou need a kettle.\n\n## Beans\n\nBuy fresh beans.\n\n## Brewing\n\nPour slowly.",
		MetaTitle:         "Pour Over Coffee Guide",
		MetaDescription:   "Everything you need to brew a clean, sweet pour over at home, from gear to technique.",
		Slug:              "pour-over-coffee-guide",
		WordCount:         10,
		ImagePrompts:      []string{"cover", "one", "two", "three"},
		ExternalLinks:     []core.ExternalLink{},
		InternalLinksUsed: []core.InternalLinkUsage{},
	}
}

func baseSettings() core.GenerationSettings {
	s := core.DefaultSettings()
	s.Topic = "pour over coffee"
	s.WordCount = 300
	return s
}

func newTestPipeline(t *testing.T, g Generator, opts ...func(*Builder)) *Pipeline {
	t.Helper()
	b := NewBuilder().WithGenerator(g).WithPromptBuilder(prompt.NewBuilder(2025))
	for _, opt := range opts {
		opt(b)
	}
	p, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return p
}

func TestBuilderRequiresGenerator(t *testing.T) {
	if _, err := NewBuilder().Build(); err == nil {
		t.Error("Build without a generator should fail")
	}
}

func TestGenerateStagesInOrder(t *testing.T) {
	gen := &fakeGenerator{article: sampleArticle()}
	research := &fakeResearcher{brief: "Web research: 42% of drinkers prefer pour over."}
	analyzer := &fakeAnalyzer{results: []core.CompetitorAnalysisResult{{URL: "https://rival.test", Title: "Rival"}}}

	p := newTestPipeline(t, gen, func(b *Builder) {
		b.WithResearcher(research).WithCompetitorAnalyzer(analyzer)
	})

	s := baseSettings()
	s.EnableWebResearch = true
	s.WebSearchTerm = "pour over ratio"
	s.EnableCompetitorAnalysis = true
	s.CompetitorURLs = []string{"https://rival.test"}

	var events []Event
	result, err := p.Generate(context.Background(), s, func(ev Event) { events = append(events, ev) })
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	wantStages := []Stage{StageInit, StageResearch, StageCompetitors, StageGenerate, StageImages, StagePostProcess, StageDone}
	if len(events) != len(wantStages) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantStages), events)
	}
	for i, want := range wantStages {
		if events[i].Stage != want {
			t.Errorf("event %d stage = %s, want %s", i, events[i].Stage, want)
		}
		if events[i].Percent != want.Percent() {
			t.Errorf("event %d percent = %d, want %d", i, events[i].Percent, want.Percent())
		}
	}
	if events[len(events)-1].Percent != 100 {
		t.Error("last event should be 100%")
	}

	if len(research.terms) != 1 || research.terms[0] != "pour over ratio" {
		t.Errorf("research term = %v", research.terms)
	}
	if !strings.Contains(gen.prompts[0], "42% of drinkers") || !strings.Contains(gen.prompts[0], "Rival") {
		t.Error("research and competitor data should reach the prompt")
	}
	if result.Provider != "fake" || result.Model != "fake-1" || len(result.Competitors) != 1 {
		t.Errorf("unexpected result metadata: %+v", result)
	}
	if result.Article.Content != sampleArticle().Content {
		t.Error("markdown content should not be post-processed")
	}
	if result.Article.Images == nil {
		t.Error("images should be an empty slice, not nil")
	}
}

func TestGenerateReportsSkippedStages(t *testing.T) {
	gen := &fakeGenerator{article: sampleArticle()}
	p := newTestPipeline(t, gen)

	var events []Event
	if _, err := p.Generate(context.Background(), baseSettings(), func(ev Event) { events = append(events, ev) }); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var percents []int
	skipped := map[Stage]bool{}
	for _, ev := range events {
		percents = append(percents, ev.Percent)
		if ev.Detail == DetailSkipped {
			skipped[ev.Stage] = true
		}
	}
	if diff := cmp.Diff([]int{0, 10, 25, 40, 70, 90, 100}, percents); diff != "" {
		t.Errorf("progress checkpoints (-want +got):\n%s", diff)
	}
	for _, st := range []Stage{StageResearch, StageCompetitors, StageImages} {
		if !skipped[st] {
			t.Errorf("stage %s should be reported as skipped", st)
		}
	}
	if skipped[StageGenerate] {
		t.Error("generation ran and must not be marked skipped")
	}
}

func TestGenerateSkipsFailedResearch(t *testing.T) {
	gen := &fakeGenerator{article: sampleArticle()}
	p := newTestPipeline(t, gen, func(b *Builder) {
		b.WithResearcher(&fakeResearcher{err: errors.New("search down")}).
			WithCompetitorAnalyzer(&fakeAnalyzer{})
	})

	s := baseSettings()
	s.EnableWebResearch = true
	s.EnableCompetitorAnalysis = true
	s.CompetitorURLs = []string{"https://rival.test"}

	result, err := p.Generate(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("research failure should not abort the run: %v", err)
	}
	if result.Research != "" || len(result.Competitors) != 0 {
		t.Errorf("failed stages should leave no data: %+v", result)
	}
	if gen.genCalls != 1 {
		t.Errorf("expected one generate call, got %d", gen.genCalls)
	}
}

func TestGenerateProviderErrorAbortsBeforeImages(t *testing.T) {
	gen := &fakeGenerator{err: &core.ProviderError{Provider: "fake", StatusCode: 429, Message: "Resource has been exhausted"}}
	p := newTestPipeline(t, gen)

	s := baseSettings()
	s.GenerateImages = true
	s.OutputFormat = core.FormatMultimedia

	run := p.Start(context.Background(), s)
	var stages []Stage
	for ev := range run.Events() {
		stages = append(stages, ev.Stage)
	}
	result, err := run.Wait()

	if result != nil {
		t.Error("no partial article should be returned")
	}
	var provErr *core.ProviderError
	if !errors.As(err, &provErr) || provErr.StatusCode != 429 || !strings.Contains(err.Error(), "Resource has been exhausted") {
		t.Fatalf("expected ProviderError with upstream message, got %v", err)
	}
	if gen.imgCalls != 0 {
		t.Errorf("no image generation should be attempted, got %d calls", gen.imgCalls)
	}
	for _, st := range stages {
		if st == StageImages || st == StageDone {
			t.Errorf("unexpected stage %s after failed generation", st)
		}
	}
}

func TestGeneratePartialImageFailures(t *testing.T) {
	gen := &fakeGenerator{
		article: sampleArticle(),
		imageErrs: map[int]error{
			2: errors.New("quota"),
			3: errors.New("safety filter"),
		},
	}
	p := newTestPipeline(t, gen)

	s := baseSettings()
	s.OutputFormat = core.FormatMultimedia
	s.GenerateImages = true
	s.GenerateCoverImage = true
	s.NumContentImages = 3

	result, err := p.Generate(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("partial image failure should not fail the run: %v", err)
	}

	content := result.Article.Content
	if n := strings.Count(content, "<figure"); n != 1 {
		t.Errorf("expected exactly 1 content image, got %d", n)
	}
	if n := strings.Count(content, `class="cover-image"`); n != 1 {
		t.Errorf("expected exactly 1 cover image, got %d", n)
	}
	if len(result.ImageFailures) != 2 {
		t.Errorf("expected 2 image failures, got %d", len(result.ImageFailures))
	}
	if len(result.Article.Images) != 2 {
		t.Errorf("expected 2 stored images, got %d", len(result.Article.Images))
	}
	if !strings.HasPrefix(result.Article.Images[0].URL, "data:image/png;base64,") {
		t.Errorf("default sink should produce data URIs: %s", result.Article.Images[0].URL)
	}
	if !strings.Contains(content, `<div class="article-container">`) {
		t.Error("multimedia content should be wrapped in the container")
	}
	for _, text := range []string{"You need a kettle.", "Buy fresh beans.", "Pour slowly."} {
		if !strings.Contains(content, text) {
			t.Errorf("post-processing lost text %q", text)
		}
	}
}

func TestGenerateValidationError(t *testing.T) {
	gen := &fakeGenerator{article: sampleArticle()}
	p := newTestPipeline(t, gen)

	s := baseSettings()
	s.Topic = ""

	_, err := p.Generate(context.Background(), s, nil)
	if !core.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gen.genCalls != 0 {
		t.Error("invalid settings should never reach the generator")
	}
}

func TestGenerateUsesLibrary(t *testing.T) {
	article := sampleArticle()
	article.Content = "## Gear\n\nSee [our grinders](https://site.test/grinders)."
	article.InternalLinksUsed = []core.InternalLinkUsage{
		{URL: "https://site.test/grinders", AnchorText: "our grinders"},
		{URL: "https://site.test/invented", AnchorText: "made up"},
	}
	gen := &fakeGenerator{article: article}
	lib := &fakeLibrary{
		voice: &core.BrandVoice{ID: "v1", Name: "Barista", Tone: "warm"},
		links: []core.InternalLink{
			{URL: "https://site.test/grinders", Title: "Coffee grinders"},
			{URL: "https://site.test/tea", Title: "Tea"},
		},
	}
	p := newTestPipeline(t, gen, func(b *Builder) {
		b.WithBrandVoices(lib).WithInternalLinks(lib)
	})

	s := baseSettings()
	s.Topic = "coffee grinders"
	s.BrandVoiceID = "Barista"
	s.EnableInternalLinks = true

	result, err := p.Generate(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.BrandVoice == nil || result.BrandVoice.ID != "v1" {
		t.Errorf("brand voice not resolved: %+v", result.BrandVoice)
	}
	if len(result.InternalLinks) != 1 || result.InternalLinks[0].URL != "https://site.test/grinders" {
		t.Errorf("expected keyword-ranked candidates, got %+v", result.InternalLinks)
	}
	if !strings.Contains(gen.prompts[0], "https://site.test/grinders") {
		t.Error("candidate links should reach the prompt")
	}
	if used := result.Article.InternalLinksUsed; len(used) != 1 || used[0].AnchorText != "our grinders" {
		t.Errorf("internal links not reconciled: %+v", used)
	}
}

func TestGenerateCancelled(t *testing.T) {
	gen := &fakeGenerator{article: sampleArticle()}
	p := newTestPipeline(t, gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, baseSettings(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunWaitWithoutReadingEvents(t *testing.T) {
	gen := &fakeGenerator{article: sampleArticle()}
	p := newTestPipeline(t, gen)

	s := baseSettings()
	s.GenerateImages = true
	s.NumContentImages = 10

	result, err := p.Start(context.Background(), s).Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if result.Article == nil {
		t.Fatal("expected an article")
	}
}
