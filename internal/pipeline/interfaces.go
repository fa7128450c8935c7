package pipeline

import (
	"context"

	"contentforge/internal/core"
	"contentforge/internal/llm"
	"contentforge/internal/prompt"
)

// Generator produces the article text and its images. llm.Provider
// satisfies it.
type Generator interface {
	// Generate sends the prompts in one request and returns the validated
	// article.
	Generate(ctx context.Context, system, main string) (*core.GeneratedArticle, error)

	// GenerateImage renders one image prompt.
	GenerateImage(ctx context.Context, prompt string) (*llm.Image, error)

	Name() string
	Model() string
}

// Researcher turns a search term into a free-text research brief.
type Researcher interface {
	Brief(ctx context.Context, term string) (string, error)
}

// CompetitorAnalyzer summarizes competitor pages. Pages that cannot be
// analyzed are left out of the result.
type CompetitorAnalyzer interface {
	AnalyzeAll(ctx context.Context, urls []string) []core.CompetitorAnalysisResult
}

// PromptBuilder assembles the system and main prompts.
type PromptBuilder interface {
	Build(s core.GenerationSettings, in prompt.Inputs) (system, main string)
}

// BrandVoiceSource looks up a brand voice by ID or name.
type BrandVoiceSource interface {
	GetBrandVoice(ctx context.Context, idOrName string) (*core.BrandVoice, error)
}

// InternalLinkSource lists the site pages articles may link to.
type InternalLinkSource interface {
	ListInternalLinks(ctx context.Context) ([]core.InternalLink, error)
}
