package pipeline

import (
	"fmt"

	"contentforge/internal/prompt"
	"contentforge/internal/visual"

	"github.com/rs/zerolog"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	generator  Generator
	researcher Researcher
	analyzer   CompetitorAnalyzer
	prompts    PromptBuilder
	voices     BrandVoiceSource
	links      InternalLinkSource
	sink       visual.Sink
	config     *Config
	log        zerolog.Logger
}

// NewBuilder creates a new pipeline builder with default settings
func NewBuilder() *Builder {
	return &Builder{
		config: DefaultConfig(),
		sink:   visual.DataURISink{},
		log:    zerolog.Nop(),
	}
}

// WithGenerator sets the text and image backend
func (b *Builder) WithGenerator(g Generator) *Builder {
	b.generator = g
	return b
}

// WithResearcher enables the web research stage
func (b *Builder) WithResearcher(r Researcher) *Builder {
	b.researcher = r
	return b
}

// WithCompetitorAnalyzer enables the competitor analysis stage
func (b *Builder) WithCompetitorAnalyzer(a CompetitorAnalyzer) *Builder {
	b.analyzer = a
	return b
}

// WithPromptBuilder overrides the prompt builder
func (b *Builder) WithPromptBuilder(pb PromptBuilder) *Builder {
	b.prompts = pb
	return b
}

// WithBrandVoices sets where brand voices are looked up
func (b *Builder) WithBrandVoices(src BrandVoiceSource) *Builder {
	b.voices = src
	return b
}

// WithInternalLinks sets where internal link candidates come from
func (b *Builder) WithInternalLinks(src InternalLinkSource) *Builder {
	b.links = src
	return b
}

// WithImageSink sets where generated images are stored
func (b *Builder) WithImageSink(s visual.Sink) *Builder {
	b.sink = s
	return b
}

// WithConfig sets the pipeline configuration
func (b *Builder) WithConfig(config *Config) *Builder {
	b.config = config
	return b
}

// WithLogger sets the logger
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build() (*Pipeline, error) {
	if b.generator == nil {
		return nil, fmt.Errorf("generator is required")
	}

	config := b.config
	if config == nil {
		config = DefaultConfig()
	}

	prompts := b.prompts
	if prompts == nil {
		prompts = prompt.NewBuilder(config.Year)
	}

	sink := b.sink
	if sink == nil {
		sink = visual.DataURISink{}
	}

	return &Pipeline{
		generator:  b.generator,
		researcher: b.researcher,
		analyzer:   b.analyzer,
		prompts:    prompts,
		voices:     b.voices,
		links:      b.links,
		sink:       sink,
		config:     config,
		log:        b.log.With().Str("component", "pipeline").Logger(),
	}, nil
}
