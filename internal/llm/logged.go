package llm

import (
	"context"
	"time"

	"contentforge/internal/core"

	"github.com/rs/zerolog"
)

// LoggedProvider wraps a Provider and logs latency and outcome of every call.
type LoggedProvider struct {
	next Provider
	log  zerolog.Logger
}

// WithLogging wraps p so each call is logged on log.
func WithLogging(p Provider, log zerolog.Logger) *LoggedProvider {
	return &LoggedProvider{
		next: p,
		log:  log.With().Str("component", "llm").Str("provider", p.Name()).Str("model", p.Model()).Logger(),
	}
}

// Unwrap returns the underlying provider.
func (lp *LoggedProvider) Unwrap() Provider { return lp.next }

func (lp *LoggedProvider) Name() string  { return lp.next.Name() }
func (lp *LoggedProvider) Model() string { return lp.next.Model() }

func (lp *LoggedProvider) Generate(ctx context.Context, system, main string) (*core.GeneratedArticle, error) {
	start := time.Now()
	article, err := lp.next.Generate(ctx, system, main)
	event := lp.done("generate", start, err).Int("prompt_chars", len(system)+len(main))
	if article != nil {
		event = event.Int("word_count", article.WordCount)
	}
	event.Msg("text generation finished")
	return article, err
}

func (lp *LoggedProvider) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	start := time.Now()
	img, err := lp.next.GenerateImage(ctx, prompt)
	event := lp.done("image", start, err)
	if img != nil {
		event = event.Int("bytes", len(img.Data))
	}
	event.Msg("image generation finished")
	return img, err
}

func (lp *LoggedProvider) Search(ctx context.Context, query string) (string, error) {
	start := time.Now()
	text, err := lp.next.Search(ctx, query)
	lp.done("search", start, err).Str("query", query).Int("chars", len(text)).Msg("web search finished")
	return text, err
}

func (lp *LoggedProvider) done(op string, start time.Time, err error) *zerolog.Event {
	event := lp.log.Debug()
	if err != nil {
		event = lp.log.Warn().Err(err)
	}
	return event.Str("op", op).Dur("latency", time.Since(start))
}
