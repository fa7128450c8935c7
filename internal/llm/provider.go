package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"contentforge/internal/core"
	"contentforge/internal/parser"
)

// Kind identifies a generation backend.
type Kind string

const (
	KindGemini     Kind = "gemini"
	KindOpenRouter Kind = "openrouter"
)

const (
	// DefaultGeminiModel is the Gemini model used for article text and search.
	DefaultGeminiModel = "gemini-2.0-flash-exp"
	// DefaultImageModel is the Imagen model used for cover and content images.
	DefaultImageModel = "imagen-3.0-generate-001"
	// DefaultOpenRouterModel is the OpenRouter model used for article text.
	DefaultOpenRouterModel = "anthropic/claude-3.5-sonnet"
	// OpenRouterBaseURL is the OpenAI-compatible endpoint of OpenRouter.
	OpenRouterBaseURL = "https://openrouter.ai/api/v1/"

	DefaultTemperature = 0.7
	DefaultTopP        = 0.95
	DefaultMaxTokens   = 8192

	defaultTimeout = 5 * time.Minute
)

var (
	// ErrMissingAPIKey is returned when no backend has a key configured.
	ErrMissingAPIKey = errors.New("no API key configured: set GEMINI_API_KEY or OPENROUTER_API_KEY")
	// ErrUnsupportedProvider is returned for an unknown backend name.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrImagesUnsupported is returned by backends without image generation.
	ErrImagesUnsupported = errors.New("image generation is not supported by this provider")
)

// Image is raw generated image data.
type Image struct {
	Data     []byte
	MIMEType string
}

// Provider generates article text, images and research for one backend.
type Provider interface {
	// Generate sends one request with the system and main prompts and
	// returns the validated article.
	Generate(ctx context.Context, system, main string) (*core.GeneratedArticle, error)
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
	// Search returns a free-text research summary for query.
	Search(ctx context.Context, query string) (string, error)
	Name() string
	Model() string
}

// Options tunes a provider. Zero values fall back to package defaults.
type Options struct {
	Model       string
	ImageModel  string
	BaseURL     string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
	HTTPClient  *http.Client

	// Referer and Title are sent to OpenRouter for app attribution.
	Referer string
	Title   string
}

func (o Options) withDefaults(kind Kind) Options {
	if o.Model == "" {
		switch kind {
		case KindOpenRouter:
			o.Model = DefaultOpenRouterModel
		default:
			o.Model = DefaultGeminiModel
		}
	}
	if o.ImageModel == "" {
		o.ImageModel = DefaultImageModel
	}
	if o.BaseURL == "" && kind == KindOpenRouter {
		o.BaseURL = OpenRouterBaseURL
	}
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.TopP == 0 {
		o.TopP = DefaultTopP
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Timeout == 0 {
		o.Timeout = defaultTimeout
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Title == "" {
		o.Title = "ContentForge AI"
	}
	if o.Referer == "" {
		o.Referer = "https://contentforge.local"
	}
	return o
}

// Keys holds the API keys a caller supplied for a run.
type Keys struct {
	Gemini     string
	OpenRouter string
	// Preferred picks a backend when both keys are present.
	Preferred Kind
}

// Choose reports which backend Select would use.
func (k Keys) Choose() (Kind, string, error) {
	gemini := strings.TrimSpace(k.Gemini)
	openRouter := strings.TrimSpace(k.OpenRouter)

	switch {
	case k.Preferred == KindOpenRouter && openRouter != "":
		return KindOpenRouter, openRouter, nil
	case k.Preferred == KindGemini && gemini != "":
		return KindGemini, gemini, nil
	case gemini != "":
		return KindGemini, gemini, nil
	case openRouter != "":
		return KindOpenRouter, openRouter, nil
	}
	return "", "", ErrMissingAPIKey
}

// Select builds exactly one provider for a run. There is no fallback to the
// other backend once a run has started.
func Select(ctx context.Context, keys Keys, opts Options) (Provider, error) {
	kind, key, err := keys.Choose()
	if err != nil {
		return nil, err
	}
	return New(ctx, kind, key, opts)
}

// New builds the provider for kind.
func New(ctx context.Context, kind Kind, apiKey string, opts Options) (Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	switch kind {
	case KindGemini:
		return NewGemini(ctx, apiKey, opts)
	case KindOpenRouter:
		return NewOpenRouter(apiKey, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, kind)
	}
}

// ParseKind maps a user-supplied provider name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindGemini:
		return KindGemini, nil
	case KindOpenRouter:
		return KindOpenRouter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
}

// TestKey probes a key with the cheapest authenticated call the backend
// offers. Any failure, including a network error, reports false.
func TestKey(ctx context.Context, kind Kind, key string, opts Options) bool {
	if strings.TrimSpace(key) == "" {
		return false
	}
	switch kind {
	case KindGemini:
		p, err := NewGemini(ctx, key, opts)
		if err != nil {
			return false
		}
		return p.ping(ctx) == nil
	case KindOpenRouter:
		return NewOpenRouter(key, opts).ping(ctx) == nil
	}
	return false
}

// parseArticle turns reply text into an article, classifying every failure
// as a provider error so callers can treat the backend as the culprit.
func parseArticle(provider, text string) (*core.GeneratedArticle, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &core.ProviderError{Provider: provider, Message: "empty response from model"}
	}
	article, err := parser.ParseReply(text)
	if err != nil {
		return nil, &core.ProviderError{Provider: provider, Message: "unparsable response", Err: err}
	}
	return article, nil
}
