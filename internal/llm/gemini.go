package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contentforge/internal/core"

	"google.golang.org/genai"
)

// Gemini talks to the Gemini API for text, Imagen for pictures and the
// Google Search tool for research.
type Gemini struct {
	client *genai.Client
	opts   Options
}

// NewGemini creates a Gemini provider. Options.BaseURL overrides the API
// endpoint.
func NewGemini(ctx context.Context, apiKey string, opts Options) (*Gemini, error) {
	opts = opts.withDefaults(KindGemini)

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{client: client, opts: opts}, nil
}

func (g *Gemini) Name() string  { return string(KindGemini) }
func (g *Gemini) Model() string { return g.opts.Model }

// Generate asks for a JSON article in a single request.
func (g *Gemini) Generate(ctx context.Context, system, main string) (*core.GeneratedArticle, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(float32(g.opts.Temperature)),
		TopP:              genai.Ptr(float32(g.opts.TopP)),
		MaxOutputTokens:   int32(g.opts.MaxTokens),
		ResponseMIMEType:  "application/json",
	}

	text, err := g.generateText(ctx, main, config)
	if err != nil {
		return nil, err
	}
	return parseArticle(g.Name(), text)
}

// GenerateImage renders one 16:9 image with Imagen.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.opts.ImageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    "16:9",
	})
	if err != nil {
		return nil, g.wrapError(err)
	}

	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}
		mimeType := generated.Image.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return &Image{Data: generated.Image.ImageBytes, MIMEType: mimeType}, nil
	}

	return nil, &core.ProviderError{Provider: g.Name(), Message: "no image in response"}
}

// Search runs a grounded query through the Google Search tool.
func (g *Gemini) Search(ctx context.Context, query string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	text, err := g.generateText(ctx, researchPrompt(query), config)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", &core.ProviderError{Provider: g.Name(), Message: "empty search response"}
	}
	return text, nil
}

func (g *Gemini) generateText(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  genai.RoleUser,
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, config)
	if err != nil {
		return "", g.wrapError(err)
	}
	return resp.Text(), nil
}

func (g *Gemini) ping(ctx context.Context) error {
	_, err := g.client.Models.Get(ctx, g.opts.Model, nil)
	return err
}

func (g *Gemini) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &core.ProviderError{Provider: g.Name(), StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &core.ProviderError{Provider: g.Name(), StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message, Err: err}
	}
	return &core.ProviderError{Provider: g.Name(), Message: err.Error(), Err: err}
}

func researchPrompt(query string) string {
	return fmt.Sprintf(`Research the topic %q using current web sources.

Summarize in plain text:
- Key facts and recent statistics, with the source for each
- Common questions people ask about it
- Recent developments or trends
- Expert opinions worth citing

Keep it under 500 words.`, query)
}
