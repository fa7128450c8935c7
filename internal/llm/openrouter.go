package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"contentforge/internal/core"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// onlineSuffix switches an OpenRouter model to its web-search variant.
const onlineSuffix = ":online"

// OpenRouter talks to OpenRouter through its OpenAI-compatible API.
type OpenRouter struct {
	client *openai.Client
	opts   Options
}

// NewOpenRouter creates an OpenRouter provider. SDK retries are disabled so
// one Generate call is one upstream request.
func NewOpenRouter(apiKey string, opts Options) *OpenRouter {
	opts = opts.withDefaults(KindOpenRouter)

	baseURL := opts.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(opts.HTTPClient),
		option.WithMaxRetries(0),
		option.WithHeader("HTTP-Referer", opts.Referer),
		option.WithHeader("X-Title", opts.Title),
	)

	return &OpenRouter{client: &client, opts: opts}
}

func (o *OpenRouter) Name() string  { return string(KindOpenRouter) }
func (o *OpenRouter) Model() string { return o.opts.Model }

// Generate asks for a JSON object article in a single request.
func (o *OpenRouter) Generate(ctx context.Context, system, main string) (*core.GeneratedArticle, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(main),
		},
		Temperature: openai.Float(o.opts.Temperature),
		TopP:        openai.Float(o.opts.TopP),
		MaxTokens:   openai.Int(int64(o.opts.MaxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, o.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &core.ProviderError{Provider: o.Name(), Message: "no choices in response"}
	}

	return parseArticle(o.Name(), resp.Choices[0].Message.Content)
}

// GenerateImage is not available through OpenRouter.
func (o *OpenRouter) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	return nil, ErrImagesUnsupported
}

// Search uses the web-search variant of the configured model.
func (o *OpenRouter) Search(ctx context.Context, query string) (string, error) {
	model := o.opts.Model
	if !strings.HasSuffix(model, onlineSuffix) {
		model += onlineSuffix
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(researchPrompt(query)),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", o.wrapError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &core.ProviderError{Provider: o.Name(), Message: "empty search response"}
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenRouter) ping(ctx context.Context) error {
	_, err := o.client.Models.List(ctx)
	return err
}

func (o *OpenRouter) wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &core.ProviderError{Provider: o.Name(), StatusCode: apiErr.StatusCode, Message: msg, Err: err}
	}
	return &core.ProviderError{Provider: o.Name(), Message: err.Error(), Err: err}
}
