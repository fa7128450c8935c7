// Package cost estimates token usage and spend for a generation before any
// request is sent.
package cost

import (
	"math"
	"strings"
	"unicode/utf8"

	"contentforge/internal/core"
)

// Pricing is the list price of one model in USD.
type Pricing struct {
	Model                 string
	InputCostPer1MTokens  float64
	OutputCostPer1MTokens float64
	CostPerImage          float64
}

// PricingTable holds list prices for the default models.
var PricingTable = map[string]Pricing{
	"gemini-2.0-flash-exp": {
		Model:                 "gemini-2.0-flash-exp",
		InputCostPer1MTokens:  0.10,
		OutputCostPer1MTokens: 0.40,
	},
	"gemini-2.0-flash": {
		Model:                 "gemini-2.0-flash",
		InputCostPer1MTokens:  0.10,
		OutputCostPer1MTokens: 0.40,
	},
	"gemini-1.5-pro": {
		Model:                 "gemini-1.5-pro",
		InputCostPer1MTokens:  1.25,
		OutputCostPer1MTokens: 5.00,
	},
	"anthropic/claude-3.5-sonnet": {
		Model:                 "anthropic/claude-3.5-sonnet",
		InputCostPer1MTokens:  3.00,
		OutputCostPer1MTokens: 15.00,
	},
	"openai/gpt-4o": {
		Model:                 "openai/gpt-4o",
		InputCostPer1MTokens:  2.50,
		OutputCostPer1MTokens: 10.00,
	},
	"imagen-3.0-generate-001": {
		Model:        "imagen-3.0-generate-001",
		CostPerImage: 0.03,
	},
}

const (
	// outputTokensPer400Words is 1.35 tokens per English word plus 15% for
	// headings, HTML tags and JSON escaping.
	outputTokensPer400Words = 621
	// metadataTokens covers title, meta fields, slug, keywords, schema and
	// links in the JSON reply.
	metadataTokens = 600
)

// EstimateTokenCount provides a rough estimation of token count for text.
// One token is about 3.5 characters of English text.
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")

	charCount := utf8.RuneCountInString(text)
	return int(math.Ceil(float64(charCount) / 3.5))
}

// EstimateOutputTokens predicts the size of the model reply for a target
// word count.
func EstimateOutputTokens(wordCount int) int {
	if wordCount <= 0 {
		return metadataTokens
	}
	return (wordCount*outputTokensPer400Words+399)/400 + metadataTokens
}

// Estimate is the predicted usage of one generation.
type Estimate struct {
	Model        string  `json:"model"`
	ImageModel   string  `json:"imageModel,omitempty"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	Images       int     `json:"images"`
	TextCost     float64 `json:"textCost"`
	ImageCost    float64 `json:"imageCost"`
	TotalCost    float64 `json:"totalCost"`
	// PriceKnown is false when a model is missing from PricingTable; costs
	// for that model are then zero.
	PriceKnown bool `json:"priceKnown"`
	// ExceedsMaxTokens is set when the predicted reply does not fit the
	// configured output limit.
	ExceedsMaxTokens bool `json:"exceedsMaxTokens"`
}

// Request describes what will be sent.
type Request struct {
	System     string
	Main       string
	Settings   core.GenerationSettings
	Model      string
	ImageModel string // empty when the backend cannot generate images
	MaxTokens  int
}

// EstimateArticle estimates one generation. Research and competitor prompts
// are not included since they depend on fetched content.
func EstimateArticle(req Request) Estimate {
	est := Estimate{
		Model:        req.Model,
		InputTokens:  EstimateTokenCount(req.System) + EstimateTokenCount(req.Main),
		OutputTokens: EstimateOutputTokens(req.Settings.WordCount),
		PriceKnown:   true,
	}
	if req.MaxTokens > 0 && est.OutputTokens > req.MaxTokens {
		est.ExceedsMaxTokens = true
	}

	if pricing, ok := PricingTable[req.Model]; ok {
		est.TextCost = float64(est.InputTokens)*pricing.InputCostPer1MTokens/1_000_000 +
			float64(est.OutputTokens)*pricing.OutputCostPer1MTokens/1_000_000
	} else {
		est.PriceKnown = false
	}

	if req.ImageModel != "" && req.Settings.GenerateImages {
		est.ImageModel = req.ImageModel
		est.Images = req.Settings.NumContentImages
		if req.Settings.GenerateCoverImage {
			est.Images++
		}
		if pricing, ok := PricingTable[req.ImageModel]; ok {
			est.ImageCost = float64(est.Images) * pricing.CostPerImage
		} else if est.Images > 0 {
			est.PriceKnown = false
		}
	}

	est.TotalCost = est.TextCost + est.ImageCost
	return est
}
