package core

import (
	"encoding/json"
	"time"
)

// ExternalLink is an outbound citation the model placed in the article body.
type ExternalLink struct {
	URL        string `json:"url"`        // Target URL
	AnchorText string `json:"anchorText"` // Visible link text
	Title      string `json:"title"`      // Title of the linked resource
}

// InternalLinkUsage records an internal link the model actually used.
type InternalLinkUsage struct {
	URL        string `json:"url"`
	AnchorText string `json:"anchorText"`
}

// ImageType distinguishes the cover image from in-body illustrations.
type ImageType string

const (
	ImageTypeCover   ImageType = "cover"
	ImageTypeContent ImageType = "content"
)

// GeneratedImage is one image attached to an article after generation.
type GeneratedImage struct {
	URL     string    `json:"url"`     // Data URI, file path or remote URL
	Prompt  string    `json:"prompt"`  // Prompt the image was generated from
	AltText string    `json:"altText"` // Alt text and figure caption
	Type    ImageType `json:"type"`    // cover or content
}

// GeneratedArticle is the complete output of one generation run.
type GeneratedArticle struct {
	Title             string              `json:"title"`
	Content           string              `json:"content"` // HTML, markdown or text depending on OutputFormat
	MetaTitle         string              `json:"metaTitle"`
	MetaDescription   string              `json:"metaDescription"`
	Slug              string              `json:"slug"`
	SEOKeywords       []string            `json:"seoKeywords"`
	SchemaMarkup      json.RawMessage     `json:"schemaMarkup,omitempty"` // JSON-LD object as returned by the model
	ExternalLinks     []ExternalLink      `json:"externalLinks"`
	InternalLinksUsed []InternalLinkUsage `json:"internalLinksUsed"`
	WordCount         int                 `json:"wordCount"`
	ImagePrompts      []string            `json:"imagePrompts"`
	Images            []GeneratedImage    `json:"images"`
}

// CompetitorAnalysisResult summarizes one competitor page.
type CompetitorAnalysisResult struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	Keywords        []string `json:"keywords"`    // Most frequent content words
	Headings        []string `json:"headings"`    // h1-h4 text in document order
	WordCount       int      `json:"wordCount"`
	ContentGaps     []string `json:"contentGaps"` // Topics covered elsewhere but missing here
}

// BrandVoice is a named style profile applied to generated prose.
type BrandVoice struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Tone            string    `json:"tone"`
	Characteristics []string  `json:"characteristics"`
	StyleGuidelines string    `json:"styleGuidelines"`
	SampleContent   string    `json:"sampleContent"`
	CreatedAt       time.Time `json:"createdAt"`
}

// InternalLink is a page on the user's own site that articles may link to.
type InternalLink struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Keywords    []string  `json:"keywords"`
	SitemapURL  string    `json:"sitemapUrl,omitempty"` // Sitemap the link was imported from
	LastUpdated time.Time `json:"lastUpdated"`
}

// ArticleStatus tracks an article through the library.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
)

// ArticleRecord is a generated article as kept in the local library.
type ArticleRecord struct {
	ID           string             `json:"id"`
	Article      GeneratedArticle   `json:"article"`
	Settings     GenerationSettings `json:"settings"`
	Provider     string             `json:"provider"`
	Model        string             `json:"model"`
	Status       ArticleStatus      `json:"status"`
	WordPressURL string             `json:"wordpressUrl,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
