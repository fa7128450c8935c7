package core

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ArticleType selects the structural outline used for an article.
type ArticleType string

const (
	ArticleTypeInformational  ArticleType = "informational"
	ArticleTypeProductReview  ArticleType = "product-review"
	ArticleTypeProductRoundup ArticleType = "product-roundup"
	ArticleTypeGuide          ArticleType = "guide"
	ArticleTypeListicle       ArticleType = "listicle"
)

// ArticleTypes lists every supported article type in display order.
func ArticleTypes() []ArticleType {
	return []ArticleType{
		ArticleTypeInformational,
		ArticleTypeProductReview,
		ArticleTypeProductRoundup,
		ArticleTypeGuide,
		ArticleTypeListicle,
	}
}

// OutputFormat is the shape of GeneratedArticle.Content.
type OutputFormat string

const (
	FormatText       OutputFormat = "text"
	FormatMultimedia OutputFormat = "multimedia"
	FormatMarkdown   OutputFormat = "markdown"
)

// Tone of voice requested for the article.
type Tone string

const (
	ToneAuthoritative  Tone = "authoritative"
	ToneConversational Tone = "conversational"
	ToneTechnical      Tone = "technical"
	ToneFriendly       Tone = "friendly"
	ToneProfessional   Tone = "professional"
)

// GenerationSettings is the immutable input of one generation run.
type GenerationSettings struct {
	Topic             string       `json:"topic" yaml:"topic"`
	WebSearchTerm     string       `json:"webSearchTerm,omitempty" yaml:"web_search_term"`
	TargetKeyword     string       `json:"targetKeyword,omitempty" yaml:"target_keyword"`
	ArticleType       ArticleType  `json:"articleType" yaml:"article_type"`
	OutputFormat      OutputFormat `json:"outputFormat" yaml:"output_format"`
	Tone              Tone         `json:"tone" yaml:"tone"`
	Language          string       `json:"language" yaml:"language"`
	IntendedAudience  string       `json:"intendedAudience,omitempty" yaml:"intended_audience"`
	AdditionalContext string       `json:"additionalContext,omitempty" yaml:"additional_context"`
	WordCount         int          `json:"wordCount" yaml:"word_count"`
	CustomOutline     string       `json:"customOutline,omitempty" yaml:"custom_outline"`

	// Research
	EnableWebResearch        bool     `json:"enableWebResearch" yaml:"enable_web_research"`
	EnableCompetitorAnalysis bool     `json:"enableCompetitorAnalysis" yaml:"enable_competitor_analysis"`
	CompetitorURLs           []string `json:"competitorUrls,omitempty" yaml:"competitor_urls"`

	// Content flags
	EnableFirstPerson       bool   `json:"enableFirstPerson" yaml:"enable_first_person"`
	EnableStories           bool   `json:"enableStories" yaml:"enable_stories"`
	EnableHook              bool   `json:"enableHook" yaml:"enable_hook"`
	EnableHTMLElements      bool   `json:"enableHtmlElements" yaml:"enable_html_elements"`
	HTMLElementInstructions string `json:"htmlElementInstructions,omitempty" yaml:"html_element_instructions"`
	EnableCitations         bool   `json:"enableCitations" yaml:"enable_citations"`
	EnableInternalLinks     bool   `json:"enableInternalLinks" yaml:"enable_internal_links"`
	EnableExternalLinks     bool   `json:"enableExternalLinks" yaml:"enable_external_links"`

	// Images
	GenerateImages     bool `json:"generateImages" yaml:"generate_images"`
	NumContentImages   int  `json:"numContentImages" yaml:"num_content_images"`
	GenerateCoverImage bool `json:"generateCoverImage" yaml:"generate_cover_image"`

	BrandVoiceID    string `json:"brandVoiceId,omitempty" yaml:"brand_voice_id"`
	WordPressSiteID string `json:"wordpressSiteId,omitempty" yaml:"wordpress_site_id"`
}

// DefaultSettings returns the settings a new article starts from.
func DefaultSettings() GenerationSettings {
	return GenerationSettings{
		ArticleType:         ArticleTypeInformational,
		OutputFormat:        FormatMarkdown,
		Tone:                ToneConversational,
		Language:            "English",
		WordCount:           2000,
		EnableExternalLinks: true,
		NumContentImages:    3,
		GenerateCoverImage:  true,
	}
}

const (
	minWordCount     = 300
	maxWordCount     = 10000
	maxContentImages = 10
)

// Validate checks the settings once at the pipeline boundary. All problems
// are reported together.
func (s GenerationSettings) Validate() error {
	var problems []string

	if strings.TrimSpace(s.Topic) == "" {
		problems = append(problems, "topic is required")
	}
	if !validArticleType(s.ArticleType) {
		problems = append(problems, fmt.Sprintf("unknown article type %q", s.ArticleType))
	}
	switch s.OutputFormat {
	case FormatText, FormatMultimedia, FormatMarkdown:
	default:
		problems = append(problems, fmt.Sprintf("unknown output format %q", s.OutputFormat))
	}
	switch s.Tone {
	case ToneAuthoritative, ToneConversational, ToneTechnical, ToneFriendly, ToneProfessional:
	default:
		problems = append(problems, fmt.Sprintf("unknown tone %q", s.Tone))
	}
	if strings.TrimSpace(s.Language) == "" {
		problems = append(problems, "language is required")
	}
	if s.WordCount < minWordCount || s.WordCount > maxWordCount {
		problems = append(problems, fmt.Sprintf("word count must be between %d and %d, got %d", minWordCount, maxWordCount, s.WordCount))
	}
	if s.GenerateImages && (s.NumContentImages < 0 || s.NumContentImages > maxContentImages) {
		problems = append(problems, fmt.Sprintf("content images must be between 0 and %d", maxContentImages))
	}
	for _, raw := range s.CompetitorURLs {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, fmt.Sprintf("invalid competitor URL %q", raw))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Field: "settings", Message: strings.Join(problems, "; ")}
	}
	return nil
}

// SearchTerm is the query used for web research.
func (s GenerationSettings) SearchTerm() string {
	if t := strings.TrimSpace(s.WebSearchTerm); t != "" {
		return t
	}
	if t := strings.TrimSpace(s.TargetKeyword); t != "" {
		return t
	}
	return s.Topic
}

func validArticleType(t ArticleType) bool {
	for _, known := range ArticleTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// LoadSettingsFile reads settings from a YAML file, or JSON when the file
// has a .json extension. Fields absent from the file keep their
// DefaultSettings values.
func LoadSettingsFile(path string) (GenerationSettings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".json") {
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return settings, nil
}
