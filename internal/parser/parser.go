// Package parser turns raw model replies into validated articles.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"contentforge/internal/core"
	"contentforge/internal/markdown"

	"github.com/tidwall/gjson"
)

const (
	// MetaTitleLength is the longest default meta title derived from the title.
	MetaTitleLength = 60

	// maxRecoveryAttempts bounds how many closing braces the recovery scan
	// tries before giving up.
	maxRecoveryAttempts = 32
)

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\n(.*?)\n?```")

// Reply is the structured part of a model reply plus any prose that
// surrounded it.
type Reply struct {
	JSON    []byte
	Leading string // text before the JSON object, used as body when the object has no content
}

// ExtractJSON finds the JSON object in a model reply. The whole reply is
// tried first; if that fails a bounded recovery scan looks for a fenced
// block and then for the widest {...} span that parses.
func ExtractJSON(text string) (*Reply, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, core.NewValidationError("response", "empty reply")
	}

	if obj := strictObject(trimmed); obj != nil {
		return &Reply{JSON: obj}, nil
	}

	if m := fencedJSONRe.FindAllStringSubmatchIndex(trimmed, -1); len(m) > 0 {
		last := m[len(m)-1]
		if obj := strictObject(trimmed[last[2]:last[3]]); obj != nil {
			return &Reply{JSON: obj, Leading: strings.TrimSpace(trimmed[:last[0]])}, nil
		}
	}

	start := strings.Index(trimmed, "{")
	if start < 0 {
		return nil, core.NewValidationError("response", "no JSON object found")
	}
	end := len(trimmed)
	for attempt := 0; attempt < maxRecoveryAttempts; attempt++ {
		idx := strings.LastIndex(trimmed[:end], "}")
		if idx <= start {
			break
		}
		if obj := strictObject(trimmed[start : idx+1]); obj != nil {
			return &Reply{JSON: obj, Leading: strings.TrimSpace(trimmed[:start])}, nil
		}
		end = idx
	}

	return nil, core.NewValidationError("response", "no parsable JSON object found")
}

func strictObject(s string) []byte {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !gjson.Valid(s) {
		return nil
	}
	return []byte(s)
}

// ParseReply extracts and validates an article from a model reply. When the
// JSON object carries no content but prose preceded it, the prose becomes
// the article body.
func ParseReply(text string) (*core.GeneratedArticle, error) {
	reply, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	raw := reply.JSON
	if reply.Leading != "" && strings.TrimSpace(gjson.GetBytes(raw, "content").String()) == "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			body, _ := json.Marshal(reply.Leading)
			obj["content"] = body
			if merged, err := json.Marshal(obj); err == nil {
				raw = merged
			}
		}
	}

	return Validate(raw)
}

// Validate converts a raw JSON object into a complete GeneratedArticle.
// Only a missing title or content is an error; every other field falls
// back to a derived default.
func Validate(raw []byte) (*core.GeneratedArticle, error) {
	if !gjson.ValidBytes(raw) {
		return nil, core.NewValidationError("response", "not valid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, core.NewValidationError("response", "expected a JSON object")
	}

	title := strings.TrimSpace(stringField(doc, "title"))
	if title == "" {
		return nil, core.NewValidationError("title", "is required")
	}
	content := stringField(doc, "content")
	if strings.TrimSpace(content) == "" {
		return nil, core.NewValidationError("content", "is required")
	}

	article := &core.GeneratedArticle{
		Title:             title,
		Content:           content,
		MetaTitle:         strings.TrimSpace(stringField(doc, "metaTitle")),
		MetaDescription:   strings.TrimSpace(stringField(doc, "metaDescription")),
		SEOKeywords:       stringArray(doc.Get("seoKeywords")),
		ExternalLinks:     []core.ExternalLink{},
		InternalLinksUsed: []core.InternalLinkUsage{},
		ImagePrompts:      stringArray(doc.Get("imagePrompts")),
		Images:            []core.GeneratedImage{},
	}

	if article.MetaTitle == "" {
		article.MetaTitle = Truncate(title, MetaTitleLength)
	}

	article.Slug = Slugify(stringField(doc, "slug"))
	if article.Slug == "" {
		article.Slug = Slugify(title)
	}

	if wc := doc.Get("wordCount"); wc.Type == gjson.Number && wc.Int() > 0 {
		article.WordCount = int(wc.Int())
	} else {
		article.WordCount = markdown.WordCount(content)
	}

	if schema := doc.Get("schemaMarkup"); schema.IsObject() {
		article.SchemaMarkup = json.RawMessage(schema.Raw)
	}

	if links := doc.Get("externalLinks"); links.IsArray() {
		for _, l := range links.Array() {
			u := strings.TrimSpace(l.Get("url").String())
			if u == "" {
				continue
			}
			article.ExternalLinks = append(article.ExternalLinks, core.ExternalLink{
				URL:        u,
				AnchorText: l.Get("anchorText").String(),
				Title:      l.Get("title").String(),
			})
		}
	}

	if links := doc.Get("internalLinksUsed"); links.IsArray() {
		for _, l := range links.Array() {
			u := strings.TrimSpace(l.Get("url").String())
			if u == "" {
				continue
			}
			article.InternalLinksUsed = append(article.InternalLinksUsed, core.InternalLinkUsage{
				URL:        u,
				AnchorText: l.Get("anchorText").String(),
			})
		}
	}

	return article, nil
}

// stringField returns a field only when it is a JSON string.
func stringField(doc gjson.Result, key string) string {
	v := doc.Get(key)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// stringArray returns the non-empty string elements of an array, or an
// empty slice for anything that is not an array.
func stringArray(v gjson.Result) []string {
	out := []string{}
	if !v.IsArray() {
		return out
	}
	for _, item := range v.Array() {
		if item.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(item.Str); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, collapses every run of non-alphanumeric characters
// into one hyphen and trims hyphens from both ends.
func Slugify(s string) string {
	s = nonAlnumRe.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
