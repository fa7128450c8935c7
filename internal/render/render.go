// Package render converts generated articles between HTML and markdown and
// writes them to disk.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"contentforge/internal/core"
	"contentforge/internal/markdown"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", core.NewValidationError("format", fmt.Sprintf("unsupported export format %q", s))
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatJSON:
		return ".json"
	default:
		return ".md"
	}
}

var richMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// MarkdownToHTML renders CommonMark with GitHub extensions. Raw HTML in the
// source is kept.
func MarkdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := richMarkdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// HTMLToMarkdown converts HTML to markdown, dropping style and script blocks.
func HTMLToMarkdown(src string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Remove("style", "script")
	out, err := converter.ConvertString(src)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return out, nil
}

// ContentHTML returns the article body as HTML for the format it was
// generated in.
func ContentHTML(a *core.GeneratedArticle, format core.OutputFormat) (string, error) {
	switch format {
	case core.FormatMarkdown:
		return MarkdownToHTML(a.Content)
	case core.FormatText:
		return markdown.ToHTML(a.Content), nil
	default:
		return a.Content, nil
	}
}

// ContentMarkdown returns the article body as markdown for the format it was
// generated in.
func ContentMarkdown(a *core.GeneratedArticle, format core.OutputFormat) (string, error) {
	if format == core.FormatMultimedia {
		return HTMLToMarkdown(a.Content)
	}
	return a.Content, nil
}

type frontMatter struct {
	Title           string   `yaml:"title"`
	MetaTitle       string   `yaml:"meta_title,omitempty"`
	MetaDescription string   `yaml:"description,omitempty"`
	Slug            string   `yaml:"slug,omitempty"`
	Keywords        []string `yaml:"keywords,omitempty"`
	Date            string   `yaml:"date,omitempty"`
	Status          string   `yaml:"status,omitempty"`
}

var documentTemplate = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
{{- if .Keywords}}
<meta name="keywords" content="{{.Keywords}}">
{{- end}}
{{- if .Schema}}
<script type="application/ld+json">{{.Schema}}</script>
{{- end}}
</head>
<body>
{{.Body}}
</body>
</html>
`))

type documentData struct {
	Lang        string
	Title       string
	Description string
	Keywords    string
	Schema      template.JS
	Body        template.HTML
}

// Export renders a library record in the requested file format.
func Export(rec *core.ArticleRecord, f Format) ([]byte, error) {
	a := &rec.Article

	switch f {
	case FormatJSON:
		return json.MarshalIndent(rec, "", "  ")

	case FormatHTML:
		body, err := ContentHTML(a, rec.Settings.OutputFormat)
		if err != nil {
			return nil, err
		}
		title := a.MetaTitle
		if title == "" {
			title = a.Title
		}
		data := documentData{
			Lang:        languageCode(rec.Settings.Language),
			Title:       title,
			Description: a.MetaDescription,
			Keywords:    strings.Join(a.SEOKeywords, ", "),
			Body:        template.HTML(body),
		}
		if len(a.SchemaMarkup) > 0 && json.Valid(a.SchemaMarkup) {
			data.Schema = template.JS(a.SchemaMarkup)
		}
		var buf bytes.Buffer
		if err := documentTemplate.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to render HTML document: %w", err)
		}
		return buf.Bytes(), nil

	default:
		body, err := ContentMarkdown(a, rec.Settings.OutputFormat)
		if err != nil {
			return nil, err
		}
		fm := frontMatter{
			Title:           a.Title,
			MetaTitle:       a.MetaTitle,
			MetaDescription: a.MetaDescription,
			Slug:            a.Slug,
			Keywords:        a.SEOKeywords,
			Status:          string(rec.Status),
		}
		if !rec.CreatedAt.IsZero() {
			fm.Date = rec.CreatedAt.UTC().Format("2006-01-02")
		}
		header, err := yaml.Marshal(fm)
		if err != nil {
			return nil, fmt.Errorf("failed to encode front matter: %w", err)
		}

		var buf bytes.Buffer
		buf.WriteString("---\n")
		buf.Write(header)
		buf.WriteString("---\n\n")
		buf.WriteString(strings.TrimSpace(body))
		buf.WriteString("\n")
		return buf.Bytes(), nil
	}
}

// Filename returns the export file name for rec, based on its slug.
func Filename(rec *core.ArticleRecord, f Format) string {
	name := rec.Article.Slug
	if name == "" {
		name = rec.ID
	}
	return name + f.Extension()
}

// WriteArticleToFile writes content to outputDir/filename, creating the
// directory. An empty outputDir writes to "articles".
func WriteArticleToFile(content []byte, outputDir, filename string) (string, error) {
	if outputDir == "" {
		outputDir = "articles"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filePath := filepath.Join(outputDir, filename)
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write article file %s: %w", filePath, err)
	}
	return filePath, nil
}

var languageCodes = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"japanese":   "ja",
	"chinese":    "zh",
}

func languageCode(language string) string {
	if code, ok := languageCodes[strings.ToLower(strings.TrimSpace(language))]; ok {
		return code
	}
	return "en"
}
