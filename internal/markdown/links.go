package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"contentforge/internal/core"
)

// LinkReference is one hyperlink found in article content.
type LinkReference struct {
	URL     string // Target URL
	Anchor  string // Visible link text
	Context string // Surrounding text
}

var (
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	htmlLink     = regexp.MustCompile(`(?is)<a\s[^>]*href\s*=\s*["']([^"']+)["'][^>]*>(.*?)</a>`)
)

// ExtractLinks returns every markdown or HTML link in content in order of
// appearance. A URL linked twice with the same anchor is reported once.
func ExtractLinks(content string) []LinkReference {
	type found struct {
		pos int
		ref LinkReference
	}
	var all []found

	for _, m := range markdownLink.FindAllStringSubmatchIndex(content, -1) {
		all = append(all, found{m[0], LinkReference{
			Anchor:  strings.TrimSpace(content[m[2]:m[3]]),
			URL:     strings.TrimSpace(content[m[4]:m[5]]),
			Context: extractContext(content, m[0], m[1]),
		}})
	}
	for _, m := range htmlLink.FindAllStringSubmatchIndex(content, -1) {
		all = append(all, found{m[0], LinkReference{
			URL:     strings.TrimSpace(content[m[2]:m[3]]),
			Anchor:  strings.TrimSpace(StripTags(content[m[4]:m[5]])),
			Context: extractContext(content, m[0], m[1]),
		}})
	}

	// Stable insertion sort by position; link counts are small.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].pos < all[j-1].pos; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}

	seen := make(map[string]bool)
	links := make([]LinkReference, 0, len(all))
	for _, f := range all {
		key := f.ref.URL + "\x00" + f.ref.Anchor
		if seen[key] {
			continue
		}
		seen[key] = true
		links = append(links, f.ref)
	}
	return links
}

// extractContext returns up to 100 characters either side of a link,
// trimmed to sentence boundaries where one is close.
func extractContext(text string, start, end int) string {
	from := start - 100
	if from < 0 {
		from = 0
	}
	to := end + 100
	if to > len(text) {
		to = len(text)
	}

	context := strings.TrimSpace(text[from:to])
	if from > 0 {
		if idx := strings.Index(context, ". "); idx > 0 && idx < 50 {
			context = context[idx+2:]
		}
	}
	if to < len(text) {
		if idx := strings.LastIndex(context, ". "); idx > len(context)-50 && idx > 0 {
			context = context[:idx+1]
		}
	}
	return context
}

// CountLinks returns the number of distinct links in content.
func CountLinks(content string) int {
	return len(ExtractLinks(content))
}

// ReconcileInternalLinks keeps only the reported internal links that appear
// in content and point at a known candidate URL.
func ReconcileInternalLinks(content string, used []core.InternalLinkUsage, candidates []core.InternalLink) []core.InternalLinkUsage {
	present := make(map[string]bool)
	for _, l := range ExtractLinks(content) {
		present[normalizeURL(l.URL)] = true
	}
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[normalizeURL(c.URL)] = true
	}

	kept := []core.InternalLinkUsage{}
	for _, u := range used {
		key := normalizeURL(u.URL)
		if present[key] && known[key] {
			kept = append(kept, u)
		}
	}
	return kept
}

// ValidateLinks reports declared external links that are missing from the
// content and internal-looking links that are not known candidates.
func ValidateLinks(article *core.GeneratedArticle, candidates []core.InternalLink) []string {
	present := make(map[string]bool)
	for _, l := range ExtractLinks(article.Content) {
		present[normalizeURL(l.URL)] = true
	}

	var warnings []string
	for _, ext := range article.ExternalLinks {
		if !present[normalizeURL(ext.URL)] {
			warnings = append(warnings, fmt.Sprintf("external link %s is listed but not used in the content", ext.URL))
		}
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[normalizeURL(c.URL)] = true
	}
	for _, u := range article.InternalLinksUsed {
		if len(candidates) > 0 && !known[normalizeURL(u.URL)] {
			warnings = append(warnings, fmt.Sprintf("internal link %s is not one of the site's pages", u.URL))
		}
	}
	return warnings
}

func normalizeURL(u string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(u)), "/")
}
