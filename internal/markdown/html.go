// Package markdown converts the lightweight markdown the prompts ask models
// to produce into HTML, and reduces HTML back to plain text for counting.
package markdown

import (
	"html"
	"regexp"
	"strings"

	nethtml "golang.org/x/net/html"
)

var (
	blankLineRe  = regexp.MustCompile(`\n[ \t]*\n`)
	headerRe     = regexp.MustCompile(`^(#{1,3})[ \t]+(.+?)[ \t]*#*$`)
	bulletRe     = regexp.MustCompile(`^[-*+][ \t]+(.+)$`)
	orderedRe    = regexp.MustCompile(`^\d+[.)][ \t]+(.+)$`)
	htmlLineRe   = regexp.MustCompile(`^(<!--|</?[a-zA-Z][a-zA-Z0-9-]*(\s[^>]*)?/?>)`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)(?:\s+"([^"]*)")?\)`)
	boldItalicRe = regexp.MustCompile(`\*\*\*([^*]+?)\*\*\*`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+?)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*\s][^*]*?)\*`)
)

// ToHTML converts ATX headers (#, ##, ###), emphasis, inline links and
// simple lists to HTML. Blocks that already start with a tag are emitted
// unchanged.
func ToHTML(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	blocks := blankLineRe.Split(strings.TrimSpace(text), -1)

	var out []string
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if htmlLineRe.MatchString(block) {
			out = append(out, block)
			continue
		}
		out = append(out, convertBlock(block)...)
	}
	return strings.Join(out, "\n\n")
}

// convertBlock handles one blank-line separated block. Header, list and
// HTML lines are emitted on their own; runs of other lines become a paragraph.
func convertBlock(block string) []string {
	var (
		out       []string
		paragraph []string
		listTag   string
		items     []string
	)

	flushParagraph := func() {
		if len(paragraph) > 0 {
			out = append(out, "<p>"+Inline(strings.Join(paragraph, "\n"))+"</p>")
			paragraph = nil
		}
	}
	flushList := func() {
		if len(items) > 0 {
			out = append(out, "<"+listTag+">\n"+strings.Join(items, "\n")+"\n</"+listTag+">")
			items = nil
		}
	}

	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if htmlLineRe.MatchString(trimmed) {
			flushParagraph()
			flushList()
			out = append(out, trimmed)
			continue
		}

		if m := headerRe.FindStringSubmatch(trimmed); m != nil {
			flushParagraph()
			flushList()
			level := string(rune('0' + len(m[1])))
			out = append(out, "<h"+level+">"+Inline(m[2])+"</h"+level+">")
			continue
		}

		tag, item := "", ""
		if m := bulletRe.FindStringSubmatch(trimmed); m != nil {
			tag, item = "ul", m[1]
		} else if m := orderedRe.FindStringSubmatch(trimmed); m != nil {
			tag, item = "ol", m[1]
		}
		if tag != "" {
			flushParagraph()
			if tag != listTag {
				flushList()
				listTag = tag
			}
			items = append(items, "<li>"+Inline(item)+"</li>")
			continue
		}

		flushList()
		paragraph = append(paragraph, trimmed)
	}
	flushParagraph()
	flushList()

	return out
}

// Inline applies link and emphasis conversion to a single run of text.
func Inline(s string) string {
	s = linkRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := linkRe.FindStringSubmatch(m)
		href := html.EscapeString(parts[2])
		if parts[3] != "" {
			return `<a href="` + href + `" title="` + html.EscapeString(parts[3]) + `">` + parts[1] + `</a>`
		}
		return `<a href="` + href + `">` + parts[1] + `</a>`
	})
	s = boldItalicRe.ReplaceAllString(s, "<strong><em>$1</em></strong>")
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	return s
}

// inlineTags do not separate words when stripped.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "cite": true, "code": true, "em": true,
	"i": true, "kbd": true, "mark": true, "q": true, "s": true, "small": true,
	"span": true, "strong": true, "sub": true, "sup": true, "u": true,
}

// StripTags returns the visible text of an HTML fragment with whitespace
// collapsed to single spaces. Entities are decoded; script and style
// bodies are dropped.
func StripTags(s string) string {
	var (
		b    strings.Builder
		skip int
	)

	z := nethtml.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case nethtml.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case nethtml.StartTagToken, nethtml.EndTagToken, nethtml.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				switch tt {
				case nethtml.StartTagToken:
					skip++
				case nethtml.EndTagToken:
					if skip > 0 {
						skip--
					}
				}
			}
			if !inlineTags[tag] {
				b.WriteByte(' ')
			}
		}
	}
}

// WordCount counts whitespace-delimited tokens after tag stripping.
func WordCount(s string) int {
	return len(strings.Fields(StripTags(s)))
}
