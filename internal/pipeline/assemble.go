package pipeline

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"contentforge/internal/core"
	"contentforge/internal/markdown"
)

var h2Close = regexp.MustCompile(`(?i)</h2\s*>`)

const articleStylesheet = `<style>
  .article-container {
    max-width: 800px;
    margin: 0 auto;
    padding: 2rem;
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
    line-height: 1.8;
    color: #333;
  }
  .article-container h1 {
    font-size: 2.5rem;
    font-weight: 700;
    margin-bottom: 1rem;
    line-height: 1.2;
  }
  .article-container h2 {
    font-size: 2rem;
    font-weight: 600;
    margin-top: 3rem;
    margin-bottom: 1rem;
    color: #2563eb;
  }
  .article-container h3 {
    font-size: 1.5rem;
    font-weight: 600;
    margin-top: 2rem;
    margin-bottom: 0.75rem;
  }
  .article-container p {
    margin-bottom: 1.5rem;
  }
  .article-container ul, .article-container ol {
    margin-bottom: 1.5rem;
    padding-left: 2rem;
  }
  .article-container li {
    margin-bottom: 0.5rem;
  }
  .article-container blockquote {
    border-left: 4px solid #2563eb;
    padding-left: 1.5rem;
    margin: 2rem 0;
    font-style: italic;
    color: #555;
  }
  .article-container table {
    width: 100%;
    border-collapse: collapse;
    margin: 2rem 0;
  }
  .article-container th, .article-container td {
    padding: 0.75rem;
    border: 1px solid #ddd;
    text-align: left;
  }
  .article-container th {
    background-color: #f3f4f6;
    font-weight: 600;
  }
  .cover-image {
    width: 100%;
    height: auto;
    margin-bottom: 2rem;
    border-radius: 8px;
  }
  @media (max-width: 768px) {
    .article-container {
      padding: 1rem;
    }
    .article-container h1 {
      font-size: 2rem;
    }
    .article-container h2 {
      font-size: 1.5rem;
    }
  }
</style>`

// Assemble produces the final article body. Multimedia articles are
// converted to HTML, get their images injected and are wrapped in the
// styled container; other formats are returned unchanged.
func Assemble(content string, images []core.GeneratedImage, format core.OutputFormat) string {
	if format != core.FormatMultimedia {
		return content
	}
	return WrapContainer(InjectImages(markdown.ToHTML(content), images))
}

// InjectImages places the cover image before the content and each content
// image after an evenly spaced </h2>. With n headings and m images the
// spacing is max(1, n/m) and image i follows heading i*spacing. Images left
// without a heading are appended at the end. Existing text is never altered.
func InjectImages(content string, images []core.GeneratedImage) string {
	var (
		cover    *core.GeneratedImage
		sections []core.GeneratedImage
	)
	for i := range images {
		switch images[i].Type {
		case core.ImageTypeCover:
			if cover == nil {
				cover = &images[i]
			}
		case core.ImageTypeContent:
			sections = append(sections, images[i])
		}
	}

	if len(sections) > 0 {
		ends := h2Close.FindAllStringIndex(content, -1)
		spacing := 1
		if len(ends) > 0 {
			spacing = max(1, len(ends)/len(sections))
		}

		var b strings.Builder
		last := 0
		placed := 0
		for i, img := range sections {
			idx := i * spacing
			if idx >= len(ends) {
				break
			}
			pos := ends[idx][1]
			b.WriteString(content[last:pos])
			b.WriteString("\n" + figureHTML(img))
			last = pos
			placed++
		}
		b.WriteString(content[last:])
		for _, img := range sections[placed:] {
			b.WriteString("\n" + figureHTML(img))
		}
		content = b.String()
	}

	if cover != nil {
		content = coverHTML(*cover) + "\n\n" + content
	}
	return content
}

// WrapContainer prepends the article stylesheet and wraps content in the
// article-container div.
func WrapContainer(content string) string {
	return articleStylesheet + "\n<div class=\"article-container\">\n" + content + "\n</div>"
}

func coverHTML(img core.GeneratedImage) string {
	return fmt.Sprintf(`<img src="%s" alt="%s" class="cover-image" style="width: 100%%; height: auto; margin-bottom: 2rem; border-radius: 8px;" />`,
		html.EscapeString(img.URL), html.EscapeString(img.AltText))
}

func figureHTML(img core.GeneratedImage) string {
	alt := html.EscapeString(img.AltText)
	return fmt.Sprintf(`<figure style="margin: 2rem 0;"><img src="%s" alt="%s" style="width: 100%%; height: auto; border-radius: 8px;" /><figcaption style="text-align: center; margin-top: 0.5rem; color: #666; font-size: 0.9rem;">%s</figcaption></figure>`,
		html.EscapeString(img.URL), alt, alt)
}
