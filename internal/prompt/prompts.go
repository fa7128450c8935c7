// Package prompt builds the system and main prompts for article generation.
// Everything here is pure string assembly: identical inputs always produce
// identical prompts.
package prompt

import (
	"fmt"
	"strings"

	"contentforge/internal/core"
)

// MaxInternalLinks caps how many internal links are offered to the model.
const MaxInternalLinks = 20

// Inputs carries the optional enrichment data for one prompt.
type Inputs struct {
	Research      string
	Competitors   []core.CompetitorAnalysisResult
	BrandVoice    *core.BrandVoice
	InternalLinks []core.InternalLink
}

// Builder assembles prompts. Year is used for freshness instructions and is
// fixed at construction so output does not depend on the clock.
type Builder struct {
	year int
}

// NewBuilder creates a prompt builder anchored to the given year
func NewBuilder(year int) *Builder {
	return &Builder{year: year}
}

// SystemPrompt is the fixed role description sent with every request.
const SystemPrompt = `You are an expert content strategist and SEO specialist. You write well-researched, highly optimized articles that rank on search engines and are cited by AI assistants.

Your articles are:
- Backed by current, specific data
- Optimized for search with natural keyword usage
- Easy to read (around a 6th grade reading level)
- Structured for both human readers and machine parsing
- Rich with statistics, expert perspective and concrete examples
- Accessible and mobile friendly

Follow every instruction precisely and reply in the requested output format.`

// Build returns the system prompt and the main prompt for one article.
func (b *Builder) Build(s core.GenerationSettings, in Inputs) (string, string) {
	sections := []string{
		b.taskSection(s),
		additionalContextSection(s),
		b.seoSection(s),
		structureSection(s),
		b.guidelinesSection(s),
		featureSection(s),
		b.researchSection(s, in.Research),
		b.competitorSection(s, in.Competitors),
		brandVoiceSection(in.BrandVoice),
		linksSection(s, in.InternalLinks),
		b.schemaSection(s),
		outputSection(s),
	}

	var parts []string
	for _, section := range sections {
		if section != "" {
			parts = append(parts, section)
		}
	}
	return SystemPrompt, strings.Join(parts, "\n\n")
}

func keyword(s core.GenerationSettings) string {
	if k := strings.TrimSpace(s.TargetKeyword); k != "" {
		return k
	}
	return s.Topic
}

func audience(s core.GenerationSettings) string {
	if a := strings.TrimSpace(s.IntendedAudience); a != "" {
		return a
	}
	return "General audience"
}

func formatDescription(f core.OutputFormat) string {
	switch f {
	case core.FormatMultimedia:
		return "Rich HTML with comparison tables, FAQ sections, callouts and embedded media"
	case core.FormatMarkdown:
		return "Clean Markdown with a proper heading hierarchy"
	default:
		return "Plain text with simple formatting"
	}
}

func (b *Builder) taskSection(s core.GenerationSettings) string {
	var p strings.Builder

	p.WriteString(fmt.Sprintf("# Task: Write a %s article\n\n", s.ArticleType))
	p.WriteString("## Article Details:\n")
	p.WriteString(fmt.Sprintf("- **Topic**: %s\n", s.Topic))
	p.WriteString(fmt.Sprintf("- **Target Keyword**: %s\n", keyword(s)))
	p.WriteString(fmt.Sprintf("- **Article Type**: %s\n", typeDescription(s.ArticleType)))
	p.WriteString(fmt.Sprintf("- **Output Format**: %s\n", formatDescription(s.OutputFormat)))
	p.WriteString(fmt.Sprintf("- **Tone**: %s\n", s.Tone))
	p.WriteString(fmt.Sprintf("- **Target Audience**: %s\n", audience(s)))
	p.WriteString(fmt.Sprintf("- **Word Count**: %d words (aim for approximately this length)\n", s.WordCount))
	p.WriteString(fmt.Sprintf("- **Language**: %s", s.Language))

	return p.String()
}

func additionalContextSection(s core.GenerationSettings) string {
	ctx := strings.TrimSpace(s.AdditionalContext)
	if ctx == "" {
		return ""
	}
	return "## Additional Context:\n" + ctx
}

func (b *Builder) seoSection(s core.GenerationSettings) string {
	return fmt.Sprintf(`## SEO Requirements:
1. Include the main keyword "%s" in the first 50 words
2. Use the main keyword or a close variation in at least one H2 heading
3. Keep readability around a 6th grade Flesch-Kincaid level
4. Reference %d data and the current year where it signals freshness
5. Create an SEO slug (lowercase, hyphen separated, no special characters)
6. Write a meta title of 50-60 characters and a meta description of 150-160 characters
7. List 5-10 SEO keywords, starting with the main keyword`, keyword(s), b.year)
}

func structureSection(s core.GenerationSettings) string {
	if outline := strings.TrimSpace(s.CustomOutline); outline != "" {
		return "## Article Structure (Custom Outline):\nFollow this outline exactly. It replaces any default structure:\n" + outline
	}
	return Outline(s.ArticleType)
}

func (b *Builder) guidelinesSection(s core.GenerationSettings) string {
	voice := "third person"
	if s.EnableFirstPerson {
		voice = "first person (I, we, my)"
	}

	return fmt.Sprintf(`## Content Quality Guidelines:

### Writing Style:
- Write in %s
- Write in a %s tone for %s
- Write the entire article in %s
- Keep sentences under 20 words where possible
- Prefer active voice and present tense
- Avoid corporate jargon

### Readability:
- Use simple words ("use", not "utilize")
- Keep paragraphs under 150 words
- Use bullet points and numbered lists where they help scanning

### Data and Authority:
- Include at least one specific statistic every 150 words
- Use exact percentages, amounts, timeframes and quantities
- Prefer data from %d or later`, voice, s.Tone, audience(s), s.Language, b.year-1)
}

// Feature block headings. Each block is emitted at most once and always in
// this order.
const (
	HookHeading        = "### Opening Hook"
	FirstPersonHeading = "### First-Person Voice"
	StoriesHeading     = "### Storytelling"
	CitationsHeading   = "### Citations"
	HTMLWidgetsHeading = "### HTML Widgets"
)

const hookBlock = HookHeading + `
- Open with a compelling hook: a surprising statistic, a counterintuitive finding or a bold claim
- Deliver on the hook within the first two paragraphs`

const firstPersonBlock = FirstPersonHeading + `
- Write from personal experience using I, we and my
- Describe what was tried, what happened and what was learned
- Keep claims honest and specific`

const storiesBlock = StoriesHeading + `
- Include 2-3 short anecdotes or scenarios that illustrate key points
- Give each story a concrete setting, a problem and an outcome
- Tie every story back to the section's main point`

const citationsBlock = CitationsHeading + `
- Attribute facts with phrases such as "According to [Source]" or "Research from [Source] shows"
- Quote 3-5 industry experts with their titles and affiliations
- Cite the original source of every statistic`

const htmlWidgetsBlock = HTMLWidgetsHeading + `
Build these interactive elements with clean HTML and inline CSS:
1. Comparison tables: responsive, with highlighted best values
2. FAQ accordions: use <details> and <summary>
3. Callout boxes: key statistics, warnings and pro tips
4. Rating displays: HTML/CSS score bars with ARIA labels
5. Table of contents: anchor links to every H2

HTML rules:
- Use semantic HTML5 tags (<article>, <section>, <aside>)
- Every element must be mobile responsive and work without JavaScript
- Use inline CSS only and a restrained palette of grays and blues
- Do not use emojis or decorative arrows`

// featureSection returns the independent instruction blocks for every
// enabled feature flag.
func featureSection(s core.GenerationSettings) string {
	var blocks []string

	if s.EnableHook {
		blocks = append(blocks, hookBlock)
	}
	if s.EnableFirstPerson {
		blocks = append(blocks, firstPersonBlock)
	}
	if s.EnableStories {
		blocks = append(blocks, storiesBlock)
	}
	if s.EnableCitations {
		blocks = append(blocks, citationsBlock)
	}
	if s.OutputFormat == core.FormatMultimedia && s.EnableHTMLElements {
		block := htmlWidgetsBlock
		if extra := strings.TrimSpace(s.HTMLElementInstructions); extra != "" {
			block += "\n\nAdditional element instructions:\n" + extra
		}
		blocks = append(blocks, block)
	}
	if s.OutputFormat == core.FormatMultimedia {
		blocks = append(blocks, `### Media:
- Mark image positions with comments such as <!-- IMAGE: description -->
- Use H2 headings (<h2>) for every main section`)
	}

	if len(blocks) == 0 {
		return ""
	}
	return "## Feature Instructions:\n\n" + strings.Join(blocks, "\n\n")
}

func (b *Builder) researchSection(s core.GenerationSettings, research string) string {
	research = strings.TrimSpace(research)
	if !s.EnableWebResearch || research == "" {
		return ""
	}

	return fmt.Sprintf(`## Research Data:
The following information comes from recent web research. Use it to ground the article in current, accurate facts:

%s

When using this research:
- Cross-check statistics before relying on them
- Cite sources where the data came from
- Prefer the most recent figures (%d or later)`, research, b.year-1)
}

func (b *Builder) competitorSection(s core.GenerationSettings, competitors []core.CompetitorAnalysisResult) string {
	if !s.EnableCompetitorAnalysis || len(competitors) == 0 {
		return ""
	}

	var p strings.Builder
	p.WriteString("## Competitor Analysis:\n")
	p.WriteString("These top-ranking pages were analyzed. Outperform them:\n")

	for i, c := range competitors {
		p.WriteString(fmt.Sprintf("\n### Competitor %d: %s\n", i+1, c.Title))
		p.WriteString(fmt.Sprintf("- **URL**: %s\n", c.URL))
		if len(c.Keywords) > 0 {
			p.WriteString(fmt.Sprintf("- **Key Keywords**: %s\n", strings.Join(c.Keywords, ", ")))
		}
		if len(c.Headings) > 0 {
			p.WriteString(fmt.Sprintf("- **Content Structure**: %s\n", strings.Join(c.Headings, " > ")))
		}
		if c.WordCount > 0 {
			p.WriteString(fmt.Sprintf("- **Length**: about %d words\n", c.WordCount))
		}
		if len(c.ContentGaps) > 0 {
			p.WriteString(fmt.Sprintf("- **Content Gaps**: %s\n", strings.Join(c.ContentGaps, ", ")))
		}
	}

	p.WriteString(fmt.Sprintf(`
Your article should:
- Cover every topic these competitors cover
- Fill the content gaps listed above
- Go deeper with better examples
- Use more recent data (%d or later)
- Add a perspective none of them offer`, b.year-1))

	return p.String()
}

func brandVoiceSection(v *core.BrandVoice) string {
	if v == nil {
		return ""
	}

	var p strings.Builder
	p.WriteString("## Brand Voice:\n")
	p.WriteString("Keep this brand voice consistent throughout the article.\n\n")
	p.WriteString(fmt.Sprintf("**Brand**: %s\n", v.Name))
	p.WriteString(fmt.Sprintf("**Description**: %s", v.Description))
	if v.Tone != "" {
		p.WriteString(fmt.Sprintf("\n**Tone**: %s", v.Tone))
	}
	if len(v.Characteristics) > 0 {
		p.WriteString("\n**Characteristics**:")
		for _, c := range v.Characteristics {
			p.WriteString("\n- " + c)
		}
	}
	if v.StyleGuidelines != "" {
		p.WriteString("\n\n**Style Guidelines**:\n" + v.StyleGuidelines)
	}
	if v.SampleContent != "" {
		p.WriteString("\n\n**Sample Content**:\n" + v.SampleContent)
	}

	return p.String()
}

const (
	ExternalLinksHeading = "## External Links:"
	InternalLinksHeading = "## Internal Links:"
)

func linksSection(s core.GenerationSettings, links []core.InternalLink) string {
	var sections []string

	if s.EnableExternalLinks {
		sections = append(sections, ExternalLinksHeading+`
Include 5-7 links to authoritative external sources such as:
- Government (.gov) and educational (.edu) sites
- Established news organizations
- Official industry and manufacturer sites
- Research papers and statistics providers

For every external link:
- Use descriptive anchor text, never "click here"
- Place it where it supports a specific claim
- Record it in externalLinks`)
	}

	if s.EnableInternalLinks && len(links) > 0 {
		if len(links) > MaxInternalLinks {
			links = links[:MaxInternalLinks]
		}

		var p strings.Builder
		p.WriteString(InternalLinksHeading + "\n")
		p.WriteString("These pages exist on the website. Link to 5-7 of the most relevant ones:\n")
		for i, l := range links {
			p.WriteString(fmt.Sprintf("\n%d. **%s**\n   - URL: %s", i+1, l.Title, l.URL))
			if l.Excerpt != "" {
				p.WriteString("\n   - Excerpt: " + l.Excerpt)
			}
			if len(l.Keywords) > 0 {
				p.WriteString("\n   - Keywords: " + strings.Join(l.Keywords, ", "))
			}
		}
		p.WriteString(`

Choose links by topical relevance and keyword overlap. Use anchor text that tells readers what they will find, and record every link used in internalLinksUsed.`)
		sections = append(sections, p.String())
	} else if s.EnableInternalLinks {
		sections = append(sections, InternalLinksHeading+`
No site pages are known yet. Add 3-5 placeholder internal links:
- Format: [Link to: "Suggested Article Title"]
- Suggest topics that would naturally link from this content`)
	}

	return strings.Join(sections, "\n\n")
}

func (b *Builder) schemaSection(s core.GenerationSettings) string {
	var p strings.Builder

	p.WriteString("## Schema Markup:\n")
	p.WriteString("Generate schema.org structured data as JSON-LD:\n")
	p.WriteString(fmt.Sprintf("- Primary type: %s\n", schemaType(s.ArticleType)))
	p.WriteString("- Include headline, author, datePublished and publisher\n")
	p.WriteString("- Add FAQPage markup for the FAQ section")
	switch s.ArticleType {
	case core.ArticleTypeProductReview:
		p.WriteString("\n- Add a Review with reviewRating (1-5 scale) and reviewBody")
	case core.ArticleTypeProductRoundup:
		p.WriteString("\n- Add a Review per product and an AggregateRating")
	case core.ArticleTypeGuide:
		p.WriteString("\n- Add HowToStep entries for every step")
	}
	p.WriteString("\n- Use valid, properly nested JSON-LD")

	return p.String()
}

func contentDescription(f core.OutputFormat) string {
	switch f {
	case core.FormatMarkdown:
		return "Full article in Markdown"
	case core.FormatMultimedia:
		return "Full article in HTML with <h2> section headings"
	default:
		return "Full article as plain text"
	}
}

func outputSection(s core.GenerationSettings) string {
	return fmt.Sprintf("## Output Format:\n"+
		"Reply with a single fenced JSON block and nothing else. Use exactly these keys:\n\n"+
		"```json\n"+
		`{
  "title": "Main article title",
  "content": "%s",
  "metaTitle": "SEO meta title (50-60 characters)",
  "metaDescription": "SEO meta description (150-160 characters)",
  "slug": "seo-friendly-url-slug",
  "seoKeywords": ["%s", "related keyword"],
  "wordCount": %d,
  "schemaMarkup": {"@context": "https://schema.org", "@type": "%s"},
  "externalLinks": [{"url": "https://example.com", "anchorText": "Link text", "title": "Why this source"}],
  "internalLinksUsed": [{"url": "/related-article", "anchorText": "Link text"}],
  "imagePrompts": ["Detailed image generation prompt"]
}`+"\n```\n\n"+
		"The content value must be a single JSON string with newlines escaped.",
		contentDescription(s.OutputFormat), keyword(s), s.WordCount, schemaType(s.ArticleType))
}
