package pipeline

import (
	"fmt"
	"strings"

	"contentforge/internal/core"
	"contentforge/internal/markdown"
	"contentforge/internal/parser"
	"contentforge/internal/quality"
)

// QualityGate is a post-generation check. Gates never block a run; their
// findings are returned as warnings with the result.
type QualityGate interface {
	// Name returns the gate name for logging
	Name() string

	// Check returns one message per problem found
	Check(article *core.GeneratedArticle) []string
}

// QualityGateConfig holds configuration for quality gates
type QualityGateConfig struct {
	EnableLengthGate   bool
	EnableMetaGate     bool
	EnableLinkGate     bool
	EnableSpecificity  bool
	Specificity        quality.Thresholds
	MinWordRatio       float64 // Minimum share of the requested word count
	MinMetaDescription int
	MaxMetaDescription int
}

// DefaultQualityGateConfig returns default configuration
func DefaultQualityGateConfig() QualityGateConfig {
	return QualityGateConfig{
		EnableLengthGate:   true,
		EnableMetaGate:     true,
		EnableLinkGate:     true,
		EnableSpecificity:  true,
		Specificity:        quality.DefaultThresholds(),
		MinWordRatio:       0.7,
		MinMetaDescription: 50,
		MaxMetaDescription: 160,
	}
}

// LengthGate flags articles well short of the requested length.
type LengthGate struct {
	target   int
	minRatio float64
}

func (g LengthGate) Name() string { return "length" }

func (g LengthGate) Check(a *core.GeneratedArticle) []string {
	if g.target <= 0 {
		return nil
	}
	if minimum := int(float64(g.target) * g.minRatio); a.WordCount < minimum {
		return []string{fmt.Sprintf("article has %d words, requested %d", a.WordCount, g.target)}
	}
	return nil
}

// MetaGate checks the search snippet fields.
type MetaGate struct {
	keyword  string
	minDesc  int
	maxDesc  int
	maxTitle int
}

func (g MetaGate) Name() string { return "meta" }

func (g MetaGate) Check(a *core.GeneratedArticle) []string {
	var issues []string

	if strings.TrimSpace(a.MetaTitle) == "" {
		issues = append(issues, "meta title is empty")
	} else if n := len([]rune(a.MetaTitle)); n > g.maxTitle {
		issues = append(issues, fmt.Sprintf("meta title is %d characters, max %d", n, g.maxTitle))
	}

	switch n := len([]rune(a.MetaDescription)); {
	case n == 0:
		issues = append(issues, "meta description is empty")
	case n < g.minDesc:
		issues = append(issues, fmt.Sprintf("meta description is %d characters, min %d", n, g.minDesc))
	case n > g.maxDesc:
		issues = append(issues, fmt.Sprintf("meta description is %d characters, max %d", n, g.maxDesc))
	}

	if kw := strings.ToLower(strings.TrimSpace(g.keyword)); kw != "" &&
		!strings.Contains(strings.ToLower(a.Title), kw) && !strings.Contains(strings.ToLower(a.MetaTitle), kw) {
		issues = append(issues, fmt.Sprintf("target keyword %q is missing from the title", g.keyword))
	}
	return issues
}

// LinkGate compares the links the model reported with the content.
type LinkGate struct {
	candidates []core.InternalLink
}

func (g LinkGate) Name() string { return "links" }

func (g LinkGate) Check(a *core.GeneratedArticle) []string {
	return markdown.ValidateLinks(a, g.candidates)
}

// SpecificityGate flags prose that leans on vague phrasing instead of
// figures and names.
type SpecificityGate struct {
	thresholds quality.Thresholds
}

func (g SpecificityGate) Name() string { return "specificity" }

func (g SpecificityGate) Check(a *core.GeneratedArticle) []string {
	m, ok := quality.Evaluate(markdown.StripTags(a.Content), g.thresholds)
	if !ok {
		return nil
	}

	var issues []string
	if m.Specificity < g.thresholds.MinSpecificity {
		issues = append(issues, fmt.Sprintf("content scores %d/100 (grade %s); add figures, names and examples", m.Specificity, m.Grade))
	}
	if d := m.VaguePer1000(); d > g.thresholds.MaxVaguePer1000 {
		issues = append(issues, fmt.Sprintf("%.1f vague phrases per 1000 words (%s)", d, strings.Join(m.VaguePhrases, ", ")))
	}
	return issues
}

// Gates returns the enabled gates for one run.
func (cfg QualityGateConfig) Gates(s core.GenerationSettings, candidates []core.InternalLink) []QualityGate {
	var gates []QualityGate
	if cfg.EnableLengthGate {
		gates = append(gates, LengthGate{target: s.WordCount, minRatio: cfg.MinWordRatio})
	}
	if cfg.EnableMetaGate {
		gates = append(gates, MetaGate{
			keyword:  s.TargetKeyword,
			minDesc:  cfg.MinMetaDescription,
			maxDesc:  cfg.MaxMetaDescription,
			maxTitle: parser.MetaTitleLength,
		})
	}
	if cfg.EnableLinkGate {
		gates = append(gates, LinkGate{candidates: candidates})
	}
	if cfg.EnableSpecificity {
		gates = append(gates, SpecificityGate{thresholds: cfg.Specificity})
	}
	return gates
}

// RunQualityGates runs every gate and prefixes each finding with its gate.
func RunQualityGates(a *core.GeneratedArticle, gates []QualityGate) []string {
	var warnings []string
	for _, g := range gates {
		for _, issue := range g.Check(a) {
			warnings = append(warnings, g.Name()+": "+issue)
		}
	}
	return warnings
}
