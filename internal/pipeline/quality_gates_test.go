package pipeline

import (
	"strings"
	"testing"

	"contentforge/internal/core"
)

func TestQualityGates(t *testing.T) {
	cfg := DefaultQualityGateConfig()
	settings := core.DefaultSettings()
	settings.WordCount = 1000
	settings.TargetKeyword = "pour over"

	good := &core.GeneratedArticle{
		Title:           "Pour Over Coffee Guide",
		MetaTitle:       "Pour Over Coffee Guide",
		MetaDescription: "Everything you need to brew a clean, sweet pour over at home, from gear to technique.",
		WordCount:       950,
	}
	if warnings := RunQualityGates(good, cfg.Gates(settings, nil)); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	bad := &core.GeneratedArticle{
		Title:           "Coffee",
		MetaTitle:       strings.Repeat("x", 70),
		MetaDescription: "short",
		WordCount:       200,
		ExternalLinks:   []core.ExternalLink{{URL: "https://missing.test"}},
	}
	warnings := RunQualityGates(bad, cfg.Gates(settings, nil))

	wantPrefixes := []string{
		"length: article has 200 words",
		"meta: meta title is 70 characters",
		"meta: meta description is 5 characters",
		"meta: target keyword",
		"links: external link https://missing.test",
	}
	if len(warnings) != len(wantPrefixes) {
		t.Fatalf("got %d warnings, want %d: %v", len(warnings), len(wantPrefixes), warnings)
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(warnings[i], prefix) {
			t.Errorf("warning %d = %q, want prefix %q", i, warnings[i], prefix)
		}
	}
}

func TestSpecificityGate(t *testing.T) {
	cfg := DefaultQualityGateConfig()
	cfg.EnableLengthGate, cfg.EnableMetaGate, cfg.EnableLinkGate = false, false, false

	vague := &core.GeneratedArticle{
		Content: "<p>" + strings.Repeat("There are several things and various ideas to consider here today. ", 20) + "</p>",
	}
	warnings := RunQualityGates(vague, cfg.Gates(core.DefaultSettings(), nil))
	if len(warnings) != 2 ||
		!strings.HasPrefix(warnings[0], "specificity: content scores 0/100 (grade D)") ||
		!strings.Contains(warnings[1], "several, various") {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	concrete := &core.GeneratedArticle{
		Content: strings.Repeat("The grinder costs $120 and Baratza ships it within 3 days. ", 20),
	}
	if warnings := RunQualityGates(concrete, cfg.Gates(core.DefaultSettings(), nil)); len(warnings) != 0 {
		t.Errorf("concrete content should pass, got %v", warnings)
	}
}

func TestQualityGatesDisabled(t *testing.T) {
	cfg := QualityGateConfig{}
	bad := &core.GeneratedArticle{WordCount: 1}
	if warnings := RunQualityGates(bad, cfg.Gates(core.DefaultSettings(), nil)); len(warnings) != 0 {
		t.Errorf("disabled gates should report nothing, got %v", warnings)
	}
}
