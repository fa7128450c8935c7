// Package quality scores how concrete generated prose is.
package quality

import (
	"math"
	"regexp"
	"strings"
)

// Metrics captures specificity signals for one text.
type Metrics struct {
	WordCount       int      `json:"wordCount"`
	VagueCount      int      `json:"vagueCount"`
	VaguePhrases    []string `json:"vaguePhrases"`
	NumberCount     int      `json:"numberCount"`
	ProperNounCount int      `json:"properNounCount"`
	Specificity     int      `json:"specificity"` // 0-100
	Grade           string   `json:"grade"`
}

// VaguePer1000 is the vague phrase density.
func (m Metrics) VaguePer1000() float64 {
	return per1000(m.VagueCount, m.WordCount)
}

// Thresholds controls grading and when a text is judged at all.
type Thresholds struct {
	MinWords        int // texts shorter than this are not scored
	MaxVaguePer1000 float64
	MinSpecificity  int
	GradeAMinScore  int
	GradeBMinScore  int
	GradeCMinScore  int
}

// DefaultThresholds returns thresholds tuned for long-form articles.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinWords:        150,
		MaxVaguePer1000: 12,
		MinSpecificity:  40,
		GradeAMinScore:  75,
		GradeBMinScore:  55,
		GradeCMinScore:  40,
	}
}

// VaguePhrases returns the list of generic phrases to detect
var VaguePhrases = []string{
	"several",
	"various",
	"multiple",
	"numerous",
	"a number of",
	"a few",
	"a couple of",
	"certain",
	"some people",
	"many people",
	"it is important to note",
	"in today's world",
}

var (
	vaguePattern = func() *regexp.Regexp {
		quoted := make([]string, len(VaguePhrases))
		for i, p := range VaguePhrases {
			quoted[i] = regexp.QuoteMeta(p)
		}
		return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	}()
	numberPattern     = regexp.MustCompile(`\$?\d[\d,]*(?:\.\d+)?(?:%|x\b|[BMK]\b)?`)
	properNounPattern = regexp.MustCompile(`\b[A-Z][a-z]{2,}(?:\s+[A-Z][a-z]+)*\b`)
)

// DetectVaguePhrases counts and lists vague phrases in text
func DetectVaguePhrases(text string) (count int, found []string) {
	seen := make(map[string]bool)
	for _, m := range vaguePattern.FindAllString(text, -1) {
		count++
		phrase := strings.ToLower(m)
		if !seen[phrase] {
			seen[phrase] = true
			found = append(found, phrase)
		}
	}
	return count, found
}

// DetectNumbers counts figures, percentages, prices and multipliers.
func DetectNumbers(text string) int {
	return len(numberPattern.FindAllString(text, -1))
}

// DetectProperNouns counts distinct capitalized names, skipping words that
// are capitalized only because they start a sentence.
func DetectProperNouns(text string) int {
	names := make(map[string]bool)
	for _, loc := range properNounPattern.FindAllStringIndex(text, -1) {
		if sentenceStart(text, loc[0]) && !strings.Contains(text[loc[0]:loc[1]], " ") {
			continue
		}
		names[text[loc[0]:loc[1]]] = true
	}
	return len(names)
}

func sentenceStart(text string, i int) bool {
	prev := strings.TrimRight(text[:i], " \t\n\"'(")
	return prev == "" || strings.HasSuffix(prev, ".") || strings.HasSuffix(prev, "!") ||
		strings.HasSuffix(prev, "?") || strings.HasSuffix(prev, ":")
}

// CalculateSpecificityScore computes an overall specificity score (0-100)
// from densities per 1000 words.
func CalculateSpecificityScore(numbersPer1000, namesPer1000, vaguePer1000 float64) int {
	score := 20.0
	score += math.Min(numbersPer1000*2, 40)
	score += math.Min(namesPer1000, 40)
	score -= vaguePer1000 * 2

	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// Grade assigns a letter grade to a specificity score.
func Grade(score int, t Thresholds) string {
	switch {
	case score >= t.GradeAMinScore:
		return "A"
	case score >= t.GradeBMinScore:
		return "B"
	case score >= t.GradeCMinScore:
		return "C"
	default:
		return "D"
	}
}

// Evaluate scores plain text. ok is false when the text is too short to
// judge.
func Evaluate(text string, t Thresholds) (m Metrics, ok bool) {
	m.WordCount = len(strings.Fields(text))
	if m.WordCount < t.MinWords {
		return m, false
	}

	m.VagueCount, m.VaguePhrases = DetectVaguePhrases(text)
	m.NumberCount = DetectNumbers(text)
	m.ProperNounCount = DetectProperNouns(text)
	m.Specificity = CalculateSpecificityScore(
		per1000(m.NumberCount, m.WordCount),
		per1000(m.ProperNounCount, m.WordCount),
		per1000(m.VagueCount, m.WordCount),
	)
	m.Grade = Grade(m.Specificity, t)
	return m, true
}

func per1000(n, words int) float64 {
	if words == 0 {
		return 0
	}
	return float64(n) * 1000 / float64(words)
}
