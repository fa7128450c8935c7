package quality

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectVaguePhrases(t *testing.T) {
	count, found := DetectVaguePhrases("Several options and various tools. Several more, but something awesome.")
	if count != 3 {
		t.Errorf("count = %d, expected 3", count)
	}
	if diff := cmp.Diff([]string{"several", "various"}, found); diff != "" {
		t.Errorf("found mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"none", "no figures here", 0},
		{"mixed", "Brew at 94% for 4 minutes, $1.5M, 10x faster, 1,000 cups", 5},
		{"decimal", "a ratio of 1:16.5", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectNumbers(tt.input); got != tt.expected {
				t.Errorf("DetectNumbers(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDetectProperNouns(t *testing.T) {
	text := "Hario makes the V60. Chemex is classic. We met James Hoffmann in London."
	if got := DetectProperNouns(text); got != 2 {
		t.Errorf("DetectProperNouns = %d, expected 2", got)
	}
}

func TestEvaluate(t *testing.T) {
	th := DefaultThresholds()

	if _, ok := Evaluate("too short to judge", th); ok {
		t.Error("short text should not be scored")
	}

	concrete := strings.Repeat("The grinder costs $120 and Baratza ships it within 3 days. ", 20)
	m, ok := Evaluate(concrete, th)
	if !ok {
		t.Fatal("long text should be scored")
	}
	if m.WordCount != 220 || m.NumberCount != 40 || m.ProperNounCount != 1 || m.VagueCount != 0 {
		t.Errorf("unexpected counts: %+v", m)
	}
	if m.Specificity != 65 || m.Grade != "B" {
		t.Errorf("specificity = %d grade %s, expected 65 B", m.Specificity, m.Grade)
	}

	vague := strings.Repeat("There are several things and various ideas to consider here today. ", 20)
	m, _ = Evaluate(vague, th)
	if m.Specificity != 0 || m.Grade != "D" || m.VaguePer1000() < th.MaxVaguePer1000 {
		t.Errorf("vague text scored %+v", m)
	}
}

func TestGrade(t *testing.T) {
	th := DefaultThresholds()
	for score, want := range map[int]string{100: "A", 75: "A", 60: "B", 40: "C", 39: "D"} {
		if got := Grade(score, th); got != want {
			t.Errorf("Grade(%d) = %s, expected %s", score, got, want)
		}
	}
}
