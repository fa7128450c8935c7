package competitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"contentforge/internal/core"
	"contentforge/internal/fetch"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const pourOverPage = `<html><head>
<title>Pour Over Coffee Guide</title>
<meta name="description" content="How to brew pour over.">
</head><body>
<nav><a href="/">Home</a> Navigation navigation navigation</nav>
<article>
  <h1>Pour Over Coffee Guide</h1>
  <h2>Choosing a Grinder</h2>
  <p>Grinder choice matters. A burr grinder gives consistent grounds. Grinder grinder.</p>
  <h2>Water Temperature</h2>
  <p>Water should be hot, around ninety degrees. Filter water tastes better.</p>
</article>
</body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestAnalyzeDocument(t *testing.T) {
	r := AnalyzeDocument("https://c.test/pour-over", parse(t, pourOverPage))

	if r.Title != "Pour Over Coffee Guide" || r.MetaDescription != "How to brew pour over." {
		t.Errorf("unexpected metadata: %+v", r)
	}
	want := []string{"Pour Over Coffee Guide", "Choosing a Grinder", "Water Temperature"}
	if len(r.Headings) != len(want) {
		t.Fatalf("Headings = %v", r.Headings)
	}
	for i := range want {
		if r.Headings[i] != want[i] {
			t.Errorf("Headings[%d] = %q, want %q", i, r.Headings[i], want[i])
		}
	}
	if len(r.Keywords) == 0 || r.Keywords[0] != "grinder" {
		t.Errorf("Keywords = %v", r.Keywords)
	}
	for _, k := range r.Keywords {
		if k == "navigation" {
			t.Error("navigation text should be stripped before counting")
		}
	}
	if r.WordCount < 20 {
		t.Errorf("WordCount = %d", r.WordCount)
	}
}

func TestTopKeywords(t *testing.T) {
	got := TopKeywords("Coffee coffee COFFEE! beans, beans. about about about about tea cup kettle", 3)
	if len(got) != 3 || got[0] != "coffee" || got[1] != "beans" || got[2] != "kettle" {
		t.Errorf("TopKeywords = %v", got)
	}
}

func TestFillContentGaps(t *testing.T) {
	results := []core.CompetitorAnalysisResult{
		{Keywords: []string{"grinder", "filter", "kettle"}, Headings: []string{"Grinder basics"}},
		{Keywords: []string{"kettle", "grinder", "scale"}, Headings: []string{"Kettle and Scale"}},
	}
	FillContentGaps(results)

	if strings.Contains(strings.Join(results[0].ContentGaps, ","), "grinder") {
		t.Errorf("covered topic reported as gap: %v", results[0].ContentGaps)
	}
	if results[0].ContentGaps[0] != "kettle" {
		t.Errorf("highest-scoring missing topic should come first: %v", results[0].ContentGaps)
	}
	if len(results[1].ContentGaps) != 2 {
		t.Errorf("ContentGaps = %v", results[1].ContentGaps)
	}
}

func TestAnalyzeAllLimitsAndSkipsFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(pourOverPage))
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/a", srv.URL + "/broken", srv.URL + "/c", srv.URL + "/d"}
	a := NewAnalyzer(fetch.NewClient(5*time.Second), 3, zerolog.Nop())

	results := a.AnalyzeAll(context.Background(), urls)

	if atomic.LoadInt32(&hits) != 3 {
		t.Errorf("expected 3 fetches, got %d", hits)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].URL != srv.URL+"/a" || results[1].URL != srv.URL+"/c" {
		t.Errorf("input order not kept: %s, %s", results[0].URL, results[1].URL)
	}
	if AverageWordCount(results) != results[0].WordCount {
		t.Errorf("AverageWordCount = %d", AverageWordCount(results))
	}
}
