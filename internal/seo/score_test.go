package seo

import (
	"reflect"
	"strings"
	"testing"
)

func perfectInputs() (title, meta, body string, keywords []string) {
	title = strings.Repeat("t", 50)
	meta = strings.Repeat("m", 150)
	body = "# Headline\n\n## Overview\n\n" +
		strings.Repeat("analysis ", 520) +
		"\n\n## Picks\n\nNovig runs prediction markets. " + InternalLinkPlaceholder + "\n"
	keywords = []string{"Novig", "prediction markets"}
	return
}

func TestPerfectScore(t *testing.T) {
	title, meta, body, keywords := perfectInputs()
	r := Score(title, meta, body, keywords)
	if r.Score != 100 || !r.Passed {
		t.Fatalf("expected 100/pass, got %d/%v (%v)", r.Score, r.Passed, r.Issues)
	}
	if len(r.Issues) != 0 {
		t.Errorf("expected no issues, got %v", r.Issues)
	}
}

func TestMissingPlaceholderCostsTen(t *testing.T) {
	title, meta, body, keywords := perfectInputs()
	body = strings.ReplaceAll(body, InternalLinkPlaceholder, "")

	r := Score(title, meta, body, keywords)
	if r.Score != 90 {
		t.Fatalf("expected 90, got %d", r.Score)
	}
	want := []string{"Missing {{novig_internal_link}} placeholder"}
	if !reflect.DeepEqual(r.Issues, want) {
		t.Errorf("issues = %v, want %v", r.Issues, want)
	}
}

func TestEmptyKeywordsGetFullCredit(t *testing.T) {
	title, meta, body, _ := perfectInputs()
	for _, kws := range [][]string{nil, {}} {
		if r := Score(title, meta, body, kws); r.Score != 100 {
			t.Errorf("keywords %v: expected 100, got %d (%v)", kws, r.Score, r.Issues)
		}
	}
	// Body content does not matter for the keyword criterion when none are given.
	r := Score("", "", "", nil)
	if r.Score != 10 {
		t.Errorf("empty article with no keywords should score 10, got %d", r.Score)
	}
}

func TestEmptyArticle(t *testing.T) {
	r := Score("", "", "", []string{"Novig"})
	if r.Score != 0 || r.Passed {
		t.Fatalf("expected 0/fail, got %d/%v", r.Score, r.Passed)
	}
	want := []string{
		"Title length is 0 chars (target: 30-70)",
		"Meta description length is 0 chars (target: 120-170)",
		"Found 0 H2 headings (minimum: 2)",
		"Word count is 0 (minimum: 500)",
		"No target keywords found in body",
		"Missing {{novig_internal_link}} placeholder",
	}
	if !reflect.DeepEqual(r.Issues, want) {
		t.Errorf("issues =\n%v\nwant\n%v", r.Issues, want)
	}
}

func TestPartialCredit(t *testing.T) {
	body := "## Heading\n" + strings.Repeat("alpha ", 247) + InternalLinkPlaceholder
	r := Score("Short name", strings.Repeat("x", 50), body, []string{"alpha", "Lakers", "markets"})

	// title 5 + meta 5 + h2 10 + words floor(250/500*15)=7 + keywords floor(1/3*10)=3 + link 10
	if r.Score != 40 {
		t.Fatalf("expected 40, got %d (%v)", r.Score, r.Issues)
	}
	if r.Passed {
		t.Error("40 must not pass")
	}
	want := []string{
		"Title length is 10 chars (target: 30-70)",
		"Meta description length is 50 chars (target: 120-170)",
		"Found 1 H2 headings (minimum: 2)",
		"Word count is 250 (minimum: 500)",
		"Missing keywords: Lakers, markets",
	}
	if !reflect.DeepEqual(r.Issues, want) {
		t.Errorf("issues =\n%v\nwant\n%v", r.Issues, want)
	}
}

func TestLengthBoundaries(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0}, {29, 5}, {30, 20}, {70, 20}, {71, 5},
	}
	s := DefaultScorer()
	for _, tt := range tests {
		got, _ := s.lengthPoints(strings.Repeat("a", tt.n), s.TitleMin, s.TitleMax, "%d %d %d")
		if got != tt.want {
			t.Errorf("title len %d: got %d points, want %d", tt.n, got, tt.want)
		}
	}
}

func TestLengthCountsCharacters(t *testing.T) {
	// 30 two-byte runes are 30 characters, not 60 bytes.
	title := strings.Repeat("é", 30)
	s := DefaultScorer()
	if got, _ := s.lengthPoints(title, s.TitleMin, s.TitleMax, "%d %d %d"); got != 20 {
		t.Errorf("expected full credit for 30 characters, got %d", got)
	}
}

func TestHeadingsOnlyAtLineStart(t *testing.T) {
	s := DefaultScorer()
	tests := []struct {
		body string
		want int
	}{
		{"", 0},
		{"## One", 10},
		{"text ## not a heading\n##NoSpace\n### h3", 0},
		{"## One\n## Two", 20},
		{"## One\nbody\n## Two\n## Three", 20},
	}
	for _, tt := range tests {
		if got, _ := s.headingPoints(tt.body); got != tt.want {
			t.Errorf("headingPoints(%q) = %d, want %d", tt.body, got, tt.want)
		}
	}
}

func TestWordPointsMonotonic(t *testing.T) {
	s := DefaultScorer()
	prev := -1
	for n := 0; n <= 520; n++ {
		got, _ := s.wordPoints(strings.Repeat("w ", n))
		if got < prev {
			t.Fatalf("word points decreased at %d words: %d < %d", n, got, prev)
		}
		prev = got
	}
	if got, _ := s.wordPoints(strings.Repeat("w ", 499)); got != 14 {
		t.Errorf("499 words should floor to 14, got %d", got)
	}
}

func TestKeywordsCaseInsensitive(t *testing.T) {
	got, issue := keywordPoints("Trade on NOVIG today", []string{"novig"})
	if got != 10 || issue != "" {
		t.Errorf("expected full credit, got %d %q", got, issue)
	}
}

func TestDeterministicAndBounded(t *testing.T) {
	inputs := [][4]string{
		{"", "", "", ""},
		{"A title that is long enough to count", "meta", "## a\n## b\n" + InternalLinkPlaceholder, "a"},
		{strings.Repeat("x", 200), strings.Repeat("y", 400), strings.Repeat("z ", 1000), "q"},
	}
	for _, in := range inputs {
		a := Score(in[0], in[1], in[2], []string{in[3]})
		b := Score(in[0], in[1], in[2], []string{in[3]})
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Score not deterministic: %v vs %v", a, b)
		}
		if a.Score < 0 || a.Score > 100 {
			t.Errorf("score out of range: %d", a.Score)
		}
		if a.Passed != (a.Score >= PassThreshold) {
			t.Errorf("passed flag inconsistent with score %d", a.Score)
		}
	}
}

func TestReportString(t *testing.T) {
	r := Report{Passed: false, Score: 40, Issues: []string{"a", "b"}}
	want := "SEO FAIL (score: 40/100)\n  - a\n  - b"
	if r.String() != want {
		t.Errorf("String() = %q, want %q", r.String(), want)
	}
	if got := (Report{Passed: true, Score: 100}).String(); got != "SEO PASS (score: 100/100)" {
		t.Errorf("unexpected pass string %q", got)
	}
}

func BenchmarkScore(b *testing.B) {
	title, meta, body, keywords := perfectInputs()
	for i := 0; i < b.N; i++ {
		Score(title, meta, body, keywords)
	}
}
