// Package seo scores generated articles against a fixed set of on-page SEO
// heuristics.
package seo

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PassThreshold is the minimum score at which an article is publishable.
const PassThreshold = 70

// InternalLinkPlaceholder marks where an internal link is inserted at
// publish time.
const InternalLinkPlaceholder = "{{novig_internal_link}}"

var h2Re = regexp.MustCompile(`(?m)^## `)

// Report is the outcome of scoring one article.
type Report struct {
	Passed bool     `json:"passed"`
	Score  int      `json:"score"`
	Issues []string `json:"issues"`
}

func (r Report) String() string {
	status := "PASS"
	if !r.Passed {
		status = "FAIL"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SEO %s (score: %d/100)", status, r.Score)
	for _, issue := range r.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue)
	}
	return b.String()
}

// Scorer holds the targets for each criterion. The zero value is not
// useful; start from DefaultScorer.
type Scorer struct {
	TitleMin, TitleMax int
	MetaMin, MetaMax   int
	MinH2              int
	MinWords           int
	PassThreshold      int
}

// DefaultScorer returns the standard targets.
func DefaultScorer() Scorer {
	return Scorer{
		TitleMin:      30,
		TitleMax:      70,
		MetaMin:       120,
		MetaMax:       170,
		MinH2:         2,
		MinWords:      500,
		PassThreshold: PassThreshold,
	}
}

// Score evaluates an article with the default targets.
func Score(title, metaDescription, body string, keywords []string) Report {
	return DefaultScorer().Score(title, metaDescription, body, keywords)
}

// Score evaluates every criterion in order and never stops early. Points
// per criterion: title 20, meta 20, headings 20, words 20, keywords 10,
// internal link 10.
func (s Scorer) Score(title, metaDescription, body string, keywords []string) Report {
	const maxPoints = 100
	total := 0
	issues := make([]string, 0, 6)

	add := func(points int, issue string) {
		total += points
		if issue != "" {
			issues = append(issues, issue)
		}
	}

	add(s.lengthPoints(title, s.TitleMin, s.TitleMax,
		"Title length is %d chars (target: %d-%d)"))
	add(s.lengthPoints(metaDescription, s.MetaMin, s.MetaMax,
		"Meta description length is %d chars (target: %d-%d)"))
	add(s.headingPoints(body))
	add(s.wordPoints(body))
	add(keywordPoints(body, keywords))
	add(placeholderPoints(body))

	score := total * 100 / maxPoints
	threshold := s.PassThreshold
	if threshold <= 0 {
		threshold = PassThreshold
	}
	return Report{
		Passed: score >= threshold,
		Score:  score,
		Issues: issues,
	}
}

func (s Scorer) lengthPoints(text string, lo, hi int, format string) (int, string) {
	n := utf8.RuneCountInString(text)
	if n >= lo && n <= hi {
		return 20, ""
	}
	points := 0
	if n > 0 {
		points = 5
	}
	return points, fmt.Sprintf(format, n, lo, hi)
}

func (s Scorer) headingPoints(body string) (int, string) {
	count := len(h2Re.FindAllStringIndex(body, -1))
	if count >= s.MinH2 {
		return 20, ""
	}
	return min(count*10, 15), fmt.Sprintf("Found %d H2 headings (minimum: %d)", count, s.MinH2)
}

func (s Scorer) wordPoints(body string) (int, string) {
	words := len(strings.Fields(body))
	if words >= s.MinWords {
		return 20, ""
	}
	// floor(words / MinWords * 15) in integer arithmetic
	return min(words*15/s.MinWords, 15), fmt.Sprintf("Word count is %d (minimum: %d)", words, s.MinWords)
}

func keywordPoints(body string, keywords []string) (int, string) {
	if len(keywords) == 0 {
		return 10, ""
	}
	lower := strings.ToLower(body)
	var missing []string
	for _, kw := range keywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			missing = append(missing, kw)
		}
	}
	found := len(keywords) - len(missing)
	switch {
	case found == len(keywords):
		return 10, ""
	case found == 0:
		return 0, "No target keywords found in body"
	default:
		return found * 10 / len(keywords), "Missing keywords: " + strings.Join(missing, ", ")
	}
}

func placeholderPoints(body string) (int, string) {
	if strings.Contains(body, InternalLinkPlaceholder) {
		return 10, ""
	}
	return 0, "Missing " + InternalLinkPlaceholder + " placeholder"
}
