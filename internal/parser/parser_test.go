package parser

import (
	"log/slog"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Lakers vs Celtics Picks | Covers</title>
    <meta name="description" content="Our best bets for Lakers vs Celtics.">
    <meta property="og:title" content="Lakers vs Celtics Picks">
    <meta property="article:published_time" content="2026-02-17T09:30:00Z">
    <script type="application/ld+json">
    {"@context":"https://schema.org","@type":"NewsArticle","headline":"LD Headline","datePublished":"2026-02-16"}
    </script>
</head>
<body>
    <nav><a href="/">Home</a> <a href="#top">Top</a> <a href="mailto:x@y.z">Mail</a></nav>
    <main>
        <article>
            <h1>Lakers vs Celtics Picks</h1>
            <p>The Lakers visit Boston on Tuesday night with the Celtics favored by six points at most books.
               Boston has covered in five straight home games while Los Angeles is 3-7 against the spread on the road.</p>
            <p>Our model leans toward the Celtics on the spread and the over, with the total sitting at 228.5.
               Injuries on the Lakers side remain the key factor to watch before tip-off.</p>
            <p>Read more about <a href="/nba/betting-news/lakers-celtics-injury-report">the injury report</a>
               and <a href="https://www.covers.com/nba/betting-news/boston-home-streak#stats">Boston's streak</a>.</p>
        </article>
    </main>
    <a href="https://other.com/nba/betting-news/elsewhere">External</a>
    <a href="/nba/odds">Odds</a>
</body>
</html>`

func makeResp(url, body string) *types.Response {
	req, _ := types.NewRequest(url)
	return &types.Response{
		Request:     req,
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "text/html",
		FinalURL:    url,
	}
}

func TestExtract(t *testing.T) {
	e := NewExtractor(testLogger)
	page, err := e.Extract(makeResp("https://www.covers.com/nba/betting-news", testHTML))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if page.Title != "Lakers vs Celtics Picks" {
		t.Errorf("og:title should win, got %q", page.Title)
	}
	if page.Description != "Our best bets for Lakers vs Celtics." {
		t.Errorf("description = %q", page.Description)
	}
	if page.PublishedAt != "2026-02-17T09:30:00Z" {
		t.Errorf("published_at = %q", page.PublishedAt)
	}
	if !strings.Contains(page.Content, "Boston has covered in five straight home games") {
		t.Errorf("content missing article text:\n%s", page.Content)
	}
	if page.Excerpt == "" {
		t.Error("expected an excerpt")
	}
	if len(page.Links) == 0 {
		t.Error("expected discovered links")
	}
}

func TestExtractFallbacks(t *testing.T) {
	body := `<html><head><title>Plain Title</title>
<script type="application/ld+json">[{"@type":"Article","datePublished":"2026-01-05","description":"From LD"}]</script>
</head><body><p>Short body text.</p><time datetime="2026-01-06">Jan 6</time></body></html>`

	page, err := NewExtractor(testLogger).Extract(makeResp("https://example.com/nba/x", body))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if page.Title != "Plain Title" {
		t.Errorf("title should fall back to <title>, got %q", page.Title)
	}
	if page.Description != "From LD" {
		t.Errorf("description should come from JSON-LD, got %q", page.Description)
	}
	if page.PublishedAt != "2026-01-06" {
		t.Errorf("<time datetime> should be used before JSON-LD, got %q", page.PublishedAt)
	}
	if !strings.Contains(page.Content, "Short body text.") {
		t.Errorf("content = %q", page.Content)
	}
}

func TestExtractJSONLDGraph(t *testing.T) {
	body := `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@graph":[{"@type":"WebPage"},{"@type":"Article","headline":"Graph Headline","datePublished":"2026-02-01"}]}
</script></head><body></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	ld := extractJSONLD(doc)
	if ld.headline != "Graph Headline" || ld.datePublished != "2026-02-01" {
		t.Errorf("unexpected json-ld %+v", ld)
	}
}

func TestLinks(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(testHTML))
	if err != nil {
		t.Fatal(err)
	}
	links := Links(doc, "https://www.covers.com/nba/betting-news")

	want := []string{
		"https://www.covers.com/",
		"https://www.covers.com/nba/betting-news/lakers-celtics-injury-report",
		"https://www.covers.com/nba/betting-news/boston-home-streak",
		"https://other.com/nba/betting-news/elsewhere",
		"https://www.covers.com/nba/odds",
	}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("links = %v\nwant %v", links, want)
	}
}

func TestArticleLinks(t *testing.T) {
	links := []string{
		"https://www.covers.com/",
		"https://www.covers.com/nba/betting-news",
		"https://www.covers.com/nba/betting-news/",
		"https://www.covers.com/nba/betting-news/lakers-celtics-injury-report",
		"https://other.com/nba/betting-news/elsewhere",
		"https://www.covers.com/nba/odds",
		"https://www.covers.com/nba/betting-news/boston-home-streak",
		"https://www.covers.com/nba/betting-news/third",
	}

	got := ArticleLinks(links, "https://www.covers.com/nba/betting-news", 2)
	want := []string{
		"https://www.covers.com/nba/betting-news/lakers-celtics-injury-report",
		"https://www.covers.com/nba/betting-news/boston-home-streak",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ArticleLinks = %v, want %v", got, want)
	}

	if got := ArticleLinks(links, "https://www.covers.com/nba/betting-news", 0); got != nil {
		t.Errorf("limit 0 should return nil, got %v", got)
	}
}

func TestCleanText(t *testing.T) {
	in := "  first   line \n\n\t\n second\tline  "
	if got := cleanText(in); got != "first line\nsecond line" {
		t.Errorf("cleanText = %q", got)
	}
}

func BenchmarkExtract(b *testing.B) {
	e := NewExtractor(testLogger)
	for i := 0; i < b.N; i++ {
		e.Extract(makeResp("https://www.covers.com/nba/betting-news", testHTML))
	}
}
