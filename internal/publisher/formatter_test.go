package publisher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const sampleArticle = `---
title: Lakers vs Celtics Best Bets
meta_description: Forecasts for tonight.
category: best_bets
sport: NBA
source: covers
date: "2026-02-17"
keywords:
    - Lakers
    - Novig
seo_score: 85
---

# Lakers vs Celtics Best Bets

## Overview

Novig prediction markets price the game **closely**.

| Market | Price |
|---|---|
| Lakers | 0.52 |
`

func writeArticle(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFrontmatter(t *testing.T) {
	meta, body, err := ParseFrontmatter(sampleArticle)
	if err != nil {
		t.Fatalf("ParseFrontmatter: %v", err)
	}
	if meta["title"] != "Lakers vs Celtics Best Bets" {
		t.Errorf("title = %v", meta["title"])
	}
	if meta["seo_score"] != 85 {
		t.Errorf("seo_score = %v (%T)", meta["seo_score"], meta["seo_score"])
	}
	if !strings.HasPrefix(body, "# Lakers vs Celtics") {
		t.Errorf("body = %q", body)
	}
}

func TestParseFrontmatterMissing(t *testing.T) {
	text := "# Just a body\n\nNo header."
	meta, body, err := ParseFrontmatter(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meta) != 0 {
		t.Errorf("expected empty meta, got %v", meta)
	}
	if body != text {
		t.Errorf("body should be the whole text, got %q", body)
	}
}

func TestParseFrontmatterInvalidYAML(t *testing.T) {
	if _, _, err := ParseFrontmatter("---\ntitle: [unclosed\n---\nbody"); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestFormatArticle(t *testing.T) {
	dir := t.TempDir()
	path := writeArticle(t, dir, "best_bets_lakers-vs-celtics-best-bets.md", sampleArticle)

	f := NewFormatter(dir, "https://novig.com/blog/", "Novig AI", testLogger)
	a, err := f.FormatArticle(path)
	if err != nil {
		t.Fatalf("FormatArticle: %v", err)
	}

	if a.Slug != "lakers-vs-celtics-best-bets" {
		t.Errorf("slug = %q", a.Slug)
	}
	if a.Date != "2026-02-17" || a.SEOScore != 85 {
		t.Errorf("date=%q score=%d", a.Date, a.SEOScore)
	}

	for _, want := range []string{
		`<article class="blog-post">`,
		"<h1>Lakers vs Celtics Best Bets</h1>",
		`<span class="author">Novig AI</span>`,
		`<time datetime="2026-02-17">2026-02-17</time>`,
		`<span class="category">best_bets</span>`,
		`<span class="tag">Lakers</span>`,
		`<div class="featured-image" data-src=""></div>`,
		"<strong>closely</strong>",
		"<table>",
		"<h2",
	} {
		if !strings.Contains(a.HTML, want) {
			t.Errorf("html missing %q:\n%s", want, a.HTML)
		}
	}

	for _, want := range []string{
		"<title>Lakers vs Celtics Best Bets</title>",
		"<link>https://novig.com/blog/lakers-vs-celtics-best-bets</link>",
		"<author>Novig AI</author>",
		"<pubDate>Tue, 17 Feb 2026 00:00:00 +0000</pubDate>",
	} {
		if !strings.Contains(a.RSS, want) {
			t.Errorf("rss missing %q:\n%s", want, a.RSS)
		}
	}
}

func TestFormatArticleWithoutFrontmatter(t *testing.T) {
	dir := t.TempDir()
	path := writeArticle(t, dir, "my-first-post.md", "Plain <b>body</b> & more")

	f := NewFormatter(dir, "https://novig.com/blog", "", testLogger)
	f.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	a, err := f.FormatArticle(path)
	if err != nil {
		t.Fatalf("FormatArticle: %v", err)
	}
	if a.Title != "My First Post" {
		t.Errorf("title = %q", a.Title)
	}
	if a.Slug != "my-first-post" {
		t.Errorf("slug = %q", a.Slug)
	}
	if a.Date != "2026-03-01" {
		t.Errorf("date = %q", a.Date)
	}
	if !strings.Contains(a.HTML, `<span class="category">Sports Betting</span>`) {
		t.Errorf("expected default category:\n%s", a.HTML)
	}
	if strings.Contains(a.HTML, `class="tags"`) {
		t.Error("tags block should be omitted without tags")
	}
	if !strings.Contains(a.RSS, "<description>Plain &lt;b&gt;body&lt;/b&gt; &amp; more</description>") {
		t.Errorf("description should be escaped:\n%s", a.RSS)
	}
}

func TestDescription(t *testing.T) {
	body := "Line one\nline two\n" + strings.Repeat("x", 300)
	got := Description(body)
	if !strings.HasPrefix(got, "Line one line two ") {
		t.Errorf("newlines should become spaces, got %q", got[:20])
	}
	if len([]rune(got)) != 200 {
		t.Errorf("expected 200 characters, got %d", len([]rune(got)))
	}
	if Description("  short\n") != "short" {
		t.Errorf("expected trimmed description")
	}
}

func TestFormatAll(t *testing.T) {
	dir := t.TempDir()
	day := filepath.Join(dir, "2026-02-17")
	writeArticle(t, day, "b.md", "---\ntitle: Second\n---\nBody")
	writeArticle(t, day, "a.md", "---\ntitle: First\n---\nBody")
	writeArticle(t, day, "broken.md", "---\ntitle: [x\n---\nBody")
	writeArticle(t, day, "notes.txt", "ignored")

	f := NewFormatter(dir, "https://novig.com/blog", "", testLogger)
	articles, err := f.FormatAll("2026-02-17")
	if err != nil {
		t.Fatalf("FormatAll: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "First" || articles[1].Title != "Second" {
		t.Errorf("unexpected order %q, %q", articles[0].Title, articles[1].Title)
	}

	none, err := f.FormatAll("2020-01-01")
	if err != nil || len(none) != 0 {
		t.Errorf("missing day should yield nothing, got %d, %v", len(none), err)
	}
}
