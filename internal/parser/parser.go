// Package parser reduces fetched pages to the fields the content pipeline
// works with: title, readable text, excerpt, publish time and links.
package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

const excerptLen = 300

// Page is the readable content of one fetched page.
type Page struct {
	URL         string
	Title       string
	Description string
	PublishedAt string
	Content     string
	Excerpt     string
	Links       []string
}

// Extractor turns responses into Pages.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("component", "extractor"),
	}
}

// Extract parses a response. Metadata comes from meta tags (XPath) and
// JSON-LD, text from readability, links from anchors.
func (e *Extractor) Extract(resp *types.Response) (*Page, error) {
	pageURL := resp.FinalURL
	if pageURL == "" {
		pageURL = resp.Request.URLString()
	}

	root, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &types.ParseError{Source: pageURL, Err: err}
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{Source: pageURL, Err: err}
	}

	meta := extractMeta(root)
	ld := extractJSONLD(doc)

	page := &Page{
		URL:         pageURL,
		Description: firstNonEmpty(meta.description, ld.description),
		PublishedAt: firstNonEmpty(meta.publishedAt, ld.datePublished),
		Links:       Links(doc, pageURL),
	}

	var readableTitle string
	if u, err := url.Parse(pageURL); err == nil {
		article, err := readability.FromReader(bytes.NewReader(resp.Body), u)
		if err != nil {
			e.logger.Debug("readability failed", "url", pageURL, "error", err)
		} else {
			readableTitle = article.Title
			page.Content = cleanText(article.TextContent)
			page.Excerpt = strings.TrimSpace(article.Excerpt)
		}
	}

	if page.Content == "" {
		page.Content = cleanText(doc.Find("main, article, body").First().Text())
	}
	page.Title = firstNonEmpty(meta.ogTitle, meta.title, readableTitle, ld.headline)
	page.Excerpt = firstNonEmpty(page.Excerpt, page.Description, truncate(page.Content, excerptLen))

	if page.Title == "" && page.Content == "" {
		return nil, &types.ParseError{Source: pageURL, Err: fmt.Errorf("no readable content")}
	}
	return page, nil
}

// cleanText trims each line and drops empty ones.
func cleanText(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
