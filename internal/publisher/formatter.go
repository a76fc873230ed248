// Package publisher turns processed Markdown articles into blog HTML and
// RSS items and pushes them to the configured backends.
package publisher

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/Yashvanth1222/SiteScraper/internal/slug"
	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

const (
	dateLayout      = "2006-01-02"
	defaultCategory = "Sports Betting"
	descriptionLen  = 200
)

var frontmatterRe = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n(.*)$`)

// ParseFrontmatter splits a YAML header from a Markdown body. Text without
// a header yields empty metadata and the whole text as body.
func ParseFrontmatter(text string) (map[string]any, string, error) {
	m := frontmatterRe.FindStringSubmatch(text)
	if m == nil {
		return map[string]any{}, text, nil
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(m[1]), &meta); err != nil {
		return nil, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, m[2], nil
}

// Formatted is one article rendered for publishing.
type Formatted struct {
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	HTML        string         `json:"-"`
	RSS         string         `json:"-"`
	Date        string         `json:"date"`
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta"`
	SEOScore    int            `json:"seo_score"`
	Source      string         `json:"source_path"`
}

// Formatter reads processed articles and renders HTML and RSS.
type Formatter struct {
	processedDir string
	baseURL      string
	author       string
	md           goldmark.Markdown
	now          func() time.Time
	logger       *slog.Logger
}

// NewFormatter creates a Formatter reading from processedDir.
func NewFormatter(processedDir, baseURL, author string, logger *slog.Logger) *Formatter {
	if author == "" {
		author = "Novig AI"
	}
	return &Formatter{
		processedDir: processedDir,
		baseURL:      strings.TrimRight(baseURL, "/"),
		author:       author,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		now:    time.Now,
		logger: logger.With("component", "formatter"),
	}
}

// FormatArticle renders a single Markdown file.
func (f *Formatter) FormatArticle(path string) (*Formatted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	meta, body, err := ParseFrontmatter(string(data))
	if err != nil {
		return nil, &types.ParseError{Source: path, Err: err}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	title := metaString(meta, "title")
	if title == "" {
		title = cases.Title(language.English).String(strings.ReplaceAll(stem, "-", " "))
	}
	articleSlug := metaString(meta, "slug")
	if articleSlug == "" {
		articleSlug = slug.GenerateWithFallback(title, stem)
	}
	date := metaString(meta, "date")
	if date == "" {
		date = f.now().Format(dateLayout)
	}

	var content bytes.Buffer
	if err := f.md.Convert([]byte(body), &content); err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}

	page, err := f.wrap(title, date, content.String(), meta)
	if err != nil {
		return nil, err
	}

	description := Description(body)
	item, err := f.rssItem(title, articleSlug, description, date)
	if err != nil {
		return nil, err
	}

	return &Formatted{
		Slug:        articleSlug,
		Title:       title,
		HTML:        page,
		RSS:         item,
		Date:        date,
		Description: description,
		Meta:        meta,
		SEOScore:    metaInt(meta, "seo_score"),
		Source:      path,
	}, nil
}

// FormatAll renders every Markdown file in the processed directory for
// date. A missing directory yields no articles.
func (f *Formatter) FormatAll(date string) ([]*Formatted, error) {
	if date == "" {
		date = f.now().Format(dateLayout)
	}
	dayDir := filepath.Join(f.processedDir, date)
	files, err := filepath.Glob(filepath.Join(dayDir, "*.md"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		f.logger.Warn("no processed articles found", "date", date, "dir", dayDir)
		return nil, nil
	}

	out := make([]*Formatted, 0, len(files))
	for _, file := range files {
		article, err := f.FormatArticle(file)
		if err != nil {
			f.logger.Error("failed to format article", "path", file, "error", err)
			continue
		}
		f.logger.Info("formatted article", "file", filepath.Base(file), "slug", article.Slug)
		out = append(out, article)
	}
	return out, nil
}

// Description is the first 200 characters of body on one line.
func Description(body string) string {
	if utf8.RuneCountInString(body) > descriptionLen {
		body = string([]rune(body)[:descriptionLen])
	}
	return strings.TrimSpace(strings.ReplaceAll(body, "\n", " "))
}

var pageTmpl = template.Must(template.New("article").Parse(`<article class="blog-post">
  <header>
    <h1>{{.Title}}</h1>
    <div class="meta">
      <span class="author">{{.Author}}</span>
      <time datetime="{{.Date}}">{{.Date}}</time>
      <span class="category">{{.Category}}</span>
    </div>
{{- if .Tags}}
    <div class="tags">{{range .Tags}}<span class="tag">{{.}}</span>{{end}}</div>
{{- end}}
    <div class="featured-image" data-src=""></div>
  </header>
  <div class="content">
{{.Content}}
  </div>
</article>
`))

func (f *Formatter) wrap(title, date, content string, meta map[string]any) (string, error) {
	category := metaString(meta, "category")
	if category == "" {
		category = defaultCategory
	}
	tags := metaStrings(meta, "tags")
	if len(tags) == 0 {
		tags = metaStrings(meta, "keywords")
	}

	var b strings.Builder
	err := pageTmpl.Execute(&b, struct {
		Title, Author, Date, Category string
		Tags                          []string
		Content                       template.HTML
	}{title, f.author, date, category, tags, template.HTML(content)})
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return b.String(), nil
}

type rssItem struct {
	XMLName     xml.Name `xml:"item"`
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        string   `xml:"guid"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Author      string   `xml:"author"`
}

func (f *Formatter) rssItem(title, articleSlug, description, date string) (string, error) {
	link := f.baseURL + "/" + articleSlug
	pub := date
	if t, err := time.Parse(dateLayout, date); err == nil {
		pub = t.Format(time.RFC1123Z)
	}
	out, err := xml.MarshalIndent(rssItem{
		Title:       title,
		Link:        link,
		GUID:        link,
		Description: description,
		PubDate:     pub,
		Author:      f.author,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode rss item: %w", err)
	}
	return string(out) + "\n", nil
}

func metaString(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case time.Time:
		return v.Format(dateLayout)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func metaStrings(meta map[string]any, key string) []string {
	list, ok := meta[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
