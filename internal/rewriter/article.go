package rewriter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Yashvanth1222/SiteScraper/internal/seo"
	"github.com/Yashvanth1222/SiteScraper/internal/slug"
)

// Frontmatter is the YAML header of a processed article. Field order is
// the on-disk key order.
type Frontmatter struct {
	Title           string   `yaml:"title"`
	MetaDescription string   `yaml:"meta_description"`
	Category        string   `yaml:"category"`
	Sport           string   `yaml:"sport"`
	Source          string   `yaml:"source"`
	Date            string   `yaml:"date"`
	Keywords        []string `yaml:"keywords"`
	SEOScore        int      `yaml:"seo_score"`
}

// Article is a rewritten, scored article ready to be saved.
type Article struct {
	Title           string
	MetaDescription string
	Body            string
	ContentType     ContentType
	Sport           string
	Source          string
	Date            string
	Keywords        []string
	SEO             seo.Report

	// Path is set once the article has been saved.
	Path string
}

// Frontmatter returns the article's YAML header fields.
func (a *Article) Frontmatter() Frontmatter {
	kws := a.Keywords
	if kws == nil {
		kws = []string{}
	}
	return Frontmatter{
		Title:           a.Title,
		MetaDescription: a.MetaDescription,
		Category:        string(a.ContentType),
		Sport:           a.Sport,
		Source:          a.Source,
		Date:            a.Date,
		Keywords:        kws,
		SEOScore:        a.SEO.Score,
	}
}

// Markdown renders the article as YAML frontmatter followed by the body.
func (a *Article) Markdown() (string, error) {
	fm, err := yaml.Marshal(a.Frontmatter())
	if err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	return "---\n" + string(fm) + "---\n\n" + a.Body, nil
}

// Filename is "{content_type}_{title fragment}.md".
func (a *Article) Filename() string {
	name := slug.Filename(a.Title)
	if name == "" {
		name = "untitled"
	}
	return string(a.ContentType) + "_" + name + ".md"
}

// Save writes the article into dir and records the path on the article.
func Save(a *Article, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	md, err := a.Markdown()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, a.Filename())
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write article: %w", err)
	}
	a.Path = path
	return path, nil
}
