// Package rewriter turns scraped records into SEO-scored Markdown articles
// through a language model.
package rewriter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Yashvanth1222/SiteScraper/internal/seo"
	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request describes one rewrite.
type Request struct {
	Source      *types.Item
	ContentType ContentType
	Sport       string
	Date        string
	Keywords    []string
}

// Rewriter rewrites records with an LLM and scores the result.
type Rewriter struct {
	llm             Generator
	scorer          seo.Scorer
	defaultKeywords []string
	logger          *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithScorer overrides the SEO scorer.
func WithScorer(s seo.Scorer) Option {
	return func(r *Rewriter) { r.scorer = s }
}

// WithDefaultKeywords sets the keywords merged into every request.
func WithDefaultKeywords(kws []string) Option {
	return func(r *Rewriter) { r.defaultKeywords = kws }
}

// New creates a Rewriter.
func New(llm Generator, logger *slog.Logger, opts ...Option) *Rewriter {
	r := &Rewriter{
		llm:             llm,
		scorer:          seo.DefaultScorer(),
		defaultKeywords: []string{"Novig", "prediction markets"},
		logger:          logger.With("component", "rewriter"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite prompts the model with the source record and returns the parsed,
// scored article.
func (r *Rewriter) Rewrite(ctx context.Context, req Request) (*Article, error) {
	if req.Source == nil {
		return nil, fmt.Errorf("rewrite: no source record")
	}
	if _, err := ParseContentType(string(req.ContentType)); err != nil {
		return nil, err
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	sport := req.Sport
	if sport == "" {
		sport = "NBA"
	}
	source := req.Source.GetString(types.FieldSource)
	if source == "" {
		source = "unknown"
	}
	keywords := MergeKeywords(req.Keywords, r.defaultKeywords)

	sourceData, err := json.MarshalIndent(req.Source, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode source record: %w", err)
	}

	prompt, err := BuildPrompt(req.ContentType, PromptData{
		Sport:      sport,
		Date:       date,
		SourceData: string(sourceData),
		Keywords:   strings.Join(keywords, ", "),
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("rewriting article",
		"content_type", req.ContentType,
		"sport", sport,
		"source", source,
	)

	text, err := r.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate %s article: %w", req.ContentType, err)
	}

	title, meta, body := ParseResponse(text)
	report := r.scorer.Score(title, meta, body, keywords)

	return &Article{
		Title:           title,
		MetaDescription: meta,
		Body:            body,
		ContentType:     req.ContentType,
		Sport:           sport,
		Source:          source,
		Date:            date,
		Keywords:        keywords,
		SEO:             report,
	}, nil
}

// RewriteAndSave rewrites and writes the article into dir.
func (r *Rewriter) RewriteAndSave(ctx context.Context, req Request, dir string) (*Article, error) {
	article, err := r.Rewrite(ctx, req)
	if err != nil {
		return nil, err
	}
	path, err := Save(article, dir)
	if err != nil {
		return nil, err
	}
	r.logger.Info("saved article", "path", path, "seo_score", article.SEO.Score)
	return article, nil
}
