package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Yashvanth1222/SiteScraper/internal/dedup"
	"github.com/Yashvanth1222/SiteScraper/internal/observability"
	"github.com/Yashvanth1222/SiteScraper/internal/rewriter"
	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// ArticleWriter rewrites a record and saves the article into a directory.
type ArticleWriter interface {
	RewriteAndSave(ctx context.Context, req rewriter.Request, dir string) (*rewriter.Article, error)
}

// Result is the outcome for one unique record.
type Result struct {
	URL         string `json:"url,omitempty"`
	Source      string `json:"source,omitempty"`
	ContentType string `json:"content_type"`
	Title       string `json:"title,omitempty"`
	Path        string `json:"path,omitempty"`
	Score       int    `json:"score"`
	Passed      bool   `json:"passed"`
	Error       string `json:"error,omitempty"`
}

// Summary describes one processing run.
type Summary struct {
	RunID     string        `json:"run_id"`
	Date      string        `json:"date"`
	Loaded    int           `json:"loaded"`
	Unique    int           `json:"unique"`
	Rewritten int           `json:"rewritten"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
	Results   []Result      `json:"results"`
}

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	RawDir       string
	ProcessedDir string
	Threshold    float64
	ContentType  rewriter.ContentType
	Sport        string
	Keywords     []string
}

// Processor loads raw scrapes, normalises and deduplicates them, and
// rewrites each unique record into a scored article.
type Processor struct {
	cfg     ProcessorConfig
	chain   *Pipeline
	dedup   *dedup.Deduplicator
	writer  ArticleWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewProcessor creates a Processor with the default normalisation chain.
// metrics may be nil.
func NewProcessor(cfg ProcessorConfig, writer ArticleWriter, metrics *observability.Metrics, logger *slog.Logger) *Processor {
	chain := New(logger)
	chain.Use(&TrimMiddleware{})
	chain.Use(NewHTMLSanitizeMiddleware())
	chain.Use(&RequiredFieldsMiddleware{
		Fields: []string{types.FieldTitle, types.FieldContent, types.FieldExcerpt},
		AnyOf:  true,
	})
	chain.Use(NewDateNormalizeMiddleware([]string{types.FieldPublishedAt}, time.RFC3339))
	chain.Use(&ContentTypeMiddleware{Fallback: cfg.ContentType})
	chain.Use(&SportMiddleware{Fallback: cfg.Sport})

	return &Processor{
		cfg:     cfg,
		chain:   chain,
		dedup:   dedup.New(dedup.WithThreshold(cfg.Threshold)),
		writer:  writer,
		metrics: metrics,
		logger:  logger.With("component", "processor"),
	}
}

// Use appends a middleware to the normalisation chain.
func (p *Processor) Use(mw Middleware) { p.chain.Use(mw) }

// LoadRaw reads every *.json file under dir in lexical order. A file may
// hold a list of records, one record, or an envelope whose articles
// inherit the envelope's source. Unreadable files and malformed entries
// are logged and skipped.
func (p *Processor) LoadRaw(dir string) ([]*types.Item, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		p.logger.Warn("raw data directory does not exist", "dir", dir)
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)

	var records []*types.Item
	for _, path := range files {
		items, err := readRawFile(path)
		if err != nil {
			p.logger.Warn("skipping raw file", "path", path, "error", err)
			continue
		}
		p.logger.Debug("loaded raw file", "path", path, "records", len(items))
		records = append(records, items...)
	}

	p.logger.Info("loaded raw records", "files", len(files), "records", len(records))
	return records, nil
}

func readRawFile(path string) ([]*types.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &types.ParseError{Source: path, Err: err}
	}

	switch v := doc.(type) {
	case []any:
		return itemsFrom(v, ""), nil
	case map[string]any:
		if articles, ok := v["articles"].([]any); ok {
			source, _ := v["source"].(string)
			return itemsFrom(articles, source), nil
		}
		return []*types.Item{types.ItemFromMap(v)}, nil
	default:
		return nil, fmt.Errorf("unexpected top-level JSON %T", doc)
	}
}

func itemsFrom(entries []any, source string) []*types.Item {
	items := make([]*types.Item, 0, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		item := types.ItemFromMap(m)
		if source != "" && item.GetString(types.FieldSource) == "" {
			item.Set(types.FieldSource, source)
		}
		items = append(items, item)
	}
	return items
}

// Normalize runs records through the middleware chain. Records that fail
// or are dropped do not appear in the output.
func (p *Processor) Normalize(records []*types.Item) []*types.Item {
	out := make([]*types.Item, 0, len(records))
	for _, rec := range records {
		item, err := p.chain.Process(rec)
		if err != nil {
			p.logger.Warn("record rejected", "url", rec.URL, "error", err)
			continue
		}
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}

// Run processes the raw data for one day. Per-record rewrite failures are
// counted and logged; only cancellation stops the run early.
func (p *Processor) Run(ctx context.Context, date string) (*Summary, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString(), Date: date}
	logger := p.logger.With("run_id", summary.RunID, "date", date)

	records, err := p.LoadRaw(p.cfg.RawDir)
	if err != nil {
		return nil, err
	}
	summary.Loaded = len(records)

	normalized := p.Normalize(records)
	unique, dropped := p.dedup.Partition(normalized)
	summary.Unique = len(unique)
	p.metrics.Duplicates(len(dropped))
	logger.Info("deduplicated records",
		"loaded", summary.Loaded,
		"normalized", len(normalized),
		"unique", summary.Unique,
	)

	outDir := filepath.Join(p.cfg.ProcessedDir, date)
	for _, rec := range unique {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		ct := rewriter.ContentType(rec.GetString(types.FieldContentType))
		res := Result{
			URL:         rec.URL,
			Source:      rec.GetString(types.FieldSource),
			ContentType: string(ct),
		}

		article, err := p.writer.RewriteAndSave(ctx, rewriter.Request{
			Source:      rec,
			ContentType: ct,
			Sport:       rec.GetString(types.FieldSport),
			Date:        date,
			Keywords:    MergeRecordKeywords(rec, p.cfg.Keywords),
		}, outDir)
		if err != nil {
			summary.Errors++
			res.Error = err.Error()
			summary.Results = append(summary.Results, res)
			logger.Error("rewrite failed", "url", rec.URL, "error", err)
			continue
		}

		summary.Rewritten++
		p.metrics.Rewritten()
		p.metrics.Scored(article.SEO.Passed, article.SEO.Score)

		res.Title = article.Title
		res.Path = article.Path
		res.Score = article.SEO.Score
		res.Passed = article.SEO.Passed
		summary.Results = append(summary.Results, res)

		if article.SEO.Passed {
			summary.Passed++
			logger.Info("article passed SEO", "path", article.Path, "score", article.SEO.Score)
		} else {
			summary.Failed++
			logger.Warn("article failed SEO", "path", article.Path, "report", article.SEO.String())
		}
	}

	summary.Duration = time.Since(start)
	logger.Info("pipeline complete",
		"passed", fmt.Sprintf("%d/%d", summary.Passed, summary.Rewritten),
		"errors", summary.Errors,
		"duration", summary.Duration.Round(time.Millisecond),
	)
	return summary, nil
}

// MergeRecordKeywords combines a record's own keywords with extra ones.
func MergeRecordKeywords(rec *types.Item, extra []string) []string {
	return rewriter.MergeKeywords(rec.GetStrings(types.FieldKeywords), extra)
}
