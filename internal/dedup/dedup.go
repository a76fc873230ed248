// Package dedup filters near-duplicate content records. A record is a
// duplicate of an earlier accepted record when their URLs match exactly or
// their titles are similar enough.
package dedup

import (
	"strings"
	"sync"

	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// Threshold is the default title similarity at or above which two records
// are treated as the same story.
const Threshold = 0.85

// Deduplicator applies URL and fuzzy-title matching to a batch of records.
// It holds no state between calls and is safe for concurrent use.
type Deduplicator struct {
	threshold float64
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithThreshold overrides the title similarity threshold.
func WithThreshold(t float64) Option {
	return func(d *Deduplicator) {
		if t > 0 && t <= 1 {
			d.threshold = t
		}
	}
}

// New creates a Deduplicator.
func New(opts ...Option) *Deduplicator {
	d := &Deduplicator{threshold: Threshold}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Threshold returns the configured similarity threshold.
func (d *Deduplicator) Threshold() float64 { return d.threshold }

// Deduplicate returns the records that are not duplicates of an earlier
// accepted record, in input order.
func (d *Deduplicator) Deduplicate(records []*types.Item) []*types.Item {
	kept, _ := d.Partition(records)
	return kept
}

// Partition splits records into accepted and dropped, both in input order.
// Each record is compared against accepted records only.
func (d *Deduplicator) Partition(records []*types.Item) (kept, dropped []*types.Item) {
	kept = make([]*types.Item, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if d.IsDuplicate(rec, kept) {
			dropped = append(dropped, rec)
			continue
		}
		kept = append(kept, rec)
	}
	return kept, dropped
}

// IsDuplicate reports whether rec matches any record in seen, stopping at
// the first match.
func (d *Deduplicator) IsDuplicate(rec *types.Item, seen []*types.Item) bool {
	url := rec.GetString(types.FieldURL)
	title := strings.ToLower(rec.Title())

	for _, prev := range seen {
		if url != "" && url == prev.GetString(types.FieldURL) {
			return true
		}
		prevTitle := prev.Title()
		if title != "" && prevTitle != "" && Similarity(title, strings.ToLower(prevTitle)) >= d.threshold {
			return true
		}
	}
	return false
}

var defaultDeduplicator = New()

// Deduplicate filters records with the default threshold.
func Deduplicate(records []*types.Item) []*types.Item {
	return defaultDeduplicator.Deduplicate(records)
}

// Middleware adapts the deduplicator to a streaming item pipeline. Accepted
// records are remembered for the lifetime of the middleware.
type Middleware struct {
	d    *Deduplicator
	mu   sync.Mutex
	seen []*types.Item
}

// NewMiddleware creates a streaming dedup stage.
func NewMiddleware(d *Deduplicator) *Middleware {
	if d == nil {
		d = New()
	}
	return &Middleware{d: d}
}

func (m *Middleware) Name() string { return "dedup" }

// Process returns nil for duplicates so the pipeline drops them.
func (m *Middleware) Process(item *types.Item) (*types.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.d.IsDuplicate(item, m.seen) {
		return nil, nil
	}
	m.seen = append(m.seen, item)
	return item, nil
}

// Reset forgets all accepted records.
func (m *Middleware) Reset() {
	m.mu.Lock()
	m.seen = nil
	m.mu.Unlock()
}
