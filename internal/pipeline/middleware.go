package pipeline

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/Yashvanth1222/SiteScraper/internal/rewriter"
	"github.com/Yashvanth1222/SiteScraper/internal/types"
)

// HTMLSanitizeMiddleware strips HTML tags and entities from text fields.
// Line breaks survive so paragraph structure reaches the rewriter.
type HTMLSanitizeMiddleware struct {
	fields  []string
	stripRe *regexp.Regexp
}

// NewHTMLSanitizeMiddleware sanitizes the given fields, or title, excerpt
// and content when none are given.
func NewHTMLSanitizeMiddleware(fields ...string) *HTMLSanitizeMiddleware {
	if len(fields) == 0 {
		fields = []string{types.FieldTitle, types.FieldExcerpt, types.FieldContent}
	}
	return &HTMLSanitizeMiddleware{
		fields:  fields,
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

func (m *HTMLSanitizeMiddleware) Name() string { return "html_sanitize" }

func (m *HTMLSanitizeMiddleware) Process(item *types.Item) (*types.Item, error) {
	for _, key := range m.fields {
		s := item.GetString(key)
		if s == "" {
			continue
		}
		cleaned := html.UnescapeString(m.stripRe.ReplaceAllString(s, ""))

		lines := strings.Split(cleaned, "\n")
		out := lines[:0]
		blank := false
		for _, line := range lines {
			line = strings.Join(strings.Fields(line), " ")
			if line == "" {
				if blank || len(out) == 0 {
					continue
				}
				blank = true
			} else {
				blank = false
			}
			out = append(out, line)
		}
		item.Set(key, strings.TrimSpace(strings.Join(out, "\n")))
	}
	return item, nil
}

// DateNormalizeMiddleware normalizes date fields to a standard format.
// Values in an unknown layout are left alone.
type DateNormalizeMiddleware struct {
	fields    []string
	outFormat string
	inFormats []string
}

func NewDateNormalizeMiddleware(fields []string, outFormat string) *DateNormalizeMiddleware {
	if outFormat == "" {
		outFormat = time.RFC3339
	}
	return &DateNormalizeMiddleware{
		fields:    fields,
		outFormat: outFormat,
		inFormats: []string{
			time.RFC3339,
			time.RFC1123,
			time.RFC1123Z,
			time.RFC822,
			time.RFC822Z,
			"2006-01-02",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"01/02/2006",
			"January 2, 2006",
			"Jan 2, 2006",
			"2 January 2006",
			"Mon, 02 Jan 2006",
			"2006/01/02",
		},
	}
}

func (m *DateNormalizeMiddleware) Name() string { return "date_normalize" }

func (m *DateNormalizeMiddleware) Process(item *types.Item) (*types.Item, error) {
	for _, field := range m.fields {
		s := strings.TrimSpace(item.GetString(field))
		if s == "" {
			continue
		}
		for _, format := range m.inFormats {
			if t, err := time.Parse(format, s); err == nil {
				item.Set(field, t.UTC().Format(m.outFormat))
				break
			}
		}
	}
	return item, nil
}

// ContentTypeMiddleware resolves the article type for a record. An explicit
// content_type wins, then the scraped category, then the fallback.
type ContentTypeMiddleware struct {
	Fallback rewriter.ContentType
}

func (m *ContentTypeMiddleware) Name() string { return "content_type" }

func (m *ContentTypeMiddleware) Process(item *types.Item) (*types.Item, error) {
	for _, key := range []string{types.FieldContentType, types.FieldCategory} {
		if ct, err := rewriter.ParseContentType(strings.ToLower(item.GetString(key))); err == nil {
			item.Set(types.FieldContentType, string(ct))
			return item, nil
		}
	}
	fallback := m.Fallback
	if fallback == "" {
		fallback = rewriter.BestBets
	}
	item.Set(types.FieldContentType, string(fallback))
	return item, nil
}

// SportMiddleware upper-cases the sport field, filling in the fallback
// when it is missing.
type SportMiddleware struct {
	Fallback string
}

func (m *SportMiddleware) Name() string { return "sport" }

func (m *SportMiddleware) Process(item *types.Item) (*types.Item, error) {
	sport := strings.ToUpper(strings.TrimSpace(item.GetString(types.FieldSport)))
	if sport == "" || sport == "UNKNOWN" {
		sport = strings.ToUpper(m.Fallback)
	}
	if sport == "" {
		sport = "NBA"
	}
	item.Set(types.FieldSport, sport)
	return item, nil
}
