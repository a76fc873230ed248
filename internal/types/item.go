package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Well-known record fields.
const (
	FieldURL         = "url"
	FieldTitle       = "title"
	FieldContent     = "content"
	FieldSource      = "source"
	FieldCategory    = "category"
	FieldContentType = "content_type"
	FieldSport       = "sport"
	FieldKeywords    = "keywords"
	FieldExcerpt     = "excerpt"
	FieldPublishedAt = "published_at"
)

// Item is a single content record. Fields beyond url and title are opaque
// to the pipeline core and travel through to the rewriter untouched.
type Item struct {
	// Fields stores the record's key-value data.
	Fields map[string]any

	// URL mirrors the "url" field.
	URL string

	// Source names the site the record was scraped from.
	Source string

	// Timestamp is when this item was created.
	Timestamp time.Time
}

// NewItem creates a new empty Item for a source URL.
func NewItem(sourceURL string) *Item {
	it := &Item{
		Fields:    make(map[string]any),
		Timestamp: time.Now(),
	}
	if sourceURL != "" {
		it.Set(FieldURL, sourceURL)
	}
	return it
}

// ItemFromMap builds an Item from a decoded JSON object.
func ItemFromMap(m map[string]any) *Item {
	it := &Item{
		Fields:    make(map[string]any, len(m)),
		Timestamp: time.Now(),
	}
	for k, v := range m {
		it.Set(k, v)
	}
	return it
}

// Set sets a field value.
func (i *Item) Set(key string, value any) {
	i.Fields[key] = value
	switch key {
	case FieldURL:
		i.URL, _ = value.(string)
	case FieldSource:
		i.Source, _ = value.(string)
	}
}

// Get retrieves a field value.
func (i *Item) Get(key string) (any, bool) {
	v, ok := i.Fields[key]
	return v, ok
}

// GetString retrieves a field value as a string. Missing or non-string
// values read as "".
func (i *Item) GetString(key string) string {
	v, ok := i.Fields[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// GetStrings retrieves a list field. It accepts []string, []any of strings,
// or a comma-separated string.
func (i *Item) GetStrings(key string) []string {
	v, ok := i.Fields[key]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return nil
	}
}

// Has returns true if the field exists.
func (i *Item) Has(key string) bool {
	_, ok := i.Fields[key]
	return ok
}

// Delete removes a field.
func (i *Item) Delete(key string) {
	delete(i.Fields, key)
	switch key {
	case FieldURL:
		i.URL = ""
	case FieldSource:
		i.Source = ""
	}
}

// Keys returns all field names.
func (i *Item) Keys() []string {
	keys := make([]string, 0, len(i.Fields))
	for k := range i.Fields {
		keys = append(keys, k)
	}
	return keys
}

// Title is shorthand for GetString("title").
func (i *Item) Title() string { return i.GetString(FieldTitle) }

// MarshalJSON encodes the item as its flat field map.
func (i *Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Fields)
}

// UnmarshalJSON decodes a flat JSON object into the item.
func (i *Item) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode item: %w", err)
	}
	if m == nil {
		return fmt.Errorf("decode item: expected JSON object")
	}
	*i = *ItemFromMap(m)
	return nil
}

// Clone creates a shallow copy of the item's field map.
func (i *Item) Clone() *Item {
	clone := &Item{
		Fields:    make(map[string]any, len(i.Fields)),
		URL:       i.URL,
		Source:    i.Source,
		Timestamp: i.Timestamp,
	}
	for k, v := range i.Fields {
		clone.Fields[k] = v
	}
	return clone
}
