package parser

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articleLD holds the schema.org fields read from JSON-LD blocks.
type articleLD struct {
	headline      string
	description   string
	datePublished string
}

// extractJSONLD parses <script type="application/ld+json"> elements and
// returns the first non-empty value of each field. Blocks may be a single
// object, an array, or an object with an @graph array.
func extractJSONLD(doc *goquery.Document) articleLD {
	var out articleLD

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var objects []map[string]any
		var single map[string]any
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			objects = append(objects, single)
			if graph, ok := single["@graph"].([]any); ok {
				for _, g := range graph {
					if m, ok := g.(map[string]any); ok {
						objects = append(objects, m)
					}
				}
			}
		} else if err := json.Unmarshal([]byte(raw), &objects); err != nil {
			return
		}

		for _, obj := range objects {
			if out.headline == "" {
				out.headline = stringField(obj, "headline")
			}
			if out.description == "" {
				out.description = stringField(obj, "description")
			}
			if out.datePublished == "" {
				out.datePublished = stringField(obj, "datePublished")
			}
		}
	})

	return out
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}
