package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Links finds all <a href> links in the document, resolved against
// baseURL, without fragments and in document order.
func Links(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}

		href = strings.TrimSpace(href)
		if href == "" ||
			strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "data:") {
			return
		}

		parsedHref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(parsedHref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""

		absURL := resolved.String()
		if !seen[absURL] {
			seen[absURL] = true
			links = append(links, absURL)
		}
	})

	return links
}

// ArticleLinks keeps up to limit links on the listing's host whose path
// sits below the listing path. The listing itself is excluded.
func ArticleLinks(links []string, listingURL string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	listing, err := url.Parse(listingURL)
	if err != nil {
		return nil
	}
	prefix := listing.Path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var out []string
	for _, l := range links {
		u, err := url.Parse(l)
		if err != nil || !strings.EqualFold(u.Host, listing.Host) {
			continue
		}
		if !strings.HasPrefix(u.Path, prefix) || strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(listing.Path, "/") {
			continue
		}
		if len(strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")) == 0 {
			continue
		}
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out
}
