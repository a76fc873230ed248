package parser

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

type pageMeta struct {
	ogTitle     string
	title       string
	description string
	publishedAt string
}

var (
	ogTitleXPaths = []string{
		`//meta[@property="og:title"]`,
		`//meta[@name="twitter:title"]`,
	}
	descriptionXPaths = []string{
		`//meta[@name="description"]`,
		`//meta[@property="og:description"]`,
		`//meta[@name="twitter:description"]`,
	}
	publishedXPaths = []string{
		`//meta[@property="article:published_time"]`,
		`//meta[@name="pubdate"]`,
		`//meta[@itemprop="datePublished"]`,
	}
)

func extractMeta(root *html.Node) pageMeta {
	m := pageMeta{
		ogTitle:     metaContent(root, ogTitleXPaths),
		description: metaContent(root, descriptionXPaths),
		publishedAt: metaContent(root, publishedXPaths),
	}
	if m.publishedAt == "" {
		m.publishedAt = firstAttr(root, `//time[@datetime]`, "datetime")
	}
	if nodes, err := htmlquery.QueryAll(root, "//head/title"); err == nil && len(nodes) > 0 {
		m.title = strings.TrimSpace(htmlquery.InnerText(nodes[0]))
	}
	return m
}

// metaContent returns the content attribute of the first matching meta
// tag with a non-empty value.
func metaContent(root *html.Node, xpaths []string) string {
	for _, xp := range xpaths {
		if v := firstAttr(root, xp, "content"); v != "" {
			return v
		}
	}
	return ""
}

func firstAttr(root *html.Node, xpath, attr string) string {
	nodes, err := htmlquery.QueryAll(root, xpath)
	if err != nil {
		return ""
	}
	for _, node := range nodes {
		if v := strings.TrimSpace(htmlquery.SelectAttr(node, attr)); v != "" {
			return v
		}
	}
	return ""
}
