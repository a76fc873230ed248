package publisher

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Channel describes the RSS channel wrapping the article items.
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// DefaultChannel is the Novig blog channel at baseURL.
func DefaultChannel(baseURL string) Channel {
	return Channel{
		Title:       "Novig Blog",
		Link:        baseURL,
		Description: "Data-driven sports betting analysis and prediction market insights from Novig.",
		Language:    "en-us",
	}
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string `xml:"title"`
	Link          string `xml:"link"`
	Description   string `xml:"description"`
	Language      string `xml:"language,omitempty"`
	LastBuildDate string `xml:"lastBuildDate"`
	Items         string `xml:",innerxml"`
}

// Feed assembles an RSS 2.0 document from pre-rendered <item> snippets.
func Feed(ch Channel, items []string, built time.Time) ([]byte, error) {
	var inner strings.Builder
	for _, item := range items {
		inner.WriteString("\n")
		inner.WriteString(strings.TrimSpace(item))
	}
	inner.WriteString("\n")

	out, err := xml.MarshalIndent(rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:         ch.Title,
			Link:          ch.Link,
			Description:   ch.Description,
			Language:      ch.Language,
			LastBuildDate: built.UTC().Format(time.RFC1123Z),
			Items:         inner.String(),
		},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// CollectItems reads the {slug}.rss.xml snippets in dir in name order.
func CollectItems(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.rss.xml"))
	if err != nil {
		return nil, err
	}
	items := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read rss item: %w", err)
		}
		items = append(items, string(data))
	}
	return items, nil
}

// WriteFeed collects the items published under {dir}/{date} and writes
// them as {dir}/{date}/feed.xml.
func WriteFeed(dir, date string, ch Channel) (string, int, error) {
	dayDir := filepath.Join(dir, date)
	items, err := CollectItems(dayDir)
	if err != nil {
		return "", 0, err
	}
	doc, err := Feed(ch, items, time.Now())
	if err != nil {
		return "", 0, err
	}
	path := filepath.Join(dayDir, "feed.xml")
	if err := writeAtomic(path, doc); err != nil {
		return "", 0, fmt.Errorf("write feed: %w", err)
	}
	return path, len(items), nil
}

// VerifyFeed parses a feed file back to confirm readers can consume it.
func VerifyFeed(path string) (*gofeed.Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", path, err)
	}
	return feed, nil
}
