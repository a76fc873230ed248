package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// RobotsManager fetches, caches, and enforces robots.txt per host. A
// robots.txt that cannot be fetched or is not 200 allows everything.
type RobotsManager struct {
	enabled   bool
	userAgent string
	agentTok  string
	client    *http.Client
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*robotsData
}

type robotsData struct {
	disallowed []string
	allowed    []string
	crawlDelay time.Duration
	sitemaps   []string
	fetchedAt  time.Time
}

// NewRobotsManager creates a RobotsManager that identifies itself with
// userAgent. When enabled is false every URL is allowed.
func NewRobotsManager(enabled bool, userAgent string, client *http.Client, logger *slog.Logger) *RobotsManager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsManager{
		enabled:   enabled,
		userAgent: userAgent,
		agentTok:  productToken(userAgent),
		client:    client,
		logger:    logger.With("component", "robots"),
		cache:     make(map[string]*robotsData),
	}
}

// productToken reduces "NovigSiteScraper/1.0 (+https://novig.com)" to
// "novigsitescraper" for matching User-agent groups.
func productToken(ua string) string {
	tok := ua
	if i := strings.IndexAny(tok, "/ "); i >= 0 {
		tok = tok[:i]
	}
	return strings.ToLower(strings.TrimSpace(tok))
}

// IsAllowed checks rawURL against its host's robots.txt.
func (rm *RobotsManager) IsAllowed(ctx context.Context, rawURL string) bool {
	if !rm.enabled {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	data := rm.getRobotsData(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	// Allow rules override disallow rules.
	for _, pattern := range data.allowed {
		if matchRobotsPattern(pattern, path) {
			return true
		}
	}
	for _, pattern := range data.disallowed {
		if matchRobotsPattern(pattern, path) {
			return false
		}
	}
	return true
}

// CrawlDelay returns the Crawl-delay for the host of rawURL, or zero when
// none is known.
func (rm *RobotsManager) CrawlDelay(rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	rm.mu.RLock()
	data := rm.cache[u.Scheme+"://"+u.Host]
	rm.mu.RUnlock()
	if data == nil {
		return 0
	}
	return data.crawlDelay
}

// Sitemaps returns the sitemaps listed in a cached robots.txt.
func (rm *RobotsManager) Sitemaps(origin string) []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	if data := rm.cache[origin]; data != nil {
		return data.sitemaps
	}
	return nil
}

func (rm *RobotsManager) getRobotsData(ctx context.Context, origin string) *robotsData {
	rm.mu.RLock()
	data, ok := rm.cache[origin]
	rm.mu.RUnlock()
	if ok {
		return data
	}

	data = rm.fetchRobotsTxt(ctx, origin)

	rm.mu.Lock()
	rm.cache[origin] = data
	rm.mu.Unlock()
	return data
}

func (rm *RobotsManager) fetchRobotsTxt(ctx context.Context, origin string) *robotsData {
	robotsURL := origin + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", rm.userAgent)

	resp, err := rm.client.Do(req)
	if err != nil {
		rm.logger.Warn("could not fetch robots.txt, allowing all", "url", robotsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rm.logger.Debug("robots.txt unavailable, allowing all", "url", robotsURL, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}
	return parseRobotsTxt(string(body), rm.agentTok)
}

// parseRobotsTxt collects the rules of the groups that apply to agent. A
// group naming the agent explicitly replaces the "*" group.
func parseRobotsTxt(content, agent string) *robotsData {
	wildcard := &robotsData{fetchedAt: time.Now()}
	specific := &robotsData{fetchedAt: wildcard.fetchedAt}
	var sitemaps []string
	foundSpecific := false

	var targets []*robotsData
	inAgents := false

	for _, line := range strings.Split(content, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch key {
		case "user-agent":
			if !inAgents {
				targets = nil
				inAgents = true
			}
			ua := strings.ToLower(value)
			switch {
			case ua == "*":
				targets = append(targets, wildcard)
			case ua != "" && agent != "" && strings.Contains(agent, ua):
				foundSpecific = true
				targets = append(targets, specific)
			}
			continue
		case "disallow":
			for _, d := range targets {
				if value != "" {
					d.disallowed = append(d.disallowed, value)
				}
			}
		case "allow":
			for _, d := range targets {
				if value != "" {
					d.allowed = append(d.allowed, value)
				}
			}
		case "crawl-delay":
			var delay float64
			if _, err := fmt.Sscanf(value, "%f", &delay); err == nil {
				for _, d := range targets {
					d.crawlDelay = time.Duration(delay * float64(time.Second))
				}
			}
		case "sitemap":
			sitemaps = append(sitemaps, value)
		}
		inAgents = false
	}

	data := wildcard
	if foundSpecific {
		data = specific
	}
	data.sitemaps = sitemaps
	return data
}

// matchRobotsPattern checks if a URL path matches a robots.txt pattern.
// Supports * (any sequence) and $ (end of URL) wildcards.
func matchRobotsPattern(pattern, path string) bool {
	if pattern == "" {
		return false
	}

	endsWithDollar := strings.HasSuffix(pattern, "$")
	if endsWithDollar {
		pattern = pattern[:len(pattern)-1]
	}

	if strings.Contains(pattern, "*") {
		return matchWildcard(pattern, path, endsWithDollar)
	}
	if endsWithDollar {
		return path == pattern
	}
	return strings.HasPrefix(path, pattern)
}

func matchWildcard(pattern, path string, mustEnd bool) bool {
	parts := strings.Split(pattern, "*")
	pos := 0

	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(path[pos:], part)
		if idx < 0 {
			return false
		}
		if i == 0 && idx != 0 {
			return false
		}
		pos += idx + len(part)
	}

	if mustEnd {
		return pos == len(path) || strings.HasSuffix(path, parts[len(parts)-1])
	}
	return true
}
