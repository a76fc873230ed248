package fetcher

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync/atomic"
)

// Proxy rotation strategies.
const (
	RotationRoundRobin = "round_robin"
	RotationRandom     = "random"
)

// ProxyManager rotates outgoing requests across a fixed proxy list.
type ProxyManager struct {
	proxies  []*url.URL
	rotation string
	index    atomic.Int64
	logger   *slog.Logger
}

// NewProxyManager parses the proxy URLs. Any invalid URL is an error.
func NewProxyManager(rawURLs []string, rotation string, logger *slog.Logger) (*ProxyManager, error) {
	if rotation == "" {
		rotation = RotationRoundRobin
	}
	if rotation != RotationRoundRobin && rotation != RotationRandom {
		return nil, fmt.Errorf("unknown proxy rotation %q", rotation)
	}

	pm := &ProxyManager{
		proxies:  make([]*url.URL, 0, len(rawURLs)),
		rotation: rotation,
		logger:   logger.With("component", "proxy_manager"),
	}
	for _, rawURL := range rawURLs {
		u, err := url.Parse(rawURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q", rawURL)
		}
		pm.proxies = append(pm.proxies, u)
	}

	pm.logger.Info("proxy manager initialized", "count", len(pm.proxies), "rotation", rotation)
	return pm, nil
}

// ProxyFunc returns an http.Transport-compatible proxy function.
func (pm *ProxyManager) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		// nil means a direct connection
		return pm.Next(), nil
	}
}

// Next returns the proxy for the next request, or nil when none are set.
func (pm *ProxyManager) Next() *url.URL {
	if len(pm.proxies) == 0 {
		return nil
	}
	if pm.rotation == RotationRandom {
		return pm.proxies[rand.Intn(len(pm.proxies))]
	}
	idx := (pm.index.Add(1) - 1) % int64(len(pm.proxies))
	return pm.proxies[idx]
}

// Count returns the number of proxies.
func (pm *ProxyManager) Count() int { return len(pm.proxies) }
