package ratelimit

import (
	"strings"
)

// MatchEndpoint returns the configuration that applies to a request, or nil
// when only the default limit applies.
//
// GET /health is always unlimited. An exact path match wins; otherwise the
// longest rule path ending in "/" that prefixes the request path is used.
// A rule method of "*" matches any method.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{Path: path, Method: method, Limit: 0}
	}

	var best *EndpointConfig
	for i := range configs {
		cfg := &configs[i]
		if cfg.Method != method && cfg.Method != "*" {
			continue
		}
		if cfg.Path == path {
			return cfg
		}
		if strings.HasSuffix(cfg.Path, "/") && strings.HasPrefix(path, cfg.Path) {
			if best == nil || len(cfg.Path) > len(best.Path) {
				best = cfg
			}
		}
	}
	return best
}
