package mw

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

type subdomainKey struct{}

// PublicHost resolves the page subdomain from Host when it matches
// "*.<baseDomain>" and stores it in the request context.
// Requests for other hosts pass through untouched.
// If baseDomain is empty, it acts as a passthrough.
func PublicHost(baseDomain string, log logger.Logger) func(http.Handler) http.Handler {
	baseDomain = strings.ToLower(strings.TrimPrefix(baseDomain, "."))
	if baseDomain == "" {
		log.Debug("PublicHost: empty base domain, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	pattern := "*." + baseDomain
	log.Debugf("PublicHost: initialized with pattern=%s", pattern)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := hostOnly(r.Host)
			if !matchHost(host, pattern) {
				next.ServeHTTP(w, r)
				return
			}
			sub := strings.TrimSuffix(host, "."+baseDomain)
			if sub == "" || strings.Contains(sub, ".") {
				log.Debugf("PublicHost: Host %s is not a page host", host)
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), subdomainKey{}, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubdomainFrom returns the subdomain resolved by PublicHost.
func SubdomainFrom(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subdomainKey{}).(string)
	return sub, ok && sub != ""
}

func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// matchHost checks if host matches pattern (supports wildcard *.example.com)
func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[1:]
		return strings.HasSuffix(host, suffix)
	}
	return false
}
