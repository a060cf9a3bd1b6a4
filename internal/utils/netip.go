package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ParseHostNoPort returns the host part (no port) from strings like "ip:port", "[v6]:port", or "ip".
func ParseHostNoPort(s string) string {
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}

// FirstForwardedFor returns the first IP from X-Forwarded-For (left-most), trimmed.
func FirstForwardedFor(xff string) string {
	xff = strings.TrimSpace(xff)
	if xff == "" {
		return ""
	}
	if i := strings.IndexByte(xff, ','); i >= 0 {
		xff = xff[:i]
	}
	return strings.TrimSpace(xff)
}

// proxyHeaders are checked in order when the proxy is trusted.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ClientIP resolves the real client IP. It keys the public rate limiter and
// the editor CIDR filter. Proxy headers are only read when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v := strings.TrimSpace(r.Header.Get(h))
			if h == "X-Forwarded-For" {
				v = FirstForwardedFor(v)
			}
			if ip := ParseHostNoPort(v); ip != "" {
				return ip
			}
		}
	}
	return ParseHostNoPort(r.RemoteAddr)
}

// IPMatcher matches exact IPs and CIDRs. Single IPs are stored as /32 or /128 prefixes.
type IPMatcher struct {
	prefixes []netip.Prefix
}

func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool {
	return len(m.prefixes) == 0
}

func (m *IPMatcher) Allow(ipStr string) bool {
	a, err := netip.ParseAddr(ipStr)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
