package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/utils"
)

// AllowOnlyCIDRS restricts the editor and ops surfaces to the given IPs and
// CIDRs. An empty list disables filtering.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("cidr filter disabled, no rules configured")
		return func(next http.Handler) http.Handler { return next }
	}
	log.Debug("cidr filter enabled",
		logger.Int("rules", len(allowed)),
		logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if m.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			log.Debug("request rejected by cidr filter",
				logger.String("ip", ip),
				logger.String("remote_addr", r.RemoteAddr),
				logger.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}
