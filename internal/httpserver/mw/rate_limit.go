package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/utils"
)

type RateLimitConfig struct {
	Burst             int
	RefillPerIPPerMin int
	MaxEntries        int           // table size that forces an early sweep, 0 means unbounded
	SweepInterval     time.Duration
	IdleTTL           time.Duration
	TrustProxy        bool          // resolve IP from proxy headers when true
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
	if c.Burst < 1 {
		c.Burst = 1
	}
	if c.RefillPerIPPerMin < 1 {
		c.RefillPerIPPerMin = 1
	}
	return c
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	cfg   RateLimitConfig
	every rate.Limit

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newIPLimiter(cfg RateLimitConfig) *ipLimiter {
	cfg = cfg.withDefaults()
	return &ipLimiter{
		cfg:       cfg,
		every:     rate.Limit(float64(cfg.RefillPerIPPerMin) / 60.0),
		visitors:  make(map[string]*visitor, 1024),
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.cfg.MaxEntries > 0 && len(l.visitors) >= l.cfg.MaxEntries
	if full || now.Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.sweepLocked(now)
	}
	v := l.visitors[ip]
	if v == nil {
		v = &visitor{lim: rate.NewLimiter(l.every, l.cfg.Burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.lim
}

func (l *ipLimiter) sweepLocked(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.cfg.IdleTTL {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

// allow takes a token for ip. When none is left it returns the wait until
// the next one, in whole seconds.
func (l *ipLimiter) allow(ip string, now time.Time) (ok bool, remaining int, retryAfter int) {
	lim := l.get(ip, now)
	res := lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, 0, max(1, int(math.Ceil(delay.Seconds())))
	}
	return true, max(0, int(lim.TokensAt(now))), 0
}

// RateLimit applies a per-IP token bucket. Rejected requests get 429 with Retry-After.
func RateLimit(cfg RateLimitConfig, log logger.Logger) func(http.Handler) http.Handler {
	l := newIPLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	log.Debug("public rate limit enabled",
		logger.Int("burst", l.cfg.Burst),
		logger.Int("refill_per_min", l.cfg.RefillPerIPPerMin),
		logger.Bool("trust_proxy", l.cfg.TrustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, l.cfg.TrustProxy)
			ok, remaining, retry := l.allow(ip, time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				log.Debug("client throttled",
					logger.String("ip", ip),
					logger.Int("retry_after", retry))
				h.Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
