package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/aggregator"
	"github.com/MrSnakeDoc/pulsepage/internal/bus"
	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/draft"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/mw"
	"github.com/MrSnakeDoc/pulsepage/internal/index"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/preview"
	"github.com/MrSnakeDoc/pulsepage/internal/publish"
	"github.com/MrSnakeDoc/pulsepage/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/pulsepage/internal/store/redis"
	"github.com/redis/go-redis/v9"
)

// PublishedSites reads published snapshots from the database.
type PublishedSites interface {
	LoadPublishedBySubdomain(ctx context.Context, subdomain string) (domain.PublishedConfig, error)
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time           // for testing, defaults to time.Now
	AllowedCIDRS       []string                   // IPs allowed to access the editor and ops endpoints
	TrustProxy         bool                       // true if running behind a trusted reverse proxy (e.g., cloudflared)
	PublicBaseDomain   string                     // public pages are served on <subdomain>.<PublicBaseDomain>
	PublicRateLimit    mw.RateLimitConfig         // per-IP limit on public endpoints
	MaintenanceHorizon time.Duration              // how far ahead maintenance is announced
	Draft              *draft.Store               // the editor's draft
	Aggregator         *aggregator.Aggregator     // live monitor data of the draft
	Poller             *scheduler.MonitorPoller   // editor poll loop
	Publisher          *publish.Service           // publish and diff
	Refresher          *scheduler.PublicRefresher // public page builder
	Catalogue          *preview.Catalogue         // preview scenarios
	Sites              PublishedSites             // published snapshots
	MemoryIndex        *index.MemoryIndex         // latest poll result and public pages
	PageCache          *redisstore.Store          // nil when Redis is disabled
	RedisClient        *redis.Client              // nil when Redis is disabled
	Bus                *bus.Publisher             // nil when NATS is disabled
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}

// Horizon returns the maintenance announcement horizon.
func (d Deps) Horizon() time.Duration {
	if d.MaintenanceHorizon > 0 {
		return d.MaintenanceHorizon
	}
	return domain.DefaultUpcomingHorizon
}
