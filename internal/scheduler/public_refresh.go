package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/pulsepage/internal/aggregator"
	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/index"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/provider"
	redisstore "github.com/MrSnakeDoc/pulsepage/internal/store/redis"
	"github.com/MrSnakeDoc/pulsepage/internal/view"
)

// DefaultRefreshConcurrency bounds parallel provider calls during a public refresh.
const DefaultRefreshConcurrency = 4

// PublishedLister lists the published snapshots.
type PublishedLister interface {
	ListPublished(ctx context.Context) ([]domain.PublishedConfig, error)
}

// PublicRefresher renders the public page of every published site.
type PublicRefresher struct {
	published   PublishedLister
	fetcher     aggregator.Fetcher
	store       *redisstore.Store
	index       *index.MemoryIndex
	logger      logger.Logger
	horizon     time.Duration
	concurrency int
	now         func() time.Time
	loop        *loop

	mu       sync.Mutex
	lastGood map[string]knownGood // site id -> last successful fetch
}

type knownGood struct {
	apiKey    string
	monitors  []domain.MonitorData
	fetchedAt time.Time
}

// NewPublicRefresher creates a new public refresher
func NewPublicRefresher(
	published PublishedLister,
	fetcher aggregator.Fetcher,
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	horizon time.Duration,
) *PublicRefresher {
	return &PublicRefresher{
		published:   published,
		fetcher:     fetcher,
		store:       store,
		index:       idx,
		logger:      log,
		horizon:     horizon,
		concurrency: DefaultRefreshConcurrency,
		now:         time.Now,
		loop:        newLoop("public_refresh", interval, log),
		lastGood:    make(map[string]knownGood),
	}
}

// SetConcurrency bounds parallel provider calls. Call before Start.
func (pr *PublicRefresher) SetConcurrency(n int) {
	if n > 0 {
		pr.concurrency = n
	}
}

// Start refreshes once, then every interval and on Trigger.
func (pr *PublicRefresher) Start(ctx context.Context) error {
	pr.loop.start(ctx, pr.Refresh, nil)
	return nil
}

func (pr *PublicRefresher) Stop() { pr.loop.stop() }

// Trigger requests a refresh without blocking. Requests made while one is
// pending are coalesced.
func (pr *PublicRefresher) Trigger() { pr.loop.poke() }

// Refresh rebuilds the page of every published site with a subdomain.
// A failure on one site never blocks the others.
func (pr *PublicRefresher) Refresh(ctx context.Context) error {
	sites, err := pr.published.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("failed to list published sites: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pr.concurrency)
	for _, site := range sites {
		if site.Subdomain == "" {
			continue
		}
		site := site
		g.Go(func() error {
			pr.RefreshSite(gctx, site)
			return nil
		})
	}
	_ = g.Wait()

	pr.forget(sites)
	pr.logger.Debug("public pages refreshed", logger.Int("site_count", len(sites)))
	return nil
}

// RefreshSite renders one published site and stores the page.
func (pr *PublicRefresher) RefreshSite(ctx context.Context, site domain.PublishedConfig) view.Page {
	monitors, fetchErr, stale, fetchedAt := pr.fetch(ctx, site)
	monitors = domain.WithCustomLogs(monitors, site.CustomLogs)

	in := view.PublishedInput(site, monitors, fetchErr)
	in.Stale = stale
	in.FetchedAt = fetchedAt
	page := view.Build(in, pr.now(), pr.horizon)

	pr.index.PutPage(site.Subdomain, page)
	if pr.store != nil {
		if err := pr.store.SavePage(ctx, site.Subdomain, page); err != nil {
			pr.logger.Warn("failed to cache public page",
				logger.String("subdomain", site.Subdomain),
				logger.Error(err))
		}
	}
	return page
}

// fetch queries the provider scoped to the published monitors. On failure the
// last successful result for the same credentials is returned as stale.
func (pr *PublicRefresher) fetch(ctx context.Context, site domain.PublishedConfig) ([]domain.MonitorData, string, bool, time.Time) {
	refs := domain.RealRefs(site.Monitors)
	if site.APIKey == "" || len(refs) == 0 {
		return []domain.MonitorData{}, "", false, time.Time{}
	}

	provName := site.MonitorProvider
	if provName == "" {
		provName = domain.DefaultProvider
	}
	fetched, err := pr.fetcher.Fetch(ctx, provName, provider.Query{APIKey: site.APIKey, MonitorIDs: refs})

	pr.mu.Lock()
	defer pr.mu.Unlock()

	prev, ok := pr.lastGood[site.SiteID]
	if ok && prev.apiKey != site.APIKey {
		ok = false
	}

	if err != nil {
		pr.logger.Warn("public provider fetch failed",
			logger.String("site_id", site.SiteID),
			logger.String("subdomain", site.Subdomain),
			logger.Error(err))
		if !ok {
			return []domain.MonitorData{}, err.Error(), false, time.Time{}
		}
		return selectRefs(prev.monitors, refs), err.Error(), true, prev.fetchedAt
	}

	if len(fetched) == 0 && ok {
		return selectRefs(prev.monitors, refs), "", false, prev.fetchedAt
	}

	now := pr.now()
	pr.lastGood[site.SiteID] = knownGood{apiKey: site.APIKey, monitors: fetched, fetchedAt: now}
	return selectRefs(fetched, refs), "", false, now
}

// forget drops remembered results of sites that are no longer published.
func (pr *PublicRefresher) forget(sites []domain.PublishedConfig) {
	live := make(map[string]bool, len(sites))
	for _, s := range sites {
		live[s.SiteID] = true
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()
	for id := range pr.lastGood {
		if !live[id] {
			delete(pr.lastGood, id)
		}
	}
}

// selectRefs returns copies of the monitors in refs, in refs order.
func selectRefs(monitors []domain.MonitorData, refs []domain.MonitorRef) []domain.MonitorData {
	byRef := make(map[domain.MonitorRef]domain.MonitorData, len(monitors))
	for _, m := range monitors {
		byRef[m.ID] = m
	}
	out := make([]domain.MonitorData, 0, len(refs))
	for _, r := range refs {
		if m, ok := byRef[r]; ok {
			out = append(out, m.Clone())
		}
	}
	return out
}
