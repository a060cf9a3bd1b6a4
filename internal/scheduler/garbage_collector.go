package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/index"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	redisstore "github.com/MrSnakeDoc/pulsepage/internal/store/redis"
)

const (
	// DefaultGCThreshold is the age after which a page that stopped refreshing is dropped
	DefaultGCThreshold = 24 * time.Hour
)

// GarbageCollector removes public pages of sites that are no longer published
type GarbageCollector struct {
	published PublishedLister
	store     *redisstore.Store
	index     *index.MemoryIndex
	logger    logger.Logger
	threshold time.Duration
	now       func() time.Time
	loop      *loop
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(
	published PublishedLister,
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		published: published,
		store:     store,
		index:     idx,
		logger:    log,
		threshold: threshold,
		now:       time.Now,
		loop:      newLoop("gc", interval, log),
	}
}

// Start collects once, then every interval.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	gc.loop.start(ctx, gc.Collect, nil)
	return nil
}

func (gc *GarbageCollector) Stop() { gc.loop.stop() }

// Collect removes pages whose subdomain is no longer published, and pages of
// published sites that have not been rebuilt for longer than the threshold.
// Nothing is removed when the published list cannot be read.
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	sites, err := gc.published.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("failed to list published sites: %w", err)
	}
	live := make(map[string]bool, len(sites))
	for _, s := range sites {
		if s.Subdomain != "" {
			live[s.Subdomain] = true
		}
	}

	now := gc.now()
	pagesDeleted := gc.collectIndex(ctx, live, now)
	cacheDeleted := gc.collectCache(ctx, live)

	if total := pagesDeleted + cacheDeleted; total > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("pages_deleted", pagesDeleted),
			logger.Int("cache_entries_deleted", cacheDeleted),
			logger.Int("total_deleted", total))
	} else {
		gc.logger.Debug("no pages to garbage collect")
	}

	return nil
}

// collectIndex removes unpublished and outdated pages from memory and Redis
func (gc *GarbageCollector) collectIndex(ctx context.Context, live map[string]bool, now time.Time) int {
	deletedCount := 0

	for _, sub := range gc.index.Subdomains() {
		generatedAt, ok := gc.index.PageGeneratedAt(sub)
		if !ok {
			continue
		}

		reason := ""
		switch {
		case !live[sub]:
			reason = "unpublished"
		case !generatedAt.IsZero() && now.Sub(generatedAt) >= gc.threshold:
			reason = "outdated"
		default:
			continue
		}

		gc.index.DeletePage(sub)

		// Delete from Redis store (best effort)
		if gc.store != nil {
			if err := gc.store.DeleteSite(ctx, sub); err != nil {
				gc.logger.Warn("failed to delete page from redis",
					logger.String("subdomain", sub),
					logger.Error(err))
			}
		}

		gc.logger.Info("garbage collected public page",
			logger.String("subdomain", sub),
			logger.String("reason", reason))

		deletedCount++
	}

	return deletedCount
}

// collectCache removes Redis entries of subdomains that are not published,
// including ones this process never rendered.
func (gc *GarbageCollector) collectCache(ctx context.Context, live map[string]bool) int {
	if gc.store == nil {
		return 0
	}

	seen := make(map[string]bool)
	pages, err := gc.store.PageSubdomains(ctx)
	if err != nil {
		gc.logger.Warn("failed to scan cached pages", logger.Error(err))
	}
	snapshots, err := gc.store.PublishedSubdomains(ctx)
	if err != nil {
		gc.logger.Warn("failed to list cached snapshots", logger.Error(err))
	}

	deletedCount := 0
	for _, sub := range append(pages, snapshots...) {
		if live[sub] || seen[sub] {
			continue
		}
		seen[sub] = true
		if err := gc.store.DeleteSite(ctx, sub); err != nil {
			gc.logger.Warn("failed to delete cache entry",
				logger.String("subdomain", sub),
				logger.Error(err))
			continue
		}
		deletedCount++
	}
	return deletedCount
}
