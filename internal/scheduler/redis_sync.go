package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/pulsepage/internal/index"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	redisstore "github.com/MrSnakeDoc/pulsepage/internal/store/redis"
)

// RedisSyncer warms the memory index with pages rendered by other instances,
// so a fresh process can serve public pages before its first refresh.
type RedisSyncer struct {
	store  *redisstore.Store
	index  *index.MemoryIndex
	logger logger.Logger
}

func NewRedisSyncer(store *redisstore.Store, idx *index.MemoryIndex, log logger.Logger) *RedisSyncer {
	return &RedisSyncer{store: store, index: idx, logger: log}
}

// Sync copies cached pages into the index. Pages the index already holds win;
// unreadable entries are skipped and left for the garbage collector.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	subs, err := rs.store.PageSubdomains(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cached pages: %w", err)
	}

	var loaded, skipped int
	for _, sub := range subs {
		if _, ok := rs.index.GetPage(sub); ok {
			continue
		}
		page, err := rs.store.GetPage(ctx, sub)
		if err != nil || page == nil {
			skipped++
			rs.logger.Debug("skipping cached page",
				logger.String("subdomain", sub),
				logger.Error(err))
			continue
		}
		rs.index.PutPage(sub, *page)
		loaded++
	}

	rs.logger.Info("public pages warmed from redis",
		logger.Int("cached", len(subs)),
		logger.Int("loaded", loaded),
		logger.Int("skipped", skipped))
	return nil
}
