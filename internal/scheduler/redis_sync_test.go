package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/index"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	redisstore "github.com/MrSnakeDoc/pulsepage/internal/store/redis"
	"github.com/MrSnakeDoc/pulsepage/internal/view"
)

func newCache(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.NewStore(client, time.Hour), mr
}

func TestRedisSyncerWarmsIndex(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	_ = cache.SavePage(ctx, "acme", view.Page{Brand: view.Branding{BrandName: "Acme"}})
	_ = cache.SavePage(ctx, "globex", view.Page{Brand: view.Branding{BrandName: "Globex (cached)"}})
	if err := mr.Set(redisstore.PublicKey("broken"), "not json"); err != nil {
		t.Fatal(err)
	}

	idx := index.NewMemoryIndex()
	idx.PutPage("globex", view.Page{Brand: view.Branding{BrandName: "Globex (local)"}})

	if err := NewRedisSyncer(cache, idx, logger.NewNop()).Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	tests := []struct {
		sub   string
		brand string
		found bool
	}{
		{sub: "acme", brand: "Acme", found: true},
		{sub: "globex", brand: "Globex (local)", found: true},
		{sub: "broken", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.sub, func(t *testing.T) {
			page, ok := idx.GetPage(tt.sub)
			if ok != tt.found {
				t.Fatalf("GetPage(%q) found = %v, want %v", tt.sub, ok, tt.found)
			}
			if ok && page.Brand.BrandName != tt.brand {
				t.Errorf("GetPage(%q) brand = %q, want %q", tt.sub, page.Brand.BrandName, tt.brand)
			}
		})
	}
}

func TestGarbageCollector_CollectsOrphanedCacheEntries(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	_ = cache.SavePublished(ctx, domain.PublishedConfig{SiteID: "1", Subdomain: "active"})
	_ = cache.SavePage(ctx, "active", view.Page{})
	// Left behind by another instance that unpublished the site.
	_ = cache.SavePublished(ctx, domain.PublishedConfig{SiteID: "2", Subdomain: "gone"})
	_ = cache.SavePage(ctx, "gone", view.Page{})

	lister := &fakeLister{sites: []domain.PublishedConfig{{SiteID: "1", Subdomain: "active"}}}
	gc := NewGarbageCollector(lister, cache, index.NewMemoryIndex(), logger.NewNop(), time.Hour, 24*time.Hour)
	if err := gc.Collect(ctx); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if p, _ := cache.GetPage(ctx, "gone"); p != nil {
		t.Error("orphaned page survived garbage collection")
	}
	if p, _ := cache.GetPublished(ctx, "gone"); p != nil {
		t.Error("orphaned snapshot survived garbage collection")
	}
	if p, _ := cache.GetPage(ctx, "active"); p == nil {
		t.Error("page of a published site was collected")
	}
}
