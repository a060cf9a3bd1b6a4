package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/index"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/view"
)

type fakeLister struct {
	sites []domain.PublishedConfig
	err   error
}

func (f *fakeLister) ListPublished(context.Context) ([]domain.PublishedConfig, error) {
	return f.sites, f.err
}

func TestGarbageCollector_Collect(t *testing.T) {
	log := logger.New("error", false)
	memIndex := index.NewMemoryIndex()

	now := time.Now()
	memIndex.PutPage("active", view.Page{GeneratedAt: now})
	memIndex.PutPage("recent", view.Page{GeneratedAt: now.Add(-2 * time.Hour)})
	memIndex.PutPage("outdated", view.Page{GeneratedAt: now.Add(-48 * time.Hour)})
	memIndex.PutPage("unpublished", view.Page{GeneratedAt: now})

	lister := &fakeLister{sites: []domain.PublishedConfig{
		{SiteID: "1", Subdomain: "active"},
		{SiteID: "2", Subdomain: "recent"},
		{SiteID: "3", Subdomain: "outdated"},
	}}

	// Create GC with 24 hour threshold
	gc := NewGarbageCollector(
		lister,
		nil, // no Redis store for this test
		memIndex,
		log,
		time.Hour,
		24*time.Hour,
	)

	if err := gc.Collect(context.Background()); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if memIndex.Count() != 2 {
		t.Errorf("Expected 2 pages after GC, got %d", memIndex.Count())
	}
	for _, sub := range []string{"active", "recent"} {
		if _, ok := memIndex.GetPage(sub); !ok {
			t.Errorf("page %q was incorrectly removed", sub)
		}
	}
	for _, sub := range []string{"outdated", "unpublished"} {
		if _, ok := memIndex.GetPage(sub); ok {
			t.Errorf("page %q was not removed", sub)
		}
	}
}

func TestGarbageCollector_KeepsPagesWhenListingFails(t *testing.T) {
	memIndex := index.NewMemoryIndex()
	memIndex.PutPage("acme", view.Page{GeneratedAt: time.Now()})

	gc := NewGarbageCollector(&fakeLister{err: errors.New("database is locked")}, nil, memIndex,
		logger.NewNop(), time.Hour, 0)

	if err := gc.Collect(context.Background()); err == nil {
		t.Error("Collect() error = nil, want the listing failure")
	}
	if memIndex.Count() != 1 {
		t.Errorf("Count() = %d, a failed listing must not delete pages", memIndex.Count())
	}
}
