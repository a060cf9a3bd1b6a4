package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

type fakeRepo struct {
	published map[string]domain.PublishedConfig
	failSave  error
}

func (r *fakeRepo) LoadPublished(_ context.Context, siteID string) (domain.PublishedConfig, error) {
	p, ok := r.published[siteID]
	if !ok {
		return domain.PublishedConfig{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) SavePublished(_ context.Context, p domain.PublishedConfig) error {
	if r.failSave != nil {
		return r.failSave
	}
	r.published[p.SiteID] = p
	return nil
}

type fakeSink struct {
	cached    []domain.PublishedConfig
	announced []domain.PublishedConfig
	err       error
}

func (f *fakeSink) SavePublished(_ context.Context, p domain.PublishedConfig) error {
	f.cached = append(f.cached, p)
	return f.err
}

func (f *fakeSink) AnnouncePublished(_ context.Context, p domain.PublishedConfig) error {
	f.announced = append(f.announced, p)
	return f.err
}

func draftConfig() domain.SiteConfig {
	cfg := domain.DefaultSiteConfig("owner")
	cfg.ID = "site-1"
	cfg.BrandName = "Acme"
	cfg.Subdomain = "acme"
	cfg.APIKey = "key"
	cfg.Monitors = []domain.MonitorRef{domain.RealRef(2), domain.RealRef(1)}
	return cfg
}

func TestComputeDirty(t *testing.T) {
	base := draftConfig()
	snap := base.Snapshot(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	tests := []struct {
		name     string
		mutate   func(cfg *domain.SiteConfig)
		expected bool
	}{
		{name: "unchanged", mutate: func(*domain.SiteConfig) {}, expected: false},
		{name: "preview scenario", mutate: func(c *domain.SiteConfig) { c.DataSource = domain.Preview("major_outage") }, expected: false},
		{name: "demo monitor added", mutate: func(c *domain.SiteConfig) { c.AddDemoMonitor() }, expected: false},
		{name: "monitor order", mutate: func(c *domain.SiteConfig) {
			c.Monitors = []domain.MonitorRef{domain.RealRef(1), domain.RealRef(2)}
		}, expected: false},
		{name: "annotation", mutate: func(c *domain.SiteConfig) {
			c.AddAnnotation(domain.RealRef(1), domain.IncidentUpdate{ID: "u"})
		}, expected: false},
		{name: "brand name", mutate: func(c *domain.SiteConfig) { c.BrandName = "Acme Inc" }, expected: true},
		{name: "logo", mutate: func(c *domain.SiteConfig) { c.LogoURL = "https://acme.test/l.png" }, expected: true},
		{name: "theme", mutate: func(c *domain.SiteConfig) { c.Theme = "dark" }, expected: true},
		{name: "subdomain", mutate: func(c *domain.SiteConfig) { c.Subdomain = "acme-2" }, expected: true},
		{name: "api key", mutate: func(c *domain.SiteConfig) { c.APIKey = "other" }, expected: true},
		{name: "real monitor removed", mutate: func(c *domain.SiteConfig) { c.Monitors = c.Monitors[:1] }, expected: true},
		{name: "visibility", mutate: func(c *domain.SiteConfig) { c.Visibility.UptimeDecimals = 3 }, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base.Clone()
			tt.mutate(&cfg)
			if got := ComputeDirty(cfg, &snap); got != tt.expected {
				t.Errorf("ComputeDirty() = %v, want %v", got, tt.expected)
			}
		})
	}

	if !ComputeDirty(base, nil) {
		t.Error("ComputeDirty(draft, nil) = false, a never-published draft is dirty")
	}
}

func TestPublish(t *testing.T) {
	repo := &fakeRepo{published: map[string]domain.PublishedConfig{}}
	sink := &fakeSink{}
	triggered := 0
	svc := New(repo, logger.NewNop(), WithCache(sink), WithAnnouncer(sink), WithTrigger(func() { triggered++ }))

	cfg := draftConfig()
	cfg.AddDemoMonitor()
	before := cfg.Clone()

	snap, err := svc.Publish(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if snap.SiteID != "site-1" || len(snap.Monitors) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	for _, r := range snap.Monitors {
		if r.IsSynthetic() {
			t.Errorf("demo monitor %v published", r)
		}
	}
	if cfg.ID != before.ID || !domain.EqualRefs(cfg.Monitors, before.Monitors) {
		t.Error("Publish() modified the draft")
	}
	if len(sink.cached) != 1 || len(sink.announced) != 1 || triggered != 1 {
		t.Errorf("cached=%d announced=%d triggered=%d, want 1 each", len(sink.cached), len(sink.announced), triggered)
	}

	dirty, err := svc.IsDirty(context.Background(), cfg)
	if err != nil || dirty {
		t.Errorf("IsDirty() = %v, %v after publish", dirty, err)
	}
}

func TestPublishFailureKeepsPrevious(t *testing.T) {
	repo := &fakeRepo{published: map[string]domain.PublishedConfig{}}
	svc := New(repo, logger.NewNop())

	cfg := draftConfig()
	first, err := svc.Publish(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	repo.failSave = errors.New("disk full")
	cfg.BrandName = "Broken"
	if _, err := svc.Publish(context.Background(), cfg); err == nil {
		t.Fatal("Publish() error = nil, want failure")
	}
	if got := repo.published["site-1"]; got.BrandName != first.BrandName {
		t.Errorf("published brand = %q, want the previous snapshot", got.BrandName)
	}
}

func TestPublishBestEffortSinks(t *testing.T) {
	repo := &fakeRepo{published: map[string]domain.PublishedConfig{}}
	sink := &fakeSink{err: errors.New("redis down")}
	svc := New(repo, logger.NewNop(), WithCache(sink), WithAnnouncer(sink))

	if _, err := svc.Publish(context.Background(), draftConfig()); err != nil {
		t.Fatalf("Publish() error = %v, cache and bus failures must not fail a publish", err)
	}
}

func TestPublishWithoutSite(t *testing.T) {
	svc := New(&fakeRepo{published: map[string]domain.PublishedConfig{}}, logger.NewNop())
	cfg := draftConfig()
	cfg.ID = ""
	if _, err := svc.Publish(context.Background(), cfg); !errors.Is(err, ErrNoSite) {
		t.Errorf("Publish() error = %v, want ErrNoSite", err)
	}
}
