// Package publish promotes a draft to the public snapshot.
package publish

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

var ErrNoSite = errors.New("draft has not been persisted yet")

// Repository stores published snapshots. SavePublished must replace the
// previous snapshot atomically.
type Repository interface {
	LoadPublished(ctx context.Context, siteID string) (domain.PublishedConfig, error)
	SavePublished(ctx context.Context, p domain.PublishedConfig) error
}

// Cache receives a copy of every new snapshot. Failures are logged only.
type Cache interface {
	SavePublished(ctx context.Context, p domain.PublishedConfig) error
}

// Announcer broadcasts publish events. Failures are logged only.
type Announcer interface {
	AnnouncePublished(ctx context.Context, p domain.PublishedConfig) error
}

// Service compares drafts with their published snapshot and publishes them.
type Service struct {
	repo      Repository
	cache     Cache
	announcer Announcer
	logger    logger.Logger
	onPublish func()
	now       func() time.Time
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithAnnouncer(a Announcer) Option {
	return func(s *Service) { s.announcer = a }
}

// WithTrigger registers fn to run after every successful publish.
func WithTrigger(fn func()) Option {
	return func(s *Service) { s.onPublish = fn }
}

func New(repo Repository, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Published returns the current snapshot of siteID, or nil when it was never published.
func (s *Service) Published(ctx context.Context, siteID string) (*domain.PublishedConfig, error) {
	if siteID == "" {
		return nil, nil
	}
	p, err := s.repo.LoadPublished(ctx, siteID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load published snapshot: %w", err)
	}
	return &p, nil
}

// IsDirty reports whether draft differs from what is published.
func (s *Service) IsDirty(ctx context.Context, draft domain.SiteConfig) (bool, error) {
	published, err := s.Published(ctx, draft.ID)
	if err != nil {
		return false, err
	}
	return ComputeDirty(draft, published), nil
}

// Publish snapshots draft and replaces the published copy.
// The draft itself is never modified.
func (s *Service) Publish(ctx context.Context, draft domain.SiteConfig) (domain.PublishedConfig, error) {
	if draft.ID == "" {
		return domain.PublishedConfig{}, ErrNoSite
	}

	snapshot := draft.Snapshot(s.now().UTC())
	if err := s.repo.SavePublished(ctx, snapshot); err != nil {
		return domain.PublishedConfig{}, fmt.Errorf("failed to save published snapshot: %w", err)
	}

	s.logger.Info("site published",
		logger.String("site_id", snapshot.SiteID),
		logger.String("subdomain", snapshot.Subdomain),
		logger.Int("monitor_count", len(snapshot.Monitors)))

	if s.cache != nil {
		if err := s.cache.SavePublished(ctx, snapshot); err != nil {
			s.logger.Warn("failed to cache published snapshot",
				logger.String("site_id", snapshot.SiteID),
				logger.Error(err))
		}
	}
	if s.announcer != nil {
		if err := s.announcer.AnnouncePublished(ctx, snapshot); err != nil {
			s.logger.Warn("failed to announce publish",
				logger.String("site_id", snapshot.SiteID),
				logger.Error(err))
		}
	}
	if s.onPublish != nil {
		s.onPublish()
	}

	return snapshot, nil
}

// publishedFields is the part of a site that decides whether it needs publishing.
type publishedFields struct {
	BrandName       string
	LogoURL         string
	Theme           string
	Subdomain       string
	APIKey          string
	MonitorProvider string
	Monitors        []string
	Visibility      domain.Visibility
}

func comparisonSet(brand, logo, theme, sub, key, provider string, monitors []domain.MonitorRef, vis domain.Visibility) publishedFields {
	ids := make([]string, 0, len(monitors))
	for _, r := range domain.RealRefs(monitors) {
		ids = append(ids, r.String())
	}
	sort.Strings(ids)
	if provider == "" {
		provider = domain.DefaultProvider
	}
	return publishedFields{
		BrandName:       brand,
		LogoURL:         logo,
		Theme:           theme,
		Subdomain:       sub,
		APIKey:          key,
		MonitorProvider: provider,
		Monitors:        ids,
		Visibility:      vis,
	}
}

// ComputeDirty reports whether draft differs from published on the fields that
// matter for publishing. Demo monitors and the preview data source are ignored.
// A nil published snapshot always means dirty.
func ComputeDirty(draft domain.SiteConfig, published *domain.PublishedConfig) bool {
	if published == nil {
		return true
	}
	d := comparisonSet(draft.BrandName, draft.LogoURL, draft.Theme, draft.Subdomain,
		draft.APIKey, draft.MonitorProvider, draft.Monitors, draft.Visibility)
	p := comparisonSet(published.BrandName, published.LogoURL, published.Theme, published.Subdomain,
		published.APIKey, published.MonitorProvider, published.Monitors, published.Visibility)
	return !reflect.DeepEqual(d, p)
}
