// Package aggregator reconciles provider monitor data with the draft selection.
package aggregator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/provider"
)

// ConfigSource is the draft the aggregator reads from and prunes.
//
// Mutate runs fn against the current draft under the draft's own lock.
// fn reports whether it changed anything.
type ConfigSource interface {
	Get() domain.SiteConfig
	Mutate(fn func(cfg *domain.SiteConfig) bool) bool
}

// Fetcher resolves a provider by name and queries it.
type Fetcher interface {
	Fetch(ctx context.Context, providerName string, q provider.Query) ([]domain.MonitorData, error)
}

// Result is what the editor renders for live data.
type Result struct {
	// Monitors are the selected monitors, custom logs merged.
	Monitors []domain.MonitorData `json:"monitors"`
	// Available lists every monitor the provider returned last, selected or not.
	Available []domain.MonitorData `json:"available"`
	Error     string               `json:"error,omitempty"`
	FetchedAt time.Time            `json:"fetchedAt,omitempty"`
	// Stale is set when Monitors come from an earlier fetch because the last one failed.
	Stale bool `json:"stale"`
}

type credentials struct {
	provider string
	apiKey   string
}

func credentialsOf(cfg domain.SiteConfig) credentials {
	return credentials{provider: cfg.Provider(), apiKey: cfg.APIKey}
}

// Aggregator holds the last known provider data for one draft.
type Aggregator struct {
	source  ConfigSource
	fetcher Fetcher
	logger  logger.Logger
	now     func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	known     []domain.MonitorData // unmerged provider monitors, provider order
	knownFor  credentials
	lastErr   string
	fetchedAt time.Time
}

func New(source ConfigSource, fetcher Fetcher, log logger.Logger) *Aggregator {
	return &Aggregator{
		source:  source,
		fetcher: fetcher,
		logger:  log,
		now:     time.Now,
	}
}

// Refresh fetches provider data and reconciles it with the current draft.
// Concurrent calls share a single fetch.
func (a *Aggregator) Refresh(ctx context.Context) Result {
	v, _, _ := a.group.Do("refresh", func() (interface{}, error) {
		a.refresh(ctx)
		return a.Snapshot(), nil
	})
	return v.(Result)
}

func (a *Aggregator) refresh(ctx context.Context) {
	issued := a.source.Get()

	if issued.APIKey == "" {
		a.mu.Lock()
		a.switchTo(credentials{})
		a.mu.Unlock()
		return
	}

	creds := credentialsOf(issued)
	providerName := creds.provider
	monitors, err := a.fetcher.Fetch(ctx, providerName, provider.Query{APIKey: issued.APIKey})

	// Credentials may have changed while the call was in flight.
	if credentialsOf(a.source.Get()) != creds {
		a.logger.Debug("discarding provider result fetched with outdated credentials",
			logger.String("provider", providerName))
		return
	}

	switch {
	case err != nil:
		a.logger.Warn("provider fetch failed",
			logger.String("provider", providerName),
			logger.Error(err))
		a.mu.Lock()
		a.switchTo(creds)
		a.lastErr = err.Error()
		a.mu.Unlock()
		return

	case len(monitors) == 0:
		a.mu.Lock()
		a.switchTo(creds)
		a.lastErr = ""
		a.mu.Unlock()
		return
	}

	a.mu.Lock()
	a.switchTo(creds)
	a.known = domain.CloneMonitors(monitors)
	a.lastErr = ""
	a.fetchedAt = a.now()
	a.mu.Unlock()

	fetched := domain.Refs(monitors)
	a.source.Mutate(func(cfg *domain.SiteConfig) bool {
		if credentialsOf(*cfg) != creds {
			return false
		}
		next := ReconcileSelection(cfg.Monitors, fetched)
		if domain.EqualRefs(next, cfg.Monitors) {
			return false
		}
		a.logger.Info("monitor selection reconciled with provider",
			logger.Int("before", len(cfg.Monitors)),
			logger.Int("after", len(next)))
		cfg.Monitors = next
		return true
	})

	a.logger.Debug("provider fetch succeeded",
		logger.String("provider", providerName),
		logger.Int("monitor_count", len(monitors)))
}

// switchTo forgets data fetched with other credentials. Callers hold mu.
func (a *Aggregator) switchTo(creds credentials) {
	if a.knownFor == creds {
		return
	}
	a.known = nil
	a.lastErr = ""
	a.fetchedAt = time.Time{}
	a.knownFor = creds
}

// ReconcileSelection keeps the selected references that the provider still
// returns. Demo references are dropped. When nothing is left, every fetched
// monitor is selected.
func ReconcileSelection(selected, fetched []domain.MonitorRef) []domain.MonitorRef {
	out := make([]domain.MonitorRef, 0, len(selected))
	for _, ref := range selected {
		if ref.IsReal() && domain.ContainsRef(fetched, ref) {
			out = append(out, ref)
		}
	}
	if len(out) == 0 {
		return domain.UniqueRefs(fetched)
	}
	return domain.UniqueRefs(out)
}

// Snapshot renders the last known data against the current draft without fetching.
func (a *Aggregator) Snapshot() Result {
	cfg := a.source.Get()

	a.mu.RLock()
	var known []domain.MonitorData
	res := Result{}
	if cfg.APIKey != "" && a.knownFor == credentialsOf(cfg) {
		known = domain.CloneMonitors(a.known)
		res.Error = a.lastErr
		res.FetchedAt = a.fetchedAt
	}
	a.mu.RUnlock()

	var selected []domain.MonitorData
	if len(known) > 0 {
		for _, m := range known {
			if domain.ContainsRef(cfg.Monitors, m.ID) {
				selected = append(selected, m)
			}
		}
		res.Stale = res.Error != ""
	} else {
		selected = domain.DemoMonitors(cfg.Monitors, a.now())
	}

	res.Monitors = domain.WithCustomLogs(selected, cfg.CustomLogs)
	res.Available = known
	if res.Available == nil {
		res.Available = []domain.MonitorData{}
	}
	return res
}
