// Package draft holds the editor's in-memory site configuration and persists it on a debounce.
package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

// Repository persists drafts. LoadSite returns domain.ErrNotFound when the
// owner has no site, CreateSite returns domain.ErrConflict when the subdomain
// is taken.
type Repository interface {
	LoadSite(ctx context.Context, ownerID string) (domain.SiteConfig, error)
	CreateSite(ctx context.Context, cfg domain.SiteConfig) (string, error)
	UpdateSite(ctx context.Context, cfg domain.SiteConfig) error
}

// SaveStatus is the persistence state shown to the editor.
type SaveStatus string

const (
	StatusIdle   SaveStatus = "idle"
	StatusSaving SaveStatus = "saving"
	StatusSaved  SaveStatus = "saved"
	StatusError  SaveStatus = "error"
)

// State is a point-in-time view of the persistence state.
type State struct {
	Status    SaveStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	Dirty     bool       `json:"dirty"`
	SavedAt   time.Time  `json:"savedAt,omitempty"`
	Persisted bool       `json:"persisted"`
}

type Options struct {
	// Debounce is the quiet period after the last edit before a save.
	Debounce time.Duration
	// SavedLinger is how long StatusSaved is shown before going back to idle.
	SavedLinger time.Duration
	// MaxCreateAttempts bounds subdomain disambiguation on first save.
	MaxCreateAttempts int
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = 2 * time.Second
	}
	if o.SavedLinger <= 0 {
		o.SavedLinger = 2 * time.Second
	}
	if o.MaxCreateAttempts <= 0 {
		o.MaxCreateAttempts = 5
	}
	return o
}

// Store owns one draft. All methods are safe for concurrent use.
type Store struct {
	repo   Repository
	logger logger.Logger
	opts   Options

	mu        sync.Mutex
	cfg       domain.SiteConfig
	version   uint64            // bumped on every edit
	persisted uint64            // version last written
	status    SaveStatus
	lastErr   string
	savedAt   time.Time
	debounce  *time.Timer
	linger    *time.Timer
	started   bool
	stopped   bool

	persistMu sync.Mutex // serializes repository writes
	saveCh    chan struct{}
	stopCh    chan struct{}
	done      chan struct{}
}

// New returns a store holding the default draft of ownerID. Call Load to read
// the persisted draft and Start to run the save loop.
func New(repo Repository, ownerID string, log logger.Logger, opts Options) *Store {
	return &Store{
		repo:   repo,
		logger: log,
		opts:   opts.withDefaults(),
		cfg:    domain.DefaultSiteConfig(ownerID),
		status: StatusIdle,
		saveCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Load replaces the in-memory draft with the persisted one.
// found is false when the owner has no site yet; the defaults stay in place
// and the first save creates the row.
func (s *Store) Load(ctx context.Context, ownerID string) (domain.SiteConfig, bool, error) {
	cfg, err := s.repo.LoadSite(ctx, ownerID)
	if errors.Is(err, domain.ErrNotFound) {
		s.mu.Lock()
		s.cfg = domain.DefaultSiteConfig(ownerID)
		s.version, s.persisted = 0, 0
		out := s.cfg.Clone()
		s.mu.Unlock()
		return out, false, nil
	}
	if err != nil {
		return domain.SiteConfig{}, false, fmt.Errorf("failed to load draft: %w", err)
	}

	normalize(&cfg)
	s.mu.Lock()
	s.cfg = cfg
	s.version, s.persisted = 0, 0
	out := s.cfg.Clone()
	s.mu.Unlock()

	s.logger.Info("draft loaded",
		logger.String("site_id", cfg.ID),
		logger.Int("monitor_count", len(cfg.Monitors)))
	return out, true, nil
}

// normalize fills the maps and slices a stored row may lack.
func normalize(cfg *domain.SiteConfig) {
	if cfg.Monitors == nil {
		cfg.Monitors = []domain.MonitorRef{}
	}
	if cfg.Annotations == nil {
		cfg.Annotations = map[domain.MonitorRef][]domain.IncidentUpdate{}
	}
	if cfg.CustomLogs == nil {
		cfg.CustomLogs = map[domain.MonitorRef][]domain.Log{}
	}
	if cfg.Maintenance == nil {
		cfg.Maintenance = []domain.MaintenanceWindow{}
	}
	if cfg.MonitorProvider == "" {
		cfg.MonitorProvider = domain.DefaultProvider
	}
}

// Get returns a copy of the current draft.
func (s *Store) Get() domain.SiteConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Update merges p into the draft and schedules a save.
func (s *Store) Update(p domain.Patch) {
	if p.IsEmpty() {
		return
	}
	s.Mutate(func(cfg *domain.SiteConfig) bool {
		p.Apply(cfg)
		return true
	})
}

// Mutate runs fn on the draft under the store lock. When fn reports a change
// the draft is marked dirty and a save is scheduled.
func (s *Store) Mutate(fn func(cfg *domain.SiteConfig) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	if !fn(&next) {
		return false
	}
	s.cfg = next
	s.version++
	s.scheduleLocked()
	return true
}

func (s *Store) scheduleLocked() {
	if s.stopped {
		return
	}
	if s.debounce == nil {
		s.debounce = time.AfterFunc(s.opts.Debounce, s.kick)
		return
	}
	s.debounce.Stop()
	s.debounce.Reset(s.opts.Debounce)
}

// kick wakes the save loop without blocking.
func (s *Store) kick() {
	select {
	case s.saveCh <- struct{}{}:
	default:
	}
}

// Start runs the save loop until ctx is done or Stop is called.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		for {
			select {
			case <-s.saveCh:
				if err := s.persist(ctx); err != nil {
					s.logger.Error("failed to save draft", logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the timers and the save loop. Pending edits are not written;
// call Flush first to keep them.
func (s *Store) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	if s.debounce != nil {
		s.debounce.Stop()
	}
	if s.linger != nil {
		s.linger.Stop()
	}
	s.mu.Unlock()

	close(s.stopCh)
	if started {
		<-s.done
	}
}

// Flush writes pending edits now, bypassing the debounce.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.mu.Unlock()
	return s.persist(ctx)
}

// Status returns the persistence state.
func (s *Store) Status() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Status:    s.status,
		Error:     s.lastErr,
		Dirty:     s.version != s.persisted,
		SavedAt:   s.savedAt,
		Persisted: s.cfg.ID != "",
	}
}

// persist writes the current draft if it changed since the last write.
// The lock is released during repository calls so edits never block on I/O.
func (s *Store) persist(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if s.version == s.persisted && s.cfg.ID != "" {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.cfg.Clone()
	ver := s.version
	s.status = StatusSaving
	s.lastErr = ""
	if s.linger != nil {
		s.linger.Stop()
	}
	s.mu.Unlock()

	var err error
	if snapshot.ID == "" {
		err = s.create(ctx, snapshot)
	} else {
		err = s.repo.UpdateSite(ctx, snapshot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status = StatusError
		s.lastErr = err.Error()
		return fmt.Errorf("failed to persist draft: %w", err)
	}

	s.persisted = ver
	s.status = StatusSaved
	s.savedAt = time.Now()
	if !s.stopped {
		s.linger = time.AfterFunc(s.opts.SavedLinger, s.settle)
	}
	s.logger.Debug("draft saved",
		logger.String("site_id", s.cfg.ID),
		logger.Int64("version", int64(ver)))
	return nil
}

// create inserts the first row, disambiguating the subdomain on conflict,
// and back-fills the id and chosen subdomain into the live draft.
func (s *Store) create(ctx context.Context, snapshot domain.SiteConfig) error {
	base := snapshot.Subdomain
	for attempt := 1; attempt <= s.opts.MaxCreateAttempts; attempt++ {
		if attempt > 1 {
			snapshot.Subdomain = fmt.Sprintf("%s-%d", base, attempt)
		}

		id, err := s.repo.CreateSite(ctx, snapshot)
		if errors.Is(err, domain.ErrConflict) && base != "" {
			s.logger.Warn("subdomain taken, retrying",
				logger.String("subdomain", snapshot.Subdomain),
				logger.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.cfg.ID = id
		if snapshot.Subdomain != base && s.cfg.Subdomain == base {
			s.cfg.Subdomain = snapshot.Subdomain
		}
		s.mu.Unlock()

		s.logger.Info("site created",
			logger.String("site_id", id),
			logger.String("subdomain", snapshot.Subdomain))
		return nil
	}
	return fmt.Errorf("%w: no free subdomain after %d attempts", domain.ErrConflict, s.opts.MaxCreateAttempts)
}

// settle moves saved back to idle.
func (s *Store) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusSaved {
		s.status = StatusIdle
	}
}
