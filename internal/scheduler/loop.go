package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

// loop runs a job once on start, then on every tick and every trigger, until
// stop is called or the context ends. Triggers sent while a run is pending
// are coalesced.
type loop struct {
	name     string
	interval time.Duration
	logger   logger.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	trigger  chan struct{}
}

func newLoop(name string, interval time.Duration, log logger.Logger) *loop {
	if interval <= 0 {
		interval = time.Minute
	}
	return &loop{
		name:     name,
		interval: interval,
		logger:   log,
		stopCh:   make(chan struct{}),
		trigger:  make(chan struct{}, 1),
	}
}

// start runs job synchronously once and then in the background. due, when
// set, can skip a scheduled tick; triggered runs always happen.
func (l *loop) start(ctx context.Context, job func(context.Context) error, due func() bool) {
	if err := job(ctx); err != nil {
		l.logger.Warn("initial run failed", logger.String("loop", l.name), logger.Error(err))
	}

	ticker := time.NewTicker(l.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if due != nil && !due() {
					continue
				}
			case <-l.trigger:
				l.logger.Debug("manual run triggered", logger.String("loop", l.name))
			case <-l.stopCh:
				return
			case <-ctx.Done():
				return
			}
			if err := job(ctx); err != nil {
				l.logger.Error("run failed", logger.String("loop", l.name), logger.Error(err))
			}
		}
	}()
}

func (l *loop) stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *loop) poke() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}
