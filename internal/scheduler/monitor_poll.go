package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/aggregator"
	"github.com/MrSnakeDoc/pulsepage/internal/index"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

// MonitorPoller refreshes the editor's live monitor data on a fixed period.
// Ticks are skipped while the editor is hidden or previewing a scenario.
type MonitorPoller struct {
	aggregator *aggregator.Aggregator
	source     aggregator.ConfigSource
	index      *index.MemoryIndex
	logger     logger.Logger
	visible    atomic.Bool
	loop       *loop
}

// NewMonitorPoller creates a new monitor poller. The editor starts visible.
func NewMonitorPoller(
	agg *aggregator.Aggregator,
	source aggregator.ConfigSource,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
) *MonitorPoller {
	mp := &MonitorPoller{
		aggregator: agg,
		source:     source,
		index:      idx,
		logger:     log,
		loop:       newLoop("monitor_poll", interval, log),
	}
	mp.visible.Store(true)
	return mp
}

// Start polls once, then every interval while the editor is visible and live.
func (mp *MonitorPoller) Start(ctx context.Context) error {
	mp.loop.start(ctx, func(ctx context.Context) error {
		mp.Poll(ctx)
		return nil
	}, mp.shouldPoll)
	return nil
}

func (mp *MonitorPoller) Stop() { mp.loop.stop() }

// Trigger requests a poll on the next loop iteration, regardless of visibility.
func (mp *MonitorPoller) Trigger() { mp.loop.poke() }

// SetVisible records whether the editor is on screen.
func (mp *MonitorPoller) SetVisible(v bool) {
	if mp.visible.Swap(v) != v {
		mp.logger.Debug("editor visibility changed", logger.Bool("visible", v))
	}
}

func (mp *MonitorPoller) Visible() bool {
	return mp.visible.Load()
}

func (mp *MonitorPoller) shouldPoll() bool {
	if !mp.visible.Load() {
		return false
	}
	return mp.source.Get().DataSource.IsLive()
}

// Poll refreshes the aggregator and stores the result in the index.
func (mp *MonitorPoller) Poll(ctx context.Context) aggregator.Result {
	res := mp.aggregator.Refresh(ctx)
	mp.index.SetLive(res)

	if res.Error != "" {
		mp.logger.Warn("monitor poll failed",
			logger.String("error", res.Error),
			logger.Bool("stale", res.Stale),
			logger.Int("monitor_count", len(res.Monitors)))
	} else {
		mp.logger.Debug("monitors polled",
			logger.Int("monitor_count", len(res.Monitors)),
			logger.Int("available_count", len(res.Available)))
	}
	return res
}
