package preview

import (
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/view"
)

// Overlay returns what to render for cfg. A live draft passes live through.
// A preview replaces monitors, maintenance and annotations with the scenario
// dataset and turns every visibility section on; the live fetch error is
// irrelevant to a preview and is dropped.
func (c *Catalogue) Overlay(cfg domain.SiteConfig, live view.Input, now time.Time) (view.Input, error) {
	scenario, ok := cfg.DataSource.Scenario()
	if !ok {
		return live, nil
	}

	ds, err := c.Dataset(scenario, now)
	if err != nil {
		return view.Input{}, err
	}

	out := live
	out.Monitors = ds.Monitors
	out.Maintenance = ds.Maintenance
	out.Annotations = ds.Annotations
	out.Error = ""
	out.Stale = false
	out.FetchedAt = now
	out.Visibility = cfg.Visibility.AllOn()
	out.Source = cfg.DataSource
	return out, nil
}
