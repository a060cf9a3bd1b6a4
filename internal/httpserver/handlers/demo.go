package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
)

type demoMonitorResponse struct {
	ID      domain.MonitorRef  `json:"id"`
	Monitor domain.MonitorData `json:"monitor"`
}

// AddDemoMonitor selects a new synthetic monitor on the draft.
func AddDemoMonitor(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ref domain.MonitorRef
		d.Draft.Mutate(func(cfg *domain.SiteConfig) bool {
			ref = cfg.AddDemoMonitor()
			return true
		})
		writeJSON(w, http.StatusCreated, demoMonitorResponse{
			ID:      ref,
			Monitor: domain.DemoMonitor(ref, d.Now()),
		})
	}
}
