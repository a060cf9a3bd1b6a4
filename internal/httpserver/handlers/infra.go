package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	PagesLoaded *int   `json:"pages_loaded,omitempty"`
	LastRun     string `json:"last_run,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	ServingMode string                     `json:"serving_mode"`
	Components  map[string]componentStatus `json:"components"`
}

func formatRun(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}

// Infra reports the state of every component behind the status pages.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"database": checkDatabase(ctx, d),
			"redis":    checkRedis(ctx, d),
			"nats":     checkNATS(d),
		}

		if d.MemoryIndex != nil {
			pages := d.MemoryIndex.Count()
			components["public_pages"] = componentStatus{
				OK:          true,
				PagesLoaded: &pages,
				LastRun:     formatRun(d.MemoryIndex.GetLastRefresh()),
			}
			_, polled := d.MemoryIndex.Live()
			components["editor_poll"] = componentStatus{
				OK:      polled,
				LastRun: formatRun(d.MemoryIndex.GetLastPoll()),
			}
		}

		writeJSON(w, http.StatusOK, infraResponse{
			ServingMode: determineServingMode(components),
			Components:  components,
		})
	}
}

func determineServingMode(components map[string]componentStatus) string {
	if db, ok := components["database"]; ok && !db.OK {
		return "critical"
	}
	if redis, ok := components["redis"]; ok && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}
	return "optimal"
}

func checkDatabase(ctx context.Context, d deps.Deps) componentStatus {
	if d.Sites == nil {
		return componentStatus{OK: false, Error: "not configured"}
	}
	if err := d.Sites.Ping(ctx); err != nil {
		return componentStatus{OK: false, Impact: "editing-and-publishing-unavailable", Error: err.Error()}
	}
	return componentStatus{OK: true}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "public-pages-served-per-instance",
		}
	}
	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "public-page-cache-unavailable",
			Error:  "timeout",
		}
	}
	return componentStatus{OK: true, Mode: "shared-cache"}
}

func checkNATS(d deps.Deps) componentStatus {
	if d.Bus == nil {
		return componentStatus{OK: false, Mode: "disabled", Impact: "publish-events-local-only"}
	}
	if !d.Bus.Connected() {
		return componentStatus{OK: false, Mode: "degraded", Error: "disconnected"}
	}
	return componentStatus{OK: true, Mode: "connected"}
}
