package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status        string    `json:"status"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Build         buildInfo `json:"build"`
}

// Healthz is the liveness probe. It never touches a backend; readiness is
// reported by Readyz.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: int64(d.Now().Sub(d.StartTime).Seconds()),
			Build:         build,
		})
	}
}
