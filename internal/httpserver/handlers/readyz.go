package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready once the database answers. Redis and NATS are optional
// and never make the service unready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Sites != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Sites.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Error: "database unreachable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
