package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/publish"
)

// Publish snapshots the draft of siteID and makes it public.
// Pending edits are flushed first so the published copy matches what is stored.
func Publish(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := chi.URLParam(r, "siteID")
		ctx := r.Context()

		if d.Draft.Status().Dirty || d.Draft.Get().ID == "" {
			if err := d.Draft.Flush(ctx); err != nil {
				d.Logger.Warn("failed to flush draft before publish", logger.Error(err))
				status := http.StatusInternalServerError
				if errors.Is(err, domain.ErrConflict) {
					status = http.StatusConflict
				}
				writeError(w, status, "draft could not be saved: "+err.Error())
				return
			}
		}

		cfg := d.Draft.Get()
		if cfg.ID == "" || cfg.ID != siteID {
			writeError(w, http.StatusNotFound, "unknown site: "+siteID)
			return
		}

		snapshot, err := d.Publisher.Publish(ctx, cfg)
		switch {
		case errors.Is(err, publish.ErrNoSite):
			writeError(w, http.StatusConflict, err.Error())
			return
		case errors.Is(err, domain.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			d.Logger.Error("publish failed", logger.String("site_id", siteID), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "publish failed")
			return
		}

		writeJSON(w, http.StatusOK, snapshot)
	}
}
