package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/publish"
)

// GetDraft returns the current draft.
func GetDraft(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Draft.Get())
	}
}

// PatchDraft merges the request body into the draft. Persistence happens on
// the debounce; the response carries the updated draft.
func PatchDraft(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p domain.Patch
		if err := decodeJSON(w, r, &p); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if p.DataSource != nil {
			if sc, ok := p.DataSource.Scenario(); ok && !d.Catalogue.Has(sc) {
				writeError(w, http.StatusBadRequest, "unknown preview scenario: "+string(sc))
				return
			}
		}
		if p.Visibility != nil && (p.Visibility.UptimeDecimals < 0 || p.Visibility.UptimeDecimals > 4) {
			writeError(w, http.StatusBadRequest, "uptimeDecimals must be between 0 and 4")
			return
		}

		d.Draft.Update(p)

		// New credentials or a switch back to live data need fresh provider data.
		if p.APIKey != nil || p.MonitorProvider != nil || (p.DataSource != nil && p.DataSource.IsLive()) {
			d.Poller.Trigger()
		}

		d.Logger.Debug("draft patched", logger.String("request_id", requestID(r)))
		writeJSON(w, http.StatusOK, d.Draft.Get())
	}
}

// GetSaveStatus returns the persistence state of the draft.
func GetSaveStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Draft.Status())
	}
}

type dirtyResponse struct {
	Dirty     bool `json:"dirty"`
	Published bool `json:"published"`
}

// GetDirty reports whether the draft differs from its published snapshot.
func GetDirty(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := d.Draft.Get()
		published, err := d.Publisher.Published(r.Context(), cfg.ID)
		if err != nil {
			d.Logger.Error("failed to load published snapshot", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load published snapshot")
			return
		}
		writeJSON(w, http.StatusOK, dirtyResponse{
			Dirty:     publish.ComputeDirty(cfg, published),
			Published: published != nil,
		})
	}
}
