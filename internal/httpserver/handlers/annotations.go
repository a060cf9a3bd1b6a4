package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

type annotationRequest struct {
	MonitorID string         `json:"monitorId"`
	Content   string         `json:"content"`
	Variant   domain.Variant `json:"variant"`
}

type annotationDeleteResponse struct {
	Archived *domain.Log `json:"archived,omitempty"`
}

// AddAnnotation creates an incident update on a monitor.
func AddAnnotation(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req annotationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ref, err := domain.ParseMonitorRef(req.MonitorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Content == "" {
			writeError(w, http.StatusBadRequest, "content is required")
			return
		}
		u, err := domain.NewIncidentUpdate(req.Content, req.Variant, d.Now().UTC())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		d.Draft.Mutate(func(cfg *domain.SiteConfig) bool {
			cfg.AddAnnotation(ref, u)
			return true
		})

		d.Logger.Info("annotation added",
			logger.String("monitor_id", ref.String()),
			logger.String("update_id", u.ID))
		writeJSON(w, http.StatusCreated, u)
	}
}

// DeleteAnnotation removes an update, archiving it into history when mode=archive.
func DeleteAnnotation(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := domain.ParseDeleteMode(r.URL.Query().Get("mode"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		updateID := chi.URLParam(r, "updateID")

		var archived *domain.Log
		var opErr error
		d.Draft.Mutate(func(cfg *domain.SiteConfig) bool {
			archived, opErr = cfg.DeleteAnnotation(updateID, mode)
			return opErr == nil
		})

		switch {
		case errors.Is(opErr, domain.ErrAnnotationNotFound):
			writeError(w, http.StatusNotFound, opErr.Error())
			return
		case opErr != nil:
			writeError(w, http.StatusBadRequest, opErr.Error())
			return
		}

		d.Logger.Info("annotation deleted",
			logger.String("update_id", updateID),
			logger.String("mode", string(mode)),
			logger.Bool("archived", archived != nil))
		writeJSON(w, http.StatusOK, annotationDeleteResponse{Archived: archived})
	}
}
