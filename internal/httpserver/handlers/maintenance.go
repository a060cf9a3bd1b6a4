package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

func validateWindow(w domain.MaintenanceWindow) error {
	if w.Title == "" {
		return errors.New("title is required")
	}
	if w.StartTime.IsZero() {
		return errors.New("startTime is required")
	}
	if w.DurationMinutes <= 0 {
		return errors.New("durationMinutes must be positive")
	}
	if w.MonitorID != domain.AllMonitors {
		if _, err := domain.ParseMonitorRef(w.MonitorID); err != nil {
			return err
		}
	}
	return nil
}

// AddMaintenance schedules a maintenance window.
func AddMaintenance(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.MaintenanceWindow
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validateWindow(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var created domain.MaintenanceWindow
		d.Draft.Mutate(func(cfg *domain.SiteConfig) bool {
			created = cfg.AddMaintenance(req)
			return true
		})

		d.Logger.Info("maintenance scheduled",
			logger.String("window_id", created.ID),
			logger.String("monitor_id", created.MonitorID),
			logger.Time("start", created.StartTime))
		writeJSON(w, http.StatusCreated, created)
	}
}

// UpdateMaintenance replaces a maintenance window.
func UpdateMaintenance(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.MaintenanceWindow
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.ID = chi.URLParam(r, "windowID")
		if err := validateWindow(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var opErr error
		d.Draft.Mutate(func(cfg *domain.SiteConfig) bool {
			opErr = cfg.UpdateMaintenance(req)
			return opErr == nil
		})
		if opErr != nil {
			writeError(w, http.StatusNotFound, opErr.Error())
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

// DeleteMaintenance removes a maintenance window.
func DeleteMaintenance(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "windowID")

		var opErr error
		d.Draft.Mutate(func(cfg *domain.SiteConfig) bool {
			opErr = cfg.DeleteMaintenance(id)
			return opErr == nil
		})
		if opErr != nil {
			writeError(w, http.StatusNotFound, opErr.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
