package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
	"github.com/MrSnakeDoc/pulsepage/internal/view"
)

// DraftView renders the editor page: live data or the selected preview scenario.
func DraftView(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := buildDraftPage(d)
		if err != nil {
			d.Logger.Error("failed to build draft view", logger.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func buildDraftPage(d deps.Deps) (view.Page, error) {
	now := d.Now()
	cfg := d.Draft.Get()
	res := d.Aggregator.Snapshot()

	in := view.DraftInput(cfg, res.Monitors, res.Error)
	in.Stale = res.Stale
	in.FetchedAt = res.FetchedAt

	in, err := d.Catalogue.Overlay(cfg, in, now)
	if err != nil {
		return view.Page{}, err
	}
	return view.Build(in, now, d.Horizon()), nil
}

// Refresh polls the provider now and returns the refreshed page.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := d.Poller.Poll(r.Context())
		page, err := buildDraftPage(d)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		d.Logger.Info("manual monitor refresh",
			logger.Int("monitor_count", len(res.Monitors)),
			logger.Bool("failed", res.Error != ""))
		writeJSON(w, http.StatusOK, page)
	}
}

type availableResponse struct {
	Monitors []monitorSummary `json:"monitors"`
	Error    string           `json:"error,omitempty"`
}

type monitorSummary struct {
	ID           string `json:"id"`
	FriendlyName string `json:"friendly_name"`
	URL          string `json:"url"`
	Selected     bool   `json:"selected"`
}

// AvailableMonitors lists every provider monitor the editor can select.
func AvailableMonitors(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := d.Aggregator.Snapshot()
		selected := d.Draft.Get().Monitors

		out := availableResponse{Monitors: make([]monitorSummary, 0, len(res.Available)), Error: res.Error}
		for _, m := range res.Available {
			out.Monitors = append(out.Monitors, monitorSummary{
				ID:           m.ID.String(),
				FriendlyName: m.FriendlyName,
				URL:          m.URL,
				Selected:     domain.ContainsRef(selected, m.ID),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type presenceRequest struct {
	Visible bool `json:"visible"`
}

// Presence records whether the editor is on screen. Hidden editors are not polled.
func Presence(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req presenceRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		wasVisible := d.Poller.Visible()
		d.Poller.SetVisible(req.Visible)
		if req.Visible && !wasVisible {
			d.Poller.Trigger()
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Scenarios lists the preview scenarios.
func Scenarios(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Catalogue.List())
	}
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
