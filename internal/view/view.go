// Package view turns reconciled monitor data into what a status page shows.
package view

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
)

// Branding is the visual identity of a page.
type Branding struct {
	BrandName string `json:"brandName"`
	LogoURL   string `json:"logoUrl"`
	Theme     string `json:"theme"`
	Subdomain string `json:"subdomain"`
}

// Input is everything needed to build a page.
type Input struct {
	Brand       Branding
	Monitors    []domain.MonitorData
	Error       string
	Stale       bool
	FetchedAt   time.Time
	Maintenance []domain.MaintenanceWindow
	Annotations map[domain.MonitorRef][]domain.IncidentUpdate
	Visibility  domain.Visibility
	Source      domain.DataSource
}

// DraftInput builds the input of the editor view from the draft and its live monitors.
func DraftInput(cfg domain.SiteConfig, monitors []domain.MonitorData, fetchErr string) Input {
	return Input{
		Brand: Branding{
			BrandName: cfg.BrandName,
			LogoURL:   cfg.LogoURL,
			Theme:     cfg.Theme,
			Subdomain: cfg.Subdomain,
		},
		Monitors:    monitors,
		Error:       fetchErr,
		Maintenance: cfg.Maintenance,
		Annotations: cfg.Annotations,
		Visibility:  cfg.Visibility,
		Source:      cfg.DataSource,
	}
}

// PublishedInput builds the input of a public page.
func PublishedInput(p domain.PublishedConfig, monitors []domain.MonitorData, fetchErr string) Input {
	return Input{
		Brand: Branding{
			BrandName: p.BrandName,
			LogoURL:   p.LogoURL,
			Theme:     p.Theme,
			Subdomain: p.Subdomain,
		},
		Monitors:    monitors,
		Error:       fetchErr,
		Maintenance: p.Maintenance,
		Annotations: p.Annotations,
		Visibility:  p.Visibility,
	}
}

// MaintenanceView is a window with its state at render time.
type MaintenanceView struct {
	domain.MaintenanceWindow
	State domain.WindowState `json:"state"`
}

// MonitorView is one monitor as displayed.
type MonitorView struct {
	Monitor             domain.MonitorData        `json:"monitor"`
	DisplayState        string                    `json:"displayState"`
	ActiveMaintenance   *domain.MaintenanceWindow `json:"activeMaintenance,omitempty"`
	UpcomingMaintenance *domain.MaintenanceWindow `json:"upcomingMaintenance,omitempty"`
	Annotations         []domain.IncidentUpdate   `json:"annotations"`
}

// Page is a fully rendered status page.
type Page struct {
	Brand       Branding          `json:"brand"`
	State       domain.PageState  `json:"state"`
	Severity    domain.Severity   `json:"severity,omitempty"`
	Error       string            `json:"error,omitempty"`
	Stale       bool              `json:"stale"`
	Source      domain.DataSource `json:"previewScenario"`
	Visibility  domain.Visibility `json:"visibility"`
	Monitors    []MonitorView     `json:"monitors"`
	Maintenance []MaintenanceView `json:"maintenance"`
	FetchedAt   time.Time         `json:"fetchedAt,omitempty"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// Build renders in at now. Windows starting within horizon are announced as upcoming.
func Build(in Input, now time.Time, horizon time.Duration) Page {
	monitors := domain.ApplyMaintenance(in.Monitors, in.Maintenance, now)
	state := domain.EvaluatePage(monitors, in.Error)

	page := Page{
		Brand:       in.Brand,
		State:       state,
		Error:       in.Error,
		Stale:       in.Stale,
		Source:      in.Source,
		Visibility:  in.Visibility,
		Monitors:    make([]MonitorView, 0, len(monitors)),
		Maintenance: make([]MaintenanceView, 0, len(in.Maintenance)),
		FetchedAt:   in.FetchedAt,
		GeneratedAt: now,
	}
	if sev, ok := state.Severity(); ok {
		page.Severity = sev
	}

	for _, m := range monitors {
		mv := MonitorView{
			Monitor:      trim(m, in.Visibility),
			DisplayState: m.Status.Label(),
			Annotations:  append([]domain.IncidentUpdate{}, in.Annotations[m.ID]...),
		}
		if w, ok := domain.ActiveFor(in.Maintenance, m.ID, now); ok {
			mv.ActiveMaintenance = &w
		}
		if w, ok := domain.UpcomingFor(in.Maintenance, m.ID, now, horizon); ok {
			mv.UpcomingMaintenance = &w
		}
		page.Monitors = append(page.Monitors, mv)
	}

	for _, w := range in.Maintenance {
		if st := w.State(now); st != domain.WindowPast {
			page.Maintenance = append(page.Maintenance, MaintenanceView{MaintenanceWindow: w, State: st})
		}
	}
	sort.SliceStable(page.Maintenance, func(i, j int) bool {
		return page.Maintenance[i].StartTime.Before(page.Maintenance[j].StartTime)
	})

	return page
}

// trim drops the sections the visibility settings hide and rounds uptime ratios.
func trim(m domain.MonitorData, v domain.Visibility) domain.MonitorData {
	if !v.ShowSparklines {
		m.ResponseTimes = []domain.ResponseTime{}
	}
	if !v.ShowIncidentHistory {
		m.Logs = []domain.Log{}
	}
	if len(m.UptimeRatios) > 0 {
		parts := make([]string, 0, len(m.UptimeRatios))
		rounded := make([]float64, 0, len(m.UptimeRatios))
		for _, r := range m.UptimeRatios {
			r = round(r, v.UptimeDecimals)
			rounded = append(rounded, r)
			parts = append(parts, strconv.FormatFloat(r, 'f', decimals(v.UptimeDecimals), 64))
		}
		m.UptimeRatios = rounded
		m.CustomUptimeRatio = strings.Join(parts, "-")
	}
	return m
}

func decimals(d int) int {
	switch {
	case d < 0:
		return 0
	case d > 4:
		return 4
	}
	return d
}

func round(v float64, d int) float64 {
	p := math.Pow(10, float64(decimals(d)))
	return math.Round(v*p) / p
}
