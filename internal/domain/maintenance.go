package domain

import (
	"time"

	"github.com/google/uuid"
)

// AllMonitors is the maintenance scope covering every monitor of a page.
const AllMonitors = "all"

// DefaultUpcomingHorizon is how far ahead a scheduled window is announced.
const DefaultUpcomingHorizon = 12 * time.Hour

// WindowState is derived from wall-clock time, never stored.
type WindowState string

const (
	WindowScheduled WindowState = "scheduled"
	WindowActive    WindowState = "active"
	WindowPast      WindowState = "past"
)

// MaintenanceWindow is an operator-scheduled maintenance period.
// MonitorID is a MonitorRef string or AllMonitors.
type MaintenanceWindow struct {
	ID              string    `json:"id"`
	MonitorID       string    `json:"monitorId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"startTime"`
	DurationMinutes int       `json:"durationMinutes"`
}

// NewMaintenanceWindow assigns a fresh id to w.
func NewMaintenanceWindow(w MaintenanceWindow) MaintenanceWindow {
	w.ID = uuid.NewString()
	return w
}

func (w MaintenanceWindow) End() time.Time {
	return w.StartTime.Add(time.Duration(w.DurationMinutes) * time.Minute)
}

// Covers reports whether the window applies to ref.
func (w MaintenanceWindow) Covers(ref MonitorRef) bool {
	return w.MonitorID == AllMonitors || w.MonitorID == ref.String()
}

// State returns the lifecycle state of the window at now. Both bounds are inclusive.
func (w MaintenanceWindow) State(now time.Time) WindowState {
	switch {
	case now.Before(w.StartTime):
		return WindowScheduled
	case !now.After(w.End()):
		return WindowActive
	default:
		return WindowPast
	}
}

// ActiveFor returns the active window covering ref at now.
// When several are active the earliest-starting one wins.
func ActiveFor(windows []MaintenanceWindow, ref MonitorRef, now time.Time) (MaintenanceWindow, bool) {
	var best MaintenanceWindow
	found := false
	for _, w := range windows {
		if !w.Covers(ref) || w.State(now) != WindowActive {
			continue
		}
		if !found || w.StartTime.Before(best.StartTime) {
			best = w
			found = true
		}
	}
	return best, found
}

// UpcomingFor returns the next window covering ref that starts within horizon.
// Nothing is upcoming while a window is active for ref.
func UpcomingFor(windows []MaintenanceWindow, ref MonitorRef, now time.Time, horizon time.Duration) (MaintenanceWindow, bool) {
	var best MaintenanceWindow
	found := false
	limit := now.Add(horizon)
	for _, w := range windows {
		if !w.Covers(ref) {
			continue
		}
		switch w.State(now) {
		case WindowActive:
			return MaintenanceWindow{}, false
		case WindowScheduled:
			if w.StartTime.After(limit) {
				continue
			}
			if !found || w.StartTime.Before(best.StartTime) {
				best = w
				found = true
			}
		}
	}
	return best, found
}

// ApplyMaintenance returns copies of monitors where every monitor that is not down
// and has an active window is reported as in maintenance. Outages stay visible.
func ApplyMaintenance(monitors []MonitorData, windows []MaintenanceWindow, now time.Time) []MonitorData {
	out := make([]MonitorData, 0, len(monitors))
	for _, m := range monitors {
		c := m.Clone()
		if !c.Status.IsDown() {
			if _, ok := ActiveFor(windows, c.ID, now); ok {
				c.Status = StatusMaintenance
			}
		}
		out = append(out, c)
	}
	return out
}
