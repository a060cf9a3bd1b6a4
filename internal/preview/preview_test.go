package preview

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/view"
)

func TestDefaultCatalogue(t *testing.T) {
	c, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		scenario domain.Scenario
		expected domain.PageState
	}{
		{"all_operational", domain.PageState(domain.SeverityOperational)},
		{"partial_outage", domain.PageState(domain.SeverityPartial)},
		{"major_outage", domain.PageState(domain.SeverityMajor)},
		{"full_maintenance", domain.PageState(domain.SeverityMaintenance)},
		{"partial_maintenance", domain.PageState(domain.SeverityMaintenancePartial)},
		{"incident_history", domain.PageState(domain.SeverityOperational)},
		{"upcoming_maintenance", domain.PageState(domain.SeverityOperational)},
	}

	for _, tt := range tests {
		t.Run(string(tt.scenario), func(t *testing.T) {
			ds, err := c.Dataset(tt.scenario, now)
			if err != nil {
				t.Fatalf("Dataset() error = %v", err)
			}
			page := view.Build(view.Input{Monitors: ds.Monitors, Maintenance: ds.Maintenance}, now, domain.DefaultUpcomingHorizon)
			if page.State != tt.expected {
				t.Errorf("State = %q, want %q", page.State, tt.expected)
			}
		})
	}

	if got := len(c.List()); got != len(tests) {
		t.Errorf("List() returned %d scenarios, want %d", got, len(tests))
	}
}

func TestPartialOutageIsOverHalfDown(t *testing.T) {
	ds, err := MustLoadDefault().Dataset("partial_outage", time.Now())
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	down := 0
	for _, m := range ds.Monitors {
		if m.Status.IsDown() {
			down++
		}
	}
	if down*2 <= len(ds.Monitors) {
		t.Errorf("%d of %d monitors down, want over half", down, len(ds.Monitors))
	}
}

func TestDatasetIsDeterministic(t *testing.T) {
	c := MustLoadDefault()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	a, _ := c.Dataset("incident_history", now)
	b, _ := c.Dataset("incident_history", now)
	if !reflect.DeepEqual(a, b) {
		t.Error("Dataset() is not deterministic")
	}

	for _, m := range a.Monitors {
		if !m.ID.IsSynthetic() {
			t.Errorf("scenario monitor %v is not synthetic", m.ID)
		}
	}
}

func TestOverlay(t *testing.T) {
	c := MustLoadDefault()
	now := time.Now()

	cfg := domain.DefaultSiteConfig("owner")
	cfg.Visibility = domain.Visibility{UptimeDecimals: 3}
	live := view.DraftInput(cfg, []domain.MonitorData{{ID: domain.RealRef(1)}}, "provider down")

	got, err := c.Overlay(cfg, live, now)
	if err != nil {
		t.Fatalf("Overlay(live) error = %v", err)
	}
	if !reflect.DeepEqual(got, live) {
		t.Error("Overlay() changed a live input")
	}

	cfg.DataSource = domain.Preview("full_maintenance")
	got, err = c.Overlay(cfg, live, now)
	if err != nil {
		t.Fatalf("Overlay(preview) error = %v", err)
	}
	vis := got.Visibility
	if !vis.ShowSparklines || !vis.ShowUptimeBars || !vis.ShowIncidentHistory || !vis.ShowPerformanceMetrics {
		t.Errorf("Visibility = %+v, want every section on", vis)
	}
	if vis.UptimeDecimals != 3 {
		t.Errorf("UptimeDecimals = %d, want 3", vis.UptimeDecimals)
	}
	if got.Error != "" {
		t.Errorf("Error = %q, want none in preview", got.Error)
	}
	if len(got.Maintenance) != 1 || got.Monitors[0].ID == domain.RealRef(1) {
		t.Errorf("preview did not replace live data: %+v", got)
	}

	cfg.DataSource = domain.Preview("nope")
	if _, err := c.Overlay(cfg, live, now); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("Overlay(unknown) error = %v, want ErrUnknownScenario", err)
	}
}

func TestLoaderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	content := `---
scenarios:
  - name: single_down
    title: One down
    monitors:
      - name: Only
        url: https://only.example.com
        status: 9
        uptime: [50]
        response_ms: 0
    maintenance:
      - monitor: "1"
        title: later
        start_in: 3h
        duration: 30m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	c, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	now := time.Now()
	ds, err := c.Dataset("single_down", now)
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if ds.Maintenance[0].MonitorID != domain.SyntheticRef(1).String() || ds.Maintenance[0].DurationMinutes != 30 {
		t.Errorf("maintenance = %+v", ds.Maintenance[0])
	}
}

func TestParseRejectsInvalidCatalogues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: "scenarios: []"},
		{name: "no monitors", yaml: "scenarios:\n  - name: a\n"},
		{name: "bad annotation target", yaml: "scenarios:\n  - name: a\n    monitors: [{name: x, status: 2}]\n    annotations: [{monitor: 2, variant: info, content: hi}]\n"},
		{name: "bad variant", yaml: "scenarios:\n  - name: a\n    monitors: [{name: x, status: 2}]\n    annotations: [{monitor: 1, variant: loud, content: hi}]\n"},
		{name: "bad maintenance target", yaml: "scenarios:\n  - name: a\n    monitors: [{name: x, status: 2}]\n    maintenance: [{monitor: \"7\", title: t}]\n"},
		{name: "duplicate", yaml: "scenarios:\n  - name: a\n    monitors: [{name: x}]\n  - name: a\n    monitors: [{name: y}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse() error = nil, want an error")
			}
		})
	}
}
