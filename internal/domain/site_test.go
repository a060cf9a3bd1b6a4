package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPatchApplyFieldLevel(t *testing.T) {
	cfg := DefaultSiteConfig("owner")

	Patch{BrandName: Ptr("Acme")}.Apply(&cfg)
	Patch{Theme: Ptr("dark")}.Apply(&cfg)
	Patch{Monitors: &[]MonitorRef{RealRef(1), RealRef(1), SyntheticRef(1)}}.Apply(&cfg)

	if cfg.BrandName != "Acme" || cfg.Theme != "dark" {
		t.Errorf("brand/theme = %q/%q, want Acme/dark", cfg.BrandName, cfg.Theme)
	}
	if !EqualRefs(cfg.Monitors, []MonitorRef{RealRef(1), SyntheticRef(1)}) {
		t.Errorf("monitors = %v, want deduplicated selection", cfg.Monitors)
	}
}

func TestPatchUnmarshalDataSource(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantNil  bool
		expected DataSource
	}{
		{name: "absent", body: `{"brandName":"x"}`, wantNil: true},
		{name: "explicit null", body: `{"previewScenario":null}`, expected: Live()},
		{name: "scenario", body: `{"previewScenario":"major_outage"}`, expected: Preview("major_outage")},
		{name: "none", body: `{"previewScenario":"none"}`, expected: Live()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Patch
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if tt.wantNil {
				if p.DataSource != nil {
					t.Errorf("DataSource = %v, want nil", *p.DataSource)
				}
				return
			}
			if p.DataSource == nil || *p.DataSource != tt.expected {
				t.Errorf("DataSource = %v, want %v", p.DataSource, tt.expected)
			}
		})
	}
}

func TestSiteConfigJSON(t *testing.T) {
	cfg := DefaultSiteConfig("owner")
	cfg.Monitors = []MonitorRef{RealRef(3), SyntheticRef(1)}
	cfg.DataSource = Preview("incident_history")
	cfg.AddAnnotation(RealRef(3), IncidentUpdate{ID: "a", Variant: VariantInfo})

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out SiteConfig
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !EqualRefs(out.Monitors, cfg.Monitors) {
		t.Errorf("monitors = %v, want %v", out.Monitors, cfg.Monitors)
	}
	if out.DataSource != cfg.DataSource {
		t.Errorf("data source = %v, want %v", out.DataSource, cfg.DataSource)
	}
	if len(out.Annotations[RealRef(3)]) != 1 {
		t.Errorf("annotations = %+v", out.Annotations)
	}
}

func TestSnapshotDropsDemoMonitors(t *testing.T) {
	cfg := DefaultSiteConfig("owner")
	cfg.ID = "site-1"
	cfg.Monitors = []MonitorRef{SyntheticRef(1), RealRef(7)}
	now := time.Now()

	snap := cfg.Snapshot(now)
	if !EqualRefs(snap.Monitors, []MonitorRef{RealRef(7)}) {
		t.Errorf("snapshot monitors = %v, want [7]", snap.Monitors)
	}
	if snap.SiteID != "site-1" || !snap.PublishedAt.Equal(now) {
		t.Errorf("snapshot = %+v", snap)
	}

	snap.Monitors[0] = RealRef(8)
	if cfg.Monitors[1] != RealRef(7) {
		t.Error("snapshot shares memory with the draft")
	}
}

func TestMaintenanceCRUD(t *testing.T) {
	cfg := DefaultSiteConfig("owner")
	w := cfg.AddMaintenance(MaintenanceWindow{MonitorID: AllMonitors, Title: "db upgrade", DurationMinutes: 30})
	if w.ID == "" {
		t.Fatal("AddMaintenance() assigned no id")
	}

	w.Title = "db upgrade v2"
	if err := cfg.UpdateMaintenance(w); err != nil {
		t.Fatalf("UpdateMaintenance() error = %v", err)
	}
	if cfg.Maintenance[0].Title != "db upgrade v2" {
		t.Errorf("title = %q", cfg.Maintenance[0].Title)
	}

	if err := cfg.DeleteMaintenance(w.ID); err != nil {
		t.Fatalf("DeleteMaintenance() error = %v", err)
	}
	if len(cfg.Maintenance) != 0 {
		t.Errorf("maintenance = %+v, want empty", cfg.Maintenance)
	}
	if err := cfg.DeleteMaintenance(w.ID); err == nil {
		t.Error("DeleteMaintenance() on a missing id returned nil")
	}
}
