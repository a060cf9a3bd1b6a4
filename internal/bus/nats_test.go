package bus

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
)

func TestEventOmitsCredentials(t *testing.T) {
	cfg := domain.DefaultSiteConfig("owner")
	cfg.ID = "site-1"
	cfg.Subdomain = "acme"
	cfg.APIKey = "secret-key"
	cfg.Monitors = []domain.MonitorRef{domain.RealRef(1), domain.RealRef(2), domain.SyntheticRef(1)}
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	evt := NewEvent(cfg.Snapshot(at))
	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "secret-key") {
		t.Errorf("event leaks the api key: %s", data)
	}

	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if got.SiteID != "site-1" || got.Subdomain != "acme" || got.MonitorCount != 2 || !got.PublishedAt.Equal(at) {
		t.Errorf("DecodeEvent() = %+v", got)
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte("not json")); err == nil {
		t.Error("DecodeEvent() error = nil")
	}
}
