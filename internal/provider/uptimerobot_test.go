package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
)

const okBody = `{
  "stat": "ok",
  "monitors": [
    {
      "id": 777,
      "friendly_name": "API",
      "url": "https://api.example.com",
      "status": 9,
      "interval": 300,
      "create_datetime": 1700000000,
      "custom_uptime_ratio": "99.500-99.800-100.000",
      "response_times": [{"datetime": 1700000300, "value": 210}],
      "logs": [
        {"type": 2, "datetime": 1700000100, "duration": 0, "reason": {"code": 200, "detail": "OK"}},
        {"type": 1, "datetime": 1700000200, "duration": 100, "reason": {"code": "333333", "detail": "Connection Timeout"}}
      ]
    }
  ]
}`

func TestUptimeRobotGetMonitors(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getMonitors" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
			return
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := NewUptimeRobot(UptimeRobotOptions{BaseURL: srv.URL, Timeout: time.Second, ResponseTimesLimit: 12, LogsLimit: 5})
	monitors, err := c.GetMonitors(context.Background(), Query{
		APIKey:     "u123-abc",
		MonitorIDs: []domain.MonitorRef{domain.RealRef(777), domain.SyntheticRef(1), domain.RealRef(778)},
	})
	if err != nil {
		t.Fatalf("GetMonitors() error = %v", err)
	}

	wantForm := map[string]string{
		"api_key":              "u123-abc",
		"format":               "json",
		"monitors":             "777-778",
		"custom_uptime_ratios": "1-7-30",
		"response_times":       "1",
		"response_times_limit": "12",
		"logs":                 "1",
		"logs_limit":           "5",
	}
	for k, want := range wantForm {
		if form[k] != want {
			t.Errorf("form[%q] = %q, want %q", k, form[k], want)
		}
	}

	if len(monitors) != 1 {
		t.Fatalf("len(monitors) = %d, want 1", len(monitors))
	}
	m := monitors[0]
	if m.ID != domain.RealRef(777) || m.Status != domain.StatusDown || m.FriendlyName != "API" {
		t.Errorf("monitor = %+v", m)
	}
	if len(m.UptimeRatios) != 3 || m.UptimeRatios[2] != 100 {
		t.Errorf("UptimeRatios = %v, want [99.5 99.8 100]", m.UptimeRatios)
	}
	if len(m.Logs) != 2 || m.Logs[0].Datetime != 1700000200 {
		t.Errorf("logs = %+v, want newest first", m.Logs)
	}
	if m.Logs[1].Reason.Code != "200" {
		t.Errorf("numeric reason code = %q, want %q", m.Logs[1].Reason.Code, "200")
	}
}

func TestUptimeRobotFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "stat fail with error object", status: 200, body: `{"stat":"fail","error":{"type":"invalid_parameter","message":"api_key is invalid."}}`, wantMsg: "api_key is invalid."},
		{name: "stat fail with message", status: 200, body: `{"stat":"fail","message":"rate limited"}`, wantMsg: "rate limited"},
		{name: "non 2xx", status: 502, body: `bad gateway`},
		{name: "malformed body", status: 200, body: `{"stat":"ok","monitors":{}}`},
		{name: "not json", status: 200, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewUptimeRobot(UptimeRobotOptions{BaseURL: srv.URL})
			_, err := c.GetMonitors(context.Background(), Query{APIKey: "k"})
			if !errors.Is(err, ErrProviderFailed) {
				t.Fatalf("GetMonitors() error = %v, want ErrProviderFailed", err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestUptimeRobotUnscopedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if _, ok := r.PostForm["monitors"]; ok {
			t.Error("monitors field sent for an unscoped query")
		}
		_, _ = w.Write([]byte(`{"stat":"ok","monitors":[]}`))
	}))
	defer srv.Close()

	monitors, err := NewUptimeRobot(UptimeRobotOptions{BaseURL: srv.URL}).GetMonitors(context.Background(), Query{APIKey: "k"})
	if err != nil {
		t.Fatalf("GetMonitors() error = %v", err)
	}
	if len(monitors) != 0 {
		t.Errorf("len(monitors) = %d, want 0", len(monitors))
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry()
	r.Register(UptimeRobotName, NewUptimeRobot(UptimeRobotOptions{}))

	if _, err := r.Fetch(context.Background(), "pingdom", Query{}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Fetch() error = %v, want ErrUnknownProvider", err)
	}
	if names := r.Names(); len(names) != 1 || names[0] != UptimeRobotName {
		t.Errorf("Names() = %v", names)
	}
}
