package domain

// MonitorStatus is the provider status code of a monitor.
type MonitorStatus int

const (
	StatusMaintenance MonitorStatus = 0
	StatusUp          MonitorStatus = 2
	StatusSeemsDown   MonitorStatus = 8
	StatusDown        MonitorStatus = 9
)

// IsDown reports whether the status counts as an outage.
func (s MonitorStatus) IsDown() bool {
	return s == StatusSeemsDown || s == StatusDown
}

// Label is the display state of a single monitor.
func (s MonitorStatus) Label() string {
	switch s {
	case StatusMaintenance:
		return "maintenance"
	case StatusUp:
		return "up"
	case StatusSeemsDown:
		return "degraded"
	case StatusDown:
		return "down"
	default:
		return "unknown"
	}
}

// ResponseTime is one response-time sample.
type ResponseTime struct {
	Datetime int64 `json:"datetime"`
	Value    int   `json:"value"`
}

// MonitorData is the reconciled state of one monitor.
//
// Logs holds provider logs merged with operator-authored logs, newest first.
type MonitorData struct {
	ID                MonitorRef     `json:"id"`
	FriendlyName      string         `json:"friendly_name"`
	URL               string         `json:"url"`
	Status            MonitorStatus  `json:"status"`
	CustomUptimeRatio string         `json:"custom_uptime_ratio"`
	UptimeRatios      []float64      `json:"uptime_ratios,omitempty"`
	ResponseTimes     []ResponseTime `json:"response_times"`
	Logs              []Log          `json:"logs"`
	Interval          int            `json:"interval"`
	CreateDatetime    int64          `json:"create_datetime"`
}

// Clone returns a deep copy of m.
func (m MonitorData) Clone() MonitorData {
	out := m
	if m.UptimeRatios != nil {
		out.UptimeRatios = append([]float64(nil), m.UptimeRatios...)
	}
	if m.ResponseTimes != nil {
		out.ResponseTimes = append([]ResponseTime(nil), m.ResponseTimes...)
	}
	if m.Logs != nil {
		out.Logs = append([]Log(nil), m.Logs...)
	}
	return out
}

// CloneMonitors deep-copies a monitor list.
func CloneMonitors(monitors []MonitorData) []MonitorData {
	if monitors == nil {
		return nil
	}
	out := make([]MonitorData, len(monitors))
	for i, m := range monitors {
		out[i] = m.Clone()
	}
	return out
}

// Refs returns the references of monitors, in order.
func Refs(monitors []MonitorData) []MonitorRef {
	out := make([]MonitorRef, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, m.ID)
	}
	return out
}
