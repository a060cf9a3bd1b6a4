package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
	"github.com/MrSnakeDoc/pulsepage/internal/utils"
)

const (
	UptimeRobotName    = "uptimerobot"
	DefaultUptimeRobot = "https://api.uptimerobot.com/v2"

	// uptimeRatios asks for the 1, 7 and 30 day ratios.
	uptimeRatios = "1-7-30"

	maxBodySize = 8 << 20
)

// UptimeRobotOptions configures an UptimeRobot client.
type UptimeRobotOptions struct {
	BaseURL            string
	Timeout            time.Duration
	ResponseTimesLimit int
	LogsLimit          int
}

// UptimeRobot talks to the UptimeRobot v2 getMonitors endpoint.
type UptimeRobot struct {
	baseURL            string
	client             *http.Client
	responseTimesLimit int
	logsLimit          int
}

func NewUptimeRobot(opts UptimeRobotOptions) *UptimeRobot {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultUptimeRobot
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ResponseTimesLimit <= 0 {
		opts.ResponseTimesLimit = 24
	}
	if opts.LogsLimit <= 0 {
		opts.LogsLimit = 50
	}
	return &UptimeRobot{
		baseURL:            strings.TrimRight(opts.BaseURL, "/"),
		client:             &http.Client{Timeout: opts.Timeout},
		responseTimesLimit: opts.ResponseTimesLimit,
		logsLimit:          opts.LogsLimit,
	}
}

type urResponse struct {
	Stat     string      `json:"stat"`
	Message  string      `json:"message"`
	Error    *urError    `json:"error"`
	Monitors []urMonitor `json:"monitors"`
}

type urError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type urMonitor struct {
	ID                int64                 `json:"id"`
	FriendlyName      string                `json:"friendly_name"`
	URL               string                `json:"url"`
	Status            int                   `json:"status"`
	Interval          int                   `json:"interval"`
	CreateDatetime    int64                 `json:"create_datetime"`
	CustomUptimeRatio string                `json:"custom_uptime_ratio"`
	ResponseTimes     []domain.ResponseTime `json:"response_times"`
	Logs              []urLog               `json:"logs"`
}

type urLog struct {
	Type     int      `json:"type"`
	Datetime int64    `json:"datetime"`
	Duration int64    `json:"duration"`
	Reason   urReason `json:"reason"`
}

type urReason struct {
	Code   looseString `json:"code"`
	Detail looseString `json:"detail"`
}

// looseString accepts both JSON strings and numbers.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}
	*s = looseString(data)
	return nil
}

// GetMonitors fetches monitors with uptime ratios, response times and logs.
func (c *UptimeRobot) GetMonitors(ctx context.Context, q Query) ([]domain.MonitorData, error) {
	form := url.Values{}
	form.Set("api_key", q.APIKey)
	form.Set("format", "json")
	form.Set("custom_uptime_ratios", uptimeRatios)
	form.Set("response_times", "1")
	form.Set("response_times_limit", strconv.Itoa(c.responseTimesLimit))
	form.Set("logs", "1")
	form.Set("logs_limit", strconv.Itoa(c.logsLimit))
	if ids := joinIDs(q.MonitorIDs); ids != "" {
		form.Set("monitors", ids)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/getMonitors", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: provider returned %s", ErrProviderFailed, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrProviderFailed, err)
	}

	var payload urResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrProviderFailed, err)
	}
	if payload.Stat != "ok" {
		return nil, fmt.Errorf("%w: %s", ErrProviderFailed, payload.failMessage())
	}

	out := make([]domain.MonitorData, 0, len(payload.Monitors))
	for _, m := range payload.Monitors {
		if m.ID <= 0 {
			return nil, fmt.Errorf("%w: malformed response: monitor id %d", ErrProviderFailed, m.ID)
		}
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r urResponse) failMessage() string {
	switch {
	case r.Error != nil && r.Error.Message != "":
		return r.Error.Message
	case r.Message != "":
		return r.Message
	case r.Stat == "":
		return "missing stat"
	default:
		return "stat " + r.Stat
	}
}

func (m urMonitor) toDomain() domain.MonitorData {
	logs := make([]domain.Log, 0, len(m.Logs))
	for _, l := range m.Logs {
		logs = append(logs, domain.Log{
			Type:     domain.LogType(l.Type),
			Datetime: l.Datetime,
			Duration: l.Duration,
			Reason:   domain.LogReason{Code: string(l.Reason.Code), Detail: string(l.Reason.Detail)},
		})
	}

	times := m.ResponseTimes
	if times == nil {
		times = []domain.ResponseTime{}
	}

	return domain.MonitorData{
		ID:                domain.RealRef(m.ID),
		FriendlyName:      m.FriendlyName,
		URL:               m.URL,
		Status:            domain.MonitorStatus(m.Status),
		CustomUptimeRatio: m.CustomUptimeRatio,
		UptimeRatios:      parseRatios(m.CustomUptimeRatio),
		ResponseTimes:     times,
		Logs:              domain.MergeLogs(logs, nil),
		Interval:          m.Interval,
		CreateDatetime:    m.CreateDatetime,
	}
}

// parseRatios reads "99.9-100-98.5" into floats. Unparsable parts are dropped.
func parseRatios(s string) []float64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "-")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func joinIDs(refs []domain.MonitorRef) string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.IsReal() {
			ids = append(ids, r.String())
		}
	}
	return strings.Join(ids, "-")
}
