package domain

import (
	"fmt"
	"time"
)

var demoNames = []string{
	"Website",
	"API",
	"Dashboard",
	"Checkout",
	"Auth Service",
	"CDN",
	"Database",
	"Mail Relay",
}

// NextSyntheticRef returns the synthetic reference following the highest one in refs.
func NextSyntheticRef(refs []MonitorRef) MonitorRef {
	var max int64
	for _, r := range refs {
		if r.IsSynthetic() && r.ID() > max {
			max = r.ID()
		}
	}
	return SyntheticRef(max + 1)
}

// DemoMonitor fabricates a healthy monitor for ref. The result only depends on
// ref and the hour of now, so repeated polls render the same data.
func DemoMonitor(ref MonitorRef, now time.Time) MonitorData {
	n := ref.ID()
	name := demoNames[int((n-1)%int64(len(demoNames)))]
	if n > int64(len(demoNames)) {
		name = fmt.Sprintf("%s %d", name, (n-1)/int64(len(demoNames))+1)
	}

	base := now.Truncate(time.Hour)
	times := make([]ResponseTime, 0, 24)
	for i := 0; i < 24; i++ {
		times = append(times, ResponseTime{
			Datetime: base.Add(-time.Duration(i) * time.Hour).Unix(),
			Value:    120 + int((n*37+int64(i)*13)%90),
		})
	}

	ratio := fmt.Sprintf("%.3f", 99.9+float64(n%10)/100)
	return MonitorData{
		ID:                ref,
		FriendlyName:      name,
		URL:               fmt.Sprintf("https://demo-%d.example.com", n),
		Status:            StatusUp,
		CustomUptimeRatio: ratio + "-" + ratio + "-" + ratio,
		UptimeRatios:      []float64{99.9 + float64(n%10)/100, 99.9 + float64(n%10)/100, 99.9 + float64(n%10)/100},
		ResponseTimes:     times,
		Logs:              []Log{},
		Interval:          300,
		CreateDatetime:    base.Add(-30 * 24 * time.Hour).Unix(),
	}
}

// DemoMonitors returns demo data for every synthetic reference of refs, in order.
func DemoMonitors(refs []MonitorRef, now time.Time) []MonitorData {
	out := make([]MonitorData, 0, len(refs))
	for _, r := range refs {
		if r.IsSynthetic() {
			out = append(out, DemoMonitor(r, now))
		}
	}
	return out
}
