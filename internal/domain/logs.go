package domain

import "sort"

// LogType is the kind of a history entry. Provider types are 1 and 2;
// operator-authored entries use the 9x range.
type LogType int

const (
	LogOutage   LogType = 1
	LogRecovery LogType = 2
	LogInfo     LogType = 98
	LogWarning  LogType = 99
)

type LogReason struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Log is one history entry of a monitor. Datetime and Duration are in seconds.
type Log struct {
	Type     LogType   `json:"type"`
	Datetime int64     `json:"datetime"`
	Duration int64     `json:"duration"`
	Reason   LogReason `json:"reason"`
	IsManual bool      `json:"isManual,omitempty"`
}

// MergeLogs returns base and custom merged into a new list sorted by datetime, newest first.
//
// Identical entries collapse to one, so merging custom into an already merged list
// yields the same list. Inputs are never modified.
func MergeLogs(base, custom []Log) []Log {
	out := make([]Log, 0, len(base)+len(custom))
	seen := make(map[Log]struct{}, len(base)+len(custom))
	for _, list := range [][]Log{base, custom} {
		for _, l := range list {
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Datetime > out[j].Datetime
	})
	return out
}

// WithCustomLogs returns copies of monitors whose logs include customLogs[id].
// The provider logs held by monitors must be the unmerged ones.
func WithCustomLogs(monitors []MonitorData, customLogs map[MonitorRef][]Log) []MonitorData {
	out := make([]MonitorData, 0, len(monitors))
	for _, m := range monitors {
		c := m.Clone()
		c.Logs = MergeLogs(m.Logs, customLogs[m.ID])
		out = append(out, c)
	}
	return out
}
