package preview

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
)

// Catalogue holds the scenarios by name.
type Catalogue struct {
	byName map[domain.Scenario]ScenarioSpec
	order  []domain.Scenario
}

// Info is the public description of a scenario.
type Info struct {
	Name  domain.Scenario `json:"name"`
	Title string          `json:"title"`
}

// List returns the scenarios in catalogue order.
func (c *Catalogue) List() []Info {
	out := make([]Info, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, Info{Name: name, Title: c.byName[name].Title})
	}
	return out
}

func (c *Catalogue) Has(name domain.Scenario) bool {
	_, ok := c.byName[name]
	return ok
}

// Dataset is the synthetic data of a scenario rendered at a given time.
type Dataset struct {
	Monitors    []domain.MonitorData
	Maintenance []domain.MaintenanceWindow
	Annotations map[domain.MonitorRef][]domain.IncidentUpdate
}

// Dataset renders scenario name relative to now. The same inputs always give the same output.
func (c *Catalogue) Dataset(name domain.Scenario, now time.Time) (Dataset, error) {
	sc, ok := c.byName[name]
	if !ok {
		return Dataset{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}

	now = now.Truncate(time.Second)
	ds := Dataset{
		Monitors:    make([]domain.MonitorData, 0, len(sc.Monitors)),
		Maintenance: make([]domain.MaintenanceWindow, 0, len(sc.Maintenance)),
		Annotations: make(map[domain.MonitorRef][]domain.IncidentUpdate),
	}

	for i, m := range sc.Monitors {
		ds.Monitors = append(ds.Monitors, mapMonitor(refAt(i+1), m, now))
	}

	for i, m := range sc.Maintenance {
		target, err := maintenanceTarget(m.Monitor, len(sc.Monitors))
		if err != nil {
			return Dataset{}, err
		}
		ds.Maintenance = append(ds.Maintenance, domain.MaintenanceWindow{
			ID:              fmt.Sprintf("%s-maintenance-%d", sc.Name, i+1),
			MonitorID:       target,
			Title:           m.Title,
			Description:     m.Description,
			StartTime:       now.Add(m.StartIn),
			DurationMinutes: int(m.Duration / time.Minute),
		})
	}

	for i, a := range sc.Annotations {
		ref := refAt(a.Monitor)
		ds.Annotations[ref] = append(ds.Annotations[ref], domain.IncidentUpdate{
			ID:        fmt.Sprintf("%s-update-%d", sc.Name, i+1),
			Content:   a.Content,
			Variant:   domain.Variant(a.Variant),
			CreatedAt: now.Add(-a.Ago),
		})
	}
	for ref, list := range ds.Annotations {
		sortUpdates(list)
		ds.Annotations[ref] = list
	}

	return ds, nil
}

// refAt returns the synthetic reference of the monitor at a 1-based position.
func refAt(pos int) domain.MonitorRef {
	return domain.SyntheticRef(int64(pos))
}

func maintenanceTarget(monitor string, count int) (string, error) {
	monitor = strings.TrimSpace(monitor)
	if monitor == domain.AllMonitors {
		return domain.AllMonitors, nil
	}
	pos, err := strconv.Atoi(monitor)
	if err != nil || pos < 1 || pos > count {
		return "", fmt.Errorf("maintenance targets unknown monitor %q", monitor)
	}
	return refAt(pos).String(), nil
}

func mapMonitor(ref domain.MonitorRef, m MonitorSpec, now time.Time) domain.MonitorData {
	base := now.Truncate(time.Hour)
	times := make([]domain.ResponseTime, 0, 24)
	for i := 0; i < 24; i++ {
		v := 0
		if m.ResponseMS > 0 {
			v = m.ResponseMS + (i*17+int(ref.ID())*11)%40 - 20
		}
		times = append(times, domain.ResponseTime{
			Datetime: base.Add(-time.Duration(i) * time.Hour).Unix(),
			Value:    v,
		})
	}

	logs := make([]domain.Log, 0, len(m.Logs))
	for _, l := range m.Logs {
		logs = append(logs, domain.Log{
			Type:     domain.LogType(l.Type),
			Datetime: now.Add(-l.Ago).Unix(),
			Duration: int64(l.Duration / time.Second),
			Reason:   domain.LogReason{Code: l.Code, Detail: l.Detail},
		})
	}

	ratios := make([]string, 0, len(m.Uptime))
	for _, u := range m.Uptime {
		ratios = append(ratios, strconv.FormatFloat(u, 'f', 3, 64))
	}

	return domain.MonitorData{
		ID:                ref,
		FriendlyName:      m.Name,
		URL:               m.URL,
		Status:            domain.MonitorStatus(m.Status),
		CustomUptimeRatio: strings.Join(ratios, "-"),
		UptimeRatios:      append([]float64(nil), m.Uptime...),
		ResponseTimes:     times,
		Logs:              domain.MergeLogs(logs, nil),
		Interval:          300,
		CreateDatetime:    base.Add(-90 * 24 * time.Hour).Unix(),
	}
}

// sortUpdates orders updates newest first.
func sortUpdates(list []domain.IncidentUpdate) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
