package domain

// Severity is the aggregate, system-wide status of a page.
type Severity string

const (
	SeverityOperational        Severity = "operational"
	SeverityPartial            Severity = "partial"
	SeverityMajor              Severity = "major"
	SeverityMaintenance        Severity = "maintenance"
	SeverityMaintenancePartial Severity = "maintenance_partial"
)

// IsValid checks if the severity is one of the known values.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityOperational, SeverityPartial, SeverityMajor,
		SeverityMaintenance, SeverityMaintenancePartial:
		return true
	}
	return false
}

// ComputeSeverity derives the aggregate status from a reconciled monitor set.
// Outages take precedence over maintenance.
func ComputeSeverity(monitors []MonitorData) Severity {
	down, inMaintenance := 0, 0
	for _, m := range monitors {
		switch {
		case m.Status.IsDown():
			down++
		case m.Status == StatusMaintenance:
			inMaintenance++
		}
	}

	total := len(monitors)
	switch {
	case down > 0 && down == total:
		return SeverityMajor
	case down > 0:
		return SeverityPartial
	case inMaintenance > 0 && inMaintenance == total:
		return SeverityMaintenance
	case inMaintenance > 0:
		return SeverityMaintenancePartial
	default:
		return SeverityOperational
	}
}

// PageState is what a page claims overall. It is a Severity unless the
// system has no data to back a claim.
type PageState string

const (
	PageFetchFailed PageState = "fetch_failed"
	PageNoData      PageState = "no_data"
)

// EvaluatePage returns the page state for monitors. A failed fetch or an
// empty monitor set never yields a severity.
func EvaluatePage(monitors []MonitorData, fetchErr string) PageState {
	if fetchErr != "" {
		return PageFetchFailed
	}
	if len(monitors) == 0 {
		return PageNoData
	}
	return PageState(ComputeSeverity(monitors))
}

// Severity returns the severity held by the state, if any.
func (p PageState) Severity() (Severity, bool) {
	s := Severity(p)
	return s, s.IsValid()
}
