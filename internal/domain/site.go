package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultProvider is the monitor provider used when none is configured.
const DefaultProvider = "uptimerobot"

// Visibility toggles optional sections of a status page.
type Visibility struct {
	ShowSparklines         bool `json:"showSparklines"`
	ShowUptimeBars         bool `json:"showUptimeBars"`
	ShowIncidentHistory    bool `json:"showIncidentHistory"`
	ShowPerformanceMetrics bool `json:"showPerformanceMetrics"`
	UptimeDecimals         int  `json:"uptimeDecimals"`
}

func DefaultVisibility() Visibility {
	return Visibility{
		ShowSparklines:         true,
		ShowUptimeBars:         true,
		ShowIncidentHistory:    true,
		ShowPerformanceMetrics: true,
		UptimeDecimals:         2,
	}
}

// AllOn returns v with every section enabled.
func (v Visibility) AllOn() Visibility {
	v.ShowSparklines = true
	v.ShowUptimeBars = true
	v.ShowIncidentHistory = true
	v.ShowPerformanceMetrics = true
	return v
}

// SiteConfig is the editor's draft of a status page.
//
// ID stays empty until the first persistence creates the row.
type SiteConfig struct {
	ID      string `json:"id,omitempty"`
	OwnerID string `json:"ownerId"`

	// Branding
	BrandName string `json:"brandName"`
	LogoURL   string `json:"logoUrl"`
	Theme     string `json:"theme"`
	Subdomain string `json:"subdomain"`

	// Provider credentials
	APIKey          string `json:"apiKey"`
	MonitorProvider string `json:"monitorProvider"`

	// Monitors is an ordered set of selected monitors.
	Monitors   []MonitorRef `json:"monitors"`
	Visibility Visibility   `json:"visibility"`

	Annotations map[MonitorRef][]IncidentUpdate `json:"annotations"`
	CustomLogs  map[MonitorRef][]Log            `json:"customLogs"`
	Maintenance []MaintenanceWindow             `json:"maintenance"`

	DataSource DataSource `json:"previewScenario"`
}

// DefaultSiteConfig returns the draft used when an owner has no site yet.
func DefaultSiteConfig(ownerID string) SiteConfig {
	return SiteConfig{
		OwnerID:         ownerID,
		BrandName:       "My Status Page",
		Theme:           "light",
		MonitorProvider: DefaultProvider,
		Monitors:        []MonitorRef{},
		Visibility:      DefaultVisibility(),
		Annotations:     map[MonitorRef][]IncidentUpdate{},
		CustomLogs:      map[MonitorRef][]Log{},
		Maintenance:     []MaintenanceWindow{},
	}
}

// Clone returns a deep copy of c.
func (c SiteConfig) Clone() SiteConfig {
	out := c
	out.Monitors = append([]MonitorRef{}, c.Monitors...)
	out.Annotations = cloneAnnotations(c.Annotations)
	out.CustomLogs = cloneCustomLogs(c.CustomLogs)
	out.Maintenance = append([]MaintenanceWindow{}, c.Maintenance...)
	return out
}

func cloneAnnotations(in map[MonitorRef][]IncidentUpdate) map[MonitorRef][]IncidentUpdate {
	out := make(map[MonitorRef][]IncidentUpdate, len(in))
	for k, v := range in {
		out[k] = append([]IncidentUpdate(nil), v...)
	}
	return out
}

func cloneCustomLogs(in map[MonitorRef][]Log) map[MonitorRef][]Log {
	out := make(map[MonitorRef][]Log, len(in))
	for k, v := range in {
		out[k] = append([]Log(nil), v...)
	}
	return out
}

// Provider returns the configured provider name, defaulting to DefaultProvider.
func (c SiteConfig) Provider() string {
	if c.MonitorProvider == "" {
		return DefaultProvider
	}
	return c.MonitorProvider
}

// AddMaintenance appends w with a fresh id and returns it.
func (c *SiteConfig) AddMaintenance(w MaintenanceWindow) MaintenanceWindow {
	w = NewMaintenanceWindow(w)
	c.Maintenance = append(append([]MaintenanceWindow{}, c.Maintenance...), w)
	return w
}

// UpdateMaintenance replaces the window with the same id.
func (c *SiteConfig) UpdateMaintenance(w MaintenanceWindow) error {
	for i, existing := range c.Maintenance {
		if existing.ID == w.ID {
			list := append([]MaintenanceWindow{}, c.Maintenance...)
			list[i] = w
			c.Maintenance = list
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMaintenanceNotFound, w.ID)
}

// DeleteMaintenance removes the window with id.
func (c *SiteConfig) DeleteMaintenance(id string) error {
	for i, existing := range c.Maintenance {
		if existing.ID == id {
			list := make([]MaintenanceWindow, 0, len(c.Maintenance)-1)
			list = append(list, c.Maintenance[:i]...)
			c.Maintenance = append(list, c.Maintenance[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMaintenanceNotFound, id)
}

// AddDemoMonitor selects a new synthetic monitor and returns its reference.
func (c *SiteConfig) AddDemoMonitor() MonitorRef {
	ref := NextSyntheticRef(c.Monitors)
	c.Monitors = append(append([]MonitorRef{}, c.Monitors...), ref)
	return ref
}

// Patch is a partial update of a SiteConfig. Nil fields are left untouched,
// so concurrent patches on different fields never overwrite each other.
type Patch struct {
	BrandName       *string                          `json:"brandName,omitempty"`
	LogoURL         *string                          `json:"logoUrl,omitempty"`
	Theme           *string                          `json:"theme,omitempty"`
	Subdomain       *string                          `json:"subdomain,omitempty"`
	APIKey          *string                          `json:"apiKey,omitempty"`
	MonitorProvider *string                          `json:"monitorProvider,omitempty"`
	Monitors        *[]MonitorRef                    `json:"monitors,omitempty"`
	Visibility      *Visibility                      `json:"visibility,omitempty"`
	Annotations     *map[MonitorRef][]IncidentUpdate `json:"annotations,omitempty"`
	CustomLogs      *map[MonitorRef][]Log            `json:"customLogs,omitempty"`
	Maintenance     *[]MaintenanceWindow             `json:"maintenance,omitempty"`
	DataSource      *DataSource                      `json:"previewScenario,omitempty"`
}

// UnmarshalJSON treats an explicit "previewScenario": null as a switch back to Live.
func (p *Patch) UnmarshalJSON(data []byte) error {
	type alias Patch
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Patch(a)

	if p.DataSource == nil {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(data, &keys); err != nil {
			return err
		}
		if _, ok := keys["previewScenario"]; ok {
			live := Live()
			p.DataSource = &live
		}
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Apply shallow-merges the patch into c.
func (p Patch) Apply(c *SiteConfig) {
	if p.BrandName != nil {
		c.BrandName = *p.BrandName
	}
	if p.LogoURL != nil {
		c.LogoURL = *p.LogoURL
	}
	if p.Theme != nil {
		c.Theme = *p.Theme
	}
	if p.Subdomain != nil {
		c.Subdomain = *p.Subdomain
	}
	if p.APIKey != nil {
		c.APIKey = *p.APIKey
	}
	if p.MonitorProvider != nil {
		c.MonitorProvider = *p.MonitorProvider
	}
	if p.Monitors != nil {
		c.Monitors = UniqueRefs(*p.Monitors)
	}
	if p.Visibility != nil {
		c.Visibility = *p.Visibility
	}
	if p.Annotations != nil {
		c.Annotations = cloneAnnotations(*p.Annotations)
	}
	if p.CustomLogs != nil {
		c.CustomLogs = cloneCustomLogs(*p.CustomLogs)
	}
	if p.Maintenance != nil {
		c.Maintenance = append([]MaintenanceWindow{}, (*p.Maintenance)...)
	}
	if p.DataSource != nil {
		c.DataSource = *p.DataSource
	}
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T { return &v }

// PublishedConfig is the snapshot of a draft served publicly.
// It is only ever replaced as a whole.
type PublishedConfig struct {
	SiteID          string                          `json:"siteId"`
	Subdomain       string                          `json:"subdomain"`
	BrandName       string                          `json:"brandName"`
	LogoURL         string                          `json:"logoUrl"`
	Theme           string                          `json:"theme"`
	APIKey          string                          `json:"apiKey"`
	MonitorProvider string                          `json:"monitorProvider"`
	Monitors        []MonitorRef                    `json:"monitors"`
	Visibility      Visibility                      `json:"visibility"`
	Annotations     map[MonitorRef][]IncidentUpdate `json:"annotations"`
	CustomLogs      map[MonitorRef][]Log            `json:"customLogs"`
	Maintenance     []MaintenanceWindow             `json:"maintenance"`
	PublishedAt     time.Time                       `json:"publishedAt"`
}

// Snapshot copies the publishable part of the draft. Demo monitors are left out.
func (c SiteConfig) Snapshot(now time.Time) PublishedConfig {
	clone := c.Clone()
	return PublishedConfig{
		SiteID:          clone.ID,
		Subdomain:       clone.Subdomain,
		BrandName:       clone.BrandName,
		LogoURL:         clone.LogoURL,
		Theme:           clone.Theme,
		APIKey:          clone.APIKey,
		MonitorProvider: clone.Provider(),
		Monitors:        RealRefs(clone.Monitors),
		Visibility:      clone.Visibility,
		Annotations:     clone.Annotations,
		CustomLogs:      clone.CustomLogs,
		Maintenance:     clone.Maintenance,
		PublishedAt:     now,
	}
}
