package preview

import "time"

// CatalogueFile is the top-level structure of a scenario catalogue.
type CatalogueFile struct {
	Scenarios []ScenarioSpec `yaml:"scenarios"`
}

// ScenarioSpec describes one synthetic situation. Times are relative to the
// moment the scenario is rendered.
type ScenarioSpec struct {
	Name        string            `yaml:"name"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description,omitempty"`
	Monitors    []MonitorSpec     `yaml:"monitors"`
	Maintenance []MaintenanceSpec `yaml:"maintenance,omitempty"`
	Annotations []AnnotationSpec  `yaml:"annotations,omitempty"`
}

type MonitorSpec struct {
	Name       string    `yaml:"name"`
	URL        string    `yaml:"url"`
	Status     int       `yaml:"status"`
	Uptime     []float64 `yaml:"uptime"`
	ResponseMS int       `yaml:"response_ms"`
	Logs       []LogSpec `yaml:"logs,omitempty"`
}

type LogSpec struct {
	Type     int           `yaml:"type"`
	Ago      time.Duration `yaml:"ago"`
	Duration time.Duration `yaml:"duration,omitempty"`
	Code     string        `yaml:"code,omitempty"`
	Detail   string        `yaml:"detail,omitempty"`
}

// MaintenanceSpec targets "all" or a 1-based monitor position.
type MaintenanceSpec struct {
	Monitor     string        `yaml:"monitor"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description,omitempty"`
	StartIn     time.Duration `yaml:"start_in"`
	Duration    time.Duration `yaml:"duration"`
}

// AnnotationSpec targets a 1-based monitor position.
type AnnotationSpec struct {
	Monitor int           `yaml:"monitor"`
	Variant string        `yaml:"variant"`
	Content string        `yaml:"content"`
	Ago     time.Duration `yaml:"ago"`
}
