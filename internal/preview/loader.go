// Package preview substitutes synthetic datasets for live monitor data.
package preview

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
)

//go:embed scenarios.yaml
var defaultCatalogue []byte

var ErrUnknownScenario = errors.New("unknown preview scenario")

// Loader reads a scenario catalogue. An empty path loads the built-in one.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and validates the catalogue.
func (l *Loader) Load() (*Catalogue, error) {
	data := defaultCatalogue
	if l.filePath != "" {
		b, err := os.ReadFile(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario file: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes a YAML catalogue.
func Parse(data []byte) (*Catalogue, error) {
	var file CatalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scenario yaml: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, errors.New("no scenarios found in catalogue")
	}

	c := &Catalogue{byName: make(map[domain.Scenario]ScenarioSpec, len(file.Scenarios))}
	for i, s := range file.Scenarios {
		if s.Name == "" {
			return nil, fmt.Errorf("scenario #%d has no name", i+1)
		}
		if _, dup := c.byName[domain.Scenario(s.Name)]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", s.Name)
		}
		if err := validate(s); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		c.byName[domain.Scenario(s.Name)] = s
		c.order = append(c.order, domain.Scenario(s.Name))
	}
	return c, nil
}

// MustLoadDefault parses the built-in catalogue.
func MustLoadDefault() *Catalogue {
	c, err := Parse(defaultCatalogue)
	if err != nil {
		panic(err)
	}
	return c
}

func validate(s ScenarioSpec) error {
	if len(s.Monitors) == 0 {
		return errors.New("no monitors")
	}
	for _, a := range s.Annotations {
		if a.Monitor < 1 || a.Monitor > len(s.Monitors) {
			return fmt.Errorf("annotation targets monitor %d of %d", a.Monitor, len(s.Monitors))
		}
		if !domain.Variant(a.Variant).IsValid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidVariant, a.Variant)
		}
	}
	for _, m := range s.Maintenance {
		if _, err := maintenanceTarget(m.Monitor, len(s.Monitors)); err != nil {
			return err
		}
	}
	return nil
}
