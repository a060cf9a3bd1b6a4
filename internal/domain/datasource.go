package domain

import (
	"bytes"
	"encoding/json"
)

// Scenario names a synthetic preview dataset.
type Scenario string

// DataSource selects what the editor renders: live provider data or a preview
// scenario. Both cannot be on at once; the zero value is Live.
type DataSource struct {
	scenario Scenario
}

func Live() DataSource { return DataSource{} }

// Preview returns a data source rendering scenario s. An empty name means Live.
func Preview(s Scenario) DataSource { return DataSource{scenario: s} }

func (d DataSource) IsLive() bool { return d.scenario == "" }

// Scenario returns the preview scenario, if any.
func (d DataSource) Scenario() (Scenario, bool) {
	return d.scenario, d.scenario != ""
}

func (d DataSource) String() string {
	if d.IsLive() {
		return "live"
	}
	return "preview:" + string(d.scenario)
}

// MarshalJSON encodes Live as null and a preview as its scenario name.
func (d DataSource) MarshalJSON() ([]byte, error) {
	if d.IsLive() {
		return []byte("null"), nil
	}
	return json.Marshal(string(d.scenario))
}

// UnmarshalJSON accepts null, "", "none" and "live" as Live.
func (d *DataSource) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Live()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "", "none", "live":
		*d = Live()
	default:
		*d = Preview(Scenario(s))
	}
	return nil
}
