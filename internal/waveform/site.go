package waveform

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/microseis/gridloc/internal/locate"
)

// Site is the JSON descriptor of an observation setup: the station array,
// the layered velocity model beneath it, and the nominal event region
// center the search grid is placed around.
type Site struct {
	Stations    []locate.Station `json:"stations"`
	Altitude    float64          `json:"altitude"`
	BaseStation int              `json:"base_station"`
	Layers      []locate.Layer   `json:"layers"`
	Center      [3]float64       `json:"center"`
}

// Geometry returns the site's station layout as a locate.Geometry.
func (s *Site) Geometry() locate.Geometry {
	return locate.Geometry{
		Stations:    s.Stations,
		Altitude:    s.Altitude,
		BaseStation: s.BaseStation,
	}
}

// Model builds and validates the site's velocity model.
func (s *Site) Model() (locate.Model, error) {
	return locate.NewModel(s.Layers)
}

// Validate checks the parts of the descriptor the model constructor does
// not cover.
func (s *Site) Validate() error {
	if len(s.Stations) == 0 {
		return fmt.Errorf("site has no stations")
	}
	if s.BaseStation < 0 || s.BaseStation >= len(s.Stations) {
		return fmt.Errorf("base_station %d out of range for %d stations", s.BaseStation, len(s.Stations))
	}
	if _, err := s.Model(); err != nil {
		return err
	}
	return nil
}

// LoadSite reads and validates a site descriptor from a JSON file.
func LoadSite(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site file: %w", err)
	}
	site := &Site{}
	if err := json.Unmarshal(data, site); err != nil {
		return nil, fmt.Errorf("failed to parse site JSON: %w", err)
	}
	if err := site.Validate(); err != nil {
		return nil, fmt.Errorf("invalid site descriptor: %w", err)
	}
	return site, nil
}

// SaveSite writes a site descriptor as indented JSON.
func SaveSite(path string, site *Site) error {
	data, err := json.MarshalIndent(site, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal site: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write site file: %w", err)
	}
	return nil
}
