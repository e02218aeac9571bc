// Package config holds the runtime processing parameters of the locator.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default processing values. The JSON config may override any subset;
// omitted fields fall back to these.
const (
	DefaultWindowSize       = 100
	DefaultScannerSize      = 100
	DefaultMinCorrelation   = 0.9
	DefaultBaseStation      = 0
	DefaultAccuracy         = 1.0
	DefaultFrequency        = 1000
	DefaultStationsAltitude = 0.0
	DefaultGridStep         = 100.0
	DefaultGridCount        = 20
	DefaultWorkers          = 0 // 0 selects runtime.NumCPU
)

// Processing represents the locator's tuning parameters. Every field is a
// pointer so a partial JSON config can override only what it names; the
// Get* accessors supply defaults for the rest. The same schema serves the
// startup config file, the /api/params endpoint, and per-job overrides.
type Processing struct {
	// Delay estimation params
	WindowSize     *int     `json:"window_size,omitempty"`
	ScannerSize    *int     `json:"scanner_size,omitempty"`
	MinCorrelation *float64 `json:"min_correlation,omitempty"`
	BaseStation    *int     `json:"base_station,omitempty"`

	// Travel-time solver params
	Accuracy         *float64 `json:"accuracy,omitempty"`
	Frequency        *int     `json:"frequency,omitempty"`
	StationsAltitude *float64 `json:"stations_altitude,omitempty"`

	// Search grid params
	GridDX *float64 `json:"grid_dx,omitempty"`
	GridDY *float64 `json:"grid_dy,omitempty"`
	GridDZ *float64 `json:"grid_dz,omitempty"`
	GridNX *int     `json:"grid_nx,omitempty"`
	GridNY *int     `json:"grid_ny,omitempty"`
	GridNZ *int     `json:"grid_nz,omitempty"`

	// Execution params
	Workers *int `json:"workers,omitempty"`
}

func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// GetWindowSize returns the correlation window length in samples.
func (p *Processing) GetWindowSize() int {
	if p.WindowSize != nil {
		return *p.WindowSize
	}
	return DefaultWindowSize
}

// GetScannerSize returns the delay scan range in samples.
func (p *Processing) GetScannerSize() int {
	if p.ScannerSize != nil {
		return *p.ScannerSize
	}
	return DefaultScannerSize
}

// GetMinCorrelation returns the correlation acceptance threshold.
func (p *Processing) GetMinCorrelation() float64 {
	if p.MinCorrelation != nil {
		return *p.MinCorrelation
	}
	return DefaultMinCorrelation
}

// GetBaseStation returns the reference station index.
func (p *Processing) GetBaseStation() int {
	if p.BaseStation != nil {
		return *p.BaseStation
	}
	return DefaultBaseStation
}

// GetAccuracy returns the lateral accuracy target of the bisection solver.
func (p *Processing) GetAccuracy() float64 {
	if p.Accuracy != nil {
		return *p.Accuracy
	}
	return DefaultAccuracy
}

// GetFrequency returns the sampling frequency used to scale ray times.
func (p *Processing) GetFrequency() int {
	if p.Frequency != nil {
		return *p.Frequency
	}
	return DefaultFrequency
}

// GetStationsAltitude returns the shared receiver altitude.
func (p *Processing) GetStationsAltitude() float64 {
	if p.StationsAltitude != nil {
		return *p.StationsAltitude
	}
	return DefaultStationsAltitude
}

// GetGridStep returns the (dx, dy, dz) cell spacing.
func (p *Processing) GetGridStep() (dx, dy, dz float64) {
	dx, dy, dz = DefaultGridStep, DefaultGridStep, DefaultGridStep
	if p.GridDX != nil {
		dx = *p.GridDX
	}
	if p.GridDY != nil {
		dy = *p.GridDY
	}
	if p.GridDZ != nil {
		dz = *p.GridDZ
	}
	return dx, dy, dz
}

// GetGridCounts returns the (nx, ny, nz) node counts.
func (p *Processing) GetGridCounts() (nx, ny, nz int) {
	nx, ny, nz = DefaultGridCount, DefaultGridCount, DefaultGridCount
	if p.GridNX != nil {
		nx = *p.GridNX
	}
	if p.GridNY != nil {
		ny = *p.GridNY
	}
	if p.GridNZ != nil {
		nz = *p.GridNZ
	}
	return nx, ny, nz
}

// GetWorkers returns the parallel fan-out per stage.
func (p *Processing) GetWorkers() int {
	if p.Workers != nil {
		return *p.Workers
	}
	return DefaultWorkers
}

// Validate rejects out-of-range overrides. Nil fields are always valid.
func (p *Processing) Validate() error {
	if p.WindowSize != nil && *p.WindowSize <= 1 {
		return fmt.Errorf("window_size must exceed 1, got %d", *p.WindowSize)
	}
	if p.ScannerSize != nil && *p.ScannerSize <= 0 {
		return fmt.Errorf("scanner_size must be positive, got %d", *p.ScannerSize)
	}
	if p.MinCorrelation != nil && (*p.MinCorrelation <= 0 || *p.MinCorrelation > 1) {
		return fmt.Errorf("min_correlation must be in (0, 1], got %g", *p.MinCorrelation)
	}
	if p.BaseStation != nil && *p.BaseStation < 0 {
		return fmt.Errorf("base_station must be non-negative, got %d", *p.BaseStation)
	}
	if p.Accuracy != nil && *p.Accuracy <= 0 {
		return fmt.Errorf("accuracy must be positive, got %g", *p.Accuracy)
	}
	if p.Frequency != nil && *p.Frequency <= 0 {
		return fmt.Errorf("frequency must be positive, got %d", *p.Frequency)
	}
	for name, v := range map[string]*float64{
		"grid_dx": p.GridDX, "grid_dy": p.GridDY, "grid_dz": p.GridDZ,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %g", name, *v)
		}
	}
	for name, v := range map[string]*int{
		"grid_nx": p.GridNX, "grid_ny": p.GridNY, "grid_nz": p.GridNZ,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
	}
	if p.Workers != nil && *p.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *p.Workers)
	}
	return nil
}

// Load reads a Processing config from a JSON file. Fields omitted from the
// file retain their defaults, so partial configs are safe.
func Load(path string) (*Processing, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Processing{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
