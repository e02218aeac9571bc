// Package testutil provides the shared fixtures of the service-level tests:
// a migrated temp database, a small single-layer site, and a synthetic
// waveform record with a known source.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/microseis/gridloc/internal/config"
	"github.com/microseis/gridloc/internal/db"
	"github.com/microseis/gridloc/internal/locate"
	"github.com/microseis/gridloc/internal/waveform"
)

// NewDB opens a migrated SQLite database in a per-test temp dir.
func NewDB(t *testing.T) *db.DB {
	t.Helper()

	handle, err := db.NewDB(filepath.Join(t.TempDir(), "gridloc.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { handle.Close() })

	if err := handle.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	return handle
}

// Site returns a six-station array over a single 5 m/sample-scale layer with
// the search center at the true test source.
func Site() *waveform.Site {
	return &waveform.Site{
		Stations: []locate.Station{
			{X: 0, Y: 0},
			{X: 100, Y: 0},
			{X: 200, Y: 0},
			{X: -100, Y: 0},
			{X: 0, Y: 100},
			{X: 0, Y: 200},
		},
		Altitude:    0,
		BaseStation: 0,
		Layers:      []locate.Layer{{Bottom: -1000, Top: 1, Velocity: 5}},
		Center:      [3]float64{0, 0, -500},
	}
}

// Params returns processing parameters tuned to the Site fixture: every
// event picked from a synthetic record locates exactly on the grid node at
// the search center.
func Params() *config.Processing {
	window := 64
	scanner := 100
	frequency := 10
	step := 100.0
	count := 4
	workers := 2
	return &config.Processing{
		WindowSize:  &window,
		ScannerSize: &scanner,
		Frequency:   &frequency,
		GridDX:      &step, GridDY: &step, GridDZ: &step,
		GridNX: &count, GridNY: &count, GridNZ: &count,
		Workers: &workers,
	}
}

// WriteSyntheticRecord synthesizes a record for an event at the Site center
// and writes it as a waveform file, returning its path and the encoded
// per-station delays.
func WriteSyntheticRecord(t *testing.T, dir string) (string, []int32) {
	t.Helper()

	site := Site()
	signals, delays, err := waveform.Synthesize(waveform.SyntheticParams{
		Site:      site,
		Event:     site.Center,
		Length:    400,
		Frequency: 10,
		Accuracy:  1,
		Seed:      21,
	})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	path := filepath.Join(dir, "record.gwf")
	header := waveform.Header{
		Stations:  uint32(len(site.Stations)),
		Samples:   400,
		Frequency: 10,
	}
	if err := waveform.WriteFile(path, header, signals); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path, delays
}
