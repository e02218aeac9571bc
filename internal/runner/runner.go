// Package runner executes queued location jobs in the background: it polls
// the job queue, runs the pipeline on each waveform, and persists the
// results.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/microseis/gridloc/internal/config"
	"github.com/microseis/gridloc/internal/db"
	"github.com/microseis/gridloc/internal/locate"
	"github.com/microseis/gridloc/internal/monitoring"
	"github.com/microseis/gridloc/internal/timeutil"
	"github.com/microseis/gridloc/internal/waveform"
)

// defaultPollInterval is how long the runner idles when the queue is empty.
const defaultPollInterval = time.Second

// CubeResult is the cached misfit cube of a finished job, kept in memory
// for the chart endpoints.
type CubeResult struct {
	Cube   []float32
	Grid   locate.Grid
	Events int
}

// Runner drains the job queue one job at a time. Jobs are CPU-bound grid
// searches, so running them sequentially keeps the per-stage worker pools
// at full fan-out instead of competing with each other.
type Runner struct {
	store    *db.DB
	site     *waveform.Site
	defaults *config.Processing
	clock    timeutil.Clock
	interval time.Duration

	mu    sync.Mutex
	cubes map[string]CubeResult
}

// New creates a Runner over the given store, site descriptor, and default
// processing parameters.
func New(store *db.DB, site *waveform.Site, defaults *config.Processing) *Runner {
	return &Runner{
		store:    store,
		site:     site,
		defaults: defaults,
		clock:    timeutil.RealClock{},
		interval: defaultPollInterval,
		cubes:    make(map[string]CubeResult),
	}
}

// SetClock replaces the idle-sleep clock. Intended for tests.
func (r *Runner) SetClock(c timeutil.Clock) { r.clock = c }

// Run polls the queue until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		processed, err := r.ProcessNext()
		if err != nil {
			monitoring.Logf("runner: %v", err)
		}
		if !processed {
			r.clock.Sleep(r.interval)
		}
	}
}

// ProcessNext takes the oldest queued job and runs it to completion,
// returning false when the queue was empty. Pipeline failures are recorded
// on the job, not returned: only queue/storage problems surface as errors.
func (r *Runner) ProcessNext() (bool, error) {
	job, err := r.store.NextQueuedJob()
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	if err := r.store.MarkRunning(job.ID); err != nil {
		return true, err
	}
	monitoring.Logf("runner: job %s started (%s)", job.ID, job.Waveform)
	started := r.clock.Now()

	if err := r.execute(job); err != nil {
		monitoring.Logf("runner: job %s failed: %v", job.ID, err)
		r.log(job.ID, "failed: %v", err)
		if markErr := r.store.MarkFailed(job.ID, err.Error()); markErr != nil {
			return true, markErr
		}
		return true, nil
	}

	elapsed := r.clock.Since(started)
	r.log(job.ID, "completed in %s", elapsed)
	monitoring.Logf("runner: job %s finished in %s", job.ID, elapsed)
	return true, r.store.MarkFinished(job.ID)
}

// Cube returns the cached misfit cube of a finished job.
func (r *Runner) Cube(jobID string) (CubeResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cubes[jobID]
	return c, ok
}

func (r *Runner) execute(job *db.Job) error {
	params, err := r.jobParams(job)
	if err != nil {
		return err
	}

	header, signals, err := waveform.ReadFile(job.Waveform)
	if err != nil {
		return err
	}
	if int(header.Stations) != len(r.site.Stations) {
		return fmt.Errorf("waveform has %d stations, site has %d", header.Stations, len(r.site.Stations))
	}

	frequency := int(header.Frequency)
	if frequency == 0 {
		frequency = params.GetFrequency()
	}

	model, err := r.site.Model()
	if err != nil {
		return err
	}

	dx, dy, dz := params.GetGridStep()
	nx, ny, nz := params.GetGridCounts()
	pipeline := locate.PipelineParams{
		Delay: locate.DelayParams{
			SignalLength:   int(header.Samples),
			StationsCount:  len(r.site.Stations),
			WindowSize:     params.GetWindowSize(),
			ScannerSize:    params.GetScannerSize(),
			MinCorrelation: params.GetMinCorrelation(),
			BaseStation:    params.GetBaseStation(),
			Workers:        params.GetWorkers(),
		},
		Grid: locate.GridParams{
			Model: model,
			Geometry: locate.Geometry{
				Stations:    r.site.Stations,
				Altitude:    params.GetStationsAltitude(),
				BaseStation: params.GetBaseStation(),
			},
			Grid:      locate.Grid{DX: dx, DY: dy, DZ: dz, NX: nx, NY: ny, NZ: nz},
			Accuracy:  params.GetAccuracy(),
			Frequency: frequency,
			Workers:   params.GetWorkers(),
		},
	}

	center := [3]float32{
		float32(r.site.Center[0]),
		float32(r.site.Center[1]),
		float32(r.site.Center[2]),
	}
	result, err := locate.Run(signals, center, pipeline)
	if err != nil {
		return err
	}

	r.log(job.ID, "estimated %d delay samples", pipeline.Delay.TimeSamples())
	r.log(job.ID, "picked %d events", len(result.Picks))

	if len(result.Picks) == 0 {
		return nil
	}

	r.log(job.ID, "located %d of %d events", len(result.Located), len(result.Picks))
	if err := r.store.InsertLocations(job.ID, result.Located); err != nil {
		return err
	}

	r.mu.Lock()
	r.cubes[job.ID] = CubeResult{
		Cube:   result.Cube,
		Grid:   pipeline.Grid.Grid,
		Events: len(result.Picks),
	}
	r.mu.Unlock()
	return nil
}

// jobParams merges the job's parameter overrides over the runner defaults.
func (r *Runner) jobParams(job *db.Job) (*config.Processing, error) {
	params := config.Processing{}
	if r.defaults != nil {
		params = *r.defaults
	}
	if job.Params != "" {
		if err := json.Unmarshal([]byte(job.Params), &params); err != nil {
			return nil, fmt.Errorf("invalid job parameters: %w", err)
		}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}

func (r *Runner) log(jobID, format string, v ...interface{}) {
	if err := r.store.AppendLog(jobID, fmt.Sprintf(format, v...)); err != nil {
		monitoring.Logf("runner: failed to append job log: %v", err)
	}
}
