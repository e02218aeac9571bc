package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPipelineEndToEnd drives the full chain on synthetic data: signals with
// injected delays that match the ray-traced arrivals of a known source, so
// the delay estimator must recover the delays exactly and the grid search
// must place every picked event on the true source node.
func TestPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	m, err := NewModel([]Layer{{Bottom: -1000, Top: 1, Velocity: 5}})
	require.NoError(t, err)

	geom := Geometry{
		Stations: []Station{
			{X: 0, Y: 0},
			{X: 100, Y: 0},
			{X: 200, Y: 0},
			{X: -100, Y: 0},
			{X: 0, Y: 100},
			{X: 0, Y: 200},
		},
		Altitude:    0,
		BaseStation: 0,
	}

	const (
		accuracy  = 1.0
		frequency = 10
		length    = 400
	)
	trueNode := [3]float64{0, 0, -500}
	injected := theoreticalDelays(t, m, geom, trueNode, accuracy, frequency)
	for i, d := range injected {
		require.GreaterOrEqual(t, d, int32(0), "station %d", i)
		require.Less(t, d, int32(100), "station %d", i)
	}

	signals := makeDelayedSignals(len(geom.Stations), length, geom.BaseStation, injected, 21)

	grid := Grid{DX: 100, DY: 100, DZ: 100, NX: 4, NY: 4, NZ: 4}
	p := PipelineParams{
		Delay: DelayParams{
			SignalLength:   length,
			StationsCount:  len(geom.Stations),
			WindowSize:     64,
			ScannerSize:    100,
			MinCorrelation: 0.9,
			BaseStation:    geom.BaseStation,
			Workers:        2,
		},
		Grid: GridParams{
			Model: m, Geometry: geom, Grid: grid,
			Accuracy: accuracy, Frequency: frequency, Workers: 2,
		},
	}

	result, err := Run(signals, [3]float32{0, 0, -500}, p)
	require.NoError(t, err)

	// Every usable time sample recovers the injected delays, so picking
	// merges them into a handful of identical events.
	require.NotEmpty(t, result.Picks)
	for _, pick := range result.Picks {
		for s := 1; s < len(geom.Stations); s++ {
			assert.Equal(t, injected[s], pick.Delays[s], "pick at t=%d station %d", pick.TimeIndex, s)
		}
	}

	trueID := int32(2 + 2*grid.NX + 2*grid.NX*grid.NY)
	require.Len(t, result.MinimalNodes, len(result.Picks))
	for e, node := range result.MinimalNodes {
		assert.Equal(t, trueID, node, "event %d", e)
		assert.Equal(t, float32(0), result.Errors[e], "event %d", e)
	}

	require.Len(t, result.Located, len(result.Picks))
	for _, loc := range result.Located {
		assert.InDelta(t, trueNode[0], loc.X, 1e-6)
		assert.InDelta(t, trueNode[1], loc.Y, 1e-6)
		assert.InDelta(t, trueNode[2], loc.Z, 1e-6)
		assert.Equal(t, 0.0, loc.Misfit)
	}
}

func TestPipelineNoEvents(t *testing.T) {
	t.Parallel()

	// Four stations cannot clear the validity threshold (strictly more than
	// three non-base stations must contribute), so no events are picked.
	const stations, length = 4, 200
	signals := makeDelayedSignals(stations, length, 0, []int32{0, 2, 4, 6}, 5)

	m, err := NewModel([]Layer{{Bottom: -1000, Top: 1, Velocity: 5}})
	require.NoError(t, err)

	p := PipelineParams{
		Delay: DelayParams{
			SignalLength: length, StationsCount: stations,
			WindowSize: 48, ScannerSize: 16,
			MinCorrelation: 0.9, BaseStation: 0, Workers: 1,
		},
		Grid: GridParams{
			Model: m,
			Geometry: Geometry{
				Stations:    []Station{{X: 0}, {X: 100}, {X: 200}, {X: 300}},
				BaseStation: 0,
			},
			Grid:     Grid{DX: 100, DY: 100, DZ: 100, NX: 2, NY: 2, NZ: 2},
			Accuracy: 1, Frequency: 10,
		},
	}
	result, err := Run(signals, [3]float32{0, 0, -500}, p)
	require.NoError(t, err)
	assert.Empty(t, result.Picks)
	assert.Empty(t, result.Located)
	assert.NotEmpty(t, result.DelayTable)
}
