package waveform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microseis/gridloc/internal/locate"
)

func TestTrueDelays(t *testing.T) {
	t.Parallel()

	site := testSite()
	model, err := site.Model()
	require.NoError(t, err)

	delays, err := TrueDelays(model, site.Geometry(), site.Center, 1, 10)
	require.NoError(t, err)
	require.Len(t, delays, len(site.Stations))

	// Base station delay is zero by construction.
	assert.Equal(t, int32(0), delays[0])
	// Stations equidistant from the source share a delay.
	assert.Equal(t, delays[1], delays[4], "100 m offsets")
	assert.Equal(t, delays[2], delays[5], "200 m offsets")
	assert.Equal(t, delays[1], delays[3], "mirrored 100 m offsets")
	// Farther stations arrive later.
	assert.Greater(t, delays[2], delays[1])
}

func TestSynthesizeEncodesDelays(t *testing.T) {
	t.Parallel()

	site := testSite()
	p := SyntheticParams{
		Site:      site,
		Event:     site.Center,
		Length:    400,
		Frequency: 10,
		Accuracy:  1,
		Seed:      21,
	}
	signals, delays, err := Synthesize(p)
	require.NoError(t, err)
	require.Len(t, signals, len(site.Stations)*p.Length)

	// Each trace past its delay is an exact shifted copy of the base trace.
	base := signals[:p.Length]
	for s := 1; s < len(site.Stations); s++ {
		d := int(delays[s])
		row := signals[s*p.Length : (s+1)*p.Length]
		assert.Equal(t, base[:p.Length-d], row[d:], "station %d", s)
	}

	// The record feeds straight into the delay estimator.
	table, err := locate.EstimateDelays(signals, locate.DelayParams{
		SignalLength:   p.Length,
		StationsCount:  len(site.Stations),
		WindowSize:     64,
		ScannerSize:    100,
		MinCorrelation: 0.9,
		BaseStation:    site.BaseStation,
		Workers:        2,
	})
	require.NoError(t, err)
	rowWidth := len(site.Stations) + 1
	firstRow := table[:rowWidth]
	assert.Equal(t, int32(1), firstRow[0])
	for s := 1; s < len(site.Stations); s++ {
		assert.Equal(t, delays[s], firstRow[s+1], "station %d", s)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	t.Parallel()

	site := testSite()

	t.Run("non-positive length", func(t *testing.T) {
		t.Parallel()
		_, _, err := Synthesize(SyntheticParams{Site: site, Length: 0})
		assert.Error(t, err)
	})

	t.Run("event outside model", func(t *testing.T) {
		t.Parallel()
		p := SyntheticParams{
			Site:      site,
			Event:     [3]float64{0, 0, -5000},
			Length:    400,
			Frequency: 10,
			Accuracy:  1,
		}
		_, _, err := Synthesize(p)
		assert.ErrorContains(t, err, "unreachable")
	})

	t.Run("delay past trace end", func(t *testing.T) {
		t.Parallel()
		p := SyntheticParams{
			Site:      site,
			Event:     site.Center,
			Length:    10,
			Frequency: 1000,
			Accuracy:  1,
		}
		_, _, err := Synthesize(p)
		assert.Error(t, err)
	})
}
