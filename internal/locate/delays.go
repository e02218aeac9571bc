package locate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DelayParams configures delay estimation for one signal matrix.
type DelayParams struct {
	// SignalLength is the per-station sample count of the signal matrix.
	SignalLength int

	// StationsCount is the number of rows in the signal matrix.
	StationsCount int

	// WindowSize is the correlation window length in samples.
	WindowSize int

	// ScannerSize bounds the delay scan: candidate delays are [0, ScannerSize).
	ScannerSize int

	// MinCorrelation is the acceptance threshold for the normalized
	// cross-correlation of a candidate delay.
	MinCorrelation float64

	// BaseStation is the index of the reference station all delays are
	// measured against.
	BaseStation int

	// Workers is the parallel fan-out; <= 0 selects runtime.NumCPU().
	Workers int
}

// Validate checks the parameter ranges against the signal matrix shape.
func (p DelayParams) Validate() error {
	if p.SignalLength <= 0 || p.StationsCount <= 0 {
		return fmt.Errorf("signal matrix is empty: %d stations × %d samples", p.StationsCount, p.SignalLength)
	}
	if p.WindowSize <= 1 {
		return fmt.Errorf("window size must exceed 1, got %d", p.WindowSize)
	}
	if p.ScannerSize <= 0 {
		return fmt.Errorf("scanner size must be positive, got %d", p.ScannerSize)
	}
	if p.BaseStation < 0 || p.BaseStation >= p.StationsCount {
		return fmt.Errorf("base station %d out of range [0, %d)", p.BaseStation, p.StationsCount)
	}
	if p.TimeSamples() <= 0 {
		return fmt.Errorf("window %d + scanner %d leave no usable samples of %d", p.WindowSize, p.ScannerSize, p.SignalLength)
	}
	return nil
}

// TimeSamples returns the number of delay-table rows: the time indices whose
// trailing window plus the full delay scan fit inside the signal.
func (p DelayParams) TimeSamples() int {
	return p.SignalLength - p.WindowSize - p.ScannerSize
}

// RowWidth returns the delay-table row width: one validity column followed
// by one delay column per station.
func (p DelayParams) RowWidth() int { return p.StationsCount + 1 }

// EstimateDelays cross-correlates a window of the base station's signal
// against a sliding window of every other station's signal, independently
// for every usable time index, and returns the flat delay table
// [TimeSamples × (StationsCount+1)]. Column 0 is a validity flag (1 iff more
// than MinStationsCount stations yielded a delay); columns 1..StationsCount
// hold the best-correlated integer delay per station, or NullValue when no
// candidate reached MinCorrelation. The base station's own column is never
// written.
func EstimateDelays(signals []float32, p DelayParams) ([]int32, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(signals) != p.StationsCount*p.SignalLength {
		return nil, fmt.Errorf("signal matrix has %d samples, want %d", len(signals), p.StationsCount*p.SignalLength)
	}

	table := make([]int32, p.TimeSamples()*p.RowWidth())
	runStage(p.TimeSamples(), p.Workers, func(t int) {
		estimateDelaysAt(signals, p, t, table)
	})
	return table, nil
}

// estimateDelaysAt fills one delay-table row. Rejections are silent: a row
// whose base window runs out of range, fails validation, or is flat keeps
// its pre-zeroed contents.
func estimateDelaysAt(signals []float32, p DelayParams, t int, table []int32) {
	if t > p.SignalLength-p.WindowSize-p.ScannerSize-1 {
		return
	}

	baseStart := p.BaseStation*p.SignalLength + t
	if !goodWindow(signals, baseStart, p.WindowSize) {
		return
	}

	baseWin := widen(nil, signals[baseStart:baseStart+p.WindowSize])
	base := statsOf(baseWin)
	if base.min == base.max {
		return
	}

	w := float64(p.WindowSize)
	baseVariance := base.sumSq*w - base.sum*base.sum

	row := t * p.RowWidth()
	selected := 0
	var seg []float64
	for s := 0; s < p.StationsCount; s++ {
		if s == p.BaseStation {
			continue
		}

		segStart := s*p.SignalLength + t
		seg = widen(seg, signals[segStart:segStart+p.WindowSize+p.ScannerSize])

		bestCorr := -1.0
		optimal := int32(NullValue)
		for d := 0; d < p.ScannerSize; d++ {
			if !goodWindow(signals, segStart+d, p.WindowSize) {
				continue
			}
			win := seg[d : d+p.WindowSize]
			sumB := floats.Sum(win)
			sumQB := floats.Dot(win, win)
			sumAB := floats.Dot(baseWin, win)

			numerator := sumAB*w - base.sum*sumB
			if numerator < 0 {
				// Anti-correlated candidates are never arrivals.
				continue
			}
			denominator := math.Sqrt(baseVariance * (sumQB*w - sumB*sumB))
			if denominator == 0 {
				continue
			}

			corr := numerator / denominator
			if corr >= p.MinCorrelation && bestCorr < corr {
				bestCorr = corr
				optimal = int32(d)
			}
		}

		table[row+s+1] = optimal
		if optimal != NullValue {
			selected++
		}
	}

	if selected > MinStationsCount {
		table[row] = 1
	} else {
		table[row] = 0
	}
}
