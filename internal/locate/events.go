package locate

import (
	"fmt"
	"math"
)

// Event-picking thresholds: two delay-table rows within the scanner range
// whose delay vectors agree element-wise within timeEpsilon samples (or are
// both sentinel-like) on at least similarityCoefficient of the stations are
// treated as the same arrival.
const (
	similarityCoefficient = 0.8
	timeEpsilon           = 5
)

// EventPick is one discrete event extracted from the delay table: the time
// index of its first valid row, its duration in samples, and the
// per-station observed delays of that row. The base station's entry is zero.
type EventPick struct {
	TimeIndex int     `json:"time_index"`
	Duration  int     `json:"duration"`
	Delays    []int32 `json:"delays"`
}

// delaySimilarity returns the fraction of stations on which the two delay
// vectors agree: an element pair counts when its absolute difference is
// within timeEpsilon samples, or so large that at least one side is the
// sentinel.
func delaySimilarity(a, b []int32) float64 {
	matched := 0
	for i := range a {
		d := math.Abs(float64(a[i]) - float64(b[i]))
		if d <= timeEpsilon || d > math.Abs(NullValue)/2 {
			matched++
		}
	}
	return float64(matched) / float64(len(a))
}

// PickEvents reduces a per-time-sample delay table to discrete event picks.
// Valid rows (validity flag 1) are scanned in time order; each pick absorbs
// the later valid rows within the next scannerSize rows whose delay vectors
// are at least similarityCoefficient similar, and its duration spans from
// the first absorbed row to the last plus the correlation window.
func PickEvents(table []int32, stationsCount, windowSize, scannerSize int) ([]EventPick, error) {
	rowWidth := stationsCount + 1
	if stationsCount <= 0 || len(table)%rowWidth != 0 {
		return nil, fmt.Errorf("delay table length %d does not divide into rows of %d", len(table), rowWidth)
	}

	type validRow struct {
		timeIndex int
		delays    []int32
	}
	valid := make([]validRow, 0)
	for t := 0; t < len(table)/rowWidth; t++ {
		row := table[t*rowWidth : (t+1)*rowWidth]
		if row[0] != 1 {
			continue
		}
		valid = append(valid, validRow{timeIndex: t, delays: row[1:]})
	}

	picks := make([]EventPick, 0, len(valid))
	skipped := make(map[int]bool)
	for i := range valid {
		if skipped[i] {
			continue
		}

		last := i
		maxJ := i + scannerSize + 1
		if maxJ > len(valid) {
			maxJ = len(valid)
		}
		for j := i + 1; j < maxJ; j++ {
			if skipped[j] {
				continue
			}
			if delaySimilarity(valid[i].delays, valid[j].delays) >= similarityCoefficient {
				skipped[j] = true
				last = j
			}
		}

		picks = append(picks, EventPick{
			TimeIndex: valid[i].timeIndex,
			Duration:  last - i + windowSize,
			Delays:    valid[i].delays,
		})
	}
	return picks, nil
}

// ObservedDelays flattens picks into the [events × stations] table the
// misfit stage consumes.
func ObservedDelays(picks []EventPick, stationsCount int) []int32 {
	observed := make([]int32, len(picks)*stationsCount)
	for e, p := range picks {
		copy(observed[e*stationsCount:(e+1)*stationsCount], p.Delays)
	}
	return observed
}
