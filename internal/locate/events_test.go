package locate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelaySimilarity(t *testing.T) {
	t.Parallel()

	t.Run("identical vectors", func(t *testing.T) {
		t.Parallel()
		a := []int32{0, 10, 20, 30}
		assert.Equal(t, 1.0, delaySimilarity(a, a))
	})

	t.Run("within epsilon counts as a match", func(t *testing.T) {
		t.Parallel()
		a := []int32{0, 10, 20, 30}
		b := []int32{0, 12, 25, 27}
		assert.Equal(t, 1.0, delaySimilarity(a, b))
	})

	t.Run("sentinel pairs count as a match", func(t *testing.T) {
		t.Parallel()
		a := []int32{NullValue, 10, 22, NullValue}
		b := []int32{0, 12, 20, NullValue}
		assert.Equal(t, 1.0, delaySimilarity(a, b))
	})

	t.Run("divergent vectors score low", func(t *testing.T) {
		t.Parallel()
		a := []int32{0, 10, 20, 30}
		b := []int32{0, 100, 200, 300}
		assert.Equal(t, 0.25, delaySimilarity(a, b))
	})
}

func TestPickEvents(t *testing.T) {
	t.Parallel()

	const (
		stations    = 4
		windowSize  = 32
		scannerSize = 8
	)

	// Rows: validity flag followed by per-station delays.
	rows := [][]int32{
		{1, 0, 10, 20, 30},    // t=0: first arrival
		{0, 0, 0, 0, 0},       // t=1: invalid, ignored
		{1, 0, 11, 21, 29},    // t=2: same arrival, merged into t=0
		{1, 0, 100, 200, 300}, // t=3: distinct arrival
	}
	table := make([]int32, 0, len(rows)*(stations+1))
	for _, r := range rows {
		table = append(table, r...)
	}

	picks, err := PickEvents(table, stations, windowSize, scannerSize)
	require.NoError(t, err)
	require.Len(t, picks, 2)

	want := []EventPick{
		// Duration spans from the first to the last merged valid row plus
		// the correlation window.
		{TimeIndex: 0, Duration: 1 + windowSize, Delays: []int32{0, 10, 20, 30}},
		{TimeIndex: 3, Duration: windowSize, Delays: []int32{0, 100, 200, 300}},
	}
	if diff := cmp.Diff(want, picks); diff != "" {
		t.Errorf("picks mismatch (-want +got):\n%s", diff)
	}
}

func TestPickEventsScannerWindow(t *testing.T) {
	t.Parallel()

	const stations = 4
	// Two identical arrivals further apart than the scanner range stay
	// separate picks.
	rows := [][]int32{
		{1, 0, 10, 20, 30},
		{1, 0, 10, 20, 30},
		{1, 0, 10, 20, 30},
	}
	table := make([]int32, 0)
	for _, r := range rows {
		table = append(table, r...)
	}

	picks, err := PickEvents(table, stations, 16, 1)
	require.NoError(t, err)
	// Scanner range 1 lets row 0 absorb row 1; row 2 starts a new pick.
	require.Len(t, picks, 2)
	assert.Equal(t, 0, picks[0].TimeIndex)
	assert.Equal(t, 2, picks[1].TimeIndex)
}

func TestPickEventsValidation(t *testing.T) {
	t.Parallel()

	_, err := PickEvents(make([]int32, 7), 3, 16, 4)
	assert.Error(t, err)
	_, err = PickEvents(nil, 0, 16, 4)
	assert.Error(t, err)
}

func TestObservedDelays(t *testing.T) {
	t.Parallel()

	picks := []EventPick{
		{TimeIndex: 0, Duration: 32, Delays: []int32{0, 1, 2}},
		{TimeIndex: 9, Duration: 40, Delays: []int32{0, 7, 8}},
	}
	flat := ObservedDelays(picks, 3)
	assert.Equal(t, []int32{0, 1, 2, 0, 7, 8}, flat)
}
