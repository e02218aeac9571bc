package locate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTravelTimeSingleLayerAnalytic(t *testing.T) {
	t.Parallel()

	m, err := NewModel([]Layer{{Bottom: -1000, Top: 1, Velocity: 5}})
	require.NoError(t, err)

	const (
		sourceAlt = -500.0
		stationAl = 0.0
		accuracy  = 1.0
		frequency = 100
	)

	for _, receiverR := range []float64{50, 100, 400, 2000} {
		got, ok := m.TravelTime(0, sourceAlt, receiverR, stationAl, accuracy, frequency)
		require.True(t, ok, "offset %g", receiverR)

		// In a single layer the traversed thickness runs to the layer top,
		// so the closed-form time follows the same geometry.
		thickness := 1.0 - sourceAlt
		analytic := math.Sqrt(receiverR*receiverR+thickness*thickness) / 5 * frequency

		// The bisection accepts any ray landing within accuracy of the
		// receiver; the matching time window is dt/dr · accuracy wide.
		slope := receiverR / math.Sqrt(receiverR*receiverR+thickness*thickness) / 5 * frequency
		assert.InDelta(t, analytic, float64(got), slope*accuracy+1, "offset %g", receiverR)
	}
}

func TestTravelTimeTermination(t *testing.T) {
	t.Parallel()

	t.Run("source altitude outside the model", func(t *testing.T) {
		t.Parallel()
		m := threeLayerModel(t)
		tt, ok := m.TravelTime(0, -5000, 100, -50, 1, 100)
		assert.False(t, ok)
		assert.Equal(t, int32(NullValue), tt)
	})

	t.Run("reflected rays exhaust the bracket", func(t *testing.T) {
		t.Parallel()
		// Fast layer above a slow source layer: every usable take-off angle
		// turns post-critical, so all three bracket rays stay sentinel and
		// the bracket is terminal.
		m, err := NewModel([]Layer{
			{Bottom: -100, Top: 1, Velocity: 50},
			{Bottom: -500, Top: -100, Velocity: 1},
		})
		require.NoError(t, err)

		tt, ok := m.TravelTime(0, -300, 400, 0, 1, 100)
		assert.False(t, ok)
		assert.Equal(t, int32(NullValue), tt)
	})

	t.Run("zero offset resolves to the vertical ray", func(t *testing.T) {
		t.Parallel()
		m, err := NewModel([]Layer{{Bottom: -1000, Top: 1, Velocity: 5}})
		require.NoError(t, err)

		tt, ok := m.TravelTime(0, -500, 0, 0, 1, 100)
		require.True(t, ok)

		// The min-angle ray lands within half the accuracy of zero offset.
		want := int32(math.Sqrt(501*501) / 5 * 100)
		assert.InDelta(t, float64(want), float64(tt), 1)
	})

	t.Run("negative receiver offset narrows symmetrically", func(t *testing.T) {
		t.Parallel()
		m, err := NewModel([]Layer{{Bottom: -1000, Top: 1, Velocity: 5}})
		require.NoError(t, err)

		pos, ok := m.TravelTime(0, -500, 300, 0, 1, 100)
		require.True(t, ok)
		neg, ok := m.TravelTime(0, -500, -300, 0, 1, 100)
		require.True(t, ok)
		assert.InDelta(t, float64(pos), float64(neg), 2)
	})
}
