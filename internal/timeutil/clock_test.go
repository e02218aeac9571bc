package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	t.Parallel()

	var c Clock = RealClock{}
	before := c.Now()
	assert.False(t, c.Now().Before(before))
	assert.GreaterOrEqual(t, c.Since(before), time.Duration(0))
}

func TestMockClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), c.Now())
	assert.Equal(t, 90*time.Second, c.Since(start))

	c.Set(start)
	assert.Equal(t, start, c.Now())

	c.Sleep(time.Minute)
	c.Sleep(2 * time.Minute)
	assert.Equal(t, []time.Duration{time.Minute, 2 * time.Minute}, c.Sleeps())
	// Sleep on the mock never blocks.
}
