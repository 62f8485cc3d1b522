package brightness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptime-industries/nixie-clock/pkg/brightness"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
)

func TestEstimate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		sensor   uint8
		expected proto.Level
	}{
		{0, 1},
		{19, 1},
		{20, 1},
		{39, 1},
		{40, 2},
		{119, 5},
		{180, 9},
		{199, 9},
		{200, 10},
		{255, 10},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run("", func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, brightness.Estimate(tc.sensor), "sensor %d", tc.sensor)
		})
	}
}

func TestEstimate_BoundedAndMonotonic(t *testing.T) {
	t.Parallel()

	prev := brightness.Estimate(0)
	for s := 0; s <= 255; s++ {
		level := brightness.Estimate(uint8(s))
		assert.GreaterOrEqual(t, level, brightness.MinLevel)
		assert.LessOrEqual(t, level, brightness.MaxLevel)
		assert.GreaterOrEqual(t, level, prev, "estimate decreased at %d", s)
		prev = level
	}
}

func TestNewFilter_InvalidWindow(t *testing.T) {
	t.Parallel()

	_, err := brightness.NewFilter(0)
	assert.Error(t, err)
}

func TestFilter_PassThrough(t *testing.T) {
	t.Parallel()

	f, err := brightness.NewFilter(1)
	require.NoError(t, err)

	assert.Equal(t, proto.Level(10), f.Update(255))
	assert.Equal(t, proto.Level(1), f.Update(0))
	assert.Equal(t, proto.Level(5), f.Update(100))
}

func TestFilter_MovingAverage(t *testing.T) {
	t.Parallel()

	f, err := brightness.NewFilter(5)
	require.NoError(t, err)

	// 10, then (10+1)/2, then (10+1+1)/3 ...
	assert.Equal(t, proto.Level(10), f.Update(200))
	assert.Equal(t, proto.Level(5), f.Update(0))
	assert.Equal(t, proto.Level(4), f.Update(0))
	assert.Equal(t, proto.Level(3), f.Update(0))
	assert.Equal(t, proto.Level(2), f.Update(0))
	// the 200 reading drops out of the window
	assert.Equal(t, proto.Level(1), f.Update(0))

	f.Reset()
	assert.Equal(t, proto.Level(10), f.Update(255))
}
