package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingAverage(t *testing.T) {
	out := rollingAverage([]float64{1, 2, 3, 4, 5, 6}, 3)
	require.Len(t, out, 6)

	// Partial windows at the head, full trailing windows after.
	assert.InDelta(t, 1.0, out[0], 1e-9)
	assert.InDelta(t, 1.5, out[1], 1e-9)
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
	assert.InDelta(t, 5.0, out[5], 1e-9)
}

func TestRollingAverageDegenerate(t *testing.T) {
	assert.Nil(t, rollingAverage(nil, 3))
	assert.Nil(t, rollingAverage([]float64{1, 2}, 0))
}
