package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 0.0001)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name             string
		value, low, high float64
		want             float64
	}{
		{"below range", -5, 0, 100, 0},
		{"in range", 42, 0, 100, 42},
		{"above range", 150, 0, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.value, tt.low, tt.high))
		})
	}
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 0, ClampInt(-10, 0, 100))
	assert.Equal(t, 100, ClampInt(250, 0, 100))
	assert.Equal(t, 60, ClampInt(60, 0, 100))
}
