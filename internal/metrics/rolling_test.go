package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "single value", values: []float64{5}, want: 5},
		{name: "uniform values", values: []float64{2, 2, 2}, want: 2},
		{name: "mixed values", values: []float64{1, 2, 3, 4}, want: 2.5},
		{name: "negative values", values: []float64{-1, 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, mean(tt.values), 1e-12)
		})
	}
}

func TestSampleStdDev(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "empty", values: nil, want: 0},
		{name: "single value", values: []float64{7}, want: 0},
		{name: "constant values", values: []float64{3, 3, 3, 3}, want: 0},
		// Sample (n-1) convention: [1,2,3,4] has variance 5/3.
		{name: "known variance", values: []float64{1, 2, 3, 4}, want: math.Sqrt(5.0 / 3.0)},
		{name: "two values", values: []float64{1, 3}, want: math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, sampleStdDev(tt.values), 1e-12)
		})
	}
}
