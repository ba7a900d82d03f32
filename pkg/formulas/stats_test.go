package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		expected []float64
	}{
		{"empty", nil, []float64{}},
		{"single price", []float64{100}, []float64{}},
		{"up then down", []float64{100, 110, 99}, []float64{0.10, -0.10}},
		{"zero price guarded", []float64{0, 10}, []float64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateReturns(tt.prices)
			require.Len(t, got, len(tt.expected))
			for i := range got {
				assert.InDelta(t, tt.expected[i], got[i], 1e-12)
			}
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0.01}))

	returns := []float64{0.01, -0.01, 0.01, -0.01}
	expected := StdDev(returns) * math.Sqrt(252)
	assert.InDelta(t, expected, AnnualizedVolatility(returns), 1e-12)
}

func TestMeanAbsoluteDeviation(t *testing.T) {
	assert.Equal(t, 0.0, MeanAbsoluteDeviation(nil))
	assert.Equal(t, 0.0, MeanAbsoluteDeviation([]float64{100, 100, 100}))
	// mean 100, abs deviations 10,10 -> 10/100
	assert.InDelta(t, 0.1, MeanAbsoluteDeviation([]float64{90, 110}), 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3}))
	assert.InDelta(t, 0.5, MaxDrawdown([]float64{100, 120, 60, 90}), 1e-12)
}

func TestCovariance_MismatchedLengths(t *testing.T) {
	assert.Equal(t, 0.0, Covariance([]float64{1, 2}, []float64{1}))
	assert.InDelta(t, 1.0, Covariance([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-12)
}

func TestClampAndRound(t *testing.T) {
	assert.Equal(t, 50.0, Clamp(10, 50, 95))
	assert.Equal(t, 95.0, Clamp(120, 50, 95))
	assert.Equal(t, 70.0, Clamp(70, 50, 95))
	assert.Equal(t, 1.23, Round(1.2345, 2))
}
