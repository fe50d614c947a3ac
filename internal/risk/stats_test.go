package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolatility_KnownVector(t *testing.T) {
	// [100, 105, 103, 108]의 단순 수익률 표본 표준편차 (N-1)
	s, err := NewSeries("revenue", dailyPoints(testBase(), 100, 105, 103, 108))
	require.NoError(t, err)

	returns, err := s.Returns(ReturnSimple)
	require.NoError(t, err)

	assert.InDelta(t, 0.0264987, Mean(returns), 1e-6)
	assert.InDelta(t, 0.0394510, StdDev(returns), 1e-6)
}

func TestStdDev(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "symmetric spread", values: []float64{0.01, 0.02, 0.03}, want: 0.01},
		{name: "constant values", values: []float64{0.05, 0.05, 0.05}, want: 0},
		{name: "single value", values: []float64{0.05}, want: 0},
		{name: "empty", values: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, StdDev(tt.values), 1e-12)
		})
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{name: "median interpolates", p: 50, want: 2.5},
		{name: "lower quartile", p: 25, want: 1.75},
		{name: "upper quartile", p: 75, want: 3.25},
		{name: "floor at minimum", p: 0, want: 1},
		{name: "cap at maximum", p: 100, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(sorted, tt.p), 1e-12)
		})
	}

	t.Run("single element", func(t *testing.T) {
		assert.InDelta(t, 5.0, Percentile([]float64{5}, 50), 1e-12)
	})
}

func TestCalculateSharpe(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.03} // mean 0.02, stddev 0.01

	t.Run("raw ratio", func(t *testing.T) {
		result := CalculateSharpe(returns, 0, 252, false)
		require.True(t, result.Defined)
		assert.InDelta(t, 2.0, result.Value, 1e-9)
	})

	t.Run("annualized", func(t *testing.T) {
		result := CalculateSharpe(returns, 0, 252, true)
		require.True(t, result.Defined)
		assert.InDelta(t, 2.0*math.Sqrt(252), result.Value, 1e-9)
	})

	t.Run("risk-free rate converted to per-period", func(t *testing.T) {
		// rf 0.0252/yr → 0.0001/period → excess 0.0199
		result := CalculateSharpe(returns, 0.0252, 252, false)
		require.True(t, result.Defined)
		assert.InDelta(t, 1.99, result.Value, 1e-9)
	})

	t.Run("zero volatility is undefined, not an error", func(t *testing.T) {
		result := CalculateSharpe([]float64{0.01, 0.01, 0.01}, 0.03, 252, true)
		assert.False(t, result.Defined)
	})
}

func TestCalculateSortino(t *testing.T) {
	t.Run("downside deviation only", func(t *testing.T) {
		returns := []float64{0.02, -0.01, 0.03, -0.02}
		// 하방: -0.01, -0.02 → dd = sqrt(0.0005/3) ≈ 0.01290994
		result := CalculateSortino(returns, 0, 252, false)
		require.True(t, result.Defined)
		assert.InDelta(t, 0.3872983, result.Value, 1e-6)
	})

	t.Run("no downside is undefined", func(t *testing.T) {
		result := CalculateSortino([]float64{0.01, 0.02, 0.03}, 0, 252, false)
		assert.False(t, result.Defined)
	})
}

func TestCalculateMaxDrawdown(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{
			name:    "peak to trough",
			returns: []float64{0.10, -0.20, 0.05, -0.10},
			// 경로: 1.1 → 0.88 → 0.924 → 0.8316, peak 1.1
			want: 0.244,
		},
		{name: "monotonic gains", returns: []float64{0.01, 0.02, 0.03}, want: 0},
		{name: "single loss", returns: []float64{-0.5}, want: 0.5},
		{name: "empty", returns: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateMaxDrawdown(tt.returns), 1e-9)
		})
	}
}

func TestCalculateStats_ConstantSeries(t *testing.T) {
	// 상수 시계열: 변동성 0, Sharpe/Sortino 정의 불가 (오류 아님)
	values := make([]float64, 253)
	for i := range values {
		values[i] = 100
	}
	s, err := NewSeries("flat", dailyPoints(testBase(), values...))
	require.NoError(t, err)

	returns, err := s.Returns(ReturnSimple)
	require.NoError(t, err)

	config := DefaultStatsConfig()
	config.RiskFreeRate = 0

	stats, err := CalculateStats(returns, config)
	require.NoError(t, err)

	assert.Equal(t, 252, stats.SampleCount)
	assert.InDelta(t, 0, stats.Volatility, 1e-12)
	assert.False(t, stats.Sharpe.Defined)
	assert.False(t, stats.Sortino.Defined)
	assert.InDelta(t, 0, stats.MaxDrawdown, 1e-12)

	require.Len(t, stats.VaR, 2)
	for _, vr := range stats.VaR {
		assert.InDelta(t, 0, vr.VaR, 1e-12)
		assert.InDelta(t, 0, vr.CVaR, 1e-12)
	}
}

func TestCalculateStats_InsufficientData(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
	}{
		{name: "empty", returns: nil},
		{name: "single return", returns: []float64{0.05}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateStats(tt.returns, DefaultStatsConfig())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInsufficientData))
		})
	}
}

func TestValidateStatsConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StatsConfig)
	}{
		{name: "confidence zero", mutate: func(c *StatsConfig) { c.ConfidenceLevels = []float64{0} }},
		{name: "confidence one", mutate: func(c *StatsConfig) { c.ConfidenceLevels = []float64{1} }},
		{name: "confidence negative", mutate: func(c *StatsConfig) { c.ConfidenceLevels = []float64{-0.5} }},
		{name: "confidence above one", mutate: func(c *StatsConfig) { c.ConfidenceLevels = []float64{1.5} }},
		{name: "no confidence levels", mutate: func(c *StatsConfig) { c.ConfidenceLevels = nil }},
		{name: "zero periods per year", mutate: func(c *StatsConfig) { c.PeriodsPerYear = 0 }},
		{name: "unknown var method", mutate: func(c *StatsConfig) { c.VaRMethod = VaRMethod("quantum") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultStatsConfig()
			tt.mutate(&config)

			err := ValidateStatsConfig(config)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}

	t.Run("default config valid", func(t *testing.T) {
		assert.NoError(t, ValidateStatsConfig(DefaultStatsConfig()))
	})
}

func TestCalculateStats_ParametricMethod(t *testing.T) {
	returns := make([]float64, 252)
	for i := range returns {
		if i%2 == 0 {
			returns[i] = 0.012
		} else {
			returns[i] = -0.008
		}
	}

	config := DefaultStatsConfig()
	config.VaRMethod = VaRParametric

	stats, err := CalculateStats(returns, config)
	require.NoError(t, err)
	require.Len(t, stats.VaR, 2)

	// 정규분포 가정: z(0.99) > z(0.95) → VaR 단조 증가
	assert.Greater(t, stats.VaR[1].VaR, stats.VaR[0].VaR)
	for _, vr := range stats.VaR {
		assert.GreaterOrEqual(t, vr.CVaR, vr.VaR)
	}
}
