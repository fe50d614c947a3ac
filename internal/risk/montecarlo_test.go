package risk

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcTestConfig() MonteCarloConfig {
	config := DefaultMonteCarloConfig()
	config.NumPaths = 100
	config.Horizon = 30
	config.Seed = 12345
	return config
}

func mcTestInput() SimulationInput {
	return SimulationInput{
		StartValue: 100.0,
		MeanReturn: 0.001,
		Volatility: 0.02,
	}
}

func TestMonteCarloRun_Reproducibility(t *testing.T) {
	// 동일 시드 + 동일 파라미터 → 비트 단위 동일 결과
	simulator := NewMonteCarloSimulator(mcTestConfig())
	ctx := context.Background()

	first, err := simulator.Run(ctx, mcTestInput())
	require.NoError(t, err)
	second, err := simulator.Run(ctx, mcTestInput())
	require.NoError(t, err)

	require.Equal(t, first.Bands, second.Bands)
	require.Equal(t, first.Percentiles, second.Percentiles)
	require.Equal(t, first.VaR, second.VaR)
	assert.Equal(t, first.MeanReturn, second.MeanReturn)
	assert.Equal(t, first.StdDev, second.StdDev)
	assert.Equal(t, first.MeanFinalValue, second.MeanFinalValue)
	assert.Equal(t, first.MedianFinalValue, second.MedianFinalValue)
	assert.Equal(t, first.ProbabilityOfLoss, second.ProbabilityOfLoss)

	// 실행 ID는 매번 새로 발급
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestMonteCarloRun_WorkerCountDoesNotAffectResult(t *testing.T) {
	// 경로별 난수열은 Seed+pathIndex로만 결정, 워커 수와 무관해야 함
	ctx := context.Background()

	serial := mcTestConfig()
	serial.Workers = 1
	parallel := mcTestConfig()
	parallel.Workers = 4

	first, err := NewMonteCarloSimulator(serial).Run(ctx, mcTestInput())
	require.NoError(t, err)
	second, err := NewMonteCarloSimulator(parallel).Run(ctx, mcTestInput())
	require.NoError(t, err)

	require.Equal(t, first.Bands, second.Bands)
	require.Equal(t, first.Percentiles, second.Percentiles)
	assert.Equal(t, first.MeanFinalValue, second.MeanFinalValue)
	assert.Equal(t, first.StdDev, second.StdDev)
}

func TestMonteCarloRun_Shape(t *testing.T) {
	config := mcTestConfig()
	simulator := NewMonteCarloSimulator(config)

	result, err := simulator.Run(context.Background(), mcTestInput())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Bands, len(config.Bands))
	for i, band := range result.Bands {
		assert.InDelta(t, config.Bands[i], band.Percentile, 1e-12)
		assert.Len(t, band.Values, config.Horizon)
	}

	require.Len(t, result.VaR, len(config.ConfidenceLevels))
	assert.Len(t, result.Percentiles, 9)

	assert.GreaterOrEqual(t, result.ProbabilityOfLoss, 0.0)
	assert.LessOrEqual(t, result.ProbabilityOfLoss, 1.0)
	assert.Greater(t, result.MeanFinalValue, 0.0)

	// 재현성용 설정/입력 에코
	assert.Equal(t, int64(12345), result.Config.Seed)
	assert.InDelta(t, 100.0, result.Input.StartValue, 1e-12)

	// 밴드는 백분위 순서대로 단조 증가 (각 스텝에서)
	for step := 0; step < config.Horizon; step++ {
		for i := 1; i < len(result.Bands); i++ {
			assert.GreaterOrEqual(t, result.Bands[i].Values[step], result.Bands[i-1].Values[step],
				"band ordering at step %d", step)
		}
	}
}

func TestMonteCarloRun_ZeroVolatility(t *testing.T) {
	// 변동성 0 → 모든 경로 동일: v_T = 100 * 1.001^30
	config := mcTestConfig()
	input := mcTestInput()
	input.Volatility = 0

	result, err := NewMonteCarloSimulator(config).Run(context.Background(), input)
	require.NoError(t, err)

	expected := 100.0 * math.Pow(1.001, 30)
	assert.InDelta(t, expected, result.MeanFinalValue, 1e-9)
	assert.InDelta(t, expected, result.MedianFinalValue, 1e-9)
	assert.InDelta(t, 0, result.StdDev, 1e-12)
	assert.InDelta(t, 0, result.ProbabilityOfLoss, 1e-12)

	for _, band := range result.Bands {
		assert.InDelta(t, expected, band.Values[config.Horizon-1], 1e-9)
	}
}

func TestMonteCarloRun_Bootstrap(t *testing.T) {
	config := mcTestConfig()
	config.Method = MethodHistoricalBootstrap

	input := mcTestInput()
	input.HistoricalReturns = make([]float64, 60)
	for i := range input.HistoricalReturns {
		if i%2 == 0 {
			input.HistoricalReturns[i] = 0.015
		} else {
			input.HistoricalReturns[i] = -0.01
		}
	}

	first, err := NewMonteCarloSimulator(config).Run(context.Background(), input)
	require.NoError(t, err)
	second, err := NewMonteCarloSimulator(config).Run(context.Background(), input)
	require.NoError(t, err)

	require.Equal(t, first.Bands, second.Bands)
	assert.Equal(t, 60, first.InputSampleCount)
}

func TestMonteCarloRun_BootstrapMinSamples(t *testing.T) {
	// Fail-closed: bootstrap 표본이 MinSamples 미만이면 거부
	config := mcTestConfig()
	config.Method = MethodHistoricalBootstrap

	input := mcTestInput()
	input.HistoricalReturns = []float64{0.01, -0.02, 0.03}

	_, err := NewMonteCarloSimulator(config).Run(context.Background(), input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestMonteCarloRun_StudentT(t *testing.T) {
	config := mcTestConfig()
	config.Method = MethodParametricT
	config.StudentTDoF = 5

	first, err := NewMonteCarloSimulator(config).Run(context.Background(), mcTestInput())
	require.NoError(t, err)
	second, err := NewMonteCarloSimulator(config).Run(context.Background(), mcTestInput())
	require.NoError(t, err)

	require.Equal(t, first.Bands, second.Bands)
	assert.Greater(t, first.StdDev, 0.0)
}

func TestMonteCarloRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 실행 전 취소

	config := mcTestConfig()
	config.NumPaths = 10000

	_, err := NewMonteCarloSimulator(config).Run(ctx, mcTestInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestValidateMonteCarloConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MonteCarloConfig)
	}{
		{name: "zero paths", mutate: func(c *MonteCarloConfig) { c.NumPaths = 0 }},
		{name: "negative paths", mutate: func(c *MonteCarloConfig) { c.NumPaths = -10 }},
		{name: "zero horizon", mutate: func(c *MonteCarloConfig) { c.Horizon = 0 }},
		{name: "unknown method", mutate: func(c *MonteCarloConfig) { c.Method = MonteCarloMethod("quantum") }},
		{name: "t-dof too small", mutate: func(c *MonteCarloConfig) { c.Method = MethodParametricT; c.StudentTDoF = 2 }},
		{name: "t-dof not integer", mutate: func(c *MonteCarloConfig) { c.Method = MethodParametricT; c.StudentTDoF = 4.5 }},
		{name: "confidence one", mutate: func(c *MonteCarloConfig) { c.ConfidenceLevels = []float64{1.0} }},
		{name: "no confidence levels", mutate: func(c *MonteCarloConfig) { c.ConfidenceLevels = nil }},
		{name: "band at 100", mutate: func(c *MonteCarloConfig) { c.Bands = []float64{100} }},
		{name: "min samples below two", mutate: func(c *MonteCarloConfig) { c.MinSamples = 1 }},
		{name: "negative workers", mutate: func(c *MonteCarloConfig) { c.Workers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultMonteCarloConfig()
			tt.mutate(&config)

			err := ValidateMonteCarloConfig(config)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}

	t.Run("default config valid", func(t *testing.T) {
		assert.NoError(t, ValidateMonteCarloConfig(DefaultMonteCarloConfig()))
	})
}

func TestMonteCarloRun_InvalidInput(t *testing.T) {
	config := mcTestConfig()

	t.Run("non-positive start value", func(t *testing.T) {
		input := mcTestInput()
		input.StartValue = 0
		_, err := NewMonteCarloSimulator(config).Run(context.Background(), input)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("negative volatility", func(t *testing.T) {
		input := mcTestInput()
		input.Volatility = -0.02
		_, err := NewMonteCarloSimulator(config).Run(context.Background(), input)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})
}
