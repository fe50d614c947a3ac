package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/horizon/backend/internal/risk"
)

func forecastPairs(pairs ...[2]float64) []ForecastPair {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	result := make([]ForecastPair, len(pairs))
	for i, p := range pairs {
		result[i] = ForecastPair{
			Timestamp: base.AddDate(0, 0, i),
			Predicted: p[0],
			Actual:    p[1],
		}
	}
	return result
}

func TestEvaluate_KnownVector(t *testing.T) {
	pairs := forecastPairs(
		[2]float64{0.05, 0.04},
		[2]float64{-0.02, 0.01},
		[2]float64{0.03, 0.03},
		[2]float64{-0.01, -0.02},
	)

	report, err := Evaluate("v1", pairs)
	require.NoError(t, err)

	assert.Equal(t, "v1", report.ModelVersion)
	assert.Equal(t, 4, report.SampleCount)

	// 오차 (actual - predicted): -0.01, 0.03, 0.00, -0.01
	assert.InDelta(t, 0.0125, report.MAE, 1e-12)
	assert.InDelta(t, 0.0165831, report.RMSE, 1e-6)
	assert.InDelta(t, 0.0025, report.MeanError, 1e-12)

	// 부호 일치: (+,+), (-,+) 미스, (+,+), (-,-) → 3/4
	assert.InDelta(t, 0.75, report.HitRate, 1e-12)

	// MAPE = (0.25 + 3.0 + 0.0 + 0.5) / 4
	assert.Equal(t, 0, report.MAPESkipped)
	assert.InDelta(t, 0.9375, report.MAPE, 1e-9)

	// R² = 1 - 0.0011/0.0021
	require.True(t, report.R2.Defined)
	assert.InDelta(t, 0.4761905, report.R2.Value, 1e-6)
}

func TestEvaluate_PerfectForecast(t *testing.T) {
	pairs := forecastPairs(
		[2]float64{0.02, 0.02},
		[2]float64{-0.01, -0.01},
		[2]float64{0.04, 0.04},
	)

	report, err := Evaluate("v1", pairs)
	require.NoError(t, err)

	assert.Zero(t, report.MAE)
	assert.Zero(t, report.RMSE)
	assert.Zero(t, report.MeanError)
	assert.InDelta(t, 1.0, report.HitRate, 1e-12)
	require.True(t, report.R2.Defined)
	assert.InDelta(t, 1.0, report.R2.Value, 1e-12)
}

func TestEvaluate_MAPESkipsZeroActuals(t *testing.T) {
	pairs := forecastPairs(
		[2]float64{0.02, 0.0}, // actual=0 → MAPE에서 제외
		[2]float64{0.01, 0.02},
	)

	report, err := Evaluate("v1", pairs)
	require.NoError(t, err)

	assert.Equal(t, 1, report.MAPESkipped)
	// 남은 쌍만: |0.01/0.02| = 0.5
	assert.InDelta(t, 0.5, report.MAPE, 1e-12)
}

func TestEvaluate_AllZeroActuals(t *testing.T) {
	pairs := forecastPairs(
		[2]float64{0.02, 0.0},
		[2]float64{-0.01, 0.0},
	)

	report, err := Evaluate("v1", pairs)
	require.NoError(t, err)

	assert.Equal(t, 2, report.MAPESkipped)
	assert.Zero(t, report.MAPE)
	// 실제값 분산 0 → R² 미정의
	assert.False(t, report.R2.Defined)
}

func TestEvaluate_R2DegenerateConstantActuals(t *testing.T) {
	pairs := forecastPairs(
		[2]float64{0.01, 0.02},
		[2]float64{0.03, 0.02},
		[2]float64{0.02, 0.02},
	)

	report, err := Evaluate("v1", pairs)
	require.NoError(t, err)

	assert.False(t, report.R2.Defined)
	assert.Greater(t, report.MAE, 0.0)
}

func TestEvaluate_Empty(t *testing.T) {
	_, err := Evaluate("v1", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, risk.ErrInsufficientData))
}
