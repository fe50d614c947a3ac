package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tailSample VaR 테스트용 100개 수익률: 손실 5개 + 0 + 이익 94개
func tailSample() []float64 {
	returns := []float64{-0.10, -0.08, -0.06, -0.04, -0.02, 0.0}
	for i := 0; i < 94; i++ {
		returns = append(returns, 0.01)
	}
	return returns
}

func TestCalculateVaR_HistoricalInterpolation(t *testing.T) {
	returns := tailSample()

	t.Run("95% confidence", func(t *testing.T) {
		// 위치 0.05*99=4.95 → sorted[4]=-0.02와 sorted[5]=0.0 사이 보간
		result, err := CalculateVaR(returns, 0.95)
		require.NoError(t, err)

		assert.InDelta(t, 0.001, result.VaR, 1e-9)
		// tail = 최악 5개 평균: -0.30/5 = -0.06
		assert.InDelta(t, 0.06, result.CVaR, 1e-9)
		assert.Equal(t, 5, result.TailSamples)
		assert.InDelta(t, 0.95, result.Confidence, 1e-12)
	})

	t.Run("99% confidence", func(t *testing.T) {
		// 위치 0.01*99=0.99 → sorted[0]=-0.10과 sorted[1]=-0.08 사이 보간
		result, err := CalculateVaR(returns, 0.99)
		require.NoError(t, err)

		assert.InDelta(t, 0.0802, result.VaR, 1e-9)
		assert.InDelta(t, 0.10, result.CVaR, 1e-9)
		assert.Equal(t, 1, result.TailSamples)
	})
}

func TestCalculateVaR_MonotonicInConfidence(t *testing.T) {
	returns := tailSample()

	confidences := []float64{0.90, 0.95, 0.975, 0.99}
	prev := -1.0
	for _, c := range confidences {
		result, err := CalculateVaR(returns, c)
		require.NoError(t, err, "confidence %.3f", c)
		assert.GreaterOrEqual(t, result.VaR, prev,
			"VaR must be non-decreasing in confidence (c=%.3f)", c)
		prev = result.VaR
	}
}

func TestCalculateVaR_CVaRDominatesVaR(t *testing.T) {
	returns := tailSample()

	for _, c := range []float64{0.90, 0.95} {
		result, err := CalculateVaR(returns, c)
		require.NoError(t, err)
		require.GreaterOrEqual(t, result.TailSamples, 2)
		assert.GreaterOrEqual(t, result.CVaR, result.VaR,
			"CVaR magnitude must dominate VaR at c=%.2f", c)
	}
}

func TestCalculateVaR_ProfitableQuantileFloorsAtZero(t *testing.T) {
	// 손실 없는 표본: 분위수가 이익이면 VaR/CVaR 모두 0
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = 0.01
	}

	result, err := CalculateVaR(returns, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 0, result.VaR, 1e-12)
	assert.InDelta(t, 0, result.CVaR, 1e-12)
}

func TestCalculateVaR_EmptyTail(t *testing.T) {
	// 3개 관측치, 95% → floor(0.05*3)=0 → CVaR tail 없음
	_, err := CalculateVaR([]float64{0.05, -0.019, 0.048}, 0.95)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestCalculateHistoricalVaR_SmallSample(t *testing.T) {
	// [100,105,103,108]의 수익률: CVaR tail이 비어도 VaR 분위수 자체는 정의됨
	s, err := NewSeries("prices", dailyPoints(testBase(), 100, 105, 103, 108))
	require.NoError(t, err)
	returns, err := s.Returns(ReturnSimple)
	require.NoError(t, err)

	// 위치 0.05*2=0.1 → 최악 수익률 -0.0190476에 0.9 가중
	varValue, err := CalculateHistoricalVaR(returns, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 0.0122885, varValue, 1e-6)
}

func TestCalculateVaR_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		returns    []float64
		confidence float64
		wantErr    error
	}{
		{name: "confidence zero", returns: tailSample(), confidence: 0, wantErr: ErrInvalidConfig},
		{name: "confidence one", returns: tailSample(), confidence: 1, wantErr: ErrInvalidConfig},
		{name: "confidence negative", returns: tailSample(), confidence: -0.95, wantErr: ErrInvalidConfig},
		{name: "confidence above one", returns: tailSample(), confidence: 1.5, wantErr: ErrInvalidConfig},
		{name: "empty returns", returns: nil, confidence: 0.95, wantErr: ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateVaR(tt.returns, tt.confidence)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)

			_, err = CalculateHistoricalVaR(tt.returns, tt.confidence)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestCalculateParametricVaR(t *testing.T) {
	t.Run("z fast path at 95%", func(t *testing.T) {
		// VaR = 1.645*0.02 - 0 = 0.0329
		result, err := CalculateParametricVaR(0, 0.02, 0.95)
		require.NoError(t, err)
		assert.InDelta(t, 0.0329, result.VaR, 1e-9)
		// ES = 0.02*φ(1.645)/0.05 ≈ 0.041244
		assert.InDelta(t, 0.041244, result.CVaR, 1e-5)
		assert.Greater(t, result.CVaR, result.VaR)
	})

	t.Run("positive mean reduces loss", func(t *testing.T) {
		result, err := CalculateParametricVaR(0.01, 0.02, 0.95)
		require.NoError(t, err)
		assert.InDelta(t, 0.0229, result.VaR, 1e-9)
	})

	t.Run("large mean floors at zero", func(t *testing.T) {
		result, err := CalculateParametricVaR(0.5, 0.02, 0.95)
		require.NoError(t, err)
		assert.InDelta(t, 0, result.VaR, 1e-12)
		assert.InDelta(t, 0, result.CVaR, 1e-12)
	})

	t.Run("negative stddev rejected", func(t *testing.T) {
		_, err := CalculateParametricVaR(0, -0.02, 0.95)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("confidence out of range rejected", func(t *testing.T) {
		_, err := CalculateParametricVaR(0, 0.02, 1.0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})
}

func TestNormInv(t *testing.T) {
	t.Run("fast paths", func(t *testing.T) {
		assert.InDelta(t, 1.645, NormInv(0.95), 1e-12)
		assert.InDelta(t, 2.326, NormInv(0.99), 1e-12)
		assert.InDelta(t, 1.282, NormInv(0.90), 1e-12)
		assert.InDelta(t, 1.96, NormInv(0.975), 1e-12)
	})

	t.Run("median is zero", func(t *testing.T) {
		assert.InDelta(t, 0, NormInv(0.5), 1e-12)
	})

	t.Run("symmetry", func(t *testing.T) {
		assert.InDelta(t, -NormInv(0.7), NormInv(0.3), 1e-9)
	})

	t.Run("lower tail", func(t *testing.T) {
		assert.InDelta(t, -2.326, NormInv(0.01), 1e-3)
	})

	t.Run("out of domain returns zero", func(t *testing.T) {
		assert.Equal(t, 0.0, NormInv(0))
		assert.Equal(t, 0.0, NormInv(1))
	})
}

func TestNormPDF(t *testing.T) {
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), NormPDF(0), 1e-12)
	assert.InDelta(t, NormPDF(1.5), NormPDF(-1.5), 1e-12)
}
