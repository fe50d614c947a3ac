package risk

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dailyPoints 일 단위 타임스탬프로 시계열 포인트 생성
func dailyPoints(start time.Time, values ...float64) []Point {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Timestamp: start.AddDate(0, 0, i), Value: v}
	}
	return points
}

func testBase() time.Time {
	return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
}

func TestNewSeries(t *testing.T) {
	base := testBase()

	t.Run("valid ascending timestamps", func(t *testing.T) {
		s, err := NewSeries("revenue", dailyPoints(base, 100, 105, 103))
		require.NoError(t, err)
		assert.Equal(t, "revenue", s.Name)
		assert.Equal(t, 3, s.Len())
	})

	t.Run("empty series constructs", func(t *testing.T) {
		s, err := NewSeries("empty", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("duplicate timestamp rejected", func(t *testing.T) {
		points := []Point{
			{Timestamp: base, Value: 100},
			{Timestamp: base, Value: 105},
		}
		_, err := NewSeries("dup", points)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("descending timestamp rejected", func(t *testing.T) {
		points := []Point{
			{Timestamp: base.AddDate(0, 0, 1), Value: 100},
			{Timestamp: base, Value: 105},
		}
		_, err := NewSeries("unordered", points)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})
}

func TestSeriesReturns_KnownVector(t *testing.T) {
	// [100, 105, 103, 108] → [0.05, -0.01904762, 0.04854369]
	s, err := NewSeries("revenue", dailyPoints(testBase(), 100, 105, 103, 108))
	require.NoError(t, err)

	returns, err := s.Returns(ReturnSimple)
	require.NoError(t, err)
	require.Len(t, returns, 3)

	assert.InDelta(t, 0.05, returns[0], 1e-8)
	assert.InDelta(t, -0.01904762, returns[1], 1e-8)
	assert.InDelta(t, 0.04854369, returns[2], 1e-8)
}

func TestSeriesReturns_Log(t *testing.T) {
	s, err := NewSeries("price", dailyPoints(testBase(), 100, 105))
	require.NoError(t, err)

	returns, err := s.Returns(ReturnLog)
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.InDelta(t, math.Log(1.05), returns[0], 1e-12)

	// log 수익률은 양수 값만 허용
	neg, err := NewSeries("neg", dailyPoints(testBase(), 100, -5))
	require.NoError(t, err)
	_, err = neg.Returns(ReturnLog)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateValue))
}

func TestSeriesReturns_Errors(t *testing.T) {
	base := testBase()

	tests := []struct {
		name       string
		values     []float64
		returnType ReturnType
		wantErr    error
	}{
		{
			name:       "empty series",
			values:     nil,
			returnType: ReturnSimple,
			wantErr:    ErrInsufficientData,
		},
		{
			name:       "single observation",
			values:     []float64{100},
			returnType: ReturnSimple,
			wantErr:    ErrInsufficientData,
		},
		{
			name:       "zero denominator",
			values:     []float64{0, 100},
			returnType: ReturnSimple,
			wantErr:    ErrDegenerateValue,
		},
		{
			name:       "unknown return type",
			values:     []float64{100, 105},
			returnType: ReturnType("exotic"),
			wantErr:    ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSeries(tt.name, dailyPoints(base, tt.values...))
			require.NoError(t, err)

			_, err = s.Returns(tt.returnType)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestCheckAlignment(t *testing.T) {
	base := testBase()

	a, err := NewSeries("a", dailyPoints(base, 100, 105, 103))
	require.NoError(t, err)
	b, err := NewSeries("b", dailyPoints(base, 200, 210, 205))
	require.NoError(t, err)

	t.Run("aligned pair", func(t *testing.T) {
		assert.NoError(t, CheckAlignment([]Series{a, b}))
	})

	t.Run("single series always aligned", func(t *testing.T) {
		assert.NoError(t, CheckAlignment([]Series{a}))
	})

	t.Run("length mismatch", func(t *testing.T) {
		short, err := NewSeries("short", dailyPoints(base, 100, 105))
		require.NoError(t, err)

		err = CheckAlignment([]Series{a, short})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAlignment))
	})

	t.Run("timestamp mismatch with equal lengths", func(t *testing.T) {
		shifted, err := NewSeries("shifted", dailyPoints(base.AddDate(0, 0, 1), 100, 105, 103))
		require.NoError(t, err)

		err = CheckAlignment([]Series{a, shifted})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAlignment))
	})
}
