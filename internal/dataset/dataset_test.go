package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/horizon/backend/internal/risk"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{"revenue", CategoryRevenue, false},
		{"expense", CategoryExpense, false},
		{"cash_flow", CategoryCashFlow, false},
		{"price", CategoryPrice, false},
		{"custom", CategoryCustom, false},
		{"REVENUE", CategoryRevenue, false},
		{"", CategoryCustom, false},
		{"profit", "", true},
	}

	for _, tt := range tests {
		t.Run("input="+tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, risk.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeriesFromObservations_SortsByTimestamp(t *testing.T) {
	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	observations := []Observation{
		{Timestamp: base.AddDate(0, 0, 2), Value: 102},
		{Timestamp: base, Value: 100},
		{Timestamp: base.AddDate(0, 0, 1), Value: 101},
	}

	s, err := SeriesFromObservations("revenue", observations)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	assert.Equal(t, base, s.Points[0].Timestamp)
	assert.Equal(t, 100.0, s.Points[0].Value)
	assert.Equal(t, 102.0, s.Points[2].Value)
}

func TestSeriesFromObservations_DuplicateTimestamps(t *testing.T) {
	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	observations := []Observation{
		{Timestamp: base, Value: 100},
		{Timestamp: base, Value: 200},
	}

	_, err := SeriesFromObservations("revenue", observations)
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrInvalidConfig)
}

func TestMixedCategoryError(t *testing.T) {
	seen := map[Category]struct{}{
		CategoryExpense: {},
		CategoryRevenue: {},
	}

	err := mixedCategoryError("acme-financials", seen)
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrInvalidConfig)

	// 분류 목록은 정렬되어 안내되고, 분류 지정을 요구해야 함
	assert.Contains(t, err.Error(), "expense, revenue")
	assert.Contains(t, err.Error(), "pass a category")
}

func TestSeriesFromObservations_Empty(t *testing.T) {
	_, err := SeriesFromObservations("revenue", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrInsufficientData)
}
