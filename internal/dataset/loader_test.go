package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/horizon/backend/internal/risk"
)

func TestLoadCSV_WithHeader(t *testing.T) {
	input := strings.Join([]string{
		"timestamp,value,category",
		"2026-01-02,100.5,revenue",
		"2026-01-03,101.25,expense",
		"2026-01-04,102.0,",
	}, "\n")

	observations, err := LoadCSV(strings.NewReader(input), CategoryCustom)
	require.NoError(t, err)
	require.Len(t, observations, 3)

	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), observations[0].Timestamp)
	assert.Equal(t, 100.5, observations[0].Value)
	assert.Equal(t, CategoryRevenue, observations[0].Category)
	assert.Equal(t, CategoryExpense, observations[1].Category)

	// 분류 열이 비면 기본 분류
	assert.Equal(t, CategoryCustom, observations[2].Category)
}

func TestLoadCSV_WithoutHeader(t *testing.T) {
	input := "2026-01-02,100\n2026-01-03,101\n"

	observations, err := LoadCSV(strings.NewReader(input), CategoryPrice)
	require.NoError(t, err)
	require.Len(t, observations, 2)

	assert.Equal(t, CategoryPrice, observations[0].Category)
	assert.Equal(t, 100.0, observations[0].Value)
	assert.Equal(t, 101.0, observations[1].Value)
}

func TestLoadCSV_RFC3339Timestamps(t *testing.T) {
	input := strings.Join([]string{
		"2026-01-02T09:30:00Z,100",
		"2026-01-02T16:00:00+09:00,101",
	}, "\n")

	observations, err := LoadCSV(strings.NewReader(input), CategoryCustom)
	require.NoError(t, err)
	require.Len(t, observations, 2)

	assert.Equal(t, time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC), observations[0].Timestamp.UTC())
	assert.Equal(t, time.Date(2026, 1, 2, 7, 0, 0, 0, time.UTC), observations[1].Timestamp.UTC())
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  error
		contains string
	}{
		{
			name:     "invalid value",
			input:    "2026-01-02,abc\n",
			wantErr:  risk.ErrInvalidConfig,
			contains: "line 1",
		},
		{
			name:     "invalid timestamp past header",
			input:    "2026-01-02,100\nnot-a-date,101\n",
			wantErr:  risk.ErrInvalidConfig,
			contains: "line 2",
		},
		{
			name:     "missing value column",
			input:    "2026-01-02,100\n2026-01-03\n",
			wantErr:  risk.ErrInvalidConfig,
			contains: "line 2",
		},
		{
			name:     "unknown category",
			input:    "2026-01-02,100,profit\n",
			wantErr:  risk.ErrInvalidConfig,
			contains: "unknown category",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: risk.ErrInsufficientData,
		},
		{
			name:    "header only",
			input:   "timestamp,value\n",
			wantErr: risk.ErrInsufficientData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.input), CategoryCustom)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestLoadCSV_WhitespaceTolerance(t *testing.T) {
	input := "2026-01-02, 100.5 , revenue\n"

	observations, err := LoadCSV(strings.NewReader(input), CategoryCustom)
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, 100.5, observations[0].Value)
	assert.Equal(t, CategoryRevenue, observations[0].Category)
}
