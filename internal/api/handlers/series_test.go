package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/risk"
	"github.com/wonny/horizon/backend/pkg/logger"
)

func TestResolveSeries_InlinePoints(t *testing.T) {
	ref := SeriesRef{
		Name: "revenue",
		Points: []PointRequest{
			{Timestamp: "2026-01-03", Value: 101},
			{Timestamp: "2026-01-02", Value: 100},
			{Timestamp: "2026-01-04T10:30:00Z", Value: 102},
		},
	}

	s, err := resolveSeries(context.Background(), nil, ref)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	// 정렬 후 생성
	assert.Equal(t, "revenue", s.Name)
	assert.Equal(t, 100.0, s.Points[0].Value)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), s.Points[0].Timestamp)
	assert.Equal(t, 102.0, s.Points[2].Value)
}

func TestResolveSeries_Errors(t *testing.T) {
	tests := []struct {
		name string
		ref  SeriesRef
	}{
		{
			name: "no points and no dataset",
			ref:  SeriesRef{Name: "empty"},
		},
		{
			name: "inline without name",
			ref:  SeriesRef{Points: []PointRequest{{Timestamp: "2026-01-02", Value: 1}}},
		},
		{
			name: "bad timestamp",
			ref: SeriesRef{Name: "bad", Points: []PointRequest{
				{Timestamp: "01/02/2026", Value: 1},
			}},
		},
		{
			name: "duplicate timestamps",
			ref: SeriesRef{Name: "dup", Points: []PointRequest{
				{Timestamp: "2026-01-02", Value: 1},
				{Timestamp: "2026-01-02", Value: 2},
			}},
		},
		{
			name: "dataset ref without repository",
			ref:  SeriesRef{Dataset: "stored"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveSeries(context.Background(), nil, tt.ref)
			require.Error(t, err)
			assert.ErrorIs(t, err, risk.ErrInvalidConfig)
		})
	}
}

func TestStatsConfigRequest_Resolve(t *testing.T) {
	defaults := risk.DefaultStatsConfig()

	// nil → 기본값 그대로
	var nilReq *StatsConfigRequest
	assert.Equal(t, defaults, nilReq.resolve(defaults))

	// 부분 오버레이: 명시된 필드만 교체
	rf := 0.0
	annualize := false
	req := &StatsConfigRequest{
		ConfidenceLevels: []float64{0.90},
		RiskFreeRate:     &rf,
		Annualize:        &annualize,
	}
	resolved := req.resolve(defaults)

	assert.Equal(t, []float64{0.90}, resolved.ConfidenceLevels)
	assert.Equal(t, 0.0, resolved.RiskFreeRate)
	assert.False(t, resolved.Annualize)
	assert.Equal(t, defaults.PeriodsPerYear, resolved.PeriodsPerYear)
	assert.Equal(t, defaults.VaRMethod, resolved.VaRMethod)
}

func TestSimulationConfigRequest_Resolve(t *testing.T) {
	defaults := risk.DefaultMonteCarloConfig()

	var nilReq *SimulationConfigRequest
	assert.Equal(t, defaults, nilReq.resolve(defaults))

	req := &SimulationConfigRequest{
		NumPaths: 500,
		Seed:     42,
		Method:   "historical_bootstrap",
	}
	resolved := req.resolve(defaults)

	assert.Equal(t, 500, resolved.NumPaths)
	assert.Equal(t, int64(42), resolved.Seed)
	assert.Equal(t, risk.MethodHistoricalBootstrap, resolved.Method)
	assert.Equal(t, defaults.Horizon, resolved.Horizon)
	assert.Equal(t, defaults.Bands, resolved.Bands)
	assert.Equal(t, defaults.MinSamples, resolved.MinSamples)
}

func TestSimulationConfigRequest_ResolveNegativesReachValidation(t *testing.T) {
	defaults := risk.DefaultMonteCarloConfig()

	// 음수는 기본값으로 대체되지 않고 그대로 통과해 검증에서 거부되어야 함
	req := &SimulationConfigRequest{NumPaths: -5, Horizon: -3}
	resolved := req.resolve(defaults)

	assert.Equal(t, -5, resolved.NumPaths)
	assert.Equal(t, -3, resolved.Horizon)

	err := risk.ValidateMonteCarloConfig(resolved)
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrInvalidConfig)

	workers := &SimulationConfigRequest{Workers: -1}
	err = risk.ValidateMonteCarloConfig(workers.resolve(defaults))
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrInvalidConfig)
}

func TestParseReturnType(t *testing.T) {
	rt, err := parseReturnType("", risk.ReturnLog)
	require.NoError(t, err)
	assert.Equal(t, risk.ReturnLog, rt)

	rt, err = parseReturnType("simple", risk.ReturnLog)
	require.NoError(t, err)
	assert.Equal(t, risk.ReturnSimple, rt)

	_, err = parseReturnType("geometric", risk.ReturnSimple)
	require.Error(t, err)
	assert.ErrorIs(t, err, risk.ErrInvalidConfig)
}

func TestRespondDomainError_StatusMapping(t *testing.T) {
	log := logger.NewNop()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid config", fmt.Errorf("wrap: %w", risk.ErrInvalidConfig), 400},
		{"degenerate value", fmt.Errorf("wrap: %w", risk.ErrDegenerateValue), 400},
		{"alignment", fmt.Errorf("wrap: %w", risk.ErrAlignment), 400},
		{"insufficient data", fmt.Errorf("wrap: %w", risk.ErrInsufficientData), 422},
		{"dataset not found", fmt.Errorf("wrap: %w", dataset.ErrNotFound), 404},
		{"unknown", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondDomainError(rec, log, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
