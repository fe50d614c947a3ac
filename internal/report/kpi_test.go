package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/horizon/backend/internal/risk"
)

// monthlySeries 월간 시계열 생성 헬퍼 (매월 1일)
func monthlySeries(t *testing.T, name string, values ...float64) risk.Series {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]risk.Point, len(values))
	for i, v := range values {
		points[i] = risk.Point{Timestamp: base.AddDate(0, i, 0), Value: v}
	}
	s, err := risk.NewSeries(name, points)
	require.NoError(t, err)
	return s
}

func TestCalculateKPI_GrowthAndMargins(t *testing.T) {
	input := KPIInput{
		Dataset:          "acme",
		Revenue:          monthlySeries(t, "revenue", 100, 110, 121),
		OperatingExpense: monthlySeries(t, "opex", 50, 55, 60.5),
		TotalExpense:     monthlySeries(t, "total_expense", 80, 88, 96.8),
		Budget:           monthlySeries(t, "budget", 100, 105, 115),
		PeriodsPerYear:   12,
		RiskFreeRate:     0.03,
	}

	report, err := CalculateKPI(input)
	require.NoError(t, err)

	assert.Equal(t, "acme", report.Dataset)
	assert.Equal(t, "2026-03", report.Period)
	assert.Equal(t, 3, report.SampleCount)

	// 월 10% 성장 → CAGR = 1.21^(12/2) - 1
	assert.InDelta(t, 2.1384284, report.RevenueGrowth, 1e-6)
	assert.InDelta(t, 0.10, report.LatestGrowth, 1e-12)

	// 구간 합계 기준: Σrev=331, Σopex=165.5, Σtotal=264.8, Σbudget=320
	require.NotNil(t, report.OperatingMargin)
	assert.InDelta(t, 0.5, *report.OperatingMargin, 1e-12)
	require.NotNil(t, report.NetMargin)
	assert.InDelta(t, 0.2, *report.NetMargin, 1e-12)
	require.NotNil(t, report.BudgetVariance)
	assert.InDelta(t, 0.034375, *report.BudgetVariance, 1e-12)

	// 일정한 10% 성장 → 수익률 변동성 0 → Sharpe 미정의
	assert.False(t, report.RiskAdjusted.Defined)
}

func TestCalculateKPI_RiskAdjustedDefined(t *testing.T) {
	input := KPIInput{
		Revenue: monthlySeries(t, "revenue", 100, 110, 105, 120),
	}

	report, err := CalculateKPI(input)
	require.NoError(t, err)

	// Dataset 미지정 → Revenue.Name
	assert.Equal(t, "revenue", report.Dataset)

	// (120/100)^(12/3) - 1 = 1.2^4 - 1
	assert.InDelta(t, 1.0736, report.RevenueGrowth, 1e-9)
	assert.InDelta(t, 15.0/105.0, report.LatestGrowth, 1e-12)

	// 변동성 있는 수익률 → Sharpe 정의됨
	assert.True(t, report.RiskAdjusted.Defined)

	// 비용/예산 시계열 없음 → 해당 섹션 생략
	assert.Nil(t, report.OperatingMargin)
	assert.Nil(t, report.NetMargin)
	assert.Nil(t, report.BudgetVariance)
	assert.Nil(t, report.Accuracy)
}

func TestCalculateKPI_AccuracyCarriedThrough(t *testing.T) {
	accuracy := &AccuracyReport{ModelVersion: "v2", SampleCount: 12, MAE: 0.02, HitRate: 0.75}

	input := KPIInput{
		Revenue:  monthlySeries(t, "revenue", 100, 110, 105, 120),
		Accuracy: accuracy,
	}

	report, err := CalculateKPI(input)
	require.NoError(t, err)
	require.NotNil(t, report.Accuracy)
	assert.Equal(t, "v2", report.Accuracy.ModelVersion)
}

func TestCalculateKPI_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   KPIInput
		wantErr error
	}{
		{
			name:    "single period",
			input:   KPIInput{Revenue: monthlySeries(t, "revenue", 100)},
			wantErr: risk.ErrInsufficientData,
		},
		{
			name:    "zero first revenue",
			input:   KPIInput{Revenue: monthlySeries(t, "revenue", 0, 100, 120)},
			wantErr: risk.ErrDegenerateValue,
		},
		{
			name:    "negative last revenue",
			input:   KPIInput{Revenue: monthlySeries(t, "revenue", 100, 50, -20)},
			wantErr: risk.ErrDegenerateValue,
		},
		{
			name:    "zero previous period revenue",
			input:   KPIInput{Revenue: monthlySeries(t, "revenue", 100, 0, 50)},
			wantErr: risk.ErrDegenerateValue,
		},
		{
			name: "zero total budget",
			input: KPIInput{
				Revenue: monthlySeries(t, "revenue", 100, 110, 121),
				Budget:  monthlySeries(t, "budget", 50, -50, 0),
			},
			wantErr: risk.ErrDegenerateValue,
		},
		{
			name: "zero total revenue for margin",
			input: KPIInput{
				Revenue:          monthlySeries(t, "revenue", 100, -260, 160),
				OperatingExpense: monthlySeries(t, "opex", 10, 10, 10),
			},
			wantErr: risk.ErrDegenerateValue,
		},
		{
			name: "misaligned expense series",
			input: KPIInput{
				Revenue:          monthlySeries(t, "revenue", 100, 110, 121),
				OperatingExpense: monthlySeries(t, "opex", 50, 55),
			},
			wantErr: risk.ErrAlignment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateKPI(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestKPIReport_ToSummary(t *testing.T) {
	input := KPIInput{
		Revenue:          monthlySeries(t, "revenue", 100, 110, 121),
		OperatingExpense: monthlySeries(t, "opex", 50, 55, 60.5),
	}

	report, err := CalculateKPI(input)
	require.NoError(t, err)

	summary := report.ToSummary()
	assert.Contains(t, summary, "KPI Report")
	assert.Contains(t, summary, "Revenue Growth")
	assert.Contains(t, summary, "Operating Margin")
	assert.Contains(t, summary, "undefined") // 일정 성장 → Sharpe 미정의
}
