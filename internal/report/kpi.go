package report

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/horizon/backend/internal/risk"
)

// =============================================================================
// KPI Report Calculation
// =============================================================================

// KPIInput KPI 보고서 계산 입력
// Revenue는 필수, 나머지 시계열은 Len()==0이면 생략으로 간주.
// 존재하는 시계열은 모두 Revenue와 정렬되어야 함 (타임스탬프 일치).
type KPIInput struct {
	Dataset          string          // 보고서 키 (비면 Revenue.Name 사용)
	Revenue          risk.Series     // 기간별 매출 (필수)
	OperatingExpense risk.Series     // 영업비용 (선택)
	TotalExpense     risk.Series     // 총비용 (선택)
	Budget           risk.Series     // 예산 (선택)
	PeriodsPerYear   int             // 연환산 계수 (월간=12)
	RiskFreeRate     float64         // 연간 무위험 수익률
	Accuracy         *AccuracyReport // 예측 정확도 연계 (선택)
}

// KPIReport KPI 보고서
// 마진은 보고 구간 전체 합계 기준 (단일 기간 노이즈 배제)
type KPIReport struct {
	Dataset         string           `json:"dataset"`
	Period          string           `json:"period"` // 구간 종료 월 (YYYY-MM), 업서트 키
	PeriodStart     time.Time        `json:"period_start"`
	PeriodEnd       time.Time        `json:"period_end"`
	SampleCount     int              `json:"sample_count"`
	RevenueGrowth   float64          `json:"revenue_growth"` // 연환산 CAGR
	LatestGrowth    float64          `json:"latest_growth"`  // 직전 기간 대비
	OperatingMargin *float64         `json:"operating_margin,omitempty"`
	NetMargin       *float64         `json:"net_margin,omitempty"`
	BudgetVariance  *float64         `json:"budget_variance,omitempty"`
	RiskAdjusted    risk.RatioResult `json:"risk_adjusted_return"` // 매출 수익률의 Sharpe
	Accuracy        *AccuracyReport  `json:"forecast_accuracy,omitempty"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// CalculateKPI 정렬된 기간 시계열에서 KPI 보고서 계산
// 분모가 0이 되는 경우는 ErrDegenerateValue로 실패하고 기본값으로 대체하지 않는다.
func CalculateKPI(input KPIInput) (*KPIReport, error) {
	revenue := input.Revenue
	if revenue.Len() < 2 {
		return nil, fmt.Errorf("%w: revenue series needs at least 2 periods, got %d",
			risk.ErrInsufficientData, revenue.Len())
	}

	periodsPerYear := input.PeriodsPerYear
	if periodsPerYear < 1 {
		periodsPerYear = 12
	}

	// 존재하는 시계열은 모두 매출과 정렬되어야 함
	aligned := []risk.Series{revenue}
	for _, s := range []risk.Series{input.OperatingExpense, input.TotalExpense, input.Budget} {
		if s.Len() > 0 {
			aligned = append(aligned, s)
		}
	}
	if err := risk.CheckAlignment(aligned); err != nil {
		return nil, err
	}

	dataset := input.Dataset
	if dataset == "" {
		dataset = revenue.Name
	}

	first := revenue.Points[0].Value
	last := revenue.Points[revenue.Len()-1].Value
	prev := revenue.Points[revenue.Len()-2].Value

	// 매출 성장률: 연환산 CAGR + 직전 기간 대비
	if first <= 0 || last <= 0 {
		return nil, fmt.Errorf("%w: revenue growth requires positive first/last values (%.2f, %.2f)",
			risk.ErrDegenerateValue, first, last)
	}
	periods := float64(revenue.Len() - 1)
	cagr := math.Pow(last/first, float64(periodsPerYear)/periods) - 1

	if prev == 0 {
		return nil, fmt.Errorf("%w: previous period revenue is zero", risk.ErrDegenerateValue)
	}
	latestGrowth := (last - prev) / prev

	report := &KPIReport{
		Dataset:       dataset,
		Period:        revenue.Points[revenue.Len()-1].Timestamp.Format("2006-01"),
		PeriodStart:   revenue.Points[0].Timestamp,
		PeriodEnd:     revenue.Points[revenue.Len()-1].Timestamp,
		SampleCount:   revenue.Len(),
		RevenueGrowth: cagr,
		LatestGrowth:  latestGrowth,
		Accuracy:      input.Accuracy,
		GeneratedAt:   time.Now(),
	}

	totalRevenue := sumValues(revenue)

	// 영업마진 = (매출 - 영업비용) / 매출
	if input.OperatingExpense.Len() > 0 {
		if totalRevenue == 0 {
			return nil, fmt.Errorf("%w: operating margin requires nonzero revenue", risk.ErrDegenerateValue)
		}
		m := (totalRevenue - sumValues(input.OperatingExpense)) / totalRevenue
		report.OperatingMargin = &m
	}

	// 순마진 = (매출 - 총비용) / 매출
	if input.TotalExpense.Len() > 0 {
		if totalRevenue == 0 {
			return nil, fmt.Errorf("%w: net margin requires nonzero revenue", risk.ErrDegenerateValue)
		}
		m := (totalRevenue - sumValues(input.TotalExpense)) / totalRevenue
		report.NetMargin = &m
	}

	// 예산 편차 = (실적 - 예산) / 예산
	if input.Budget.Len() > 0 {
		totalBudget := sumValues(input.Budget)
		if totalBudget == 0 {
			return nil, fmt.Errorf("%w: budget variance requires nonzero budget", risk.ErrDegenerateValue)
		}
		v := (totalRevenue - totalBudget) / totalBudget
		report.BudgetVariance = &v
	}

	// 위험조정수익률: 매출 수익률의 Sharpe (연환산)
	returns, err := revenue.Returns(risk.ReturnSimple)
	if err != nil {
		return nil, fmt.Errorf("revenue returns: %w", err)
	}
	report.RiskAdjusted = risk.CalculateSharpe(returns, input.RiskFreeRate, periodsPerYear, true)

	return report, nil
}

func sumValues(s risk.Series) float64 {
	var sum float64
	for _, p := range s.Points {
		sum += p.Value
	}
	return sum
}

// ToSummary 콘솔 출력용 요약 생성
func (r *KPIReport) ToSummary() string {
	summary := "=== KPI Report ===\n"
	summary += fmt.Sprintf("Dataset: %s\n", r.Dataset)
	summary += fmt.Sprintf("Period: %s (%s → %s, %d periods)\n\n",
		r.Period, r.PeriodStart.Format("2006-01-02"), r.PeriodEnd.Format("2006-01-02"), r.SampleCount)

	summary += "💰 Growth\n"
	summary += fmt.Sprintf("  Revenue Growth (CAGR): %.2f%%\n", r.RevenueGrowth*100)
	summary += fmt.Sprintf("  Latest Period Growth: %.2f%%\n", r.LatestGrowth*100)

	if r.OperatingMargin != nil || r.NetMargin != nil || r.BudgetVariance != nil {
		summary += "\n📈 Margins\n"
		if r.OperatingMargin != nil {
			summary += fmt.Sprintf("  Operating Margin: %.2f%%\n", *r.OperatingMargin*100)
		}
		if r.NetMargin != nil {
			summary += fmt.Sprintf("  Net Margin: %.2f%%\n", *r.NetMargin*100)
		}
		if r.BudgetVariance != nil {
			summary += fmt.Sprintf("  Budget Variance: %.2f%%\n", *r.BudgetVariance*100)
		}
	}

	summary += "\n⚖️ Risk-Adjusted Return\n"
	if r.RiskAdjusted.Defined {
		summary += fmt.Sprintf("  Sharpe (revenue returns): %.4f\n", r.RiskAdjusted.Value)
	} else {
		summary += "  Sharpe: undefined (zero volatility)\n"
	}

	if r.Accuracy != nil {
		summary += "\n🎯 Forecast Accuracy\n"
		summary += fmt.Sprintf("  Samples: %d\n", r.Accuracy.SampleCount)
		summary += fmt.Sprintf("  MAE: %.4f  RMSE: %.4f\n", r.Accuracy.MAE, r.Accuracy.RMSE)
		summary += fmt.Sprintf("  Hit Rate: %.2f%%\n", r.Accuracy.HitRate*100)
	}

	return summary
}
