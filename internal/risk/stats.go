package risk

import (
	"fmt"
	"math"
	"sort"
)

// =============================================================================
// 기초 통계 유틸리티
// =============================================================================

// Mean 평균 계산
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev 표본 표준편차 계산 (N-1, 금융 관례)
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// Percentile 백분위수 계산 (정렬된 배열, 선형 보간)
// p는 0~100 스케일. 위치 = p/100 * (n-1), 이웃 순서통계량 사이 선형 보간
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// =============================================================================
// 비율 지표 (Sharpe / Sortino)
// =============================================================================

// CalculateSharpe Sharpe 비율 계산
// rf는 연간 무위험 수익률 (주기 수익률로 환산), 초과수익 평균을 변동성으로 나눔
// annualize=true면 sqrt(periodsPerYear) 배율 적용 (표준 연환산 관례)
// ⭐ 변동성 0이면 Defined=false 반환 (오류가 아니라 보고 가능한 경계 케이스)
func CalculateSharpe(returns []float64, riskFreeRate float64, periodsPerYear int, annualize bool) RatioResult {
	vol := StdDev(returns)
	if vol == 0 {
		return Undefined()
	}

	rfPerPeriod := riskFreeRate / float64(periodsPerYear)
	excess := Mean(returns) - rfPerPeriod

	sharpe := excess / vol
	if annualize {
		sharpe *= math.Sqrt(float64(periodsPerYear))
	}
	return DefinedRatio(sharpe)
}

// CalculateSortino Sortino 비율 계산 (하방 편차만 분모로 사용)
// 하방 편차 0이면 Defined=false (손실 없음 → 비율 정의 불가)
func CalculateSortino(returns []float64, riskFreeRate float64, periodsPerYear int, annualize bool) RatioResult {
	if len(returns) < 2 {
		return Undefined()
	}

	rfPerPeriod := riskFreeRate / float64(periodsPerYear)

	var downsideSumSq float64
	for _, r := range returns {
		if diff := r - rfPerPeriod; diff < 0 {
			downsideSumSq += diff * diff
		}
	}
	downsideDev := math.Sqrt(downsideSumSq / float64(len(returns)-1))
	if downsideDev == 0 {
		return Undefined()
	}

	sortino := (Mean(returns) - rfPerPeriod) / downsideDev
	if annualize {
		sortino *= math.Sqrt(float64(periodsPerYear))
	}
	return DefinedRatio(sortino)
}

// CalculateMaxDrawdown 최대 낙폭 계산 (손실, 양수)
// 수익률을 누적 가치 곡선으로 환산한 뒤 peak 대비 최대 하락폭
func CalculateMaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	value := 1.0
	peak := 1.0
	maxDD := 0.0

	for _, r := range returns {
		value *= 1 + r
		if value > peak {
			peak = value
		}
		if dd := (peak - value) / peak; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// =============================================================================
// Risk Statistics 통합 계산
// =============================================================================

// ValidateStatsConfig 통계 설정 유효성 검사
// 신뢰수준은 (0,1) 엄격 범위, 범위 밖이면 보정 없이 거부
func ValidateStatsConfig(config StatsConfig) error {
	if len(config.ConfidenceLevels) == 0 {
		return fmt.Errorf("%w: ConfidenceLevels cannot be empty", ErrInvalidConfig)
	}
	for _, cl := range config.ConfidenceLevels {
		if cl <= 0 || cl >= 1 {
			return fmt.Errorf("%w: confidence level %.4f must be strictly between 0 and 1", ErrInvalidConfig, cl)
		}
	}
	if config.PeriodsPerYear < 1 {
		return fmt.Errorf("%w: PeriodsPerYear must be >= 1", ErrInvalidConfig)
	}
	if m := config.VaRMethod; m != VaRHistorical && m != VaRParametric {
		return fmt.Errorf("%w: unknown VaR method %q", ErrInvalidConfig, m)
	}
	return nil
}

// CalculateStats 수익률 시계열의 리스크 통계 일괄 계산
// 검증은 수치 계산 전에 모두 수행 (fail-closed)
func CalculateStats(returns []float64, config StatsConfig) (*SeriesStats, error) {
	if err := ValidateStatsConfig(config); err != nil {
		return nil, err
	}
	if len(returns) < 2 {
		return nil, fmt.Errorf("%w: got %d returns, need at least 2 for volatility",
			ErrInsufficientData, len(returns))
	}

	stats := &SeriesStats{
		SampleCount: len(returns),
		MeanReturn:  Mean(returns),
		Volatility:  StdDev(returns),
		Sharpe:      CalculateSharpe(returns, config.RiskFreeRate, config.PeriodsPerYear, config.Annualize),
		Sortino:     CalculateSortino(returns, config.RiskFreeRate, config.PeriodsPerYear, config.Annualize),
		MaxDrawdown: CalculateMaxDrawdown(returns),
		Annualized:  config.Annualize,
	}

	// 신뢰수준별 VaR/CVaR
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	for _, cl := range config.ConfidenceLevels {
		var vr VaRResult
		var err error
		switch config.VaRMethod {
		case VaRParametric:
			vr, err = CalculateParametricVaR(stats.MeanReturn, stats.Volatility, cl)
		default:
			vr, err = calculateVaRSorted(sorted, cl)
		}
		if err != nil {
			return nil, err
		}
		stats.VaR = append(stats.VaR, vr)
	}

	return stats, nil
}
