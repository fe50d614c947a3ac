package risk

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// RiskEngine Interface - 순수 계산기
// =============================================================================

// Engine 리스크 엔진 (순수 계산기)
// ⭐ SSOT: 데이터 적재/보고서 조립/영속화는 상위 레이어(report/api)에서 담당
// internal/risk는 순수 계산만 담당
type Engine struct{}

// NewEngine 새 리스크 엔진 생성
func NewEngine() *Engine {
	return &Engine{}
}

// =============================================================================
// Statistics (Pure)
// =============================================================================

// Statistics 수익률 배열의 리스크 통계 일괄 계산
// returns: 주기별 수익률 (양수=이익, 음수=손실)
func (e *Engine) Statistics(returns []float64, config StatsConfig) (*SeriesStats, error) {
	return CalculateStats(returns, config)
}

// SeriesStatistics 시계열에서 수익률 변환 후 통계 계산
func (e *Engine) SeriesStatistics(series Series, returnType ReturnType, config StatsConfig) (*SeriesStats, error) {
	returns, err := series.Returns(returnType)
	if err != nil {
		return nil, err
	}
	return CalculateStats(returns, config)
}

// =============================================================================
// VaR/CVaR Calculation (Pure)
// =============================================================================

// VaR Historical VaR 계산
// returns: 주기별 수익률 (양수=이익, 음수=손실)
// confidence: 신뢰수준 (예: 0.95, 0.99)
// 반환: VaRResult (손실을 양수로 표현, CVaR 포함)
func (e *Engine) VaR(returns []float64, confidence float64) (VaRResult, error) {
	return CalculateVaR(returns, confidence)
}

// ParametricVaR 정규분포 가정 VaR 계산
func (e *Engine) ParametricVaR(mean, stdDev, confidence float64) (VaRResult, error) {
	return CalculateParametricVaR(mean, stdDev, confidence)
}

// =============================================================================
// Correlation (Pure)
// =============================================================================

// Correlation 정렬 검증 후 시리즈 간 상관계수 행렬 계산
// 길이/타임스탬프 불일치는 ErrAlignment로 거부
func (e *Engine) Correlation(series []Series, returnType ReturnType) (*CorrelationMatrix, error) {
	if err := CheckAlignment(series); err != nil {
		return nil, err
	}

	names := make([]string, len(series))
	returnSeries := make([][]float64, len(series))
	for i, s := range series {
		returns, err := s.Returns(returnType)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Name, err)
		}
		names[i] = s.Name
		returnSeries[i] = returns
	}

	return CalculateCorrelationMatrix(names, returnSeries)
}

// =============================================================================
// Monte Carlo Simulation (Pure)
// =============================================================================

// MonteCarlo 과거 수익률에서 (μ, σ) 추정 후 시뮬레이션 실행
// Fail-closed: 표본이 MinSamples 미만이면 추정 없이 거부
func (e *Engine) MonteCarlo(
	ctx context.Context,
	returns []float64,
	startValue float64,
	config MonteCarloConfig,
) (*MonteCarloResult, error) {
	if err := ValidateMonteCarloConfig(config); err != nil {
		return nil, err
	}
	if len(returns) < config.MinSamples {
		return nil, fmt.Errorf("%w: got %d returns, need %d to estimate simulation parameters",
			ErrInsufficientData, len(returns), config.MinSamples)
	}

	input := SimulationInput{
		StartValue:        startValue,
		MeanReturn:        Mean(returns),
		Volatility:        StdDev(returns),
		HistoricalReturns: returns,
	}

	simulator := NewMonteCarloSimulator(config)
	return simulator.Run(ctx, input)
}

// MonteCarloFromParams 명시적 (μ, σ) 파라미터로 시뮬레이션 실행 (추정 생략)
// bootstrap 메서드는 Run 내부에서 HistoricalReturns의 MinSamples를 검사
func (e *Engine) MonteCarloFromParams(
	ctx context.Context,
	input SimulationInput,
	config MonteCarloConfig,
) (*MonteCarloResult, error) {
	simulator := NewMonteCarloSimulator(config)
	return simulator.Run(ctx, input)
}

// =============================================================================
// Risk Check (순수 계산)
// =============================================================================

// CheckLimits 리스크 한도 체크 (순수 계산)
// returns: 포트폴리오 수익률 (상위 레이어에서 조립)
// limits: 리스크 한도
func (e *Engine) CheckLimits(returns []float64, limits RiskLimits) (*LimitCheckResult, error) {
	varResult, err := CalculateVaR(returns, 0.95)
	if err != nil {
		return nil, err
	}

	result := &LimitCheckResult{
		Passed:     true,
		VaR95:      varResult.VaR,
		CVaR95:     varResult.CVaR,
		Drawdown:   CalculateMaxDrawdown(returns),
		Limits:     limits,
		Violations: make([]string, 0),
		CheckedAt:  time.Now(),
	}

	// VaR 한도 체크
	if varResult.VaR > limits.MaxVaR95 {
		result.Passed = false
		result.Violations = append(result.Violations,
			fmt.Sprintf("VaR95 %.4f exceeds limit %.4f", varResult.VaR, limits.MaxVaR95))
	}

	// CVaR 한도 체크
	if varResult.CVaR > limits.MaxCVaR95 {
		result.Passed = false
		result.Violations = append(result.Violations,
			fmt.Sprintf("CVaR95 %.4f exceeds limit %.4f", varResult.CVaR, limits.MaxCVaR95))
	}

	// MDD 한도 체크
	if result.Drawdown > limits.MaxDrawdown {
		result.Passed = false
		result.Violations = append(result.Violations,
			fmt.Sprintf("MDD %.4f exceeds limit %.4f", result.Drawdown, limits.MaxDrawdown))
	}

	return result, nil
}

// =============================================================================
// Stress Test (순수 계산)
// =============================================================================

// StressTest 스트레스 시나리오 테스트
// weights: 시리즈별 비중 map[name]weight
// scenarios: 스트레스 시나리오 ("*"는 전체 충격)
// 반환: 시나리오별 포트폴리오 손익
func (e *Engine) StressTest(weights map[string]float64, scenarios []Scenario) map[string]float64 {
	results := make(map[string]float64)

	for _, scenario := range scenarios {
		var portfolioImpact float64

		for name, weight := range weights {
			shock, exists := scenario.Shocks[name]
			if !exists {
				// 전체 시장 충격 확인
				shock, exists = scenario.Shocks["*"]
				if !exists {
					continue
				}
			}
			portfolioImpact += weight * shock
		}

		results[scenario.Name] = portfolioImpact
	}

	return results
}

// =============================================================================
// Utility Functions
// =============================================================================

// CalculatePortfolioReturns 시리즈별 수익률에서 포트폴리오 수익률 계산
// weights: 시리즈별 비중 map[name]weight
// assetReturns: 시리즈별 수익률 배열 map[name][]returns
// 반환: 비중 가중 포트폴리오 수익률 (가장 짧은 시리즈 길이에 맞춤)
func CalculatePortfolioReturns(weights map[string]float64, assetReturns map[string][]float64) []float64 {
	// 최소 데이터 길이 찾기
	minLen := -1
	for _, returns := range assetReturns {
		if minLen == -1 || len(returns) < minLen {
			minLen = len(returns)
		}
	}

	if minLen <= 0 {
		return nil
	}

	// 비중 가중 수익률
	portfolioReturns := make([]float64, minLen)
	for i := 0; i < minLen; i++ {
		var dayReturn float64
		for name, weight := range weights {
			if returns, ok := assetReturns[name]; ok && i < len(returns) {
				dayReturn += weight * returns[i]
			}
		}
		portfolioReturns[i] = dayReturn
	}

	return portfolioReturns
}
