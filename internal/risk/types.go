package risk

import "time"

// =============================================================================
// Return Type & Convention
// =============================================================================

// ReturnType 수익률 계산 방식
type ReturnType string

const (
	ReturnSimple ReturnType = "simple" // (P1 - P0) / P0
	ReturnLog    ReturnType = "log"    // ln(P1 / P0)
)

// VaRConvention VaR 부호 규약
// ⭐ SSOT: Loss를 양수로 표현 (VaR=0.05 → 5% 손실 가능)
// 전체 시스템에서 이 규약을 일관되게 사용
const VaRConvention = "loss_positive"

// =============================================================================
// VaR/CVaR Types
// =============================================================================

// VaRResult VaR 계산 결과
// ⭐ SSOT: VaR/CVaR는 손실을 양수로 표현
// - VaR=0.05 → 95% 신뢰수준에서 최대 5% 손실 가능
// - CVaR=0.07 → 5% tail에서 평균 7% 손실 예상
type VaRResult struct {
	Confidence  float64 `json:"confidence"`   // 신뢰수준 (예: 0.95, 0.99)
	VaR         float64 `json:"var"`          // Value at Risk (손실, 양수)
	CVaR        float64 `json:"cvar"`         // Conditional VaR (Expected Shortfall, 양수)
	TailSamples int     `json:"tail_samples"` // CVaR tail 관측치 수
}

// VaRMethod VaR 계산 방법
type VaRMethod string

const (
	VaRHistorical VaRMethod = "historical" // 경험적 분포 (기본)
	VaRParametric VaRMethod = "parametric" // 정규분포 가정
)

// =============================================================================
// Statistics Types
// =============================================================================

// StatsConfig 리스크 통계 설정
type StatsConfig struct {
	ConfidenceLevels []float64 `json:"confidence_levels"` // 각각 (0,1) 엄격 검증
	RiskFreeRate     float64   `json:"risk_free_rate"`    // 연간 무위험 수익률
	PeriodsPerYear   int       `json:"periods_per_year"`  // 연환산 계수 (일간=252)
	Annualize        bool      `json:"annualize"`         // Sharpe/Sortino 연환산 여부
	VaRMethod        VaRMethod `json:"var_method"`        // historical/parametric
}

// DefaultStatsConfig 기본 통계 설정
func DefaultStatsConfig() StatsConfig {
	return StatsConfig{
		ConfidenceLevels: []float64{0.95, 0.99},
		RiskFreeRate:     0.03,
		PeriodsPerYear:   252,
		Annualize:        true,
		VaRMethod:        VaRHistorical,
	}
}

// RatioResult 변동성 분모를 갖는 비율 지표 (Sharpe, Sortino)
// ⭐ 변동성 0은 오류가 아니라 "정의되지 않음" (보고서에 그대로 표시)
type RatioResult struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"` // false → 변동성 0 (값 무의미)
}

// Undefined 정의되지 않은 비율 (변동성 0)
func Undefined() RatioResult {
	return RatioResult{Value: 0, Defined: false}
}

// DefinedRatio 정의된 비율 값
func DefinedRatio(v float64) RatioResult {
	return RatioResult{Value: v, Defined: true}
}

// SeriesStats 단일 시계열 리스크 통계 결과 (불변, 요청당 1회 생성)
type SeriesStats struct {
	SampleCount int         `json:"sample_count"` // 수익률 관측치 수
	MeanReturn  float64     `json:"mean_return"`  // 평균 수익률 (주기당)
	Volatility  float64     `json:"volatility"`   // 표본 표준편차 (N-1)
	VaR         []VaRResult `json:"var"`          // 신뢰수준별 VaR/CVaR
	Sharpe      RatioResult `json:"sharpe"`       // 변동성 0이면 Defined=false
	Sortino     RatioResult `json:"sortino"`      // 하방 편차 0이면 Defined=false
	MaxDrawdown float64     `json:"max_drawdown"` // 최대 낙폭 (손실, 양수)
	Annualized  bool        `json:"annualized"`   // Sharpe/Sortino 연환산 여부
}

// =============================================================================
// Monte Carlo Types
// =============================================================================

// MonteCarloMethod 시뮬레이션 방법
type MonteCarloMethod string

const (
	MethodParametricNormal    MonteCarloMethod = "parametric_normal"    // 정규분포 가정 (기본)
	MethodParametricT         MonteCarloMethod = "parametric_t"         // t-분포 가정 (fat tail)
	MethodHistoricalBootstrap MonteCarloMethod = "historical_bootstrap" // 과거 수익률 Bootstrap
)

// MonteCarloConfig Monte Carlo 시뮬레이션 설정
// ⭐ SSOT: 재현성을 위해 모든 설정을 명시적으로 기록
type MonteCarloConfig struct {
	NumPaths         int              `json:"num_paths"`         // 시뮬레이션 경로 수 (기본: 10000)
	Horizon          int              `json:"horizon"`           // 전방 스텝 수 (기본: 21)
	Method           MonteCarloMethod `json:"method"`            // normal/t/bootstrap
	StudentTDoF      float64          `json:"student_t_dof"`     // parametric_t 자유도 (기본: 5)
	ConfidenceLevels []float64        `json:"confidence_levels"` // 신뢰수준 [0.95, 0.99]
	Bands            []float64        `json:"bands"`             // 스텝별 백분위 밴드 (기본: 5/25/50/75/95)
	Seed             int64            `json:"seed"`              // 재현성용 시드 (0=시간 기반, 재현 불가)
	MinSamples       int              `json:"min_samples"`       // 과거 수익률 최소 표본 수 (fail-closed, 기본: 30)
	Workers          int              `json:"workers"`           // 병렬 워커 수 (0=GOMAXPROCS)
}

// DefaultMonteCarloConfig 기본 Monte Carlo 설정
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		NumPaths:         10000,
		Horizon:          21,
		Method:           MethodParametricNormal,
		StudentTDoF:      5,
		ConfidenceLevels: []float64{0.95, 0.99},
		Bands:            []float64{5, 25, 50, 75, 95},
		Seed:             0,  // 랜덤
		MinSamples:       30, // fail-closed: 30개 미만이면 실패
	}
}

// SimulationInput 시뮬레이션 입력 (통계 파라미터 + 시작값)
// MeanReturn/Volatility는 스텝 주기 기준 (연환산 아님)
type SimulationInput struct {
	StartValue        float64   `json:"start_value"`
	MeanReturn        float64   `json:"mean_return"`
	Volatility        float64   `json:"volatility"`
	HistoricalReturns []float64 `json:"-"` // bootstrap 리샘플링용 (선택)
}

// PercentileBand 전방 스텝별 백분위 밴드
// Values[t] = 스텝 t+1 시점의 해당 백분위 값 (길이 = Horizon)
type PercentileBand struct {
	Percentile float64   `json:"percentile"`
	Values     []float64 `json:"values"`
}

// MonteCarloResult Monte Carlo 시뮬레이션 결과
// ⭐ SSOT: 재현성을 위해 Config와 입력 파라미터를 함께 기록
type MonteCarloResult struct {
	RunID             string           `json:"run_id"`   // 실행 고유 ID
	RunDate           time.Time        `json:"run_date"` // 실행 날짜
	Config            MonteCarloConfig `json:"config"`   // 재현성용 설정 기록
	Input             SimulationInput  `json:"input"`    // 입력 파라미터 에코
	InputSampleCount  int              `json:"input_sample_count"`
	MeanReturn        float64          `json:"mean_return"`         // 시뮬레이션 수익률 평균 (전체 기간)
	StdDev            float64          `json:"std_dev"`             // 시뮬레이션 수익률 표준편차
	VaR               []VaRResult      `json:"var"`                 // 신뢰수준별 VaR/CVaR (전체 기간 수익률 기준)
	Bands             []PercentileBand `json:"bands"`               // 스텝별 백분위 밴드 (가치 기준)
	MeanFinalValue    float64          `json:"mean_final_value"`    // 최종 가치 평균
	MedianFinalValue  float64          `json:"median_final_value"`  // 최종 가치 중앙값
	ProbabilityOfLoss float64          `json:"probability_of_loss"` // 최종 가치 < 시작값 비율
	Percentiles       map[int]float64  `json:"percentiles"`         // 전체 기간 수익률 백분위수 (1,5,10,25,50,75,90,95,99)
	Elapsed           time.Duration    `json:"elapsed"`
	CreatedAt         time.Time        `json:"created_at"`
}

// =============================================================================
// Stress Test Types
// =============================================================================

// Scenario 스트레스 시나리오
// Shocks: 시계열 이름 → 충격 수익률 ("*"는 전체 적용)
type Scenario struct {
	Name   string             `json:"name"`
	Shocks map[string]float64 `json:"shocks"`
}

// =============================================================================
// Risk Limit Types
// =============================================================================

// RiskLimits 리스크 한도 설정
type RiskLimits struct {
	MaxVaR95    float64 `json:"max_var_95"`   // 최대 95% VaR (예: 0.05 = 5%)
	MaxCVaR95   float64 `json:"max_cvar_95"`  // 최대 95% CVaR
	MaxDrawdown float64 `json:"max_drawdown"` // 최대 MDD
}

// DefaultRiskLimits 기본 리스크 한도
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxVaR95:    0.05, // 5% VaR
		MaxCVaR95:   0.07, // 7% CVaR
		MaxDrawdown: 0.15, // 15% MDD
	}
}

// LimitCheckResult 리스크 한도 체크 결과
type LimitCheckResult struct {
	Passed     bool       `json:"passed"`
	VaR95      float64    `json:"var_95"`
	CVaR95     float64    `json:"cvar_95"`
	Drawdown   float64    `json:"drawdown"`
	Limits     RiskLimits `json:"limits"`
	Violations []string   `json:"violations"`
	CheckedAt  time.Time  `json:"checked_at"`
}
