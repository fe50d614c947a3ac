package risk

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Monte Carlo Simulator
// =============================================================================

// MonteCarloSimulator Monte Carlo 시뮬레이터
// 가치 경로를 곱셈 복리로 전개: v_t = v_{t-1} * (1 + r_t)
type MonteCarloSimulator struct {
	config MonteCarloConfig
}

// NewMonteCarloSimulator 새 시뮬레이터 생성
func NewMonteCarloSimulator(config MonteCarloConfig) *MonteCarloSimulator {
	return &MonteCarloSimulator{config: config}
}

// ValidateMonteCarloConfig 시뮬레이션 설정 유효성 검사
// 실행 전에 전부 거부 (수치 계산 도중 실패하지 않도록 fail-closed)
func ValidateMonteCarloConfig(config MonteCarloConfig) error {
	if config.NumPaths < 1 {
		return fmt.Errorf("%w: NumPaths must be >= 1, got %d", ErrInvalidConfig, config.NumPaths)
	}
	if config.Horizon < 1 {
		return fmt.Errorf("%w: Horizon must be >= 1, got %d", ErrInvalidConfig, config.Horizon)
	}
	switch config.Method {
	case MethodParametricNormal, MethodHistoricalBootstrap:
	case MethodParametricT:
		dof := int(config.StudentTDoF)
		if float64(dof) != config.StudentTDoF || dof < 3 {
			return fmt.Errorf("%w: StudentTDoF must be an integer >= 3, got %v",
				ErrInvalidConfig, config.StudentTDoF)
		}
	default:
		return fmt.Errorf("%w: unknown simulation method %q", ErrInvalidConfig, config.Method)
	}
	if len(config.ConfidenceLevels) == 0 {
		return fmt.Errorf("%w: ConfidenceLevels cannot be empty", ErrInvalidConfig)
	}
	for _, cl := range config.ConfidenceLevels {
		if cl <= 0 || cl >= 1 {
			return fmt.Errorf("%w: confidence level %.4f must be strictly between 0 and 1",
				ErrInvalidConfig, cl)
		}
	}
	for _, band := range config.Bands {
		if band <= 0 || band >= 100 {
			return fmt.Errorf("%w: band percentile %.1f must be strictly between 0 and 100",
				ErrInvalidConfig, band)
		}
	}
	if config.MinSamples < 2 {
		return fmt.Errorf("%w: MinSamples must be >= 2, got %d", ErrInvalidConfig, config.MinSamples)
	}
	if config.Workers < 0 {
		return fmt.Errorf("%w: Workers must be >= 0, got %d", ErrInvalidConfig, config.Workers)
	}
	return nil
}

// Run Monte Carlo 시뮬레이션 실행
// ⭐ 재현성: 경로 p의 난수열은 Seed+p로만 결정, 워커 수/스케줄링과 무관
// Seed=0이면 시간 기반 시드 사용 (재현 불가, 결과에 실제 시드 기록됨)
func (mc *MonteCarloSimulator) Run(ctx context.Context, input SimulationInput) (*MonteCarloResult, error) {
	started := time.Now()

	if err := ValidateMonteCarloConfig(mc.config); err != nil {
		return nil, err
	}
	if input.StartValue <= 0 {
		return nil, fmt.Errorf("%w: start value must be positive, got %.4f",
			ErrInvalidConfig, input.StartValue)
	}
	if input.Volatility < 0 {
		return nil, fmt.Errorf("%w: negative volatility %.6f", ErrInvalidConfig, input.Volatility)
	}
	if mc.config.Method == MethodHistoricalBootstrap && len(input.HistoricalReturns) < mc.config.MinSamples {
		return nil, fmt.Errorf("%w: got %d historical returns, need %d for bootstrap",
			ErrInsufficientData, len(input.HistoricalReturns), mc.config.MinSamples)
	}

	config := mc.config
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}

	numPaths := config.NumPaths
	horizon := config.Horizon

	// values[step][path]: 워커는 서로 다른 path 열에만 기록 (경합 없음)
	values := make([][]float64, horizon)
	for step := range values {
		values[step] = make([]float64, numPaths)
	}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > numPaths {
		workers = numPaths
	}

	// 경로 범위를 워커에 연속 분할
	chunk := (numPaths + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > numPaths {
			end = numPaths
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for p := start; p < end; p++ {
				// 협조적 취소: 경로 사이에서만 확인
				if ctx.Err() != nil {
					return
				}
				rng := rand.New(rand.NewSource(config.Seed + int64(p)))
				mc.simulatePath(rng, input, values, p)
			}
		}(start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("simulation cancelled after %s: %w", time.Since(started), err)
	}

	result, err := mc.calculateResult(config, input, values)
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(started)
	return result, nil
}

// simulatePath 단일 경로 전개 (values의 p열에 기록)
// 메서드별 난수 추출 순서는 고정 (같은 rng면 항상 같은 경로)
func (mc *MonteCarloSimulator) simulatePath(rng *rand.Rand, input SimulationInput, values [][]float64, p int) {
	value := input.StartValue

	for step := 0; step < mc.config.Horizon; step++ {
		var r float64
		switch mc.config.Method {
		case MethodHistoricalBootstrap:
			// 과거 수익률 랜덤 재샘플링
			r = input.HistoricalReturns[rng.Intn(len(input.HistoricalReturns))]
		case MethodParametricT:
			// 표준화 t-분포 (평균 0, 분산 1) 스케일링
			r = input.MeanReturn + input.Volatility*drawStudentT(rng, int(mc.config.StudentTDoF))
		default:
			// 정규분포 가정
			r = input.MeanReturn + input.Volatility*rng.NormFloat64()
		}

		value *= 1 + r
		values[step][p] = value
	}
}

// drawStudentT 표준화 Student-t 샘플 (평균 0, 분산 1)
// t = Z / sqrt(chi2/dof), chi2는 정규 제곱합으로 구성 (정수 자유도 전제)
// 원 t-분포 분산 dof/(dof-2)를 1로 정규화
func drawStudentT(rng *rand.Rand, dof int) float64 {
	var chi2 float64
	for i := 0; i < dof; i++ {
		z := rng.NormFloat64()
		chi2 += z * z
	}
	t := rng.NormFloat64() / math.Sqrt(chi2/float64(dof))
	return t * math.Sqrt(float64(dof-2)/float64(dof))
}

// =============================================================================
// Result Assembly
// =============================================================================

// terminalPercentileKeys 전체 기간 수익률 분포를 요약하는 고정 백분위수
var terminalPercentileKeys = []int{1, 5, 10, 25, 50, 75, 90, 95, 99}

// calculateResult 시뮬레이션 결과 통계 계산
// config는 실제 사용된 시드가 기록된 사본 (재현성)
func (mc *MonteCarloSimulator) calculateResult(
	config MonteCarloConfig,
	input SimulationInput,
	values [][]float64,
) (*MonteCarloResult, error) {
	numPaths := config.NumPaths
	horizon := config.Horizon
	terminal := values[horizon-1]

	// 경로별 전체 기간 수익률
	totalReturns := make([]float64, numPaths)
	lossCount := 0
	for p := 0; p < numPaths; p++ {
		totalReturns[p] = terminal[p]/input.StartValue - 1
		if terminal[p] < input.StartValue {
			lossCount++
		}
	}

	sortedReturns := make([]float64, numPaths)
	copy(sortedReturns, totalReturns)
	sort.Float64s(sortedReturns)

	// 신뢰수준별 VaR/CVaR (tail이 비면 경로 수 부족으로 거부)
	varResults := make([]VaRResult, 0, len(config.ConfidenceLevels))
	for _, cl := range config.ConfidenceLevels {
		vr, err := calculateVaRSorted(sortedReturns, cl)
		if err != nil {
			return nil, err
		}
		varResults = append(varResults, vr)
	}

	percentiles := make(map[int]float64, len(terminalPercentileKeys))
	for _, key := range terminalPercentileKeys {
		percentiles[key] = Percentile(sortedReturns, float64(key))
	}

	// 스텝별 백분위 밴드 (가치 기준)
	bands := make([]PercentileBand, 0, len(config.Bands))
	for _, band := range config.Bands {
		bands = append(bands, PercentileBand{
			Percentile: band,
			Values:     make([]float64, horizon),
		})
	}
	stepSorted := make([]float64, numPaths)
	for step := 0; step < horizon; step++ {
		copy(stepSorted, values[step])
		sort.Float64s(stepSorted)
		for i := range bands {
			bands[i].Values[step] = Percentile(stepSorted, bands[i].Percentile)
		}
	}

	sortedTerminal := make([]float64, numPaths)
	copy(sortedTerminal, terminal)
	sort.Float64s(sortedTerminal)

	now := time.Now()
	return &MonteCarloResult{
		RunID:             uuid.New().String(),
		RunDate:           now,
		Config:            config,
		Input:             input,
		InputSampleCount:  len(input.HistoricalReturns),
		MeanReturn:        Mean(totalReturns),
		StdDev:            StdDev(totalReturns),
		VaR:               varResults,
		Bands:             bands,
		MeanFinalValue:    Mean(terminal),
		MedianFinalValue:  Percentile(sortedTerminal, 50),
		ProbabilityOfLoss: float64(lossCount) / float64(numPaths),
		Percentiles:       percentiles,
		CreatedAt:         now,
	}, nil
}
