package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wonny/horizon/backend/internal/risk"
)

// =============================================================================
// Risk Report Assembler
// =============================================================================

// Assembler 리스크 보고서 조립기
// ⭐ SSOT: 리스크 보고서 조립은 여기서만
// 상태를 갖지 않음 (결과는 입력과 주입된 clock의 순수 함수)
type Assembler struct {
	engine *risk.Engine
	log    zerolog.Logger
	now    func() time.Time
}

// NewAssembler 새 보고서 조립기 생성
func NewAssembler(engine *risk.Engine, log zerolog.Logger) *Assembler {
	return &Assembler{
		engine: engine,
		log:    log.With().Str("component", "report.assembler").Logger(),
		now:    time.Now,
	}
}

// =============================================================================
// Report Types
// =============================================================================

// AssembleInput 리스크 보고서 조립 입력
// ⭐ 데이터 조립은 호출자에서, 계산은 RiskEngine에서
type AssembleInput struct {
	Series     []risk.Series          // 분석 대상 시계열 (1개 이상)
	ReturnType risk.ReturnType        // simple/log
	Stats      risk.StatsConfig       // 통계 설정
	Simulation *risk.MonteCarloConfig // nil이면 시뮬레이션 생략
	StartValue float64                // 시뮬레이션 시작값 (0이면 첫 시리즈 마지막 관측값)
	Scenarios  []risk.Scenario        // 스트레스 시나리오 (선택)
	Weights    map[string]float64     // 시리즈별 비중 (없으면 균등)
	Limits     *risk.RiskLimits       // nil이면 한도 체크 생략
}

// SeriesReport 시리즈별 통계 블록
type SeriesReport struct {
	Name  string            `json:"name"`
	From  time.Time         `json:"from"`
	To    time.Time         `json:"to"`
	Stats *risk.SeriesStats `json:"stats"`
}

// RiskReport 조립된 리스크 보고서
// ⭐ SSOT: 재현성을 위해 설정 에코와 타이밍을 함께 기록
type RiskReport struct {
	RunID       string                  `json:"run_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	ReturnType  risk.ReturnType         `json:"return_type"`
	Series      []SeriesReport          `json:"series"`
	Correlation *risk.CorrelationMatrix `json:"correlation,omitempty"` // 시리즈 2개 이상일 때만
	Portfolio   *risk.SeriesStats       `json:"portfolio,omitempty"`   // 비중 가중 포트폴리오 통계 (시리즈 2개 이상)
	Simulation  *risk.MonteCarloResult  `json:"simulation,omitempty"`
	Stress      map[string]float64      `json:"stress_test,omitempty"`
	Limits      *risk.LimitCheckResult  `json:"limit_check,omitempty"`
	Config      risk.StatsConfig        `json:"config"`
	Elapsed     time.Duration           `json:"elapsed"`
}

// =============================================================================
// Report Assembly
// =============================================================================

// Assemble 시리즈 정규화 → 통계 → 상관 → 시뮬레이션 순서로 보고서 조립
// 하위 단계 실패는 재시도 없이 시리즈 이름과 단계를 붙여 그대로 전파한다.
// 래핑 후에도 errors.Is로 분류 가능.
func (a *Assembler) Assemble(ctx context.Context, input AssembleInput) (*RiskReport, error) {
	started := a.now()

	if len(input.Series) == 0 {
		return nil, fmt.Errorf("%w: report requires at least one series", risk.ErrInvalidConfig)
	}

	returnType := input.ReturnType
	if returnType == "" {
		returnType = risk.ReturnSimple
	}

	report := &RiskReport{
		RunID:       uuid.New().String(),
		GeneratedAt: started,
		ReturnType:  returnType,
		Series:      make([]SeriesReport, 0, len(input.Series)),
		Config:      input.Stats,
	}

	// 1. 시리즈별 수익률 정규화 + 통계
	returnsByName := make(map[string][]float64, len(input.Series))
	for _, s := range input.Series {
		returns, err := s.Returns(returnType)
		if err != nil {
			return nil, fmt.Errorf("normalize series %q: %w", s.Name, err)
		}
		returnsByName[s.Name] = returns

		stats, err := a.engine.Statistics(returns, input.Stats)
		if err != nil {
			return nil, fmt.Errorf("statistics series %q: %w", s.Name, err)
		}

		report.Series = append(report.Series, SeriesReport{
			Name:  s.Name,
			From:  s.Points[0].Timestamp,
			To:    s.Points[len(s.Points)-1].Timestamp,
			Stats: stats,
		})
	}

	// 비중 해석 (명시 없으면 균등)
	weights := input.Weights
	if len(weights) == 0 {
		weights = equalWeights(input.Series)
	}

	// 2. 상관행렬 + 비중 가중 포트폴리오 통계 (시리즈 2개 이상)
	if len(input.Series) >= 2 {
		corr, err := a.engine.Correlation(input.Series, returnType)
		if err != nil {
			return nil, fmt.Errorf("correlation: %w", err)
		}
		report.Correlation = corr

		// 상관 계산이 길이 정렬을 이미 보장하므로 잘림 없이 합성된다
		portfolioStats, err := a.engine.Statistics(risk.CalculatePortfolioReturns(weights, returnsByName), input.Stats)
		if err != nil {
			return nil, fmt.Errorf("portfolio statistics: %w", err)
		}
		report.Portfolio = portfolioStats
	}

	// 3. Monte Carlo 시뮬레이션 (선택적, 첫 시리즈 기준)
	if input.Simulation != nil {
		primary := input.Series[0]
		startValue := input.StartValue
		if startValue == 0 {
			startValue = primary.Points[len(primary.Points)-1].Value
		}

		mcResult, err := a.engine.MonteCarlo(ctx, returnsByName[primary.Name], startValue, *input.Simulation)
		if err != nil {
			return nil, fmt.Errorf("simulation series %q: %w", primary.Name, err)
		}
		report.Simulation = mcResult
	}

	// 4. 스트레스 테스트 (선택적, 순수 계산)
	if len(input.Scenarios) > 0 {
		report.Stress = a.engine.StressTest(weights, input.Scenarios)
	}

	// 5. 리스크 한도 체크 (선택적, 첫 시리즈 기준)
	if input.Limits != nil {
		primary := input.Series[0]
		check, err := a.engine.CheckLimits(returnsByName[primary.Name], *input.Limits)
		if err != nil {
			return nil, fmt.Errorf("limit check series %q: %w", primary.Name, err)
		}
		report.Limits = check
	}

	report.Elapsed = a.now().Sub(started)

	a.log.Info().
		Str("run_id", report.RunID).
		Int("series", len(report.Series)).
		Bool("correlation", report.Correlation != nil).
		Bool("simulation", report.Simulation != nil).
		Dur("elapsed", report.Elapsed).
		Msg("Risk report assembled")

	return report, nil
}

// equalWeights 이름별 균등 비중
func equalWeights(series []risk.Series) map[string]float64 {
	weights := make(map[string]float64, len(series))
	w := 1.0 / float64(len(series))
	for _, s := range series {
		weights[s.Name] = w
	}
	return weights
}

// DatasetName 보고서 대상 데이터셋 식별자 (시리즈 이름을 +로 연결)
func (r *RiskReport) DatasetName() string {
	names := make([]string, 0, len(r.Series))
	for _, s := range r.Series {
		names = append(names, s.Name)
	}
	return strings.Join(names, "+")
}

// =============================================================================
// Report Formatting
// =============================================================================

// ToJSON JSON 형식으로 변환
func (r *RiskReport) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

// ToSummary 콘솔 출력용 요약 생성
func (r *RiskReport) ToSummary() string {
	var b strings.Builder

	b.WriteString("=== Risk Report ===\n")
	b.WriteString(fmt.Sprintf("Run ID: %s\n", r.RunID))
	b.WriteString(fmt.Sprintf("Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Return Type: %s\n\n", r.ReturnType))

	for _, s := range r.Series {
		b.WriteString(fmt.Sprintf("📊 %s (%s → %s)\n",
			s.Name, s.From.Format("2006-01-02"), s.To.Format("2006-01-02")))
		b.WriteString(fmt.Sprintf("  Samples: %d\n", s.Stats.SampleCount))
		b.WriteString(fmt.Sprintf("  Mean Return: %.4f\n", s.Stats.MeanReturn))
		b.WriteString(fmt.Sprintf("  Volatility: %.4f\n", s.Stats.Volatility))
		for _, v := range s.Stats.VaR {
			b.WriteString(fmt.Sprintf("  VaR %.0f%%: %.4f (%.2f%%)  CVaR: %.4f (%.2f%%)\n",
				v.Confidence*100, v.VaR, v.VaR*100, v.CVaR, v.CVaR*100))
		}
		if s.Stats.Sharpe.Defined {
			b.WriteString(fmt.Sprintf("  Sharpe: %.4f\n", s.Stats.Sharpe.Value))
		} else {
			b.WriteString("  Sharpe: undefined (zero volatility)\n")
		}
		if s.Stats.Sortino.Defined {
			b.WriteString(fmt.Sprintf("  Sortino: %.4f\n", s.Stats.Sortino.Value))
		} else {
			b.WriteString("  Sortino: undefined (zero downside deviation)\n")
		}
		b.WriteString(fmt.Sprintf("  Max Drawdown: %.4f (%.2f%%)\n\n",
			s.Stats.MaxDrawdown, s.Stats.MaxDrawdown*100))
	}

	if r.Portfolio != nil {
		b.WriteString("💼 Portfolio (weighted)\n")
		b.WriteString(fmt.Sprintf("  Mean Return: %.4f\n", r.Portfolio.MeanReturn))
		b.WriteString(fmt.Sprintf("  Volatility: %.4f\n", r.Portfolio.Volatility))
		for _, v := range r.Portfolio.VaR {
			b.WriteString(fmt.Sprintf("  VaR %.0f%%: %.4f (%.2f%%)  CVaR: %.4f (%.2f%%)\n",
				v.Confidence*100, v.VaR, v.VaR*100, v.CVaR, v.CVaR*100))
		}
		if r.Portfolio.Sharpe.Defined {
			b.WriteString(fmt.Sprintf("  Sharpe: %.4f\n", r.Portfolio.Sharpe.Value))
		} else {
			b.WriteString("  Sharpe: undefined (zero volatility)\n")
		}
		b.WriteString("\n")
	}

	if r.Correlation != nil {
		b.WriteString("🔗 Correlation\n")
		for i, row := range r.Correlation.Matrix {
			for j := i + 1; j < len(row); j++ {
				b.WriteString(fmt.Sprintf("  %s / %s: %.4f\n",
					r.Correlation.Names[i], r.Correlation.Names[j], row[j]))
			}
		}
		if len(r.Correlation.Degenerate) > 0 {
			b.WriteString(fmt.Sprintf("  Degenerate (zero variance): %s\n",
				strings.Join(r.Correlation.Degenerate, ", ")))
		}
		b.WriteString("\n")
	}

	if r.Simulation != nil {
		b.WriteString("🎲 Monte Carlo Simulation\n")
		b.WriteString(fmt.Sprintf("  Method: %s\n", r.Simulation.Config.Method))
		b.WriteString(fmt.Sprintf("  Paths: %d, Horizon: %d, Seed: %d\n",
			r.Simulation.Config.NumPaths, r.Simulation.Config.Horizon, r.Simulation.Config.Seed))
		b.WriteString(fmt.Sprintf("  Mean Final Value: %.2f\n", r.Simulation.MeanFinalValue))
		b.WriteString(fmt.Sprintf("  Median Final Value: %.2f\n", r.Simulation.MedianFinalValue))
		b.WriteString(fmt.Sprintf("  P(loss): %.2f%%\n", r.Simulation.ProbabilityOfLoss*100))
		for _, v := range r.Simulation.VaR {
			b.WriteString(fmt.Sprintf("  MC VaR %.0f%%: %.4f  CVaR: %.4f\n",
				v.Confidence*100, v.VaR, v.CVaR))
		}
		b.WriteString("\n")
	}

	if len(r.Stress) > 0 {
		b.WriteString("⚠️ Stress Test\n")
		for scenario, loss := range r.Stress {
			b.WriteString(fmt.Sprintf("  %s: %.4f (%.2f%%)\n", scenario, loss, loss*100))
		}
		b.WriteString("\n")
	}

	if r.Limits != nil {
		if r.Limits.Passed {
			b.WriteString("✅ Risk Limits: PASSED\n")
		} else {
			b.WriteString("❌ Risk Limits: FAILED\n")
			for _, v := range r.Limits.Violations {
				b.WriteString(fmt.Sprintf("  - %s\n", v))
			}
		}
	}

	return b.String()
}
