package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/risk"
)

// =============================================================================
// Request Series Resolution
// =============================================================================

// PointRequest 요청 본문의 관측치 (타임스탬프는 RFC3339 또는 YYYY-MM-DD)
type PointRequest struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// SeriesRef selects an input series: inline points or a stored dataset
// dataset가 있으면 저장된 데이터셋에서 읽고, 없으면 points를 직접 사용
type SeriesRef struct {
	Name     string         `json:"name,omitempty"`
	Points   []PointRequest `json:"points,omitempty"`
	Dataset  string         `json:"dataset,omitempty"`
	Category string         `json:"category,omitempty"`
}

// resolveSeries materializes a SeriesRef into a risk.Series
// 인라인 points는 타임스탬프 순서로 정렬 후 생성 (중복은 거부)
func resolveSeries(ctx context.Context, repo *dataset.Repository, ref SeriesRef) (risk.Series, error) {
	if ref.Dataset != "" {
		if repo == nil {
			return risk.Series{}, fmt.Errorf("%w: dataset references require database access",
				risk.ErrInvalidConfig)
		}

		var s risk.Series
		var err error
		if ref.Category != "" {
			category, perr := dataset.ParseCategory(ref.Category)
			if perr != nil {
				return risk.Series{}, perr
			}
			s, err = repo.GetSeriesByCategory(ctx, ref.Dataset, category)
		} else {
			s, err = repo.GetSeries(ctx, ref.Dataset)
		}
		if err != nil {
			return risk.Series{}, err
		}

		if ref.Name != "" {
			s.Name = ref.Name
		}
		return s, nil
	}

	if len(ref.Points) == 0 {
		return risk.Series{}, fmt.Errorf("%w: series needs inline points or a dataset reference",
			risk.ErrInvalidConfig)
	}
	if ref.Name == "" {
		return risk.Series{}, fmt.Errorf("%w: inline series needs a name", risk.ErrInvalidConfig)
	}

	points := make([]risk.Point, len(ref.Points))
	for i, p := range ref.Points {
		ts, err := dataset.ParseTimestamp(p.Timestamp)
		if err != nil {
			return risk.Series{}, fmt.Errorf("%w: series %q point %d: %v",
				risk.ErrInvalidConfig, ref.Name, i, err)
		}
		points[i] = risk.Point{Timestamp: ts, Value: p.Value}
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	return risk.NewSeries(ref.Name, points)
}

// =============================================================================
// Config Overlays
// =============================================================================

// StatsConfigRequest overlays the server defaults field by field
// 0이 유효한 값인 필드(무위험 수익률, 연환산 여부)는 포인터로 생략 여부를 구분
type StatsConfigRequest struct {
	ConfidenceLevels []float64 `json:"confidence_levels,omitempty"`
	RiskFreeRate     *float64  `json:"risk_free_rate,omitempty"`
	PeriodsPerYear   *int      `json:"periods_per_year,omitempty"`
	Annualize        *bool     `json:"annualize,omitempty"`
	VaRMethod        string    `json:"var_method,omitempty"`
}

func (r *StatsConfigRequest) resolve(defaults risk.StatsConfig) risk.StatsConfig {
	if r == nil {
		return defaults
	}

	resolved := defaults
	if len(r.ConfidenceLevels) > 0 {
		resolved.ConfidenceLevels = r.ConfidenceLevels
	}
	if r.RiskFreeRate != nil {
		resolved.RiskFreeRate = *r.RiskFreeRate
	}
	if r.PeriodsPerYear != nil {
		resolved.PeriodsPerYear = *r.PeriodsPerYear
	}
	if r.Annualize != nil {
		resolved.Annualize = *r.Annualize
	}
	if r.VaRMethod != "" {
		resolved.VaRMethod = risk.VaRMethod(r.VaRMethod)
	}
	return resolved
}

// SimulationConfigRequest overlays the Monte Carlo defaults
// 0은 모두 "생략" 의미 (Seed 0 = 시간 기반, Workers 0 = GOMAXPROCS는 도메인 규칙)
type SimulationConfigRequest struct {
	NumPaths         int       `json:"num_paths,omitempty"`
	Horizon          int       `json:"horizon,omitempty"`
	Method           string    `json:"method,omitempty"`
	StudentTDoF      float64   `json:"student_t_dof,omitempty"`
	ConfidenceLevels []float64 `json:"confidence_levels,omitempty"`
	Bands            []float64 `json:"bands,omitempty"`
	Seed             int64     `json:"seed,omitempty"`
	MinSamples       int       `json:"min_samples,omitempty"`
	Workers          int       `json:"workers,omitempty"`
}

func (r *SimulationConfigRequest) resolve(defaults risk.MonteCarloConfig) risk.MonteCarloConfig {
	if r == nil {
		return defaults
	}

	// 0만 "생략"으로 취급: 음수는 기본값으로 바꿔치지 않고 그대로 넘겨
	// ValidateMonteCarloConfig에서 ErrInvalidConfig로 거부되게 한다
	resolved := defaults
	if r.NumPaths != 0 {
		resolved.NumPaths = r.NumPaths
	}
	if r.Horizon != 0 {
		resolved.Horizon = r.Horizon
	}
	if r.Method != "" {
		resolved.Method = risk.MonteCarloMethod(r.Method)
	}
	if r.StudentTDoF != 0 {
		resolved.StudentTDoF = r.StudentTDoF
	}
	if len(r.ConfidenceLevels) > 0 {
		resolved.ConfidenceLevels = r.ConfidenceLevels
	}
	if len(r.Bands) > 0 {
		resolved.Bands = r.Bands
	}
	if r.Seed != 0 {
		resolved.Seed = r.Seed
	}
	if r.MinSamples != 0 {
		resolved.MinSamples = r.MinSamples
	}
	if r.Workers != 0 {
		resolved.Workers = r.Workers
	}
	return resolved
}

// parseReturnType validates the return type field ("" → 서버 기본값)
func parseReturnType(s string, fallback risk.ReturnType) (risk.ReturnType, error) {
	switch risk.ReturnType(s) {
	case "":
		return fallback, nil
	case risk.ReturnSimple, risk.ReturnLog:
		return risk.ReturnType(s), nil
	default:
		return "", fmt.Errorf("%w: unknown return type %q (valid: simple, log)",
			risk.ErrInvalidConfig, s)
	}
}
