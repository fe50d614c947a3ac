package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/horizon/backend/internal/risk"
	"github.com/wonny/horizon/backend/pkg/redis"
)

// =============================================================================
// Report Service (조립 + 캐시 + 영속화)
// =============================================================================

// Service coordinates assembly, caching and persistence
// ⭐ SSOT: 보고서 캐시/저장 정책은 여기서만 (Assembler는 순수 계산 유지)
type Service struct {
	assembler *Assembler
	repo      *Repository
	cache     *redis.Cache // nil이면 캐시 없이 동작
	cacheTTL  time.Duration
	log       zerolog.Logger
}

// NewService creates a new report service
func NewService(assembler *Assembler, repo *Repository, cache *redis.Cache, cacheTTL time.Duration, log zerolog.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = redis.TTLMedium
	}
	return &Service{
		assembler: assembler,
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		log:       log.With().Str("component", "report.service").Logger(),
	}
}

// =============================================================================
// Risk Reports
// =============================================================================

// RiskReport assembles a risk report, serving from cache when possible
// persist=true면 캐시를 건너뛰고 새로 계산 후 저장한다 (야간 배치 경로).
// Seed=0 시뮬레이션은 실행마다 결과가 달라지므로 캐시하지 않는다.
func (s *Service) RiskReport(ctx context.Context, input AssembleInput, persist bool) (*RiskReport, error) {
	cacheable := s.cache != nil &&
		(input.Simulation == nil || input.Simulation.Seed != 0)
	key := redis.RiskReportKey(seriesDatasetName(input.Series), configHash(input))

	if cacheable && !persist {
		var cached RiskReport
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("risk report cache read failed")
		} else if found {
			s.log.Debug().Str("key", key).Msg("risk report cache hit")
			return &cached, nil
		}
	}

	report, err := s.assembler.Assemble(ctx, input)
	if err != nil {
		return nil, err
	}

	if persist {
		if err := s.repo.SaveRiskReport(ctx, report); err != nil {
			return nil, err
		}
		if report.Simulation != nil {
			if err := s.repo.SaveSimulationRun(ctx, report.DatasetName(), report.Simulation); err != nil {
				return nil, err
			}
		}
		s.invalidateLatest(ctx, report)
	}

	if cacheable {
		if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("risk report cache write failed")
		}
	}

	return report, nil
}

// SimulationRun runs a standalone Monte Carlo simulation, optionally persisting it
// 시뮬레이션은 캐시하지 않는다 (설정 에코와 run id가 실행마다 달라야 함)
func (s *Service) SimulationRun(ctx context.Context, dataset string, returns []float64, startValue float64, config risk.MonteCarloConfig, persist bool) (*risk.MonteCarloResult, error) {
	result, err := s.assembler.engine.MonteCarlo(ctx, returns, startValue, config)
	if err != nil {
		return nil, err
	}

	if persist {
		if err := s.repo.SaveSimulationRun(ctx, dataset, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// SimulationRunFromParams runs Monte Carlo from explicit parameters (과거 수익률 없이)
func (s *Service) SimulationRunFromParams(ctx context.Context, dataset string, input risk.SimulationInput, config risk.MonteCarloConfig, persist bool) (*risk.MonteCarloResult, error) {
	result, err := s.assembler.engine.MonteCarloFromParams(ctx, input, config)
	if err != nil {
		return nil, err
	}

	if persist {
		if err := s.repo.SaveSimulationRun(ctx, dataset, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// invalidateLatest 저장 직후 시리즈별 최신 보고서 캐시 무효화
func (s *Service) invalidateLatest(ctx context.Context, report *RiskReport) {
	if s.cache == nil {
		return
	}
	for _, sr := range report.Series {
		key := redis.RiskReportKey(sr.Name, "latest")
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("latest report cache invalidation failed")
		}
	}
}

// LatestRiskReport retrieves the latest persisted report row for a dataset, cache first
// 저장 경로가 무효화하므로 TTL은 DB 조회 빈도만 줄인다
func (s *Service) LatestRiskReport(ctx context.Context, dataset string) (*StoredRiskReport, error) {
	if s.cache == nil {
		return s.repo.GetLatestRiskReport(ctx, dataset)
	}

	var stored *StoredRiskReport
	err := s.cache.GetOrSet(ctx, redis.RiskReportKey(dataset, "latest"), &stored, redis.TTLShort,
		func() (interface{}, error) {
			return s.repo.GetLatestRiskReport(ctx, dataset)
		})
	return stored, err
}

// RiskReportHistory retrieves recent persisted report rows for a dataset (최신순)
func (s *Service) RiskReportHistory(ctx context.Context, dataset string, limit int) ([]StoredRiskReport, error) {
	return s.repo.GetRiskReportHistory(ctx, dataset, limit)
}

// =============================================================================
// KPI Reports
// =============================================================================

// KPIReport computes a KPI report, attaching the latest forecast evaluation when present
func (s *Service) KPIReport(ctx context.Context, input KPIInput, persist bool) (*KPIReport, error) {
	// 예측 정확도 연계 (best effort, 평가가 없거나 조회 실패해도 KPI는 계산)
	if input.Accuracy == nil {
		dataset := input.Dataset
		if dataset == "" {
			dataset = input.Revenue.Name
		}
		accuracy, err := s.repo.GetLatestForecastEvaluation(ctx, dataset)
		if err != nil {
			s.log.Warn().Err(err).Str("dataset", dataset).Msg("forecast evaluation lookup failed")
		} else {
			input.Accuracy = accuracy
		}
	}

	report, err := CalculateKPI(input)
	if err != nil {
		return nil, err
	}

	if persist {
		if err := s.repo.SaveKPIReport(ctx, report); err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		key := redis.KPIReportKey(report.Dataset, "latest")
		if err := s.cache.Set(ctx, key, report, redis.TTLDaily); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("kpi report cache write failed")
		}
	}

	return report, nil
}

// LatestKPIReport retrieves the latest KPI report, cache first
func (s *Service) LatestKPIReport(ctx context.Context, dataset string) (*KPIReport, error) {
	key := redis.KPIReportKey(dataset, "latest")

	if s.cache != nil {
		var cached KPIReport
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("kpi report cache read failed")
		} else if found {
			return &cached, nil
		}
	}

	report, err := s.repo.GetLatestKPIReport(ctx, dataset)
	if err != nil || report == nil {
		return report, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report, redis.TTLDaily); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("kpi report cache write failed")
		}
	}

	return report, nil
}

// =============================================================================
// Forecast Evaluations
// =============================================================================

// EvaluateForecasts evaluates forecast pairs and optionally persists the result
func (s *Service) EvaluateForecasts(ctx context.Context, dataset, modelVersion string, pairs []ForecastPair, persist bool) (*AccuracyReport, error) {
	report, err := Evaluate(modelVersion, pairs)
	if err != nil {
		return nil, fmt.Errorf("evaluate forecasts for %s: %w", dataset, err)
	}

	if persist {
		if err := s.repo.SaveForecastEvaluation(ctx, dataset, report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// =============================================================================
// Maintenance
// =============================================================================

// PruneSimulationRuns deletes simulation runs older than maxAge
// maintenance 크론 잡에서 호출
func (s *Service) PruneSimulationRuns(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	deleted, err := s.repo.DeleteSimulationRunsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.log.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Pruned stale simulation runs")

	return deleted, nil
}

// =============================================================================
// Cache Keys
// =============================================================================

// seriesDatasetName 시리즈 이름을 +로 연결한 데이터셋 식별자
func seriesDatasetName(series []risk.Series) string {
	names := make([]string, 0, len(series))
	for _, s := range series {
		names = append(names, s.Name)
	}
	return strings.Join(names, "+")
}

// cacheFingerprint 캐시 키에 들어가는 입력 지문
// 데이터 갱신을 감지하도록 시리즈별 길이/양끝 관측값도 포함한다.
type cacheFingerprint struct {
	ReturnType risk.ReturnType        `json:"return_type"`
	Stats      risk.StatsConfig       `json:"stats"`
	Simulation *risk.MonteCarloConfig `json:"simulation,omitempty"`
	StartValue float64                `json:"start_value"`
	Scenarios  []risk.Scenario        `json:"scenarios,omitempty"`
	Weights    map[string]float64     `json:"weights,omitempty"`
	Limits     *risk.RiskLimits       `json:"limits,omitempty"`
	Series     []seriesFingerprint    `json:"series"`
}

type seriesFingerprint struct {
	Name       string    `json:"name"`
	Len        int       `json:"len"`
	First      time.Time `json:"first"`
	Last       time.Time `json:"last"`
	FirstValue float64   `json:"first_value"`
	LastValue  float64   `json:"last_value"`
}

// configHash 입력 설정의 짧은 해시 (캐시 키 구성 요소)
func configHash(input AssembleInput) string {
	fp := cacheFingerprint{
		ReturnType: input.ReturnType,
		Stats:      input.Stats,
		Simulation: input.Simulation,
		StartValue: input.StartValue,
		Scenarios:  input.Scenarios,
		Weights:    input.Weights,
		Limits:     input.Limits,
		Series:     make([]seriesFingerprint, 0, len(input.Series)),
	}
	for _, s := range input.Series {
		sf := seriesFingerprint{Name: s.Name, Len: s.Len()}
		if s.Len() > 0 {
			sf.First = s.Points[0].Timestamp
			sf.FirstValue = s.Points[0].Value
			sf.Last = s.Points[s.Len()-1].Timestamp
			sf.LastValue = s.Points[s.Len()-1].Value
		}
		fp.Series = append(fp.Series, sf)
	}

	data, err := json.Marshal(fp)
	if err != nil {
		return "nohash"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
