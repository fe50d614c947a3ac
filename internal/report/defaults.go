package report

import (
	"github.com/wonny/horizon/backend/internal/risk"
	"github.com/wonny/horizon/backend/pkg/config"
)

// AnalysisDefaults holds the process-wide analysis defaults applied when a
// request or job omits a setting
// ⭐ SSOT: 설정 → 분석 기본값 해석은 여기서만 (API와 스케줄러가 공유)
type AnalysisDefaults struct {
	ReturnType   risk.ReturnType
	Stats        risk.StatsConfig
	Simulation   risk.MonteCarloConfig
	RiskFreeRate float64
}

// DefaultsFromConfig maps the process configuration onto analysis defaults
func DefaultsFromConfig(cfg *config.Config) AnalysisDefaults {
	stats := risk.StatsConfig{
		ConfidenceLevels: cfg.Analysis.ConfidenceLevels,
		RiskFreeRate:     cfg.Analysis.RiskFreeRate,
		PeriodsPerYear:   cfg.Analysis.PeriodsPerYear,
		Annualize:        cfg.Analysis.Annualize,
		VaRMethod:        risk.VaRHistorical,
	}

	simulation := risk.MonteCarloConfig{
		NumPaths:         cfg.Simulation.NumPaths,
		Horizon:          cfg.Simulation.Horizon,
		Method:           risk.MonteCarloMethod(cfg.Simulation.Method),
		StudentTDoF:      cfg.Simulation.StudentTDoF,
		ConfidenceLevels: cfg.Analysis.ConfidenceLevels,
		Bands:            cfg.Simulation.Bands,
		Seed:             cfg.Simulation.Seed,
		MinSamples:       cfg.Simulation.MinSamples,
		Workers:          cfg.Simulation.Workers,
	}

	return AnalysisDefaults{
		ReturnType:   risk.ReturnType(cfg.Analysis.ReturnType),
		Stats:        stats,
		Simulation:   simulation,
		RiskFreeRate: cfg.Analysis.RiskFreeRate,
	}
}
