package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/horizon/backend/internal/risk"
)

// Repository handles report persistence
// ⭐ SSOT: 보고서 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new report repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// =============================================================================
// Schema
// =============================================================================

// schemaStatements 보고서 테이블 DDL (db init에서 실행, 멱등)
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS analytics`,

	`CREATE TABLE IF NOT EXISTS analytics.risk_reports (
		id UUID PRIMARY KEY,
		dataset_name TEXT NOT NULL,
		report_date DATE NOT NULL,
		sample_count INT NOT NULL,
		mean_return DOUBLE PRECISION NOT NULL,
		volatility DOUBLE PRECISION NOT NULL,
		var_95 DOUBLE PRECISION,
		var_99 DOUBLE PRECISION,
		cvar_95 DOUBLE PRECISION,
		cvar_99 DOUBLE PRECISION,
		sharpe DOUBLE PRECISION NOT NULL,
		sharpe_defined BOOLEAN NOT NULL,
		sortino DOUBLE PRECISION NOT NULL,
		sortino_defined BOOLEAN NOT NULL,
		max_drawdown DOUBLE PRECISION NOT NULL,
		correlation JSONB,
		portfolio JSONB,
		scenario JSONB,
		config JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (dataset_name, report_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_risk_reports_dataset
		ON analytics.risk_reports (dataset_name, report_date DESC)`,

	`CREATE TABLE IF NOT EXISTS analytics.simulation_runs (
		run_id UUID PRIMARY KEY,
		dataset_name TEXT NOT NULL,
		run_date TIMESTAMPTZ NOT NULL,
		method TEXT NOT NULL,
		num_paths INT NOT NULL,
		horizon INT NOT NULL,
		seed BIGINT NOT NULL,
		config JSONB NOT NULL,
		input JSONB NOT NULL,
		bands JSONB NOT NULL,
		percentiles JSONB NOT NULL,
		var_results JSONB NOT NULL,
		mean_return DOUBLE PRECISION NOT NULL,
		std_dev DOUBLE PRECISION NOT NULL,
		mean_final_value DOUBLE PRECISION NOT NULL,
		median_final_value DOUBLE PRECISION NOT NULL,
		probability_of_loss DOUBLE PRECISION NOT NULL,
		elapsed_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_simulation_runs_created
		ON analytics.simulation_runs (created_at)`,

	`CREATE TABLE IF NOT EXISTS analytics.kpi_reports (
		id UUID PRIMARY KEY,
		dataset_name TEXT NOT NULL,
		period TEXT NOT NULL,
		period_start TIMESTAMPTZ NOT NULL,
		period_end TIMESTAMPTZ NOT NULL,
		sample_count INT NOT NULL,
		revenue_growth DOUBLE PRECISION NOT NULL,
		latest_growth DOUBLE PRECISION NOT NULL,
		operating_margin DOUBLE PRECISION,
		net_margin DOUBLE PRECISION,
		budget_variance DOUBLE PRECISION,
		risk_adjusted DOUBLE PRECISION NOT NULL,
		risk_adjusted_defined BOOLEAN NOT NULL,
		accuracy JSONB,
		generated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (dataset_name, period)
	)`,

	`CREATE TABLE IF NOT EXISTS analytics.forecast_evaluations (
		id UUID PRIMARY KEY,
		dataset_name TEXT NOT NULL,
		model_version TEXT NOT NULL,
		sample_count INT NOT NULL,
		mae DOUBLE PRECISION NOT NULL,
		rmse DOUBLE PRECISION NOT NULL,
		mape DOUBLE PRECISION NOT NULL,
		mape_skipped INT NOT NULL,
		r2 DOUBLE PRECISION NOT NULL,
		r2_defined BOOLEAN NOT NULL,
		hit_rate DOUBLE PRECISION NOT NULL,
		mean_error DOUBLE PRECISION NOT NULL,
		evaluated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (dataset_name, model_version)
	)`,
}

// EnsureSchema creates the analytics schema and report tables
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply report schema: %w", err)
		}
	}
	return nil
}

// DropTables removes all report tables (db reset용)
func (r *Repository) DropTables(ctx context.Context) error {
	tables := []string{
		"analytics.risk_reports",
		"analytics.simulation_runs",
		"analytics.kpi_reports",
		"analytics.forecast_evaluations",
	}
	for _, t := range tables {
		if _, err := r.pool.Exec(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return fmt.Errorf("failed to drop %s: %w", t, err)
		}
	}
	return nil
}

// =============================================================================
// Risk Reports
// =============================================================================

// ScenarioRecord 시나리오 컬럼에 저장되는 페이로드
type ScenarioRecord struct {
	Simulation *risk.MonteCarloResult `json:"simulation,omitempty"`
	Stress     map[string]float64     `json:"stress_test,omitempty"`
	Limits     *risk.LimitCheckResult `json:"limit_check,omitempty"`
}

// StoredRiskReport 저장된 리스크 보고서 행 (시리즈당 1행)
type StoredRiskReport struct {
	ID          string                  `json:"id"`
	DatasetName string                  `json:"dataset_name"`
	ReportDate  time.Time               `json:"report_date"`
	SampleCount int                     `json:"sample_count"`
	MeanReturn  float64                 `json:"mean_return"`
	Volatility  float64                 `json:"volatility"`
	VaR95       *float64                `json:"var_95,omitempty"`
	VaR99       *float64                `json:"var_99,omitempty"`
	CVaR95      *float64                `json:"cvar_95,omitempty"`
	CVaR99      *float64                `json:"cvar_99,omitempty"`
	Sharpe      risk.RatioResult        `json:"sharpe"`
	Sortino     risk.RatioResult        `json:"sortino"`
	MaxDrawdown float64                 `json:"max_drawdown"`
	Correlation *risk.CorrelationMatrix `json:"correlation,omitempty"`
	Portfolio   *risk.SeriesStats       `json:"portfolio,omitempty"`
	Scenario    *ScenarioRecord         `json:"scenario,omitempty"`
	Config      *risk.StatsConfig       `json:"config,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// SaveRiskReport persists an assembled report, one row per series
// 같은 날짜의 같은 데이터셋은 업서트 (야간 재계산 대체)
func (r *Repository) SaveRiskReport(ctx context.Context, report *RiskReport) error {
	configJSON, err := json.Marshal(report.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var correlationJSON []byte
	if report.Correlation != nil {
		correlationJSON, err = json.Marshal(report.Correlation)
		if err != nil {
			return fmt.Errorf("failed to marshal correlation: %w", err)
		}
	}

	var portfolioJSON []byte
	if report.Portfolio != nil {
		portfolioJSON, err = json.Marshal(report.Portfolio)
		if err != nil {
			return fmt.Errorf("failed to marshal portfolio: %w", err)
		}
	}

	var scenarioJSON []byte
	if report.Simulation != nil || len(report.Stress) > 0 || report.Limits != nil {
		record := ScenarioRecord{
			Simulation: report.Simulation,
			Stress:     report.Stress,
			Limits:     report.Limits,
		}
		scenarioJSON, err = json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal scenario: %w", err)
		}
	}

	query := `
		INSERT INTO analytics.risk_reports (
			id, dataset_name, report_date, sample_count,
			mean_return, volatility,
			var_95, var_99, cvar_95, cvar_99,
			sharpe, sharpe_defined, sortino, sortino_defined,
			max_drawdown, correlation, portfolio, scenario, config, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (dataset_name, report_date) DO UPDATE SET
			id = EXCLUDED.id,
			sample_count = EXCLUDED.sample_count,
			mean_return = EXCLUDED.mean_return,
			volatility = EXCLUDED.volatility,
			var_95 = EXCLUDED.var_95,
			var_99 = EXCLUDED.var_99,
			cvar_95 = EXCLUDED.cvar_95,
			cvar_99 = EXCLUDED.cvar_99,
			sharpe = EXCLUDED.sharpe,
			sharpe_defined = EXCLUDED.sharpe_defined,
			sortino = EXCLUDED.sortino,
			sortino_defined = EXCLUDED.sortino_defined,
			max_drawdown = EXCLUDED.max_drawdown,
			correlation = EXCLUDED.correlation,
			portfolio = EXCLUDED.portfolio,
			scenario = EXCLUDED.scenario,
			config = EXCLUDED.config,
			created_at = EXCLUDED.created_at
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range report.Series {
		var95, cvar95 := varAt(s.Stats.VaR, 0.95)
		var99, cvar99 := varAt(s.Stats.VaR, 0.99)

		_, err = tx.Exec(ctx, query,
			uuid.New().String(), s.Name, report.GeneratedAt, s.Stats.SampleCount,
			s.Stats.MeanReturn, s.Stats.Volatility,
			var95, var99, cvar95, cvar99,
			s.Stats.Sharpe.Value, s.Stats.Sharpe.Defined,
			s.Stats.Sortino.Value, s.Stats.Sortino.Defined,
			s.Stats.MaxDrawdown, correlationJSON, portfolioJSON, scenarioJSON, configJSON, report.GeneratedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save risk report for %s: %w", s.Name, err)
		}
	}

	return tx.Commit(ctx)
}

// varAt VaR 결과에서 특정 신뢰수준의 VaR/CVaR 추출 (없으면 nil → NULL)
func varAt(results []risk.VaRResult, confidence float64) (*float64, *float64) {
	for _, v := range results {
		if v.Confidence == confidence {
			varValue, cvarValue := v.VaR, v.CVaR
			return &varValue, &cvarValue
		}
	}
	return nil, nil
}

// GetLatestRiskReport retrieves the most recent report row for a dataset
// 보고서가 없으면 (nil, nil)
func (r *Repository) GetLatestRiskReport(ctx context.Context, dataset string) (*StoredRiskReport, error) {
	query := `
		SELECT id, dataset_name, report_date, sample_count,
			mean_return, volatility,
			var_95, var_99, cvar_95, cvar_99,
			sharpe, sharpe_defined, sortino, sortino_defined,
			max_drawdown, correlation, portfolio, scenario, config, created_at
		FROM analytics.risk_reports
		WHERE dataset_name = $1
		ORDER BY report_date DESC
		LIMIT 1
	`

	row := r.pool.QueryRow(ctx, query, dataset)
	stored, err := scanRiskReport(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get risk report for %s: %w", dataset, err)
	}
	return stored, nil
}

// GetRiskReportHistory retrieves recent report rows for a dataset
func (r *Repository) GetRiskReportHistory(ctx context.Context, dataset string, limit int) ([]StoredRiskReport, error) {
	query := `
		SELECT id, dataset_name, report_date, sample_count,
			mean_return, volatility,
			var_95, var_99, cvar_95, cvar_99,
			sharpe, sharpe_defined, sortino, sortino_defined,
			max_drawdown, correlation, portfolio, scenario, config, created_at
		FROM analytics.risk_reports
		WHERE dataset_name = $1
		ORDER BY report_date DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, dataset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk reports: %w", err)
	}
	defer rows.Close()

	var reports []StoredRiskReport
	for rows.Next() {
		stored, err := scanRiskReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan risk report: %w", err)
		}
		reports = append(reports, *stored)
	}
	return reports, rows.Err()
}

// scanRiskReport 공통 스캔 (JSONB 컬럼은 NULL 허용)
func scanRiskReport(row pgx.Row) (*StoredRiskReport, error) {
	var stored StoredRiskReport
	var correlationJSON, portfolioJSON, scenarioJSON, configJSON []byte

	err := row.Scan(
		&stored.ID, &stored.DatasetName, &stored.ReportDate, &stored.SampleCount,
		&stored.MeanReturn, &stored.Volatility,
		&stored.VaR95, &stored.VaR99, &stored.CVaR95, &stored.CVaR99,
		&stored.Sharpe.Value, &stored.Sharpe.Defined,
		&stored.Sortino.Value, &stored.Sortino.Defined,
		&stored.MaxDrawdown, &correlationJSON, &portfolioJSON, &scenarioJSON, &configJSON, &stored.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if correlationJSON != nil {
		if err := json.Unmarshal(correlationJSON, &stored.Correlation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal correlation: %w", err)
		}
	}
	if portfolioJSON != nil {
		if err := json.Unmarshal(portfolioJSON, &stored.Portfolio); err != nil {
			return nil, fmt.Errorf("failed to unmarshal portfolio: %w", err)
		}
	}
	if scenarioJSON != nil {
		if err := json.Unmarshal(scenarioJSON, &stored.Scenario); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
		}
	}
	if configJSON != nil {
		if err := json.Unmarshal(configJSON, &stored.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	return &stored, nil
}

// =============================================================================
// Simulation Runs
// =============================================================================

// SimulationRunSummary 시뮬레이션 실행 요약 (status 출력용)
type SimulationRunSummary struct {
	RunID             string    `json:"run_id"`
	DatasetName       string    `json:"dataset_name"`
	Method            string    `json:"method"`
	NumPaths          int       `json:"num_paths"`
	Horizon           int       `json:"horizon"`
	MedianFinalValue  float64   `json:"median_final_value"`
	ProbabilityOfLoss float64   `json:"probability_of_loss"`
	CreatedAt         time.Time `json:"created_at"`
}

// SaveSimulationRun persists a Monte Carlo result keyed by run id
func (r *Repository) SaveSimulationRun(ctx context.Context, dataset string, result *risk.MonteCarloResult) error {
	configJSON, err := json.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	inputJSON, err := json.Marshal(result.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	bandsJSON, err := json.Marshal(result.Bands)
	if err != nil {
		return fmt.Errorf("failed to marshal bands: %w", err)
	}
	percentilesJSON, err := json.Marshal(result.Percentiles)
	if err != nil {
		return fmt.Errorf("failed to marshal percentiles: %w", err)
	}
	varJSON, err := json.Marshal(result.VaR)
	if err != nil {
		return fmt.Errorf("failed to marshal var results: %w", err)
	}

	query := `
		INSERT INTO analytics.simulation_runs (
			run_id, dataset_name, run_date, method, num_paths, horizon, seed,
			config, input, bands, percentiles, var_results,
			mean_return, std_dev, mean_final_value, median_final_value,
			probability_of_loss, elapsed_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (run_id) DO UPDATE SET
			bands = EXCLUDED.bands,
			percentiles = EXCLUDED.percentiles,
			var_results = EXCLUDED.var_results,
			mean_return = EXCLUDED.mean_return,
			std_dev = EXCLUDED.std_dev,
			mean_final_value = EXCLUDED.mean_final_value,
			median_final_value = EXCLUDED.median_final_value,
			probability_of_loss = EXCLUDED.probability_of_loss,
			elapsed_ms = EXCLUDED.elapsed_ms
	`

	_, err = r.pool.Exec(ctx, query,
		result.RunID, dataset, result.RunDate, string(result.Config.Method),
		result.Config.NumPaths, result.Config.Horizon, result.Config.Seed,
		configJSON, inputJSON, bandsJSON, percentilesJSON, varJSON,
		result.MeanReturn, result.StdDev, result.MeanFinalValue, result.MedianFinalValue,
		result.ProbabilityOfLoss, result.Elapsed.Milliseconds(), result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save simulation run: %w", err)
	}

	return nil
}

// ListRecentSimulationRuns retrieves recent simulation runs across datasets
func (r *Repository) ListRecentSimulationRuns(ctx context.Context, limit int) ([]SimulationRunSummary, error) {
	query := `
		SELECT run_id, dataset_name, method, num_paths, horizon,
			median_final_value, probability_of_loss, created_at
		FROM analytics.simulation_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulation runs: %w", err)
	}
	defer rows.Close()

	var runs []SimulationRunSummary
	for rows.Next() {
		var run SimulationRunSummary
		if err := rows.Scan(
			&run.RunID, &run.DatasetName, &run.Method, &run.NumPaths, &run.Horizon,
			&run.MedianFinalValue, &run.ProbabilityOfLoss, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan simulation run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteSimulationRunsBefore prunes runs older than cutoff (maintenance job)
func (r *Repository) DeleteSimulationRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM analytics.simulation_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune simulation runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// =============================================================================
// KPI Reports
// =============================================================================

// SaveKPIReport persists a KPI report, upserting on dataset+period
func (r *Repository) SaveKPIReport(ctx context.Context, report *KPIReport) error {
	var accuracyJSON []byte
	var err error
	if report.Accuracy != nil {
		accuracyJSON, err = json.Marshal(report.Accuracy)
		if err != nil {
			return fmt.Errorf("failed to marshal accuracy: %w", err)
		}
	}

	query := `
		INSERT INTO analytics.kpi_reports (
			id, dataset_name, period, period_start, period_end, sample_count,
			revenue_growth, latest_growth,
			operating_margin, net_margin, budget_variance,
			risk_adjusted, risk_adjusted_defined, accuracy, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (dataset_name, period) DO UPDATE SET
			id = EXCLUDED.id,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			sample_count = EXCLUDED.sample_count,
			revenue_growth = EXCLUDED.revenue_growth,
			latest_growth = EXCLUDED.latest_growth,
			operating_margin = EXCLUDED.operating_margin,
			net_margin = EXCLUDED.net_margin,
			budget_variance = EXCLUDED.budget_variance,
			risk_adjusted = EXCLUDED.risk_adjusted,
			risk_adjusted_defined = EXCLUDED.risk_adjusted_defined,
			accuracy = EXCLUDED.accuracy,
			generated_at = EXCLUDED.generated_at
	`

	_, err = r.pool.Exec(ctx, query,
		uuid.New().String(), report.Dataset, report.Period,
		report.PeriodStart, report.PeriodEnd, report.SampleCount,
		report.RevenueGrowth, report.LatestGrowth,
		report.OperatingMargin, report.NetMargin, report.BudgetVariance,
		report.RiskAdjusted.Value, report.RiskAdjusted.Defined,
		accuracyJSON, report.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save kpi report: %w", err)
	}

	return nil
}

// GetLatestKPIReport retrieves the most recent KPI report for a dataset
// 보고서가 없으면 (nil, nil)
func (r *Repository) GetLatestKPIReport(ctx context.Context, dataset string) (*KPIReport, error) {
	query := `
		SELECT dataset_name, period, period_start, period_end, sample_count,
			revenue_growth, latest_growth,
			operating_margin, net_margin, budget_variance,
			risk_adjusted, risk_adjusted_defined, accuracy, generated_at
		FROM analytics.kpi_reports
		WHERE dataset_name = $1
		ORDER BY period_end DESC
		LIMIT 1
	`

	var report KPIReport
	var accuracyJSON []byte

	err := r.pool.QueryRow(ctx, query, dataset).Scan(
		&report.Dataset, &report.Period, &report.PeriodStart, &report.PeriodEnd, &report.SampleCount,
		&report.RevenueGrowth, &report.LatestGrowth,
		&report.OperatingMargin, &report.NetMargin, &report.BudgetVariance,
		&report.RiskAdjusted.Value, &report.RiskAdjusted.Defined,
		&accuracyJSON, &report.GeneratedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kpi report for %s: %w", dataset, err)
	}

	if accuracyJSON != nil {
		if err := json.Unmarshal(accuracyJSON, &report.Accuracy); err != nil {
			return nil, fmt.Errorf("failed to unmarshal accuracy: %w", err)
		}
	}

	return &report, nil
}

// =============================================================================
// Forecast Evaluations
// =============================================================================

// SaveForecastEvaluation persists an accuracy report, upserting on dataset+model version
func (r *Repository) SaveForecastEvaluation(ctx context.Context, dataset string, report *AccuracyReport) error {
	query := `
		INSERT INTO analytics.forecast_evaluations (
			id, dataset_name, model_version, sample_count,
			mae, rmse, mape, mape_skipped,
			r2, r2_defined, hit_rate, mean_error, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (dataset_name, model_version) DO UPDATE SET
			sample_count = EXCLUDED.sample_count,
			mae = EXCLUDED.mae,
			rmse = EXCLUDED.rmse,
			mape = EXCLUDED.mape,
			mape_skipped = EXCLUDED.mape_skipped,
			r2 = EXCLUDED.r2,
			r2_defined = EXCLUDED.r2_defined,
			hit_rate = EXCLUDED.hit_rate,
			mean_error = EXCLUDED.mean_error,
			evaluated_at = EXCLUDED.evaluated_at
	`

	_, err := r.pool.Exec(ctx, query,
		uuid.New().String(), dataset, report.ModelVersion, report.SampleCount,
		report.MAE, report.RMSE, report.MAPE, report.MAPESkipped,
		report.R2.Value, report.R2.Defined,
		report.HitRate, report.MeanError, report.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save forecast evaluation: %w", err)
	}

	return nil
}

// GetLatestForecastEvaluation retrieves the most recent evaluation for a dataset
// 평가가 없으면 (nil, nil), KPI 보고서가 정확도 섹션 없이 생성됨
func (r *Repository) GetLatestForecastEvaluation(ctx context.Context, dataset string) (*AccuracyReport, error) {
	query := `
		SELECT model_version, sample_count,
			mae, rmse, mape, mape_skipped,
			r2, r2_defined, hit_rate, mean_error, evaluated_at
		FROM analytics.forecast_evaluations
		WHERE dataset_name = $1
		ORDER BY evaluated_at DESC
		LIMIT 1
	`

	var report AccuracyReport
	err := r.pool.QueryRow(ctx, query, dataset).Scan(
		&report.ModelVersion, &report.SampleCount,
		&report.MAE, &report.RMSE, &report.MAPE, &report.MAPESkipped,
		&report.R2.Value, &report.R2.Defined,
		&report.HitRate, &report.MeanError, &report.EvaluatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast evaluation for %s: %w", dataset, err)
	}

	return &report, nil
}
