package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/report"
	"github.com/wonny/horizon/backend/internal/risk"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "리스크 보고서 생성",
	Long: `시계열에 대한 리스크 보고서를 생성합니다.

입력 소스:
- --csv      CSV 파일 (timestamp,value[,category]), DB 없이 동작
- --dataset  저장된 데이터셋 이름 (DB 필요)

보고서 내용:
- 수익률 통계 (평균, 변동성)
- VaR / CVaR (신뢰수준별)
- Sharpe / Sortino, 최대 낙폭
- 시리즈 2개 이상이면 상관 행렬 + 비중 가중 포트폴리오 통계

Example:
  go run ./cmd/horizon analyze --csv data/revenue.csv
  go run ./cmd/horizon analyze --csv a.csv --csv b.csv --return-type log
  go run ./cmd/horizon analyze --dataset acme-revenue --save
  go run ./cmd/horizon analyze --dataset acme-revenue --category revenue --json`,
	RunE: runAnalyze,
}

var (
	analyzeCSV        []string
	analyzeDatasets   []string
	analyzeCategory   string
	analyzeReturnType string
	analyzeSimulate   bool
	analyzePaths      int
	analyzeSave       bool
	analyzeJSON       bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringSliceVar(&analyzeCSV, "csv", nil, "CSV 파일 경로 (반복 가능)")
	analyzeCmd.Flags().StringSliceVar(&analyzeDatasets, "dataset", nil, "저장된 데이터셋 이름 (반복 가능)")
	analyzeCmd.Flags().StringVar(&analyzeCategory, "category", "", "관측치 분류 필터 (revenue/expense/cash_flow/price/custom)")
	analyzeCmd.Flags().StringVar(&analyzeReturnType, "return-type", "", "수익률 계산 방식 (simple/log, 기본: config)")
	analyzeCmd.Flags().BoolVar(&analyzeSimulate, "simulate", false, "Monte Carlo 시뮬레이션 블록 포함")
	analyzeCmd.Flags().IntVar(&analyzePaths, "paths", 0, "시뮬레이션 경로 수 (기본: config)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "보고서를 DB에 저장")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "전체 JSON 출력")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(analyzeCSV) == 0 && len(analyzeDatasets) == 0 {
		return fmt.Errorf("at least one of --csv or --dataset is required")
	}

	ctx := cmd.Context()

	// --dataset 또는 --save는 DB가 필요, CSV 전용 분석은 오프라인으로 충분
	var (
		assembler *report.Assembler
		svc       *services
		defaults  report.AnalysisDefaults
	)
	if len(analyzeDatasets) > 0 || analyzeSave {
		s, err := initServices()
		if err != nil {
			return err
		}
		defer s.Close()
		svc = s
		defaults = s.defaults
	} else {
		cfg, _, a, err := initOffline()
		if err != nil {
			return err
		}
		assembler = a
		defaults = report.DefaultsFromConfig(cfg)
	}

	returnType, err := resolveReturnType(analyzeReturnType, defaults.ReturnType)
	if err != nil {
		return err
	}

	category, filter, err := resolveCategoryFlag(analyzeCategory)
	if err != nil {
		return err
	}

	// Collect series from all sources
	var series []risk.Series
	for _, path := range analyzeCSV {
		s, err := loadCSVSeries(path, category, filter)
		if err != nil {
			return err
		}
		series = append(series, s)
	}
	for _, name := range analyzeDatasets {
		var s risk.Series
		if filter {
			s, err = svc.datasets.GetSeriesByCategory(ctx, name, category)
		} else {
			s, err = svc.datasets.GetSeries(ctx, name)
		}
		if err != nil {
			return fmt.Errorf("dataset %s: %w", name, err)
		}
		series = append(series, s)
	}

	input := report.AssembleInput{
		Series:     series,
		ReturnType: returnType,
		Stats:      defaults.Stats,
	}
	if analyzeSimulate {
		simCfg := defaults.Simulation
		if analyzePaths != 0 {
			simCfg.NumPaths = analyzePaths
		}
		input.Simulation = &simCfg
	}

	var result *report.RiskReport
	if svc != nil {
		result, err = svc.service.RiskReport(ctx, input, analyzeSave)
	} else {
		result, err = assembler.Assemble(ctx, input)
	}
	if err != nil {
		return fmt.Errorf("risk report failed: %w", err)
	}

	if analyzeJSON {
		out, err := result.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(out)
	} else {
		fmt.Println(result.ToSummary())
	}

	if analyzeSave {
		fmt.Printf("💾 Report saved (dataset: %s)\n", result.DatasetName())
	}

	return nil
}

// =============================================================================
// Shared input helpers (analyze/simulate/kpi에서 공용)
// =============================================================================

// loadCSVSeries CSV 파일을 risk.Series로 적재
// filter가 true면 해당 분류의 관측치만 사용한다.
func loadCSVSeries(path string, category dataset.Category, filter bool) (risk.Series, error) {
	name, observations, err := dataset.LoadCSVFile(path, category)
	if err != nil {
		return risk.Series{}, err
	}

	if filter {
		kept := observations[:0]
		for _, obs := range observations {
			if obs.Category == category {
				kept = append(kept, obs)
			}
		}
		observations = kept
	}

	return dataset.SeriesFromObservations(name, observations)
}

// resolveCategoryFlag --category 플래그 해석 (빈 값이면 필터 없음)
func resolveCategoryFlag(raw string) (dataset.Category, bool, error) {
	if raw == "" {
		return dataset.CategoryCustom, false, nil
	}
	category, err := dataset.ParseCategory(raw)
	if err != nil {
		return "", false, err
	}
	return category, true, nil
}

// resolveReturnType --return-type 플래그 해석 (빈 값이면 config 기본값)
func resolveReturnType(raw string, fallback risk.ReturnType) (risk.ReturnType, error) {
	switch raw {
	case "":
		return fallback, nil
	case string(risk.ReturnSimple):
		return risk.ReturnSimple, nil
	case string(risk.ReturnLog):
		return risk.ReturnLog, nil
	default:
		return "", fmt.Errorf("invalid return type %q (want simple or log)", raw)
	}
}
