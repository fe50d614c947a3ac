package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/report"
	"github.com/wonny/horizon/backend/internal/risk"
)

// kpiCmd represents the kpi command
var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "KPI 보고서 생성",
	Long: `재무 KPI 보고서를 생성합니다.

입력 소스:
- --dataset       저장된 데이터셋 (revenue/expense 분류 사용, DB 필요)
- --revenue-csv   매출 CSV (DB 없이 동작)
- --operating-csv 영업비용 CSV (선택)
- --expense-csv   총비용 CSV (선택)
- --budget-csv    예산 CSV (선택)

보고서 내용:
- 매출 성장률 (연환산 CAGR, 직전 기간 대비)
- 영업마진 / 순마진 / 예산 편차
- 위험조정수익률 (매출 수익률 Sharpe)

모든 시계열은 매출과 타임스탬프가 정렬되어야 합니다.

Example:
  go run ./cmd/horizon kpi --dataset acme-financials
  go run ./cmd/horizon kpi --revenue-csv revenue.csv --expense-csv costs.csv
  go run ./cmd/horizon kpi --revenue-csv revenue.csv --budget-csv budget.csv --json
  go run ./cmd/horizon kpi --dataset acme-financials --save`,
	RunE: runKPI,
}

var (
	kpiDataset        string
	kpiRevenueCSV     string
	kpiOperatingCSV   string
	kpiExpenseCSV     string
	kpiBudgetCSV      string
	kpiPeriodsPerYear int
	kpiRiskFree       float64
	kpiSave           bool
	kpiJSON           bool
)

func init() {
	rootCmd.AddCommand(kpiCmd)

	// Flags
	kpiCmd.Flags().StringVar(&kpiDataset, "dataset", "", "저장된 데이터셋 이름")
	kpiCmd.Flags().StringVar(&kpiRevenueCSV, "revenue-csv", "", "매출 CSV 파일")
	kpiCmd.Flags().StringVar(&kpiOperatingCSV, "operating-csv", "", "영업비용 CSV 파일")
	kpiCmd.Flags().StringVar(&kpiExpenseCSV, "expense-csv", "", "총비용 CSV 파일")
	kpiCmd.Flags().StringVar(&kpiBudgetCSV, "budget-csv", "", "예산 CSV 파일")
	kpiCmd.Flags().IntVar(&kpiPeriodsPerYear, "periods-per-year", 0, "연환산 계수 (기본: 12, 월간)")
	kpiCmd.Flags().Float64Var(&kpiRiskFree, "risk-free-rate", 0, "연간 무위험 수익률 (기본: config)")
	kpiCmd.Flags().BoolVar(&kpiSave, "save", false, "보고서를 DB에 저장")
	kpiCmd.Flags().BoolVar(&kpiJSON, "json", false, "전체 JSON 출력")
}

func runKPI(cmd *cobra.Command, args []string) error {
	if kpiDataset == "" && kpiRevenueCSV == "" {
		return fmt.Errorf("at least one of --dataset or --revenue-csv is required")
	}

	ctx := cmd.Context()
	needDB := kpiDataset != "" || kpiSave

	var (
		svc      *services
		riskFree float64
	)
	if needDB {
		s, err := initServices()
		if err != nil {
			return err
		}
		defer s.Close()
		svc = s
		riskFree = s.defaults.RiskFreeRate
	} else {
		cfg, _, _, err := initOffline()
		if err != nil {
			return err
		}
		riskFree = report.DefaultsFromConfig(cfg).RiskFreeRate
	}
	if cmd.Flags().Changed("risk-free-rate") {
		riskFree = kpiRiskFree
	}

	input := report.KPIInput{
		Dataset:        kpiDataset,
		PeriodsPerYear: kpiPeriodsPerYear,
		RiskFreeRate:   riskFree,
	}

	// 매출: 명시적 CSV 우선, 없으면 데이터셋의 revenue 분류
	var err error
	if kpiRevenueCSV != "" {
		input.Revenue, err = loadCSVSeries(kpiRevenueCSV, dataset.CategoryRevenue, false)
		if err != nil {
			return err
		}
	} else {
		input.Revenue, err = svc.datasets.GetSeriesByCategory(ctx, kpiDataset, dataset.CategoryRevenue)
		if err != nil {
			return fmt.Errorf("dataset %s revenue: %w", kpiDataset, err)
		}
	}

	// 총비용: 명시적 CSV 우선, 없으면 데이터셋의 expense 분류 (없으면 생략)
	if kpiExpenseCSV != "" {
		input.TotalExpense, err = loadCSVSeries(kpiExpenseCSV, dataset.CategoryExpense, false)
		if err != nil {
			return err
		}
	} else if kpiDataset != "" {
		expense, expErr := svc.datasets.GetSeriesByCategory(ctx, kpiDataset, dataset.CategoryExpense)
		switch {
		case expErr == nil:
			input.TotalExpense = expense
		case errors.Is(expErr, risk.ErrInsufficientData):
			// expense 분류가 없는 데이터셋은 순마진 생략
		default:
			return fmt.Errorf("dataset %s expense: %w", kpiDataset, expErr)
		}
	}

	if kpiOperatingCSV != "" {
		input.OperatingExpense, err = loadCSVSeries(kpiOperatingCSV, dataset.CategoryExpense, false)
		if err != nil {
			return err
		}
	}
	if kpiBudgetCSV != "" {
		input.Budget, err = loadCSVSeries(kpiBudgetCSV, dataset.CategoryCustom, false)
		if err != nil {
			return err
		}
	}

	var result *report.KPIReport
	if svc != nil {
		result, err = svc.service.KPIReport(ctx, input, kpiSave)
	} else {
		result, err = report.CalculateKPI(input)
	}
	if err != nil {
		return fmt.Errorf("kpi report failed: %w", err)
	}

	if kpiJSON {
		data, jsonErr := json.MarshalIndent(result, "", "  ")
		if jsonErr != nil {
			return jsonErr
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(result.ToSummary())
	}

	if kpiSave {
		fmt.Printf("💾 Report saved (dataset: %s, period: %s)\n", result.Dataset, result.Period)
	}
	return nil
}
