package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/horizon/backend/internal/report"
	"github.com/wonny/horizon/backend/internal/risk"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Monte Carlo 시뮬레이션 실행",
	Long: `가치 경로의 Monte Carlo 시뮬레이션을 실행합니다.

입력 소스 (택 1):
- --csv               CSV 파일에서 수익률 추정 (DB 없이 동작)
- --dataset           저장된 데이터셋에서 수익률 추정 (DB 필요)
- --mean/--volatility 명시적 파라미터 (추정 생략, --start-value 필수)

방법:
- parametric_normal    정규분포 가정 (기본)
- parametric_t         Student-t 분포 (fat tail)
- historical_bootstrap 과거 수익률 리샘플링

Example:
  go run ./cmd/horizon simulate --csv data/revenue.csv
  go run ./cmd/horizon simulate --dataset acme-revenue --paths 50000 --horizon 63
  go run ./cmd/horizon simulate --dataset acme-revenue --method historical_bootstrap --save
  go run ./cmd/horizon simulate --mean 0.001 --volatility 0.02 --start-value 1000000
  go run ./cmd/horizon simulate --csv data/revenue.csv --seed 42 --json`,
	RunE: runSimulate,
}

var (
	simCSV        string
	simDataset    string
	simCategory   string
	simReturnType string
	simPaths      int
	simHorizon    int
	simMethod     string
	simSeed       int64
	simDoF        float64
	simStartValue float64
	simMean       float64
	simVolatility float64
	simSave       bool
	simJSON       bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	// Flags
	simulateCmd.Flags().StringVar(&simCSV, "csv", "", "CSV 파일 경로")
	simulateCmd.Flags().StringVar(&simDataset, "dataset", "", "저장된 데이터셋 이름")
	simulateCmd.Flags().StringVar(&simCategory, "category", "", "관측치 분류 필터")
	simulateCmd.Flags().StringVar(&simReturnType, "return-type", "", "수익률 계산 방식 (simple/log)")
	simulateCmd.Flags().IntVar(&simPaths, "paths", 0, "시뮬레이션 경로 수 (기본: config)")
	simulateCmd.Flags().IntVar(&simHorizon, "horizon", 0, "전방 스텝 수 (기본: config)")
	simulateCmd.Flags().StringVar(&simMethod, "method", "", "normal/t/bootstrap 또는 전체 이름")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "난수 시드 (0=시간 기반)")
	simulateCmd.Flags().Float64Var(&simDoF, "dof", 0, "Student-t 자유도 (기본: config)")
	simulateCmd.Flags().Float64Var(&simStartValue, "start-value", 0, "시작값 (0=마지막 관측값)")
	simulateCmd.Flags().Float64Var(&simMean, "mean", 0, "스텝당 평균 수익률 (파라미터 모드)")
	simulateCmd.Flags().Float64Var(&simVolatility, "volatility", 0, "스텝당 변동성 (파라미터 모드)")
	simulateCmd.Flags().BoolVar(&simSave, "save", false, "실행 결과를 DB에 저장")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "전체 JSON 출력")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	paramsMode := cmd.Flags().Changed("mean") || cmd.Flags().Changed("volatility")
	if paramsMode {
		if !cmd.Flags().Changed("mean") || !cmd.Flags().Changed("volatility") {
			return fmt.Errorf("parameter mode requires both --mean and --volatility")
		}
		if simStartValue <= 0 {
			return fmt.Errorf("parameter mode requires a positive --start-value")
		}
		if simCSV != "" {
			return fmt.Errorf("--mean/--volatility cannot be combined with --csv")
		}
	} else if (simCSV == "") == (simDataset == "") {
		return fmt.Errorf("exactly one of --csv or --dataset is required")
	}

	needDB := simDataset != "" || simSave

	var (
		svc      *services
		defaults simDefaults
	)
	if needDB {
		s, err := initServices()
		if err != nil {
			return err
		}
		defer s.Close()
		svc = s
		defaults = simDefaults{config: s.defaults.Simulation, returnType: s.defaults.ReturnType}
	} else {
		cfg, _, _, err := initOffline()
		if err != nil {
			return err
		}
		d := report.DefaultsFromConfig(cfg)
		defaults = simDefaults{config: d.Simulation, returnType: d.ReturnType}
	}

	simConfig := applySimFlags(cmd, defaults.config)

	var (
		result *risk.MonteCarloResult
		err    error
	)
	switch {
	case paramsMode:
		input := risk.SimulationInput{
			StartValue: simStartValue,
			MeanReturn: simMean,
			Volatility: simVolatility,
		}
		label := simDataset
		if label == "" {
			label = "params"
		}
		if svc != nil {
			result, err = svc.service.SimulationRunFromParams(ctx, label, input, simConfig, simSave)
		} else {
			result, err = risk.NewEngine().MonteCarloFromParams(ctx, input, simConfig)
		}

	default:
		returnType, rtErr := resolveReturnType(simReturnType, defaults.returnType)
		if rtErr != nil {
			return rtErr
		}
		category, filter, catErr := resolveCategoryFlag(simCategory)
		if catErr != nil {
			return catErr
		}

		var series risk.Series
		switch {
		case simCSV != "":
			series, err = loadCSVSeries(simCSV, category, filter)
		case filter:
			series, err = svc.datasets.GetSeriesByCategory(ctx, simDataset, category)
		default:
			series, err = svc.datasets.GetSeries(ctx, simDataset)
		}
		if err != nil {
			return err
		}

		returns, retErr := series.Returns(returnType)
		if retErr != nil {
			return retErr
		}

		startValue := simStartValue
		if startValue == 0 {
			values := series.Values()
			startValue = values[len(values)-1]
		}

		if svc != nil {
			result, err = svc.service.SimulationRun(ctx, series.Name, returns, startValue, simConfig, simSave)
		} else {
			result, err = risk.NewEngine().MonteCarlo(ctx, returns, startValue, simConfig)
		}
	}
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	if simJSON {
		data, jsonErr := json.MarshalIndent(result, "", "  ")
		if jsonErr != nil {
			return jsonErr
		}
		fmt.Println(string(data))
		return nil
	}

	printSimulationResult(result)

	if simSave {
		fmt.Println("💾 Simulation run saved")
	}
	return nil
}

// simDefaults 시뮬레이션 경로에서 쓰는 config 기본값 묶음
type simDefaults struct {
	config     risk.MonteCarloConfig
	returnType risk.ReturnType
}

// applySimFlags 명시된 플래그만 config 기본값 위에 덮어쓴다
// 음수는 기본값으로 바꿔치지 않고 넘겨 ValidateMonteCarloConfig에서 거부되게 한다
func applySimFlags(cmd *cobra.Command, config risk.MonteCarloConfig) risk.MonteCarloConfig {
	if simPaths != 0 {
		config.NumPaths = simPaths
	}
	if simHorizon != 0 {
		config.Horizon = simHorizon
	}
	if simMethod != "" {
		config.Method = parseSimMethod(simMethod)
	}
	if cmd.Flags().Changed("seed") {
		config.Seed = simSeed
	}
	if simDoF != 0 {
		config.StudentTDoF = simDoF
	}
	return config
}

// parseSimMethod 축약형(normal/t/bootstrap)을 전체 이름으로 변환
// 미지의 값은 그대로 넘겨 ValidateMonteCarloConfig에서 거부되게 한다
func parseSimMethod(s string) risk.MonteCarloMethod {
	switch strings.ToLower(s) {
	case "normal":
		return risk.MethodParametricNormal
	case "t":
		return risk.MethodParametricT
	case "bootstrap":
		return risk.MethodHistoricalBootstrap
	default:
		return risk.MonteCarloMethod(s)
	}
}

func printSimulationResult(result *risk.MonteCarloResult) {
	fmt.Println("\n✅ Simulation Completed")
	fmt.Println("=" + strings.Repeat("=", 60))
	fmt.Println()

	// Run info
	fmt.Println("📊 Run")
	fmt.Printf("Run ID:     %s\n", result.RunID)
	fmt.Printf("Method:     %s\n", result.Config.Method)
	fmt.Printf("Paths:      %d, Horizon: %d steps\n", result.Config.NumPaths, result.Config.Horizon)
	if result.Config.Seed != 0 {
		fmt.Printf("Seed:       %d (reproducible)\n", result.Config.Seed)
	}
	fmt.Printf("Start:      %.2f (μ=%.6f, σ=%.6f per step)\n",
		result.Input.StartValue, result.Input.MeanReturn, result.Input.Volatility)
	fmt.Printf("Duration:   %.2f seconds\n", result.Elapsed.Seconds())
	fmt.Println()

	// Outcome distribution
	fmt.Println("💰 Final Value")
	fmt.Printf("Mean:       %.2f\n", result.MeanFinalValue)
	fmt.Printf("Median:     %.2f\n", result.MedianFinalValue)
	fmt.Printf("P(loss):    %.1f%%\n", result.ProbabilityOfLoss*100)
	fmt.Println()

	fmt.Println("📉 Total Return")
	fmt.Printf("Mean:       %+.4f (%.2f%%)\n", result.MeanReturn, result.MeanReturn*100)
	fmt.Printf("Std Dev:    %.4f\n", result.StdDev)
	for _, v := range result.VaR {
		fmt.Printf("VaR %.0f%%:    %.4f (%.2f%%)  CVaR: %.4f (%.2f%%)\n",
			v.Confidence*100, v.VaR, v.VaR*100, v.CVaR, v.CVaR*100)
	}
	fmt.Println()

	// Percentile table (전체 기간 수익률)
	if len(result.Percentiles) > 0 {
		keys := make([]int, 0, len(result.Percentiles))
		for k := range result.Percentiles {
			keys = append(keys, k)
		}
		sort.Ints(keys)

		fmt.Println("📈 Return Percentiles")
		for _, k := range keys {
			fmt.Printf("  p%-3d %+.4f\n", k, result.Percentiles[k])
		}
		fmt.Println()
	}

	// Band endpoints (마지막 스텝 기준)
	if len(result.Bands) > 0 {
		fmt.Println("🎯 Value Bands (final step)")
		for _, band := range result.Bands {
			if len(band.Values) == 0 {
				continue
			}
			fmt.Printf("  p%-4.0f %.2f\n", band.Percentile, band.Values[len(band.Values)-1])
		}
		fmt.Println()
	}
}
