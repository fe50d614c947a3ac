package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "시스템 상태 조회",
	Long: `시스템 전체 상태를 한 번에 조회합니다.

이 명령어는:
- Config 요약 (환경, 포트, 연결 정보)
- 데이터베이스 상태 및 풀 통계
- Redis 상태
- 데이터셋 목록
- 최근 시뮬레이션 실행

Example:
  go run ./cmd/horizon status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Horizon Status ===")

	svc, err := initServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	// Config summary
	cfg := svc.cfg
	fmt.Println("\n⚙️  Config")
	fmt.Printf("   Env: %s, Port: %s\n", cfg.Env, cfg.Port)
	fmt.Printf("   Database: %s\n", maskPassword(cfg.Database.URL))
	fmt.Printf("   Redis: enabled=%v\n", cfg.Redis.Enabled)
	fmt.Printf("   Analysis: return_type=%s, confidence=%v, annualize=%v\n",
		cfg.Analysis.ReturnType, cfg.Analysis.ConfidenceLevels, cfg.Analysis.Annualize)
	fmt.Printf("   Simulation: method=%s, paths=%d, horizon=%d\n",
		cfg.Simulation.Method, cfg.Simulation.NumPaths, cfg.Simulation.Horizon)

	// Database health
	fmt.Println("\n🗄️  Database")
	health, err := svc.db.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("   ❌ Health check failed: %v\n", err)
	} else {
		fmt.Printf("   Healthy: %v (response: %v)\n", health.Healthy, health.ResponseTime)
		fmt.Printf("   Pool: %d/%d connections (%d idle)\n",
			health.Stats.TotalConns, health.Stats.MaxConns, health.Stats.IdleConns)
	}

	// Redis health
	fmt.Println("\n📮 Redis")
	if svc.redis.Enabled() {
		if pingErr := svc.redis.Redis().Ping(ctx).Err(); pingErr != nil {
			fmt.Printf("   ❌ Ping failed: %v\n", pingErr)
		} else {
			fmt.Println("   ✅ Connected")
		}
	} else {
		fmt.Println("   Disabled (cache/rate-limit fall back to local)")
	}

	// Datasets
	fmt.Println("\n📊 Datasets")
	datasets, err := svc.datasets.ListDatasets(ctx)
	if err != nil {
		fmt.Printf("   ⚠️  %v\n", err)
	} else if len(datasets) == 0 {
		fmt.Println("   (none, upload via POST /api/v1/datasets)")
	} else {
		for _, d := range datasets {
			fmt.Printf("   %-24s %-10s %6d rows  updated %s\n",
				d.Name, d.Category, d.RowCount, d.UpdatedAt.Format("2006-01-02 15:04"))
		}
	}

	// Recent simulation runs
	fmt.Println("\n🎲 Recent Simulation Runs")
	runs, err := svc.reports.ListRecentSimulationRuns(ctx, 5)
	if err != nil {
		fmt.Printf("   ⚠️  %v\n", err)
	} else if len(runs) == 0 {
		fmt.Println("   (none)")
	} else {
		for _, run := range runs {
			fmt.Printf("   %s  %-20s %-20s paths=%-6d p(loss)=%.1f%%  %s\n",
				run.RunID[:8], run.DatasetName, run.Method, run.NumPaths,
				run.ProbabilityOfLoss*100, run.CreatedAt.Format("2006-01-02 15:04"))
		}
	}

	fmt.Println()
	return nil
}
