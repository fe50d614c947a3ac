package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/report"
	"github.com/wonny/horizon/backend/pkg/config"
	"github.com/wonny/horizon/backend/pkg/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "데이터베이스 관리",
	Long: `데이터베이스 스키마를 관리합니다.

Subcommands:
  init   - 스키마 및 테이블 생성 (멱등)
  reset  - 전체 테이블 삭제 후 재생성 (--force 필수)
  check  - 연결/스키마 상태 점검

Example:
  go run ./cmd/horizon db init
  go run ./cmd/horizon db reset --force
  go run ./cmd/horizon db check`,
}

var (
	dbInitCmd = &cobra.Command{
		Use:   "init",
		Short: "스키마 생성",
		Long: `analytics 스키마와 전체 테이블을 생성합니다.

이미 존재하는 테이블은 건너뜁니다 (멱등).

Example:
  go run ./cmd/horizon db init`,
		RunE: runDBInit,
	}

	dbResetCmd = &cobra.Command{
		Use:   "reset",
		Short: "전체 테이블 삭제 후 재생성",
		Long: `⚠️  모든 데이터셋과 보고서가 삭제됩니다.

실수 방지를 위해 --force 플래그가 필수입니다.

Example:
  go run ./cmd/horizon db reset --force`,
		RunE: runDBReset,
	}

	dbCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "연결/스키마 상태 점검",
		Long: `데이터베이스 연결을 점검하고 풀 통계를 표시합니다.

이 명령어는:
- config에서 DATABASE_URL 로드
- Ping + Health Check 실행
- Connection Pool 통계 표시
- 스키마 존재 여부 확인

Example:
  go run ./cmd/horizon db check`,
		RunE: runDBCheck,
	}

	dbResetForce bool
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbResetCmd)
	dbCmd.AddCommand(dbCheckCmd)

	// Flags
	dbResetCmd.Flags().BoolVar(&dbResetForce, "force", false, "삭제 확인 (필수)")
}

// connectDB config 로드 + DB 연결 (redis 불필요한 db 명령 전용)
func connectDB() (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, nil
}

func runDBInit(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Horizon Database Init ===")

	_, db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	fmt.Println("Creating dataset tables...")
	if err := dataset.NewRepository(db.Pool).EnsureSchema(ctx); err != nil {
		return err
	}
	fmt.Println("✅ analytics.datasets, analytics.observations")

	fmt.Println("Creating report tables...")
	if err := report.NewRepository(db.Pool).EnsureSchema(ctx); err != nil {
		return err
	}
	fmt.Println("✅ analytics.risk_reports, analytics.simulation_runs, analytics.kpi_reports, analytics.forecast_evaluations")

	fmt.Println("\n✅ Schema ready")
	return nil
}

func runDBReset(cmd *cobra.Command, args []string) error {
	if !dbResetForce {
		return fmt.Errorf("db reset deletes ALL datasets and reports; re-run with --force")
	}

	fmt.Println("=== Horizon Database Reset ===")

	_, db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	datasets := dataset.NewRepository(db.Pool)
	reports := report.NewRepository(db.Pool)

	fmt.Println("🗑️  Dropping report tables...")
	if err := reports.DropTables(ctx); err != nil {
		return err
	}

	fmt.Println("🗑️  Dropping dataset tables...")
	if err := datasets.DropTables(ctx); err != nil {
		return err
	}

	fmt.Println("Recreating schema...")
	if err := datasets.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := reports.EnsureSchema(ctx); err != nil {
		return err
	}

	fmt.Println("\n✅ Database reset complete")
	return nil
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Horizon Database Check ===")

	// Load configuration
	fmt.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	// Create database connection
	fmt.Println("Connecting to database...")
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	fmt.Println("✅ Database connection established")

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	// Health check
	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}
	fmt.Println("✅ Health Check Results:")
	fmt.Printf("   Healthy: %v\n", status.Healthy)
	fmt.Printf("   Response Time: %v\n\n", status.ResponseTime)

	// Pool statistics
	fmt.Println("📊 Connection Pool Statistics:")
	fmt.Printf("   Max Connections: %d\n", status.Stats.MaxConns)
	fmt.Printf("   Total Connections: %d\n", status.Stats.TotalConns)
	fmt.Printf("   Acquired Connections: %d\n", status.Stats.AcquiredConns)
	fmt.Printf("   Idle Connections: %d\n", status.Stats.IdleConns)
	fmt.Printf("   Acquire Count: %d\n", status.Stats.AcquireCount)
	fmt.Printf("   Acquire Duration: %v\n\n", status.Stats.AcquireDuration)

	// Schema check
	fmt.Println("Checking schema...")
	datasets, err := dataset.NewRepository(db.Pool).ListDatasets(ctx)
	if err != nil {
		fmt.Printf("⚠️  Schema not ready: %v\n", err)
		fmt.Println("   Run: go run ./cmd/horizon db init")
		return nil
	}
	fmt.Printf("✅ Schema ready (%d datasets)\n", len(datasets))

	fmt.Println("\n✅ All checks passed!")
	return nil
}
