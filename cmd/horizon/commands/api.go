package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/horizon/backend/internal/api"
	"github.com/wonny/horizon/backend/internal/api/handlers"
	redispkg "github.com/wonny/horizon/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 리스크 분석/시뮬레이션 엔드포인트 제공
- 데이터셋 업로드/조회 제공

Endpoints:
  GET    /health                                - Health check
  POST   /api/v1/risk-metrics                   - 리스크 보고서 생성
  POST   /api/v1/run-simulation                 - Monte Carlo 시뮬레이션
  POST   /api/v1/kpi-report                     - KPI 보고서 생성
  GET    /api/v1/reports/risk/{dataset}         - 최신 리스크 보고서 조회
  GET    /api/v1/reports/risk/{dataset}/history - 리스크 보고서 이력 조회
  GET    /api/v1/reports/kpi/{dataset}          - 최신 KPI 보고서 조회
  POST   /api/v1/datasets                       - 데이터셋 업로드
  GET    /api/v1/datasets                       - 데이터셋 목록
  DELETE /api/v1/datasets/{name}                - 데이터셋 삭제

Example:
  go run ./cmd/horizon api
  go run ./cmd/horizon api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: config PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Horizon API Server ===")

	// 1. Wire shared services (config, logger, db, redis, repos)
	svc, err := initServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	// Override port if flag is set
	if apiPort != "" {
		svc.cfg.Port = apiPort
	}

	log := svc.log
	log.WithFields(map[string]interface{}{
		"port": svc.cfg.Port,
		"env":  svc.cfg.Env,
	}).Info("Initializing API server")

	// 2. Create handlers
	healthHandler := handlers.NewHealthHandler(svc.db, svc.redis, log)
	datasetHandler := handlers.NewDatasetHandler(svc.datasets, log)
	analysisHandler := handlers.NewAnalysisHandler(svc.service, svc.datasets, svc.defaults, log)
	kpiHandler := handlers.NewKPIHandler(svc.service, svc.datasets, svc.defaults, log)

	// 3. Create rate limiters (분석/업로드는 프리셋, 시뮬레이션은 환경변수로 조정 가능)
	analysisLimiter := api.NewComputeLimiter(svc.redis, redispkg.AnalysisRateLimit, 0)
	simulationLimiter := api.NewComputeLimiter(svc.redis, redispkg.SimulationRateLimit, svc.cfg.Simulation.RateLimitPerMin)
	uploadLimiter := api.NewComputeLimiter(svc.redis, redispkg.UploadRateLimit, 0)

	// 4. Create router + server
	router := api.NewRouter(api.RouterConfig{
		Health:            healthHandler,
		Datasets:          datasetHandler,
		Analysis:          analysisHandler,
		KPI:               kpiHandler,
		AnalysisLimiter:   analysisLimiter,
		SimulationLimiter: simulationLimiter,
		UploadLimiter:     uploadLimiter,
		Logger:            log,
	})
	server := api.New(svc.cfg, log, router)

	// 5. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", svc.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
