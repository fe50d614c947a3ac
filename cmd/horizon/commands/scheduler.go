package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/horizon/backend/internal/scheduler"
	"github.com/wonny/horizon/backend/internal/scheduler/jobs"
)

// simulationRetention 시뮬레이션 실행 이력 보존 기간 (maintenance job)
const simulationRetention = 90 * 24 * time.Hour

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

이 명령어는:
- 스케줄러 데몬 시작
- 등록된 작업 조회
- 작업 실행 이력 조회

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/horizon scheduler start
  go run ./cmd/horizon scheduler list
  go run ./cmd/horizon scheduler run risk_report`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- risk_report: 평일 19:30 (전체 데이터셋 리스크 보고서)
- kpi_report: 매월 1일 07:00 (revenue 분류 보유 데이터셋 KPI)
- maintenance: 매일 03:00 (오래된 시뮬레이션 실행 정리)

스케줄은 config(SCHED_*)로 변경할 수 있습니다.
스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runSchedulerDaemon,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listScheduledJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runScheduledJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showSchedulerStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runSchedulerDaemon(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Horizon Scheduler ===")

	sched, svc, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer svc.Close()

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for name, stat := range sched.GetJobStats() {
		fmt.Printf("  - %s (%s)\n", name, stat.Schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listScheduledJobs(cmd *cobra.Command, args []string) error {
	sched, svc, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer svc.Close()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runScheduledJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, svc, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer svc.Close()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	// RunJob은 비동기 실행이므로 이력에 결과가 남을 때까지 대기
	for i := 0; i < 600; i++ {
		time.Sleep(time.Second)
		history, histErr := sched.GetJobHistory(jobName)
		if histErr != nil {
			return histErr
		}
		if len(history.Results) == 0 {
			continue
		}
		latest := history.Results[len(history.Results)-1]
		if latest.Success {
			fmt.Printf("✅ Job completed in %v\n", latest.Duration)
		} else {
			fmt.Printf("❌ Job failed: %s\n", latest.Error)
		}
		return nil
	}

	fmt.Println("⚠️  Job still running after 10m (check scheduler status)")
	return nil
}

func showSchedulerStatus(cmd *cobra.Command, args []string) error {
	sched, svc, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer svc.Close()

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}
		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

func initScheduler() (*scheduler.Scheduler, *services, error) {
	svc, err := initServices()
	if err != nil {
		return nil, nil, err
	}

	cfg := svc.cfg
	sched := scheduler.New(svc.log)

	// Register jobs
	if err := sched.AddJob(jobs.NewRiskReportJob(
		svc.datasets, svc.service, svc.defaults, cfg.Scheduler.RiskReportSchedule, svc.log)); err != nil {
		svc.Close()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewKPIReportJob(
		svc.datasets, svc.service, svc.defaults, cfg.Scheduler.KPIReportSchedule, svc.log)); err != nil {
		svc.Close()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewMaintenanceJob(
		svc.service, simulationRetention, cfg.Scheduler.MaintenanceSchedule, svc.log)); err != nil {
		svc.Close()
		return nil, nil, err
	}

	return sched, svc, nil
}
