package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/report"
	"github.com/wonny/horizon/backend/internal/risk"
	"github.com/wonny/horizon/backend/pkg/logger"
)

// RiskReportJob recomputes and persists risk reports for all datasets
// ⭐ SSOT: 야간 리스크 보고서 스케줄은 이 Job에서만
type RiskReportJob struct {
	datasets *dataset.Repository
	service  *report.Service
	defaults report.AnalysisDefaults
	schedule string
	logger   *logger.Logger
}

// NewRiskReportJob creates a new risk report job
func NewRiskReportJob(
	datasets *dataset.Repository,
	service *report.Service,
	defaults report.AnalysisDefaults,
	schedule string,
	log *logger.Logger,
) *RiskReportJob {
	return &RiskReportJob{
		datasets: datasets,
		service:  service,
		defaults: defaults,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *RiskReportJob) Name() string {
	return "risk_report"
}

// Schedule returns the cron schedule (config SCHED_RISK_REPORT)
func (j *RiskReportJob) Schedule() string {
	return j.schedule
}

// Run recomputes risk reports dataset by dataset
// 한 데이터셋 실패가 나머지를 막지 않는다. 전부 실패했을 때만 Job 실패 (재시도 대상)
// 저장은 업서트라 재시도에 안전함
func (j *RiskReportJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled risk report generation")

	datasets, err := j.datasets.ListDatasets(ctx)
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}
	if len(datasets) == 0 {
		j.logger.Info("No datasets to report on")
		return nil
	}

	var failures int
	var lastErr error
	for _, d := range datasets {
		if err := j.reportOne(ctx, d.Name); err != nil {
			failures++
			lastErr = err
			j.logger.WithError(err).WithField("dataset", d.Name).Warn("Risk report failed for dataset")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"datasets": len(datasets),
		"failures": failures,
	}).Info("Scheduled risk report generation completed")

	if failures == len(datasets) {
		return fmt.Errorf("all %d datasets failed, last error: %w", failures, lastErr)
	}
	return nil
}

func (j *RiskReportJob) reportOne(ctx context.Context, name string) error {
	series, err := j.datasets.GetSeries(ctx, name)
	if err != nil {
		return err
	}

	input := report.AssembleInput{
		Series:     []risk.Series{series},
		ReturnType: j.defaults.ReturnType,
		Stats:      j.defaults.Stats,
	}

	_, err = j.service.RiskReport(ctx, input, true)
	return err
}
