package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/horizon/backend/internal/dataset"
	"github.com/wonny/horizon/backend/internal/report"
	"github.com/wonny/horizon/backend/pkg/logger"
)

// KPIReportJob recomputes KPI reports for datasets carrying revenue data
// ⭐ SSOT: 월간 KPI 스케줄은 이 Job에서만
type KPIReportJob struct {
	datasets *dataset.Repository
	service  *report.Service
	defaults report.AnalysisDefaults
	schedule string
	logger   *logger.Logger
}

// NewKPIReportJob creates a new KPI report job
func NewKPIReportJob(
	datasets *dataset.Repository,
	service *report.Service,
	defaults report.AnalysisDefaults,
	schedule string,
	log *logger.Logger,
) *KPIReportJob {
	return &KPIReportJob{
		datasets: datasets,
		service:  service,
		defaults: defaults,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *KPIReportJob) Name() string {
	return "kpi_report"
}

// Schedule returns the cron schedule (config SCHED_KPI_REPORT)
func (j *KPIReportJob) Schedule() string {
	return j.schedule
}

// Run computes KPI reports for every dataset with a revenue category
// expense 분류가 없으면 마진 없이 성장 지표만 (실패가 아님)
func (j *KPIReportJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled KPI report generation")

	datasets, err := j.datasets.ListDatasets(ctx)
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}

	var eligible, failures int
	var lastErr error
	for _, d := range datasets {
		categories, err := j.datasets.GetCategories(ctx, d.Name)
		if err != nil {
			failures++
			lastErr = err
			j.logger.WithError(err).WithField("dataset", d.Name).Warn("Category lookup failed")
			continue
		}
		if !hasCategory(categories, dataset.CategoryRevenue) {
			continue
		}

		eligible++
		if err := j.reportOne(ctx, d.Name, categories); err != nil {
			failures++
			lastErr = err
			j.logger.WithError(err).WithField("dataset", d.Name).Warn("KPI report failed for dataset")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"eligible": eligible,
		"failures": failures,
	}).Info("Scheduled KPI report generation completed")

	if eligible > 0 && failures >= eligible {
		return fmt.Errorf("all %d eligible datasets failed, last error: %w", eligible, lastErr)
	}
	return nil
}

func (j *KPIReportJob) reportOne(ctx context.Context, name string, categories []dataset.Category) error {
	revenue, err := j.datasets.GetSeriesByCategory(ctx, name, dataset.CategoryRevenue)
	if err != nil {
		return err
	}

	input := report.KPIInput{
		Dataset:      name,
		Revenue:      revenue,
		RiskFreeRate: j.defaults.RiskFreeRate,
	}

	if hasCategory(categories, dataset.CategoryExpense) {
		expense, err := j.datasets.GetSeriesByCategory(ctx, name, dataset.CategoryExpense)
		if err != nil {
			return err
		}
		input.TotalExpense = expense
	}

	_, err = j.service.KPIReport(ctx, input, true)
	return err
}

func hasCategory(categories []dataset.Category, want dataset.Category) bool {
	for _, c := range categories {
		if c == want {
			return true
		}
	}
	return false
}
