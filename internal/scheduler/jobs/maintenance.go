package jobs

import (
	"context"
	"time"

	"github.com/wonny/horizon/backend/internal/report"
	"github.com/wonny/horizon/backend/pkg/logger"
)

// MaintenanceJob prunes stale simulation runs
// 캐시 항목은 Redis TTL로 만료되므로 DB 정리만 담당
type MaintenanceJob struct {
	service  *report.Service
	maxAge   time.Duration
	schedule string
	logger   *logger.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(service *report.Service, maxAge time.Duration, schedule string, log *logger.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		service:  service,
		maxAge:   maxAge,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Schedule returns the cron schedule (config SCHED_MAINTENANCE)
func (j *MaintenanceJob) Schedule() string {
	return j.schedule
}

// Run executes the simulation run pruning
func (j *MaintenanceJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled maintenance")

	removed, err := j.service.PruneSimulationRuns(ctx, j.maxAge)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Stale simulation runs pruned")
	}

	return nil
}
