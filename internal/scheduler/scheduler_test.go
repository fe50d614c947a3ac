package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/horizon/backend/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
}

func (j *stubJob) Name() string              { return j.name }
func (j *stubJob) Schedule() string          { return j.schedule }
func (j *stubJob) Run(context.Context) error { return nil }

func TestScheduler_AddJob(t *testing.T) {
	s := New(logger.NewNop())

	job := &stubJob{name: "risk_report", schedule: "0 30 19 * * MON-FRI"}
	require.NoError(t, s.AddJob(job))

	// 중복 등록 거부
	err := s.AddJob(&stubJob{name: "risk_report", schedule: "@daily"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// 잘못된 cron 표현식 거부
	err = s.AddJob(&stubJob{name: "broken", schedule: "not a cron expr"})
	require.Error(t, err)

	assert.Equal(t, []string{"risk_report"}, s.GetAllJobs())
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := New(logger.NewNop())

	require.NoError(t, s.AddJob(&stubJob{name: "maintenance", schedule: "0 0 3 * * *"}))
	require.NoError(t, s.RemoveJob("maintenance"))
	assert.Empty(t, s.GetAllJobs())

	err := s.RemoveJob("maintenance")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestScheduler_GetJobStatsAfterRemove(t *testing.T) {
	s := New(logger.NewNop())

	require.NoError(t, s.AddJob(&stubJob{name: "risk_report", schedule: "0 30 19 * * MON-FRI"}))
	require.NoError(t, s.AddJob(&stubJob{name: "kpi_report", schedule: "0 0 7 1 * *"}))
	require.NoError(t, s.RemoveJob("risk_report"))

	// 제거된 작업의 이력 키가 남아도 통계 조회는 패닉 없이 동작해야 함
	stats := s.GetJobStats()
	require.Contains(t, stats, "risk_report")
	assert.Empty(t, stats["risk_report"].Schedule)
	assert.Equal(t, "0 0 7 1 * *", stats["kpi_report"].Schedule)

	// 실행 이력도 제거 후 계속 조회 가능
	history, err := s.GetJobHistory("risk_report")
	require.NoError(t, err)
	assert.Empty(t, history.Results)
}

func TestScheduler_GetJobHistory_Unknown(t *testing.T) {
	s := New(logger.NewNop())

	_, err := s.GetJobHistory("missing")
	require.Error(t, err)
}

func TestJobHistory_Trimming(t *testing.T) {
	h := &JobHistory{}

	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{
			JobName:   "kpi_report",
			StartTime: time.Now(),
			Success:   true,
			Error:     fmt.Sprintf("run-%d", i),
		})
	}

	// 최근 100건만 유지
	require.Len(t, h.Results, 100)
	assert.Equal(t, "run-149", h.Results[99].Error)
	assert.Equal(t, "run-50", h.Results[0].Error)
}

func TestJobHistory_SuccessRate(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())

	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: false})
	h.AddResult(JobResult{Success: true})

	assert.InDelta(t, 0.75, h.GetSuccessRate(), 1e-12)
	assert.Len(t, h.GetFailedResults(), 1)
	assert.Len(t, h.GetLatestResults(2), 2)
	assert.Len(t, h.GetLatestResults(10), 4)
}
