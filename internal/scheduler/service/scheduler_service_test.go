package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/strategy"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeJobRepo struct {
	jobs map[string]*entity.Job
}

func (f *fakeJobRepo) Create(_ context.Context, job *entity.Job) error {
	f.jobs[job.Name] = job
	return nil
}

func (f *fakeJobRepo) FindByID(_ context.Context, id uint) (*entity.Job, error) {
	for _, j := range f.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeJobRepo) FindByName(_ context.Context, name string) (*entity.Job, error) {
	if j, ok := f.jobs[name]; ok {
		return j, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeJobRepo) FindAll(_ context.Context) ([]entity.Job, error) {
	var out []entity.Job
	for _, j := range f.jobs {
		out = append(out, *j)
	}
	return out, nil
}

func (f *fakeJobRepo) Update(_ context.Context, job *entity.Job) error {
	f.jobs[job.Name] = job
	return nil
}

func (f *fakeJobRepo) Upsert(_ context.Context, job *entity.Job) error {
	f.jobs[job.Name] = job
	return nil
}

func (f *fakeJobRepo) SetStatus(_ context.Context, id uint, status entity.JobStatus) error {
	for _, j := range f.jobs {
		if j.ID == id {
			j.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeJobRepo) Delete(_ context.Context, id uint) error {
	for name, j := range f.jobs {
		if j.ID == id {
			delete(f.jobs, name)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeScheduleRepo struct {
	due     []entity.TaskSchedule
	updated []entity.TaskSchedule
}

func (f *fakeScheduleRepo) Create(_ context.Context, _ *entity.TaskSchedule) error { return nil }

func (f *fakeScheduleRepo) FindByID(_ context.Context, _ uint) (*entity.TaskSchedule, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeScheduleRepo) FindAll(_ context.Context) ([]entity.TaskSchedule, error) {
	return f.due, nil
}

func (f *fakeScheduleRepo) Update(_ context.Context, schedule *entity.TaskSchedule) error {
	f.updated = append(f.updated, *schedule)
	return nil
}

func (f *fakeScheduleRepo) Delete(_ context.Context, _ uint) error { return nil }

func (f *fakeScheduleRepo) DeleteByJobID(_ context.Context, _ uint) (int64, error) { return 0, nil }

func (f *fakeScheduleRepo) FindDue(_ context.Context, _ time.Time) ([]entity.TaskSchedule, error) {
	return f.due, nil
}

type fakeHistoryRepo struct {
	nextID  uint
	created []*entity.TaskExecutionHistory
	updated []*entity.TaskExecutionHistory
}

func (f *fakeHistoryRepo) Create(_ context.Context, history *entity.TaskExecutionHistory) error {
	f.nextID++
	history.ID = f.nextID
	f.created = append(f.created, history)
	return nil
}

func (f *fakeHistoryRepo) FindByID(_ context.Context, _ uint) (*entity.TaskExecutionHistory, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeHistoryRepo) FindAll(_ context.Context) ([]entity.TaskExecutionHistory, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) FindAllByJobID(_ context.Context, _ uint) ([]entity.TaskExecutionHistory, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) FindLatestByJobID(_ context.Context, _ uint) (*entity.TaskExecutionHistory, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeHistoryRepo) Update(_ context.Context, history *entity.TaskExecutionHistory) error {
	f.updated = append(f.updated, history)
	return nil
}

type fakeLocker struct {
	denied   bool
	err      error
	acquired []string
	released []string
}

func (f *fakeLocker) Acquire(_ context.Context, jobName string, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.denied {
		return false, nil
	}
	f.acquired = append(f.acquired, jobName)
	return true, nil
}

func (f *fakeLocker) Release(_ context.Context, jobName string) error {
	f.released = append(f.released, jobName)
	return nil
}

type fakeStrategy struct {
	jobType entity.JobType
	output  string
	err     error
	panics  bool
	calls   []*entity.Job
}

func (f *fakeStrategy) Execute(_ context.Context, job *entity.Job) (string, error) {
	f.calls = append(f.calls, job)
	if f.panics {
		panic("strategy blew up")
	}
	return f.output, f.err
}

func (f *fakeStrategy) GetType() entity.JobType { return f.jobType }

type schedulerFixture struct {
	scheduler    *Scheduler
	jobRepo      *fakeJobRepo
	scheduleRepo *fakeScheduleRepo
	historyRepo  *fakeHistoryRepo
	locker       *fakeLocker
	strategy     *fakeStrategy
}

func newFixture(cfg Config) *schedulerFixture {
	f := &schedulerFixture{
		jobRepo:      &fakeJobRepo{jobs: map[string]*entity.Job{}},
		scheduleRepo: &fakeScheduleRepo{},
		historyRepo:  &fakeHistoryRepo{},
		locker:       &fakeLocker{},
		strategy:     &fakeStrategy{jobType: entity.JobTypeUnifiedScanner, output: `{"total_scanned":3}`},
	}
	f.scheduler = NewScheduler(logger.Nop(), cfg, f.jobRepo, f.scheduleRepo, f.historyRepo, f.locker,
		[]strategy.JobExecutionStrategy{f.strategy})
	return f
}

func scanJob(id uint) *entity.Job {
	return &entity.Job{
		ID:      id,
		Name:    "unified-options-scan",
		Type:    entity.JobTypeUnifiedScanner,
		Timeout: 60,
		Status:  entity.JobStatusActive,
	}
}

func TestExecuteRecordsHistoryLifecycle(t *testing.T) {
	f := newFixture(Config{Master: true})
	job := scanJob(1)

	result := f.scheduler.Execute(context.Background(), job, 5)
	require.True(t, result.Success)
	assert.Equal(t, `{"total_scanned":3}`, result.Result)

	require.Len(t, f.historyRepo.created, 1)
	require.Len(t, f.historyRepo.updated, 1)
	h := f.historyRepo.updated[0]
	assert.Equal(t, entity.StatusCompleted, h.Status)
	assert.Equal(t, uint(5), h.ScheduleID)
	assert.True(t, h.CompletedAt.Valid)
	assert.Equal(t, []string{"unified-options-scan"}, f.locker.released)
}

func TestExecuteFailureMarksHistoryFailed(t *testing.T) {
	f := newFixture(Config{Master: true})
	f.strategy.err = errors.New("provider down")
	job := scanJob(1)

	result := f.scheduler.Execute(context.Background(), job, 0)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "provider down")

	require.Len(t, f.historyRepo.updated, 1)
	assert.Equal(t, entity.StatusFailed, f.historyRepo.updated[0].Status)
	assert.Equal(t, "provider down", f.historyRepo.updated[0].ErrorMessage.String)
	assert.Equal(t, []string{"unified-options-scan"}, f.locker.released)
}

func TestExecutePanicBecomesFailedRun(t *testing.T) {
	f := newFixture(Config{Master: true})
	f.strategy.panics = true

	result := f.scheduler.Execute(context.Background(), scanJob(1), 0)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "job panicked")
	assert.Equal(t, []string{"unified-options-scan"}, f.locker.released)
}

func TestExecuteRefusedWhileLeaseHeldElsewhere(t *testing.T) {
	f := newFixture(Config{Master: true})
	f.locker.denied = true

	result := f.scheduler.Execute(context.Background(), scanJob(1), 0)
	assert.False(t, result.Success)
	assert.Equal(t, ErrJobAlreadyRunning.Error(), result.Error)
	assert.Empty(t, f.strategy.calls)
	assert.Empty(t, f.historyRepo.created)
}

func TestExecuteUnknownTypeFails(t *testing.T) {
	f := newFixture(Config{Master: true})
	job := &entity.Job{Name: "mystery", Type: entity.JobType("mystery")}

	result := f.scheduler.Execute(context.Background(), job, 0)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown job type")
}

func TestExecuteSyntheticJobSkipsHistory(t *testing.T) {
	f := newFixture(Config{Master: true})
	job := &entity.Job{Name: "adhoc", Type: entity.JobTypeUnifiedScanner}

	result := f.scheduler.Execute(context.Background(), job, 0)
	require.True(t, result.Success)
	assert.Empty(t, f.historyRepo.created)
}

func TestProcessDueSchedulesAdvancesAfterRun(t *testing.T) {
	f := newFixture(Config{Master: true})
	f.jobRepo.jobs["unified-options-scan"] = scanJob(1)
	f.scheduleRepo.due = []entity.TaskSchedule{
		{ID: 10, JobID: 1, CronExpression: "*/5 * * * *", IsActive: true},
	}
	now := time.Date(2026, 6, 1, 9, 2, 0, 0, time.UTC)
	f.scheduler.now = func() time.Time { return now }

	require.NoError(t, f.scheduler.ProcessDueSchedules(context.Background()))

	require.Len(t, f.strategy.calls, 1)
	require.Len(t, f.scheduleRepo.updated, 1)
	updated := f.scheduleRepo.updated[0]
	assert.True(t, updated.LastExecution.Valid)
	assert.Equal(t, now, updated.LastExecution.Time)
	require.True(t, updated.NextExecution.Valid)
	assert.Equal(t, time.Date(2026, 6, 1, 9, 5, 0, 0, time.UTC), updated.NextExecution.Time)
}

func TestProcessDueSchedulesPausedJobAdvancesWithoutRunning(t *testing.T) {
	f := newFixture(Config{Master: true})
	job := scanJob(1)
	job.Status = entity.JobStatusPaused
	f.jobRepo.jobs[job.Name] = job
	f.scheduleRepo.due = []entity.TaskSchedule{
		{ID: 10, JobID: 1, CronExpression: "*/5 * * * *", IsActive: true},
	}

	require.NoError(t, f.scheduler.ProcessDueSchedules(context.Background()))

	assert.Empty(t, f.strategy.calls)
	require.Len(t, f.scheduleRepo.updated, 1)
	updated := f.scheduleRepo.updated[0]
	// The slot is skipped but not counted as executed.
	assert.False(t, updated.LastExecution.Valid)
	assert.True(t, updated.NextExecution.Valid)
}

func TestProcessDueSchedulesLeavesRunningJobDue(t *testing.T) {
	f := newFixture(Config{Master: true})
	f.jobRepo.jobs["unified-options-scan"] = scanJob(1)
	f.scheduleRepo.due = []entity.TaskSchedule{
		{ID: 10, JobID: 1, CronExpression: "*/5 * * * *", IsActive: true},
	}
	f.locker.denied = true

	require.NoError(t, f.scheduler.ProcessDueSchedules(context.Background()))

	// Not advanced, so the next poll retries the same slot.
	assert.Empty(t, f.scheduleRepo.updated)
}

func TestProcessDueSchedulesInvalidCronDeactivates(t *testing.T) {
	f := newFixture(Config{Master: true})
	f.jobRepo.jobs["unified-options-scan"] = scanJob(1)
	f.scheduleRepo.due = []entity.TaskSchedule{
		{ID: 10, JobID: 1, CronExpression: "not a cron", IsActive: true},
	}

	require.NoError(t, f.scheduler.ProcessDueSchedules(context.Background()))

	require.Len(t, f.scheduleRepo.updated, 1)
	assert.False(t, f.scheduleRepo.updated[0].IsActive)
}

func TestProcessDueSchedulesNoOpOffMaster(t *testing.T) {
	f := newFixture(Config{Master: false})
	f.jobRepo.jobs["unified-options-scan"] = scanJob(1)
	f.scheduleRepo.due = []entity.TaskSchedule{
		{ID: 10, JobID: 1, CronExpression: "*/5 * * * *", IsActive: true},
	}

	require.NoError(t, f.scheduler.ProcessDueSchedules(context.Background()))
	assert.Empty(t, f.strategy.calls)
}

func TestRunJobNowMergesPayloadOverride(t *testing.T) {
	f := newFixture(Config{Master: true})
	job := scanJob(1)
	job.Payload = datatypes.JSON(`{"persist":true,"covered_call":{"enabled":true}}`)
	f.jobRepo.jobs[job.Name] = job

	result, err := f.scheduler.RunJobNow(context.Background(), job.Name, "acct-1",
		json.RawMessage(`{"persist":false}`))
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Len(t, f.strategy.calls, 1)
	ran := f.strategy.calls[0]
	require.NotNil(t, ran.AccountID)
	assert.Equal(t, "acct-1", *ran.AccountID)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(ran.Payload, &payload))
	assert.JSONEq(t, `false`, string(payload["persist"]))
	assert.JSONEq(t, `{"enabled":true}`, string(payload["covered_call"]))

	// The stored definition is untouched.
	assert.JSONEq(t, `{"persist":true,"covered_call":{"enabled":true}}`, string(job.Payload))
}

func TestRunJobNowReturnsSentinelWhenBusy(t *testing.T) {
	f := newFixture(Config{Master: true})
	f.jobRepo.jobs["unified-options-scan"] = scanJob(1)
	f.locker.denied = true

	result, err := f.scheduler.RunJobNow(context.Background(), "unified-options-scan", "", nil)
	assert.ErrorIs(t, err, ErrJobAlreadyRunning)
	require.NotNil(t, result)
	assert.False(t, result.Success)
}

func TestExecuteRefusedWhenJobsDisabled(t *testing.T) {
	f := newFixture(Config{DisableJobs: true, Master: false})

	result := f.scheduler.Execute(context.Background(), scanJob(1), 0)
	assert.False(t, result.Success)
	assert.Equal(t, ErrJobsDisabled.Error(), result.Error)
	assert.Empty(t, f.strategy.calls)
	assert.Empty(t, f.locker.acquired)
	assert.Empty(t, f.historyRepo.created)
}

func TestRunJobNowRefusedWhenJobsDisabled(t *testing.T) {
	f := newFixture(Config{DisableJobs: true, Master: false})
	f.jobRepo.jobs["unified-options-scan"] = scanJob(1)

	result, err := f.scheduler.RunJobNow(context.Background(), "unified-options-scan", "", nil)
	assert.ErrorIs(t, err, ErrJobsDisabled)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Empty(t, f.strategy.calls)
}

func TestRunBuiltInRefusedWhenJobsDisabled(t *testing.T) {
	f := newFixture(Config{DisableJobs: true, Master: false})

	_, err := f.scheduler.RunBuiltIn(context.Background(), entity.JobTypeUnifiedScanner, "", nil)
	assert.ErrorIs(t, err, ErrJobsDisabled)
	assert.Empty(t, f.strategy.calls)
}

func TestRunJobNowUnknownNameFails(t *testing.T) {
	f := newFixture(Config{Master: true})
	_, err := f.scheduler.RunJobNow(context.Background(), "does-not-exist", "", nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRunBuiltInRejectsUnknownType(t *testing.T) {
	f := newFixture(Config{Master: true})
	_, err := f.scheduler.RunBuiltIn(context.Background(), entity.JobType("mystery"), "", nil)
	assert.ErrorIs(t, err, ErrUnknownJobType)
}

func TestRunBuiltInSharesTypeNamedLease(t *testing.T) {
	f := newFixture(Config{Master: true})

	result, err := f.scheduler.RunBuiltIn(context.Background(), entity.JobTypeUnifiedScanner, "acct-1", nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, []string{string(entity.JobTypeUnifiedScanner)}, f.locker.acquired)
	// Synthetic runs leave no history rows.
	assert.Empty(t, f.historyRepo.created)
}

func TestMergePayload(t *testing.T) {
	tests := []struct {
		name     string
		stored   string
		override string
		want     string
	}{
		{"override wins per key", `{"a":1,"b":2}`, `{"b":3}`, `{"a":1,"b":3}`},
		{"empty stored takes override", ``, `{"b":3}`, `{"b":3}`},
		{"malformed stored takes override", `not json`, `{"b":3}`, `{"b":3}`},
		{"malformed override keeps stored", `{"a":1}`, `not json`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergePayload(json.RawMessage(tt.stored), json.RawMessage(tt.override))
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
