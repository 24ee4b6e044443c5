package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/dto"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/repository"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/strategy"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
)

// ErrJobAlreadyRunning is returned when a trigger lands while the same job
// is still executing, here or on another process holding the lease.
var ErrJobAlreadyRunning = errors.New("job is already running")

// ErrUnknownJobType is returned for job types outside the built-in set.
var ErrUnknownJobType = errors.New("unknown job type")

// ErrJobsDisabled is returned when job execution is turned off on this
// process. A disabled process serves HTTP only; triggers must go to a
// process that runs jobs.
var ErrJobsDisabled = errors.New("job execution is disabled on this process")

// Config tunes the polling scheduler.
type Config struct {
	PollingInterval time.Duration `mapstructure:"polling_interval"`
	Master          bool          `mapstructure:"master"`
	DisableJobs     bool          `mapstructure:"disable_jobs"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`
	LeaseGrace      time.Duration `mapstructure:"lease_grace"`
}

// Scheduler polls for due schedules and executes them through registered
// strategies. Only the master process triggers cron schedules; manual
// triggers run anywhere but share the same per-job lease.
type Scheduler struct {
	logger       *logger.Logger
	cfg          Config
	jobRepo      repository.JobRepository
	scheduleRepo repository.TaskScheduleRepository
	historyRepo  repository.TaskExecutionHistoryRepository
	locker       Locker
	strategies   map[entity.JobType]strategy.JobExecutionStrategy
	cronParser   cron.Parser
	now          func() time.Time

	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates the scheduler over the given strategies.
func NewScheduler(log *logger.Logger, cfg Config, jobRepo repository.JobRepository, scheduleRepo repository.TaskScheduleRepository, historyRepo repository.TaskExecutionHistoryRepository, locker Locker, strategies []strategy.JobExecutionStrategy) *Scheduler {
	if cfg.PollingInterval <= 0 {
		cfg.PollingInterval = 10 * time.Second
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 5 * time.Minute
	}
	if cfg.LeaseGrace <= 0 {
		cfg.LeaseGrace = 30 * time.Second
	}
	byType := make(map[entity.JobType]strategy.JobExecutionStrategy, len(strategies))
	for _, s := range strategies {
		byType[s.GetType()] = s
	}
	return &Scheduler{
		logger:       log,
		cfg:          cfg,
		jobRepo:      jobRepo,
		scheduleRepo: scheduleRepo,
		historyRepo:  historyRepo,
		locker:       locker,
		strategies:   byType,
		cronParser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		now:          time.Now,
		running:      make(map[string]struct{}),
	}
}

// Start runs the polling loop until the context is canceled, then waits
// for in-flight jobs to finish.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cfg.DisableJobs {
		s.logger.Info("Job execution disabled, scheduler idle")
		<-ctx.Done()
		return
	}
	if !s.cfg.Master {
		s.logger.Info("Not the master process, cron schedules will not fire here")
		<-ctx.Done()
		return
	}

	s.logger.Info("Scheduler started", logger.DurationField("polling_interval", s.cfg.PollingInterval))
	ticker := time.NewTicker(s.cfg.PollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			if err := s.ProcessDueSchedules(ctx); err != nil {
				s.logger.Error("Failed to process due schedules", logger.ErrorField(err))
			}
		}
	}
}

// ProcessDueSchedules runs every active schedule whose next execution has
// passed. A schedule whose job is still running is left due so the next
// poll retries it.
func (s *Scheduler) ProcessDueSchedules(ctx context.Context) error {
	if s.cfg.DisableJobs || !s.cfg.Master {
		return nil
	}

	due, err := s.scheduleRepo.FindDue(ctx, s.now())
	if err != nil {
		return fmt.Errorf("failed to find due schedules: %w", err)
	}

	for i := range due {
		schedule := due[i]
		job, err := s.jobRepo.FindByID(ctx, schedule.JobID)
		if err != nil {
			s.logger.Error("Failed to load job for due schedule",
				logger.ErrorField(err), logger.Field("schedule_id", schedule.ID))
			continue
		}
		if job.Status == entity.JobStatusPaused {
			// Advance past the missed slot so the schedule doesn't stay
			// permanently due while paused.
			s.advanceSchedule(ctx, &schedule, false)
			continue
		}

		result := s.Execute(ctx, job, schedule.ID)
		if errors.Is(resultErr(result), ErrJobAlreadyRunning) {
			s.logger.Info("Skipping trigger, job still running", logger.StringField("job_name", job.Name))
			continue
		}
		s.advanceSchedule(ctx, &schedule, true)
	}
	return nil
}

func resultErr(result *dto.JobExecutionResult) error {
	if result == nil {
		return ErrJobAlreadyRunning
	}
	if result.Success || result.Error == "" {
		return nil
	}
	if result.Error == ErrJobAlreadyRunning.Error() {
		return ErrJobAlreadyRunning
	}
	return errors.New(result.Error)
}

// advanceSchedule stamps the execution and computes the next slot from the
// cron expression. executed controls whether last_execution moves.
func (s *Scheduler) advanceSchedule(ctx context.Context, schedule *entity.TaskSchedule, executed bool) {
	now := s.now()
	expr, err := s.cronParser.Parse(schedule.CronExpression)
	if err != nil {
		s.logger.Error("Invalid cron expression, deactivating schedule",
			logger.ErrorField(err),
			logger.Field("schedule_id", schedule.ID),
			logger.StringField("cron", schedule.CronExpression))
		schedule.IsActive = false
	} else {
		schedule.NextExecution = sql.NullTime{Time: expr.Next(now), Valid: true}
	}
	if executed {
		schedule.LastExecution = sql.NullTime{Time: now, Valid: true}
	}
	if err := s.scheduleRepo.Update(ctx, schedule); err != nil {
		s.logger.Error("Failed to advance schedule", logger.ErrorField(err), logger.Field("schedule_id", schedule.ID))
	}
}

// Execute runs one job synchronously and returns its structured result.
// The per-job lease and the local running set keep concurrency at one.
func (s *Scheduler) Execute(ctx context.Context, job *entity.Job, scheduleID uint) *dto.JobExecutionResult {
	result := &dto.JobExecutionResult{JobName: job.Name}

	// DisableJobs makes this process a pure web server; nothing runs here,
	// scheduled or triggered.
	if s.cfg.DisableJobs {
		result.Error = ErrJobsDisabled.Error()
		return result
	}

	strat, ok := s.strategies[job.Type]
	if !ok {
		result.Error = fmt.Sprintf("%v: %s", ErrUnknownJobType, job.Type)
		return result
	}

	s.mu.Lock()
	if _, busy := s.running[job.Name]; busy {
		s.mu.Unlock()
		result.Error = ErrJobAlreadyRunning.Error()
		return result
	}
	s.running[job.Name] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.running, job.Name)
		s.mu.Unlock()
	}()

	timeout := s.cfg.DefaultTimeout
	if job.Timeout > 0 {
		timeout = time.Duration(job.Timeout) * time.Second
	}

	// The lease TTL covers the run plus grace so a crashed holder can't
	// block the job forever.
	acquired, err := s.locker.Acquire(ctx, job.Name, timeout+s.cfg.LeaseGrace)
	if err != nil {
		result.Error = fmt.Sprintf("failed to acquire job lease: %v", err)
		return result
	}
	if !acquired {
		result.Error = ErrJobAlreadyRunning.Error()
		return result
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, job.Name); err != nil {
			s.logger.Error("Failed to release job lease", logger.ErrorField(err), logger.StringField("job_name", job.Name))
		}
	}()

	s.wg.Add(1)
	defer s.wg.Done()

	history := &entity.TaskExecutionHistory{
		JobID:      job.ID,
		ScheduleID: scheduleID,
		Status:     entity.StatusRunning,
		StartedAt:  s.now(),
	}
	if job.ID != 0 {
		if err := s.historyRepo.Create(ctx, history); err != nil {
			s.logger.Error("Failed to record execution start", logger.ErrorField(err), logger.StringField("job_name", job.Name))
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := s.now()
	s.logger.Info("Executing job",
		logger.StringField("job_name", job.Name),
		logger.StringField("job_type", string(job.Type)))

	output, execErr := s.runStrategy(runCtx, strat, job)

	elapsed := s.now().Sub(start)
	result.DurationMs = elapsed.Milliseconds()
	result.Result = output

	if execErr != nil {
		result.Error = execErr.Error()
		s.logger.Error("Job execution failed",
			logger.ErrorField(execErr),
			logger.StringField("job_name", job.Name),
			logger.DurationField("duration", elapsed))
		s.finishHistory(ctx, history, entity.StatusFailed, output, execErr.Error(), elapsed)
		return result
	}

	result.Success = true
	s.logger.Info("Job execution completed",
		logger.StringField("job_name", job.Name),
		logger.DurationField("duration", elapsed))
	s.finishHistory(ctx, history, entity.StatusCompleted, output, "", elapsed)
	return result
}

// runStrategy converts a panicking strategy into a failed run instead of
// taking the process down.
func (s *Scheduler) runStrategy(ctx context.Context, strat strategy.JobExecutionStrategy, job *entity.Job) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return strat.Execute(ctx, job)
}

func (s *Scheduler) finishHistory(ctx context.Context, history *entity.TaskExecutionHistory, status entity.ExecutionStatus, output, errMsg string, elapsed time.Duration) {
	if history.ID == 0 {
		return
	}
	history.Status = status
	history.Output = sql.NullString{String: output, Valid: output != ""}
	history.ErrorMessage = sql.NullString{String: errMsg, Valid: errMsg != ""}
	history.CompletedAt = sql.NullTime{Time: s.now(), Valid: true}
	history.DurationMs = elapsed.Milliseconds()
	if err := s.historyRepo.Update(ctx, history); err != nil {
		s.logger.Error("Failed to record execution result", logger.ErrorField(err), logger.Field("history_id", history.ID))
	}
}

// RunJobNow executes a stored job outside its schedule. The run shares the
// job's lease, so it is refused while the job is running anywhere.
func (s *Scheduler) RunJobNow(ctx context.Context, name string, accountID string, config json.RawMessage) (*dto.JobExecutionResult, error) {
	job, err := s.jobRepo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	run := *job
	if accountID != "" {
		run.AccountID = &accountID
	}
	if len(config) > 0 {
		run.Payload = datatypes.JSON(mergePayload(json.RawMessage(run.Payload), config))
	}

	result := s.Execute(ctx, &run, 0)
	switch result.Error {
	case ErrJobAlreadyRunning.Error():
		return result, ErrJobAlreadyRunning
	case ErrJobsDisabled.Error():
		return result, ErrJobsDisabled
	}
	return result, nil
}

// RunBuiltIn executes a built-in job type without a stored definition. The
// synthetic job is named after its type so it still shares that lease.
func (s *Scheduler) RunBuiltIn(ctx context.Context, jobType entity.JobType, accountID string, config json.RawMessage) (*dto.JobExecutionResult, error) {
	if !jobType.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}
	job := &entity.Job{
		Name:    string(jobType),
		Type:    jobType,
		Payload: datatypes.JSON(config),
	}
	if accountID != "" {
		job.AccountID = &accountID
	}

	result := s.Execute(ctx, job, 0)
	switch result.Error {
	case ErrJobAlreadyRunning.Error():
		return result, ErrJobAlreadyRunning
	case ErrJobsDisabled.Error():
		return result, ErrJobsDisabled
	}
	return result, nil
}

// mergePayload overlays trigger-supplied config on the stored payload.
func mergePayload(stored, override json.RawMessage) json.RawMessage {
	if len(stored) == 0 {
		return override
	}
	var base, extra map[string]json.RawMessage
	if err := json.Unmarshal(stored, &base); err != nil {
		return override
	}
	if err := json.Unmarshal(override, &extra); err != nil {
		return stored
	}
	for k, v := range extra {
		base[k] = v
	}
	merged, err := json.Marshal(base)
	if err != nil {
		return override
	}
	return merged
}
