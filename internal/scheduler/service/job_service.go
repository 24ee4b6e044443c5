package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/dto"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/repository"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrJobNotFound is returned when a job name or ID does not exist.
var ErrJobNotFound = errors.New("job not found")

// JobService manages job definitions.
type JobService interface {
	ScheduleJob(ctx context.Context, req *dto.ScheduleJobRequest) (*entity.Job, error)
	GetJob(ctx context.Context, id uint) (*entity.Job, error)
	GetJobByName(ctx context.Context, name string) (*entity.Job, error)
	ListJobs(ctx context.Context) ([]entity.Job, error)
	CancelJob(ctx context.Context, name string) (int64, error)
	SetJobStatus(ctx context.Context, name string, status entity.JobStatus) error
	DeleteJob(ctx context.Context, id uint) error
	JobStatuses(ctx context.Context) ([]dto.JobStatusResponse, error)
}

type jobService struct {
	logger       *logger.Logger
	jobRepo      repository.JobRepository
	scheduleRepo repository.TaskScheduleRepository
	historyRepo  repository.TaskExecutionHistoryRepository
	cronParser   cron.Parser
}

// NewJobService creates a new job service.
func NewJobService(log *logger.Logger, jobRepo repository.JobRepository, scheduleRepo repository.TaskScheduleRepository, historyRepo repository.TaskExecutionHistoryRepository) JobService {
	return &jobService{
		logger:       log,
		jobRepo:      jobRepo,
		scheduleRepo: scheduleRepo,
		historyRepo:  historyRepo,
		cronParser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// ScheduleJob creates or replaces a job definition keyed by name.
// Scheduling the same name twice updates in place instead of duplicating.
func (s *jobService) ScheduleJob(ctx context.Context, req *dto.ScheduleJobRequest) (*entity.Job, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("job name is required")
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, req.Type)
	}

	schedules := make([]entity.TaskSchedule, 0, len(req.Schedules))
	for _, in := range req.Schedules {
		if _, err := s.cronParser.Parse(in.CronExpression); err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", in.CronExpression, err)
		}
		active := in.IsActive == nil || *in.IsActive
		schedules = append(schedules, entity.TaskSchedule{
			CronExpression: in.CronExpression,
			IsActive:       active,
		})
	}

	job := &entity.Job{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		AccountID:   req.AccountID,
		Payload:     datatypes.JSON(req.Payload),
		RetryPolicy: datatypes.JSON(req.RetryPolicy),
		Timeout:     req.Timeout,
		Status:      entity.JobStatusActive,
		Schedules:   schedules,
	}
	if job.Timeout <= 0 {
		job.Timeout = 300
	}

	if err := s.jobRepo.Upsert(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to schedule job: %w", err)
	}
	s.logger.Info("Job scheduled",
		logger.StringField("job_name", job.Name),
		logger.StringField("job_type", string(job.Type)),
		logger.IntField("schedules", len(schedules)))
	return job, nil
}

func (s *jobService) GetJob(ctx context.Context, id uint) (*entity.Job, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	return job, err
}

func (s *jobService) GetJobByName(ctx context.Context, name string) (*entity.Job, error) {
	job, err := s.jobRepo.FindByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	return job, err
}

func (s *jobService) ListJobs(ctx context.Context) ([]entity.Job, error) {
	return s.jobRepo.FindAll(ctx)
}

// CancelJob removes every schedule for the named job and reports the count.
// The definition and its history stay so the job can be rescheduled.
func (s *jobService) CancelJob(ctx context.Context, name string) (int64, error) {
	job, err := s.GetJobByName(ctx, name)
	if err != nil {
		return 0, err
	}
	removed, err := s.scheduleRepo.DeleteByJobID(ctx, job.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel job: %w", err)
	}
	s.logger.Info("Job canceled",
		logger.StringField("job_name", name),
		logger.Field("schedules_removed", removed))
	return removed, nil
}

func (s *jobService) SetJobStatus(ctx context.Context, name string, status entity.JobStatus) error {
	if status != entity.JobStatusActive && status != entity.JobStatusPaused {
		return fmt.Errorf("invalid job status %q", status)
	}
	job, err := s.GetJobByName(ctx, name)
	if err != nil {
		return err
	}
	return s.jobRepo.SetStatus(ctx, job.ID, status)
}

func (s *jobService) DeleteJob(ctx context.Context, id uint) error {
	if _, err := s.GetJob(ctx, id); err != nil {
		return err
	}
	return s.jobRepo.Delete(ctx, id)
}

// JobStatuses joins each job with its schedules and latest run.
func (s *jobService) JobStatuses(ctx context.Context) ([]dto.JobStatusResponse, error) {
	jobs, err := s.jobRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]dto.JobStatusResponse, 0, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		status := dto.JobStatusResponse{
			ID:        job.ID,
			Name:      job.Name,
			Type:      job.Type,
			Status:    job.Status,
			AccountID: job.AccountID,
		}
		for _, sched := range job.Schedules {
			ss := dto.ScheduleStatus{
				ID:             sched.ID,
				CronExpression: sched.CronExpression,
				IsActive:       sched.IsActive,
			}
			if sched.NextExecution.Valid {
				t := sched.NextExecution.Time
				ss.NextExecution = &t
			}
			if sched.LastExecution.Valid {
				t := sched.LastExecution.Time
				ss.LastExecution = &t
			}
			status.Schedules = append(status.Schedules, ss)
		}

		latest, err := s.historyRepo.FindLatestByJobID(ctx, job.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if latest != nil {
			status.LastRunStatus = string(latest.Status)
			t := latest.StartedAt
			status.LastRunAt = &t
			if latest.ErrorMessage.Valid {
				status.LastRunError = latest.ErrorMessage.String
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
