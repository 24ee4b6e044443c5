package dto

import (
	"encoding/json"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
)

// ScheduleInput is one cron trigger in a job definition request.
type ScheduleInput struct {
	CronExpression string `json:"cron_expression" validate:"required"`
	IsActive       *bool  `json:"is_active,omitempty"`
}

// ScheduleJobRequest creates or replaces a job definition by name.
type ScheduleJobRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Type        entity.JobType  `json:"type" validate:"required"`
	AccountID   *string         `json:"account_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	RetryPolicy json.RawMessage `json:"retry_policy,omitempty"`
	Timeout     int             `json:"timeout,omitempty"`
	Schedules   []ScheduleInput `json:"schedules"`
}

// JobStatusResponse summarizes one job with its last run.
type JobStatusResponse struct {
	ID            uint             `json:"id"`
	Name          string           `json:"name"`
	Type          entity.JobType   `json:"type"`
	Status        entity.JobStatus `json:"status"`
	AccountID     *string          `json:"account_id,omitempty"`
	Schedules     []ScheduleStatus `json:"schedules"`
	LastRunStatus string           `json:"last_run_status,omitempty"`
	LastRunAt     *time.Time       `json:"last_run_at,omitempty"`
	LastRunError  string           `json:"last_run_error,omitempty"`
}

// ScheduleStatus is the trigger portion of a job status.
type ScheduleStatus struct {
	ID             uint       `json:"id"`
	CronExpression string     `json:"cron_expression"`
	IsActive       bool       `json:"is_active"`
	NextExecution  *time.Time `json:"next_execution,omitempty"`
	LastExecution  *time.Time `json:"last_execution,omitempty"`
}

// CancelJobResponse reports how many schedules a cancellation removed.
type CancelJobResponse struct {
	JobName          string `json:"job_name"`
	SchedulesRemoved int64  `json:"schedules_removed"`
}
