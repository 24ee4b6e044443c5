package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// JobType identifies the handler for a job. The set of built-in types is
// closed; an unrecognized type is rejected at the trigger boundary.
type JobType string

const (
	JobTypeUnifiedScanner   JobType = "unifiedOptionsScanner"
	JobTypeAlertDelivery    JobType = "deliverAlerts"
	JobTypeRefreshPrices    JobType = "refreshHoldingsPrices"
	JobTypeDailyDigest      JobType = "dailyDigest"
	JobTypeRetentionCleanup JobType = "retentionCleanup"
	JobTypeHTTPRequest      JobType = "httpRequest"
)

// BuiltInJobTypes lists every dispatchable job type.
func BuiltInJobTypes() []JobType {
	return []JobType{
		JobTypeUnifiedScanner,
		JobTypeAlertDelivery,
		JobTypeRefreshPrices,
		JobTypeDailyDigest,
		JobTypeRetentionCleanup,
		JobTypeHTTPRequest,
	}
}

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	for _, known := range BuiltInJobTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// JobStatus is the lifecycle state of a job definition. A paused job is
// never triggered by the scheduler.
type JobStatus string

const (
	JobStatusActive JobStatus = "active"
	JobStatusPaused JobStatus = "paused"
)

// Job is a persisted job definition. Name is unique: scheduling the same
// name again upserts the existing definition. AccountID is nil for
// portfolio-level jobs.
type Job struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Description string         `json:"description"`
	Type        JobType        `gorm:"not null" json:"type"`
	AccountID   *string        `json:"account_id,omitempty"`
	Payload     datatypes.JSON `json:"payload"`
	RetryPolicy datatypes.JSON `json:"retry_policy"`
	Timeout     int            `gorm:"default:300" json:"timeout"`
	Status      JobStatus      `gorm:"default:active" json:"status"`
	Schedules   []TaskSchedule `gorm:"foreignKey:JobID" json:"schedules"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// TaskSchedule is a recurring trigger for a job.
type TaskSchedule struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	JobID          uint         `gorm:"index;not null" json:"job_id"`
	CronExpression string       `gorm:"not null" json:"cron_expression"`
	IsActive       bool         `gorm:"default:true" json:"is_active"`
	NextExecution  sql.NullTime `json:"next_execution"`
	LastExecution  sql.NullTime `json:"last_execution"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TaskSchedule) TableName() string {
	return "task_schedules"
}

// ExecutionStatus is the outcome state of one job run.
type ExecutionStatus string

const (
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
)

// TaskExecutionHistory records one run of a job. ScheduleID is zero for
// out-of-cycle runs forced through the trigger endpoint.
type TaskExecutionHistory struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	JobID        uint            `gorm:"index;not null" json:"job_id"`
	ScheduleID   uint            `json:"schedule_id"`
	Status       ExecutionStatus `gorm:"not null" json:"status"`
	Output       sql.NullString  `json:"output"`
	ErrorMessage sql.NullString  `json:"error_message"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  sql.NullTime    `json:"completed_at"`
	DurationMs   int64           `json:"duration_ms"`
}

func (TaskExecutionHistory) TableName() string {
	return "task_execution_histories"
}
