package strategy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/pkg/retry"
)

// JobExecutionStrategy defines the interface for different job execution strategies.
type JobExecutionStrategy interface {
	Execute(ctx context.Context, job *entity.Job) (string, error)
	GetType() entity.JobType
}

// retryPolicy is the shape of a job's retry_policy payload.
type retryPolicy struct {
	MaxAttempts    int   `json:"max_attempts"`
	BackoffSeconds []int `json:"backoff_seconds"`
}

// retryConfigFor builds a retry configuration from the job's stored policy.
// Jobs without a policy run once.
func retryConfigFor(job *entity.Job) retry.Config {
	cfg := retry.Config{MaxAttempts: 1, JobName: job.Name}
	if len(job.RetryPolicy) == 0 {
		return cfg
	}
	var policy retryPolicy
	if err := json.Unmarshal(job.RetryPolicy, &policy); err != nil {
		return cfg
	}
	if policy.MaxAttempts > 0 {
		cfg.MaxAttempts = policy.MaxAttempts
	}
	for _, s := range policy.BackoffSeconds {
		cfg.Backoff = append(cfg.Backoff, time.Duration(s)*time.Second)
	}
	return cfg
}

// accountIDOf returns the job's account scope, empty for portfolio jobs.
func accountIDOf(job *entity.Job) string {
	if job.AccountID == nil {
		return ""
	}
	return *job.AccountID
}
