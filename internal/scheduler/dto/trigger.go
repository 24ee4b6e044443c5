package dto

import (
	"encoding/json"
	"time"
)

// TriggerRequest forces one job run outside its schedule. Exactly one of
// TaskID or JobName must be set.
type TriggerRequest struct {
	TaskID    *uint           `json:"task_id,omitempty"`
	JobName   string          `json:"job_name,omitempty"`
	AccountID string          `json:"account_id,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
	LastRun   *time.Time      `json:"last_run,omitempty"`
}

// JobExecutionResult is the structured outcome of one run. Every trigger
// response uses this shape, success or not.
type JobExecutionResult struct {
	JobName    string `json:"job_name"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	Result     string `json:"result,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}
