package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
	"github.com/sperezintexas/fintech-app-sub006/pkg/retry"
)

// HTTPJobDetails defines the structure for HTTP job payloads.
type HTTPJobDetails struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`
}

// HTTPStrategy executes HTTP-based jobs with the job's retry policy.
type HTTPStrategy struct {
	logger *logger.Logger
	client *http.Client
}

// NewHTTPStrategy creates a new HTTPStrategy.
func NewHTTPStrategy(log *logger.Logger) JobExecutionStrategy {
	return &HTTPStrategy{logger: log, client: &http.Client{}}
}

// GetType returns the job type this strategy handles.
func (s *HTTPStrategy) GetType() entity.JobType {
	return entity.JobTypeHTTPRequest
}

// Execute performs the HTTP request defined in the job's payload.
func (s *HTTPStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	var details HTTPJobDetails
	if err := json.Unmarshal(job.Payload, &details); err != nil {
		s.logger.Error("Failed to unmarshal job payload", logger.ErrorField(err), logger.Field("job_id", job.ID))
		return "", fmt.Errorf("failed to unmarshal job payload: %w", err)
	}
	if details.Method == "" {
		details.Method = http.MethodGet
	}

	var output string
	err := retry.Do(ctx, retryConfigFor(job), func(ctx context.Context) error {
		body, err := s.doRequest(ctx, &details)
		output = body
		return err
	})
	if err != nil {
		s.logger.Error("HTTP request failed", logger.ErrorField(err), logger.Field("job_id", job.ID))
		return output, err
	}

	s.logger.Info("HTTP job executed successfully", logger.Field("job_id", job.ID))
	return output, nil
}

func (s *HTTPStrategy) doRequest(ctx context.Context, details *HTTPJobDetails) (string, error) {
	req, err := http.NewRequestWithContext(ctx, details.Method, details.URL, bytes.NewBuffer(details.Body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for key, value := range details.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return string(bodyBytes), fmt.Errorf("http request failed with status code %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return string(bodyBytes), nil
}
