package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/repository"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
)

const (
	defaultRecommendationRetentionDays = 30
	defaultAlertRetentionDays          = 90
)

// retentionConfig is the optional payload shape for a cleanup job.
type retentionConfig struct {
	RecommendationDays int `json:"recommendation_days"`
	AlertDays          int `json:"alert_days"`
}

// RetentionCleanupStrategy prunes old recommendation rows and acknowledged
// alerts. Unacknowledged alerts are never removed.
type RetentionCleanupStrategy struct {
	logger    *logger.Logger
	recRepo   repository.RecommendationRepository
	alertRepo repository.AlertRepository
	now       func() time.Time
}

// NewRetentionCleanupStrategy creates a new RetentionCleanupStrategy.
func NewRetentionCleanupStrategy(log *logger.Logger, recRepo repository.RecommendationRepository, alertRepo repository.AlertRepository) JobExecutionStrategy {
	return &RetentionCleanupStrategy{
		logger:    log,
		recRepo:   recRepo,
		alertRepo: alertRepo,
		now:       time.Now,
	}
}

// GetType returns the job type this strategy handles.
func (s *RetentionCleanupStrategy) GetType() entity.JobType {
	return entity.JobTypeRetentionCleanup
}

// Execute deletes rows older than the configured retention windows.
func (s *RetentionCleanupStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	cfg := retentionConfig{
		RecommendationDays: defaultRecommendationRetentionDays,
		AlertDays:          defaultAlertRetentionDays,
	}
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &cfg); err != nil {
			return "", fmt.Errorf("failed to unmarshal retention config: %w", err)
		}
	}
	if cfg.RecommendationDays <= 0 || cfg.AlertDays <= 0 {
		return "", fmt.Errorf("retention windows must be positive")
	}

	now := s.now()
	recsRemoved, err := s.recRepo.DeleteOlderThan(ctx, now.AddDate(0, 0, -cfg.RecommendationDays))
	if err != nil {
		return "", fmt.Errorf("failed to prune recommendations: %w", err)
	}
	alertsRemoved, err := s.alertRepo.DeleteAcknowledgedBefore(ctx, now.AddDate(0, 0, -cfg.AlertDays))
	if err != nil {
		return "", fmt.Errorf("failed to prune alerts: %w", err)
	}

	s.logger.Info("Retention cleanup complete",
		logger.Field("recommendations_removed", recsRemoved),
		logger.Field("alerts_removed", alertsRemoved))

	out, err := json.Marshal(map[string]int64{
		"recommendations_removed": recsRemoved,
		"alerts_removed":          alertsRemoved,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
