package strategy

import (
	"context"
	"encoding/json"

	"github.com/sperezintexas/fintech-app-sub006/internal/alert"
	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
)

// AlertDeliveryStrategy pushes pending alerts out through each account's
// configured channels.
type AlertDeliveryStrategy struct {
	logger    *logger.Logger
	deliverer *alert.Deliverer
}

// NewAlertDeliveryStrategy creates a new AlertDeliveryStrategy.
func NewAlertDeliveryStrategy(log *logger.Logger, deliverer *alert.Deliverer) JobExecutionStrategy {
	return &AlertDeliveryStrategy{logger: log, deliverer: deliverer}
}

// GetType returns the job type this strategy handles.
func (s *AlertDeliveryStrategy) GetType() entity.JobType {
	return entity.JobTypeAlertDelivery
}

// Execute delivers pending alerts, scoped to the job's account when set.
func (s *AlertDeliveryStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	report, err := s.deliverer.ProcessAlertDelivery(ctx, accountIDOf(job))
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
