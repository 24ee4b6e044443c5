package strategy

import (
	"context"
	"encoding/json"

	"github.com/sperezintexas/fintech-app-sub006/internal/alert"
	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"
)

// DailyDigestStrategy batches pending alerts for accounts on daily
// frequency into one message per channel.
type DailyDigestStrategy struct {
	logger    *logger.Logger
	deliverer *alert.Deliverer
}

// NewDailyDigestStrategy creates a new DailyDigestStrategy.
func NewDailyDigestStrategy(log *logger.Logger, deliverer *alert.Deliverer) JobExecutionStrategy {
	return &DailyDigestStrategy{logger: log, deliverer: deliverer}
}

// GetType returns the job type this strategy handles.
func (s *DailyDigestStrategy) GetType() entity.JobType {
	return entity.JobTypeDailyDigest
}

// Execute sends the digests.
func (s *DailyDigestStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	report, err := s.deliverer.ProcessDailyDigest(ctx)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
