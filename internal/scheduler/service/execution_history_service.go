package service

import (
	"context"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/repository"
)

// ExecutionHistoryService reads job run history.
type ExecutionHistoryService interface {
	ListHistories(ctx context.Context) ([]entity.TaskExecutionHistory, error)
	ListHistoriesByJob(ctx context.Context, jobID uint) ([]entity.TaskExecutionHistory, error)
}

type executionHistoryService struct {
	historyRepo repository.TaskExecutionHistoryRepository
}

// NewExecutionHistoryService creates a new execution history service.
func NewExecutionHistoryService(historyRepo repository.TaskExecutionHistoryRepository) ExecutionHistoryService {
	return &executionHistoryService{historyRepo: historyRepo}
}

func (s *executionHistoryService) ListHistories(ctx context.Context) ([]entity.TaskExecutionHistory, error) {
	return s.historyRepo.FindAll(ctx)
}

func (s *executionHistoryService) ListHistoriesByJob(ctx context.Context, jobID uint) ([]entity.TaskExecutionHistory, error) {
	return s.historyRepo.FindAllByJobID(ctx, jobID)
}
