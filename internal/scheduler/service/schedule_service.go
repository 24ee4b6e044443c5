package service

import (
	"context"
	"errors"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/scheduler/repository"

	"gorm.io/gorm"
)

// ErrScheduleNotFound is returned when a schedule ID does not exist.
var ErrScheduleNotFound = errors.New("schedule not found")

// ScheduleService manages individual task schedules.
type ScheduleService interface {
	GetSchedule(ctx context.Context, id uint) (*entity.TaskSchedule, error)
	ListSchedules(ctx context.Context) ([]entity.TaskSchedule, error)
	SetActive(ctx context.Context, id uint, active bool) error
	DeleteSchedule(ctx context.Context, id uint) error
}

type scheduleService struct {
	scheduleRepo repository.TaskScheduleRepository
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(scheduleRepo repository.TaskScheduleRepository) ScheduleService {
	return &scheduleService{scheduleRepo: scheduleRepo}
}

func (s *scheduleService) GetSchedule(ctx context.Context, id uint) (*entity.TaskSchedule, error) {
	schedule, err := s.scheduleRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScheduleNotFound
	}
	return schedule, err
}

func (s *scheduleService) ListSchedules(ctx context.Context) ([]entity.TaskSchedule, error) {
	return s.scheduleRepo.FindAll(ctx)
}

func (s *scheduleService) SetActive(ctx context.Context, id uint, active bool) error {
	schedule, err := s.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	schedule.IsActive = active
	return s.scheduleRepo.Update(ctx, schedule)
}

func (s *scheduleService) DeleteSchedule(ctx context.Context, id uint) error {
	if _, err := s.GetSchedule(ctx, id); err != nil {
		return err
	}
	return s.scheduleRepo.Delete(ctx, id)
}
