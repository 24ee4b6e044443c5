package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"
	"github.com/sperezintexas/fintech-app-sub006/internal/repository"
	"github.com/sperezintexas/fintech-app-sub006/pkg/logger"

	"gorm.io/gorm"
)

// ErrAlertNotFound is returned when an alert ID does not exist.
var ErrAlertNotFound = errors.New("alert not found")

// Service exposes alert and preference management to the HTTP layer.
type Service interface {
	ListAlerts(ctx context.Context, accountID string, unacknowledgedOnly bool) ([]entity.WatchlistAlert, error)
	AcknowledgeAlert(ctx context.Context, id uint) error
	GetPreferences(ctx context.Context, accountID string) (*entity.AlertPreferences, error)
	SavePreferences(ctx context.Context, prefs *entity.AlertPreferences) error
}

type service struct {
	logger    *logger.Logger
	alertRepo repository.AlertRepository
	prefsRepo repository.AlertPreferencesRepository
}

// NewService creates the alert management service.
func NewService(log *logger.Logger, alertRepo repository.AlertRepository, prefsRepo repository.AlertPreferencesRepository) Service {
	return &service{logger: log, alertRepo: alertRepo, prefsRepo: prefsRepo}
}

func (s *service) ListAlerts(ctx context.Context, accountID string, unacknowledgedOnly bool) ([]entity.WatchlistAlert, error) {
	if unacknowledgedOnly {
		return s.alertRepo.FindUnacknowledged(ctx, accountID)
	}
	return s.alertRepo.FindByAccount(ctx, accountID, true)
}

func (s *service) AcknowledgeAlert(ctx context.Context, id uint) error {
	if _, err := s.alertRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return s.alertRepo.Acknowledge(ctx, id, time.Now())
}

func (s *service) GetPreferences(ctx context.Context, accountID string) (*entity.AlertPreferences, error) {
	return s.prefsRepo.FindByAccount(ctx, accountID)
}

func (s *service) SavePreferences(ctx context.Context, prefs *entity.AlertPreferences) error {
	if prefs.AccountID == "" {
		return fmt.Errorf("account_id is required")
	}
	for _, cfg := range prefs.ChannelList() {
		switch cfg.Channel {
		case entity.ChannelWebhook, entity.ChannelTelegram, entity.ChannelSocial, entity.ChannelPush, entity.ChannelSMS:
		default:
			return fmt.Errorf("unknown channel %q", cfg.Channel)
		}
	}
	if prefs.TemplateID == "" {
		prefs.TemplateID = DefaultTemplateID
	}
	return s.prefsRepo.Upsert(ctx, prefs)
}
