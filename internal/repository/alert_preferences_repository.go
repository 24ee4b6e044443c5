package repository

import (
	"context"
	"errors"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertPreferencesRepository persists per-account delivery preferences.
type AlertPreferencesRepository interface {
	// FindByAccount returns the stored preferences, or the hard-coded
	// defaults when the account has no row.
	FindByAccount(ctx context.Context, accountID string) (*entity.AlertPreferences, error)
	FindAll(ctx context.Context) ([]entity.AlertPreferences, error)
	Upsert(ctx context.Context, prefs *entity.AlertPreferences) error
}

// NewAlertPreferencesRepository creates a new GORM-based preferences repository.
func NewAlertPreferencesRepository(db *gorm.DB) AlertPreferencesRepository {
	return &alertPreferencesRepository{db: db}
}

type alertPreferencesRepository struct {
	db *gorm.DB
}

func (r *alertPreferencesRepository) FindByAccount(ctx context.Context, accountID string) (*entity.AlertPreferences, error) {
	var prefs entity.AlertPreferences
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.DefaultPreferences(accountID), nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (r *alertPreferencesRepository) FindAll(ctx context.Context) ([]entity.AlertPreferences, error) {
	var prefs []entity.AlertPreferences
	if err := r.db.WithContext(ctx).Find(&prefs).Error; err != nil {
		return nil, err
	}
	return prefs, nil
}

// Upsert writes preferences keyed by the unique account_id.
func (r *alertPreferencesRepository) Upsert(ctx context.Context, prefs *entity.AlertPreferences) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_name", "channels", "template_id", "frequency",
			"severity_filter", "quiet_hours_start", "quiet_hours_end",
			"quiet_hours_timezone", "profit_threshold", "loss_threshold",
			"dte_warning", "updated_at",
		}),
	}).Create(prefs).Error
}
