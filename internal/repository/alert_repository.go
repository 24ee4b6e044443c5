package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"

	"gorm.io/gorm"
)

// AlertRepository persists watchlist alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.WatchlistAlert) error
	FindByID(ctx context.Context, id uint) (*entity.WatchlistAlert, error)
	FindByAccount(ctx context.Context, accountID string, includeAcknowledged bool) ([]entity.WatchlistAlert, error)
	// FindPending returns unacknowledged alerts not yet delivered on any
	// channel. An empty accountID returns pending alerts for all accounts.
	FindPending(ctx context.Context, accountID string) ([]entity.WatchlistAlert, error)
	// FindUnacknowledged returns all open alerts for an account regardless
	// of delivery state. Used by the daily digest.
	FindUnacknowledged(ctx context.Context, accountID string) ([]entity.WatchlistAlert, error)
	ExistsUnacknowledged(ctx context.Context, accountID string, watchlistItemID uint, recommendation entity.Action, reason string) (bool, error)
	MarkNotified(ctx context.Context, id uint, at time.Time) error
	Acknowledge(ctx context.Context, id uint, at time.Time) error
	DeleteAcknowledgedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewAlertRepository creates a new GORM-based alert repository.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

type alertRepository struct {
	db *gorm.DB
}

func (r *alertRepository) Create(ctx context.Context, alert *entity.WatchlistAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *alertRepository) FindByID(ctx context.Context, id uint) (*entity.WatchlistAlert, error) {
	var alert entity.WatchlistAlert
	if err := r.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) FindByAccount(ctx context.Context, accountID string, includeAcknowledged bool) ([]entity.WatchlistAlert, error) {
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if !includeAcknowledged {
		q = q.Where("acknowledged = ?", false)
	}
	var alerts []entity.WatchlistAlert
	if err := q.Order("created_at desc").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepository) FindPending(ctx context.Context, accountID string) ([]entity.WatchlistAlert, error) {
	q := r.db.WithContext(ctx).Where("acknowledged = ? AND notified_at IS NULL", false)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	var alerts []entity.WatchlistAlert
	if err := q.Order("created_at asc").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepository) FindUnacknowledged(ctx context.Context, accountID string) ([]entity.WatchlistAlert, error) {
	var alerts []entity.WatchlistAlert
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND acknowledged = ?", accountID, false).
		Order("created_at asc").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepository) ExistsUnacknowledged(ctx context.Context, accountID string, watchlistItemID uint, recommendation entity.Action, reason string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.WatchlistAlert{}).
		Where("account_id = ? AND watchlist_item_id = ? AND recommendation = ? AND reason = ? AND acknowledged = ?",
			accountID, watchlistItemID, recommendation, reason, false).
		Count(&count).Error
	return count > 0, err
}

func (r *alertRepository) MarkNotified(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.WatchlistAlert{}).
		Where("id = ?", id).
		Update("notified_at", sql.NullTime{Time: at, Valid: true}).Error
}

func (r *alertRepository) Acknowledge(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.WatchlistAlert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"acknowledged":    true,
			"acknowledged_at": sql.NullTime{Time: at, Valid: true},
		}).Error
}

func (r *alertRepository) DeleteAcknowledgedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("acknowledged = ? AND created_at < ?", true, cutoff).
		Delete(&entity.WatchlistAlert{})
	return res.RowsAffected, res.Error
}
