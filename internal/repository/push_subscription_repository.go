package repository

import (
	"context"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"

	"gorm.io/gorm"
)

// PushSubscriptionRepository manages client push endpoints.
type PushSubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.PushSubscription) error
	FindActiveByAccount(ctx context.Context, accountID string) ([]entity.PushSubscription, error)
	Deactivate(ctx context.Context, id uint) error
}

// NewPushSubscriptionRepository creates a new GORM-based push subscription repository.
func NewPushSubscriptionRepository(db *gorm.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

type pushSubscriptionRepository struct {
	db *gorm.DB
}

func (r *pushSubscriptionRepository) Create(ctx context.Context, sub *entity.PushSubscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *pushSubscriptionRepository) FindActiveByAccount(ctx context.Context, accountID string) ([]entity.PushSubscription, error) {
	var subs []entity.PushSubscription
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND is_active = ?", accountID, true).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *pushSubscriptionRepository) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&entity.PushSubscription{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
