package repository

import (
	"context"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"

	"gorm.io/gorm"
)

// PositionRepository reads tracked option positions.
type PositionRepository interface {
	// FindActive returns open positions, optionally filtered by account
	// and strategy kind (empty values mean no filter).
	FindActive(ctx context.Context, accountID string, strategy entity.StrategyKind) ([]entity.OptionPosition, error)
	// ActiveSymbols returns the distinct option and underlying symbols of
	// all open positions.
	ActiveSymbols(ctx context.Context) ([]string, error)
}

// NewPositionRepository creates a new GORM-based position repository.
func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

type positionRepository struct {
	db *gorm.DB
}

func (r *positionRepository) FindActive(ctx context.Context, accountID string, strategy entity.StrategyKind) ([]entity.OptionPosition, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if strategy != "" {
		q = q.Where("strategy = ?", strategy)
	}
	var positions []entity.OptionPosition
	if err := q.Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *positionRepository) ActiveSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := r.db.WithContext(ctx).Model(&entity.OptionPosition{}).
		Where("is_active = ?", true).
		Distinct().
		Pluck("underlying", &symbols).Error
	if err != nil {
		return nil, err
	}
	var optionSymbols []string
	err = r.db.WithContext(ctx).Model(&entity.OptionPosition{}).
		Where("is_active = ?", true).
		Distinct().
		Pluck("symbol", &optionSymbols).Error
	if err != nil {
		return nil, err
	}
	return append(symbols, optionSymbols...), nil
}
