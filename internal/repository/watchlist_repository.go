package repository

import (
	"context"
	"errors"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"

	"gorm.io/gorm"
)

// WatchlistRepository reads watchlist items.
type WatchlistRepository interface {
	FindActive(ctx context.Context, accountID string) ([]entity.WatchlistItem, error)
	// FindBySymbol returns the account's watchlist item for a symbol, or
	// nil when the symbol is not tracked.
	FindBySymbol(ctx context.Context, accountID, symbol string) (*entity.WatchlistItem, error)
	ActiveSymbols(ctx context.Context) ([]string, error)
}

// NewWatchlistRepository creates a new GORM-based watchlist repository.
func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

type watchlistRepository struct {
	db *gorm.DB
}

func (r *watchlistRepository) FindActive(ctx context.Context, accountID string) ([]entity.WatchlistItem, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	var items []entity.WatchlistItem
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *watchlistRepository) FindBySymbol(ctx context.Context, accountID, symbol string) (*entity.WatchlistItem, error) {
	var item entity.WatchlistItem
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND symbol = ? AND is_active = ?", accountID, symbol, true).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *watchlistRepository) ActiveSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := r.db.WithContext(ctx).Model(&entity.WatchlistItem{}).
		Where("is_active = ?", true).
		Distinct().
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, err
	}
	return symbols, nil
}
