package repository

import (
	"context"
	"time"

	"github.com/sperezintexas/fintech-app-sub006/internal/entity"

	"gorm.io/gorm"
)

// RecommendationRepository persists scan results. Writes are append-only;
// a new scan supersedes prior rows by created_at.
type RecommendationRepository interface {
	CreateBatch(ctx context.Context, recs []entity.Recommendation) error
	FindByAccount(ctx context.Context, accountID string, since time.Time) ([]entity.Recommendation, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewRecommendationRepository creates a new GORM-based recommendation repository.
func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

type recommendationRepository struct {
	db *gorm.DB
}

func (r *recommendationRepository) CreateBatch(ctx context.Context, recs []entity.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&recs).Error
}

func (r *recommendationRepository) FindByAccount(ctx context.Context, accountID string, since time.Time) ([]entity.Recommendation, error) {
	var recs []entity.Recommendation
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND created_at >= ?", accountID, since).
		Order("created_at desc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *recommendationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&entity.Recommendation{})
	return res.RowsAffected, res.Error
}
