package repository

import (
	"context"

	"golang-stock-advisor/internal/entity"

	"gorm.io/gorm"
)

// RecommendationRepository defines the interface for stored recommendations.
// The collection is append-only: there is no update operation.
type RecommendationRepository interface {
	Create(ctx context.Context, rec *entity.Recommendation) error
	FindLatest(ctx context.Context, limit int) ([]entity.Recommendation, error)
	FindByTicker(ctx context.Context, symbol string, limit int) ([]entity.Recommendation, error)
}

// NewRecommendationRepository creates a new GORM-based recommendation repository.
func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

type recommendationRepository struct {
	db *gorm.DB
}

func (r *recommendationRepository) Create(ctx context.Context, rec *entity.Recommendation) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *recommendationRepository) FindLatest(ctx context.Context, limit int) ([]entity.Recommendation, error) {
	var recs []entity.Recommendation
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *recommendationRepository) FindByTicker(ctx context.Context, symbol string, limit int) ([]entity.Recommendation, error) {
	var recs []entity.Recommendation
	err := r.db.WithContext(ctx).
		Where("ticker_symbol = ?", symbol).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
