package repository

import (
	"context"
	"time"

	"golang-stock-advisor/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleRepository defines the interface for interacting with stored articles.
type ArticleRepository interface {
	CreateIgnoreConflict(ctx context.Context, articles []entity.Article, batchSize int) (int64, error)
	FindExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	FindUnscored(ctx context.Context, limit int) ([]entity.Article, error)
	UpdateSentiment(ctx context.Context, id uint, label string, score float64, analyzedAt time.Time) error
	FindByTickerSince(ctx context.Context, symbol string, since time.Time, limit int) ([]entity.Article, error)
	FindByTicker(ctx context.Context, symbol string, limit int) ([]entity.Article, error)
	FindRecent(ctx context.Context, limit int) ([]entity.Article, error)
}

// NewArticleRepository creates a new GORM-based article repository.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

type articleRepository struct {
	db *gorm.DB
}

// CreateIgnoreConflict inserts articles in bounded batches, skipping rows
// whose URL already exists. Returns the number of rows actually written,
// so a retried call is safe to re-apply.
func (r *articleRepository) CreateIgnoreConflict(ctx context.Context, articles []entity.Article, batchSize int) (int64, error) {
	if len(articles) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoNothing: true,
	}).CreateInBatches(articles, batchSize)
	return tx.RowsAffected, tx.Error
}

// FindExistingURLs returns which of the given URLs are already stored.
func (r *articleRepository) FindExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(urls) == 0 {
		return existing, nil
	}

	var stored []string
	err := r.db.WithContext(ctx).Model(&entity.Article{}).
		Where("url IN ?", urls).
		Pluck("url", &stored).Error
	if err != nil {
		return nil, err
	}

	for _, u := range stored {
		existing[u] = true
	}
	return existing, nil
}

// FindUnscored returns articles that have not been through the sentiment scorer.
func (r *articleRepository) FindUnscored(ctx context.Context, limit int) ([]entity.Article, error) {
	var articles []entity.Article
	q := r.db.WithContext(ctx).Where("sentiment_label IS NULL").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// UpdateSentiment persists the classifier output back onto one article.
func (r *articleRepository) UpdateSentiment(ctx context.Context, id uint, label string, score float64, analyzedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Article{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sentiment_label": label,
			"sentiment_score": score,
			"analyzed_at":     analyzedAt,
		}).Error
}

// FindByTickerSince returns scored articles linked to a ticker, newest first.
func (r *articleRepository) FindByTickerSince(ctx context.Context, symbol string, since time.Time, limit int) ([]entity.Article, error) {
	var articles []entity.Article
	q := r.db.WithContext(ctx).
		Where("ticker_symbol = ?", symbol).
		Where("sentiment_label IS NOT NULL").
		Where("published_at >= ?", since).
		Order("published_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// FindByTicker returns a ticker's articles newest first, whether or not the
// sentiment scorer has reached them yet.
func (r *articleRepository) FindByTicker(ctx context.Context, symbol string, limit int) ([]entity.Article, error) {
	var articles []entity.Article
	q := r.db.WithContext(ctx).
		Where("ticker_symbol = ?", symbol).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// FindRecent returns the most recently ingested articles.
func (r *articleRepository) FindRecent(ctx context.Context, limit int) ([]entity.Article, error) {
	var articles []entity.Article
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}
