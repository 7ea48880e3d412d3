package repository

import (
	"context"

	"golang-stock-advisor/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TickerRepository defines the interface for interacting with ticker records.
type TickerRepository interface {
	Upsert(ctx context.Context, ticker *entity.Ticker) error
	GetAll(ctx context.Context) ([]entity.Ticker, error)
	FindBySymbol(ctx context.Context, symbol string) (*entity.Ticker, error)
	LinkArticle(ctx context.Context, symbol string, articleID uint) error
}

// NewTickerRepository creates a new GORM-based ticker repository.
func NewTickerRepository(db *gorm.DB) TickerRepository {
	return &tickerRepository{db: db}
}

type tickerRepository struct {
	db *gorm.DB
}

// Upsert overwrites the record for the ticker's symbol wholesale. The
// linked article set is preserved: links are managed by LinkArticle only.
func (r *tickerRepository) Upsert(ctx context.Context, ticker *entity.Ticker) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"long_name", "sector", "industry",
			"latest_close", "previous_close",
			"market_cap", "volume",
			"fifty_two_week_high", "fifty_two_week_low",
			"dividend_yield", "beta",
			"fetched_at", "status", "error_msg",
		}),
	}).Create(ticker).Error
}

// GetAll returns every stored ticker record.
func (r *tickerRepository) GetAll(ctx context.Context) ([]entity.Ticker, error) {
	var tickers []entity.Ticker
	if err := r.db.WithContext(ctx).Find(&tickers).Error; err != nil {
		return nil, err
	}
	return tickers, nil
}

// FindBySymbol retrieves one ticker record.
func (r *tickerRepository) FindBySymbol(ctx context.Context, symbol string) (*entity.Ticker, error) {
	var ticker entity.Ticker
	if err := r.db.WithContext(ctx).First(&ticker, "symbol = ?", symbol).Error; err != nil {
		return nil, err
	}
	return &ticker, nil
}

// LinkArticle appends the article id to the ticker's linked set if absent.
func (r *tickerRepository) LinkArticle(ctx context.Context, symbol string, articleID uint) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE tickers
		 SET linked_article_ids = array_append(linked_article_ids, ?::bigint)
		 WHERE symbol = ? AND NOT (linked_article_ids @> ARRAY[?::bigint])`,
		articleID, symbol, articleID,
	).Error
}
