package repository

import (
	"context"
	"errors"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/dto"
)

// ErrInsufficientPriceData means the provider answered but returned fewer
// than two trading sessions. It is a data-quality failure and is never retried.
var ErrInsufficientPriceData = errors.New("insufficient price history")

// NewsSearchRepository fetches candidate articles from an external provider.
type NewsSearchRepository interface {
	Search(ctx context.Context, keywords []string, pageSize int) ([]dto.NewsAPIArticle, error)
}

// MarketDataRepository retrieves prices and fundamentals for a ticker.
type MarketDataRepository interface {
	GetClosingPrices(ctx context.Context, symbol string) (*dto.ClosingPrices, error)
	GetFundamentals(ctx context.Context, symbol string) (*dto.TickerFundamentals, error)
}

// SentimentRepository classifies article text with a pretrained model.
type SentimentRepository interface {
	Classify(ctx context.Context, text string) (*dto.SentimentPrediction, error)
}

// LLMRepository produces the final model recommendation for a ticker.
type LLMRepository interface {
	GenerateRecommendation(ctx context.Context, symbol string, aggregatorSignal entity.Signal, summary entity.SentimentSummary, articles []entity.Article) (*dto.ModelRecommendation, error)
}
