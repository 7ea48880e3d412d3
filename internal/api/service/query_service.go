package service

import (
	"context"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/repository"
	"golang-stock-advisor/pkg/logger"
)

const defaultListLimit = 50

// QueryService exposes read access to the stored pipeline output.
type QueryService interface {
	ListRecommendations(ctx context.Context, symbol string, limit int) ([]entity.Recommendation, error)
	ListArticles(ctx context.Context, symbol string, limit int) ([]entity.Article, error)
	ListTickers(ctx context.Context) ([]entity.Ticker, error)
}

// NewQueryService creates a QueryService.
func NewQueryService(
	recRepo repository.RecommendationRepository,
	articleRepo repository.ArticleRepository,
	tickerRepo repository.TickerRepository,
	log *logger.Logger,
) QueryService {
	return &queryService{
		recRepo:     recRepo,
		articleRepo: articleRepo,
		tickerRepo:  tickerRepo,
		log:         log,
	}
}

type queryService struct {
	recRepo     repository.RecommendationRepository
	articleRepo repository.ArticleRepository
	tickerRepo  repository.TickerRepository
	log         *logger.Logger
}

func (s *queryService) ListRecommendations(ctx context.Context, symbol string, limit int) ([]entity.Recommendation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if symbol != "" {
		return s.recRepo.FindByTicker(ctx, symbol, limit)
	}
	return s.recRepo.FindLatest(ctx, limit)
}

func (s *queryService) ListArticles(ctx context.Context, symbol string, limit int) ([]entity.Article, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if symbol != "" {
		// Includes articles the sentiment scorer has not reached yet.
		return s.articleRepo.FindByTicker(ctx, symbol, limit)
	}
	return s.articleRepo.FindRecent(ctx, limit)
}

func (s *queryService) ListTickers(ctx context.Context) ([]entity.Ticker, error) {
	return s.tickerRepo.GetAll(ctx)
}
