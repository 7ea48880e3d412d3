package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/internal/pipeline/repository"
	"golang-stock-advisor/pkg/common"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/telegram"
	"golang-stock-advisor/pkg/utils"

	"gorm.io/datatypes"

	gocache "github.com/patrickmn/go-cache"
)

// PipelineService runs the full advisory pipeline for a set of tickers:
// refresh ticker data, ingest news, score sentiment, produce a
// recommendation, and evaluate it against the latest price movement.
type PipelineService struct {
	cfg        *config.Config
	log        *logger.Logger
	newsSvc    *NewsService
	scoringSvc *SentimentService
	advisorSvc *AdvisorService
	marketRepo repository.MarketDataRepository
	tickerRepo repository.TickerRepository
	recRepo    repository.RecommendationRepository
	articles   repository.ArticleRepository
	directory  *TickerDirectory
	notifier   telegram.Notifier
	refreshed  *gocache.Cache
}

// NewPipelineService creates a PipelineService. notifier may be nil.
func NewPipelineService(
	cfg *config.Config,
	log *logger.Logger,
	newsSvc *NewsService,
	scoringSvc *SentimentService,
	advisorSvc *AdvisorService,
	marketRepo repository.MarketDataRepository,
	tickerRepo repository.TickerRepository,
	recRepo repository.RecommendationRepository,
	articleRepo repository.ArticleRepository,
	directory *TickerDirectory,
	notifier telegram.Notifier,
) *PipelineService {
	ttl := cfg.Pipeline.TickerCacheTTL
	return &PipelineService{
		cfg:        cfg,
		log:        log,
		newsSvc:    newsSvc,
		scoringSvc: scoringSvc,
		advisorSvc: advisorSvc,
		marketRepo: marketRepo,
		tickerRepo: tickerRepo,
		recRepo:    recRepo,
		articles:   articleRepo,
		directory:  directory,
		notifier:   notifier,
		refreshed:  gocache.New(ttl, 2*ttl),
	}
}

// Run executes the pipeline for the requested tickers, falling back to the
// configured watchlist when the request names none. One ticker failing
// never aborts the rest; each ticker reports its own result.
func (s *PipelineService) Run(ctx context.Context, req dto.PipelineRunRequest) ([]dto.PipelineRunResult, error) {
	tickers := req.Tickers
	if len(tickers) == 0 {
		tickers = s.cfg.Pipeline.Tickers
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers to process: request and watchlist are both empty")
	}

	start := utils.TimeNowUTC()
	s.log.InfoContext(ctx, "Pipeline run started", logger.IntField("tickers", len(tickers)))

	results := make([]dto.PipelineRunResult, 0, len(tickers))
	recs := make([]*entity.Recommendation, 0, len(tickers))
	for _, raw := range tickers {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" {
			continue
		}

		rec, result := s.processTicker(ctx, symbol, req)
		results = append(results, result)
		if rec != nil {
			recs = append(recs, rec)
		}
	}

	s.notify(ctx, recs)
	s.log.InfoContext(ctx, "Pipeline run finished",
		logger.IntField("tickers", len(tickers)),
		logger.IntField("recommendations", len(recs)),
		logger.StringField("elapsed", time.Since(start).String()))
	return results, nil
}

func (s *PipelineService) processTicker(ctx context.Context, symbol string, req dto.PipelineRunRequest) (*entity.Recommendation, dto.PipelineRunResult) {
	result := dto.PipelineRunResult{Ticker: symbol, Status: "ok"}

	ticker := s.refreshTicker(ctx, symbol)

	keywords := append([]string{symbol}, req.ExtraKeywords...)
	if ticker.LongName != "" {
		keywords = append(keywords, ticker.LongName)
	}
	pageSize := req.ArticlesPerTicker
	if pageSize <= 0 {
		pageSize = s.cfg.Pipeline.ArticlesPerTicker
	}

	stored, err := s.newsSvc.Ingest(ctx, keywords, pageSize)
	if err != nil {
		// Stored articles from earlier runs can still carry the
		// recommendation, so ingestion failure is not fatal.
		s.log.ErrorContext(ctx, "News ingestion failed",
			logger.StringField("symbol", symbol), logger.ErrorField(err))
		result.Error = err.Error()
	}
	result.ArticlesStored = int(stored)

	scoredCount, err := s.scoringSvc.ScoreUnscored(ctx, 0)
	if err != nil {
		s.log.ErrorContext(ctx, "Sentiment scoring failed",
			logger.StringField("symbol", symbol), logger.ErrorField(err))
		result.Error = err.Error()
	}
	result.ArticlesScored = scoredCount

	since := utils.TimeNowUTC().AddDate(0, 0, -s.cfg.Pipeline.ArticleMaxAgeDays)
	articles, err := s.articles.FindByTickerSince(ctx, symbol, since, s.cfg.Pipeline.ContextArticles)
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		return nil, result
	}

	advice, err := s.advisorSvc.Advise(ctx, symbol, articles)
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		return nil, result
	}

	rec := &entity.Recommendation{
		TickerSymbol:     symbol,
		AggregatorSignal: advice.AggregatorSignal,
		ModelSignal:      advice.ModelSignal,
		Reasoning:        advice.Reasoning,
		SentimentSummary: datatypes.NewJSONType(advice.Summary),
		ExperimentDay:    utils.DaysSince(s.cfg.ExperimentEpoch(), utils.TimeNowUTC(), s.cfg.Pipeline.MaxExperimentDay),
	}

	prices, err := s.marketRepo.GetClosingPrices(ctx, symbol)
	switch {
	case err == nil:
		rec.LatestClose = prices.Latest
		rec.PreviousClose = prices.Previous
		rec.IsCorrect, rec.Evaluated = Evaluate(advice.ModelSignal, prices.Latest, prices.Previous)
	case errors.Is(err, repository.ErrInsufficientPriceData):
		s.log.WarnContext(ctx, "Not enough price history to evaluate",
			logger.StringField("symbol", symbol))
	default:
		s.log.ErrorContext(ctx, "Price lookup failed, storing unevaluated",
			logger.StringField("symbol", symbol), logger.ErrorField(err))
	}

	if err := s.recRepo.Create(ctx, rec); err != nil {
		result.Status = "error"
		result.Error = err.Error()
		return nil, result
	}
	result.RecommendationID = rec.ID

	s.log.InfoContext(ctx, "Ticker processed",
		logger.StringField("symbol", symbol),
		logger.StringField("signal", string(rec.ModelSignal)),
		logger.Field("evaluated", rec.Evaluated))
	return rec, result
}

// refreshTicker brings the stored ticker record up to date, at most once
// per cache TTL. Provider failures are recorded on the row; the pipeline
// continues with whatever record exists.
func (s *PipelineService) refreshTicker(ctx context.Context, symbol string) *entity.Ticker {
	if cached, found := s.refreshed.Get(symbol); found {
		return cached.(*entity.Ticker)
	}

	ticker := &entity.Ticker{Symbol: symbol, FetchedAt: utils.TimeNowUTC()}

	fundamentals, err := s.marketRepo.GetFundamentals(ctx, symbol)
	if err == nil {
		ticker.LongName = fundamentals.LongName
		ticker.Sector = fundamentals.Sector
		ticker.Industry = fundamentals.Industry
		ticker.MarketCap = fundamentals.MarketCap
		ticker.Volume = fundamentals.Volume
		ticker.FiftyTwoWeekHigh = fundamentals.FiftyTwoWeekHigh
		ticker.FiftyTwoWeekLow = fundamentals.FiftyTwoWeekLow
		ticker.DividendYield = fundamentals.DividendYield
		ticker.Beta = fundamentals.Beta
	}

	prices, priceErr := s.marketRepo.GetClosingPrices(ctx, symbol)
	if priceErr == nil {
		ticker.LatestClose = prices.Latest
		ticker.PreviousClose = prices.Previous
	}

	switch {
	case err != nil:
		ticker.Status = common.TickerStatusError
		ticker.ErrorMsg = err.Error()
	case priceErr != nil && !errors.Is(priceErr, repository.ErrInsufficientPriceData):
		ticker.Status = common.TickerStatusError
		ticker.ErrorMsg = priceErr.Error()
	default:
		ticker.Status = common.TickerStatusOK
	}

	if upsertErr := s.tickerRepo.Upsert(ctx, ticker); upsertErr != nil {
		s.log.ErrorContext(ctx, "Failed to store ticker record",
			logger.StringField("symbol", symbol), logger.ErrorField(upsertErr))
		if existing, findErr := s.tickerRepo.FindBySymbol(ctx, symbol); findErr == nil {
			return existing
		}
		return ticker
	}

	if ticker.Status == common.TickerStatusOK {
		s.refreshed.Set(symbol, ticker, gocache.DefaultExpiration)
		s.directory.Invalidate()
	}
	return ticker
}

func (s *PipelineService) notify(ctx context.Context, recs []*entity.Recommendation) {
	if s.notifier == nil || len(recs) == 0 {
		return
	}
	for _, msg := range telegram.FormatRecommendationsForTelegram(recs) {
		if err := s.notifier.SendMessage(msg); err != nil {
			s.log.ErrorContext(ctx, "Failed to send Telegram notification", logger.ErrorField(err))
		}
	}
}
