package service

import (
	"context"
	"testing"
	"time"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/internal/pipeline/repository"
	"golang-stock-advisor/pkg/common"
	"golang-stock-advisor/pkg/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarketDataRepository struct {
	prices       *dto.ClosingPrices
	pricesErr    error
	fundamentals *dto.TickerFundamentals
	fundErr      error
}

func (f *fakeMarketDataRepository) GetClosingPrices(_ context.Context, _ string) (*dto.ClosingPrices, error) {
	return f.prices, f.pricesErr
}

func (f *fakeMarketDataRepository) GetFundamentals(_ context.Context, _ string) (*dto.TickerFundamentals, error) {
	return f.fundamentals, f.fundErr
}

type fakeRecommendationRepository struct {
	created []*entity.Recommendation
	nextID  uint
}

func (f *fakeRecommendationRepository) Create(_ context.Context, rec *entity.Recommendation) error {
	f.nextID++
	rec.ID = f.nextID
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeRecommendationRepository) FindLatest(_ context.Context, _ int) ([]entity.Recommendation, error) {
	var out []entity.Recommendation
	for _, r := range f.created {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRecommendationRepository) FindByTicker(_ context.Context, symbol string, _ int) ([]entity.Recommendation, error) {
	var out []entity.Recommendation
	for _, r := range f.created {
		if r.TickerSymbol == symbol {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func pipelineTestConfig() *config.Config {
	return &config.Config{
		Pipeline: config.Pipeline{
			Tickers:             []string{"AAPL"},
			ArticlesPerTicker:   20,
			ContextArticles:     4,
			WriteBatchSize:      100,
			ArticleMaxAgeDays:   7,
			ExperimentStartDate: "2025-01-22",
			MaxExperimentDay:    90,
			TickerCacheTTL:      time.Minute,
			RunTimeout:          time.Minute,
		},
		Sentiment: config.Sentiment{InputLimit: 512},
	}
}

func buildPipeline(t *testing.T, cfg *config.Config, market repository.MarketDataRepository, feed []dto.NewsAPIArticle, sentiments map[string]*dto.SentimentPrediction, llm repository.LLMRepository, notifier telegram.Notifier) (*PipelineService, *fakeRecommendationRepository, *fakeArticleRepository) {
	t.Helper()
	log := testLogger(t)

	articleRepo := newFakeArticleRepository()
	tickerRepo := newFakeTickerRepository()
	recRepo := &fakeRecommendationRepository{}
	newsRepo := &fakeNewsSearchRepository{articles: feed}
	sentimentRepo := &fakeSentimentRepository{byText: sentiments}

	directory := NewTickerDirectory(tickerRepo, log, time.Minute)
	newsSvc := NewNewsService(cfg, log, newsRepo, nil, articleRepo, tickerRepo, directory, nil)
	scoringSvc := NewSentimentService(cfg, log, articleRepo, sentimentRepo)
	advisorSvc := NewAdvisorService(cfg, log, llm)
	return NewPipelineService(cfg, log, newsSvc, scoringSvc, advisorSvc, market, tickerRepo, recRepo, articleRepo, directory, notifier), recRepo, articleRepo
}

func TestPipelineServiceRun(t *testing.T) {
	feed := []dto.NewsAPIArticle{
		feedArticle("https://example.com/1", "Apple beats expectations"),
		feedArticle("https://example.com/2", "Apple expands services"),
		feedArticle("https://example.com/3", "Apple faces lawsuit"),
	}
	sentiments := map[string]*dto.SentimentPrediction{
		"description": {Label: common.SentimentPositive, Score: 0.8},
	}

	t.Run("produces an evaluated recommendation", func(t *testing.T) {
		cfg := pipelineTestConfig()
		market := &fakeMarketDataRepository{
			prices:       &dto.ClosingPrices{Latest: 110, Previous: 100},
			fundamentals: &dto.TickerFundamentals{LongName: "Apple Inc."},
		}
		llm := &fakeLLMRepository{rec: &dto.ModelRecommendation{Signal: entity.SignalBuy, Reasoning: "positive coverage"}}
		notifier := &fakeNotifier{}

		svc, recRepo, _ := buildPipeline(t, cfg, market, feed, sentiments, llm, notifier)

		results, err := svc.Run(context.Background(), dto.PipelineRunRequest{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "ok", results[0].Status)
		assert.Equal(t, 3, results[0].ArticlesStored)
		assert.Equal(t, 3, results[0].ArticlesScored)

		require.Len(t, recRepo.created, 1)
		rec := recRepo.created[0]
		assert.Equal(t, "AAPL", rec.TickerSymbol)
		assert.Equal(t, entity.SignalBuy, rec.ModelSignal)
		assert.Equal(t, entity.SignalBuy, rec.AggregatorSignal)
		assert.True(t, rec.Evaluated)
		assert.True(t, rec.IsCorrect)
		assert.Equal(t, 110.0, rec.LatestClose)
		assert.Equal(t, 100.0, rec.PreviousClose)
		assert.Equal(t, 90, rec.ExperimentDay)

		require.NotEmpty(t, notifier.messages)
		assert.Contains(t, notifier.messages[0], "AAPL")
	})

	t.Run("insufficient price history stores an unevaluated recommendation", func(t *testing.T) {
		cfg := pipelineTestConfig()
		market := &fakeMarketDataRepository{
			pricesErr:    repository.ErrInsufficientPriceData,
			fundamentals: &dto.TickerFundamentals{LongName: "Apple Inc."},
		}
		llm := &fakeLLMRepository{rec: &dto.ModelRecommendation{Signal: entity.SignalBuy, Reasoning: "positive coverage"}}

		svc, recRepo, _ := buildPipeline(t, cfg, market, feed, sentiments, llm, nil)

		results, err := svc.Run(context.Background(), dto.PipelineRunRequest{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "ok", results[0].Status)

		require.Len(t, recRepo.created, 1)
		rec := recRepo.created[0]
		assert.False(t, rec.Evaluated)
		assert.False(t, rec.IsCorrect)
		assert.Zero(t, rec.LatestClose)
	})

	t.Run("run with no tickers anywhere fails", func(t *testing.T) {
		cfg := pipelineTestConfig()
		cfg.Pipeline.Tickers = nil
		market := &fakeMarketDataRepository{prices: &dto.ClosingPrices{Latest: 1, Previous: 1}}
		llm := &fakeLLMRepository{rec: &dto.ModelRecommendation{Signal: entity.SignalHold}}

		svc, _, _ := buildPipeline(t, cfg, market, nil, nil, llm, nil)

		_, err := svc.Run(context.Background(), dto.PipelineRunRequest{})
		assert.Error(t, err)
	})
}
