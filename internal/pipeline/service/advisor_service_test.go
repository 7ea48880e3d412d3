package service

import (
	"context"
	"errors"
	"testing"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/common"
	"golang-stock-advisor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "json")
	require.NoError(t, err)
	return log
}

func scoredArticle(label string, score float64) entity.Article {
	return entity.Article{
		Title:          "headline",
		SentimentLabel: &label,
		SentimentScore: &score,
	}
}

type fakeLLMRepository struct {
	rec  *dto.ModelRecommendation
	err  error
	seen entity.Signal
}

func (f *fakeLLMRepository) GenerateRecommendation(_ context.Context, _ string, aggregatorSignal entity.Signal, _ entity.SentimentSummary, _ []entity.Article) (*dto.ModelRecommendation, error) {
	f.seen = aggregatorSignal
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

func TestAggregate(t *testing.T) {
	articles := []entity.Article{
		scoredArticle(common.SentimentPositive, 0.8),
		scoredArticle(common.SentimentPositive, 0.7),
		scoredArticle(common.SentimentNegative, 0.6),
		scoredArticle(common.SentimentNeutral, 0.5),
		{Title: "unscored"},
	}

	summary := Aggregate(articles)
	assert.InDelta(t, 1.5, summary.Positive, 1e-9)
	assert.InDelta(t, 0.6, summary.Negative, 1e-9)
	assert.InDelta(t, 0.5, summary.Neutral, 1e-9)

	// Same input, same output.
	assert.Equal(t, summary, Aggregate(articles))
}

func TestHeuristicSignal(t *testing.T) {
	tests := []struct {
		name    string
		summary entity.SentimentSummary
		want    entity.Signal
	}{
		{"positive outweighs negative", entity.SentimentSummary{Positive: 1.5, Negative: 0.6}, entity.SignalBuy},
		{"negative outweighs positive", entity.SentimentSummary{Positive: 0.2, Negative: 0.9}, entity.SignalSell},
		{"exact tie holds", entity.SentimentSummary{Positive: 0.7, Negative: 0.7}, entity.SignalHold},
		{"all zero holds", entity.SentimentSummary{}, entity.SignalHold},
		{"neutral weight is ignored", entity.SentimentSummary{Neutral: 5}, entity.SignalHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HeuristicSignal(tt.summary))
		})
	}
}

func TestAdvise(t *testing.T) {
	cfg := &config.Config{}
	log := testLogger(t)

	t.Run("passes aggregator signal to the model", func(t *testing.T) {
		llm := &fakeLLMRepository{rec: &dto.ModelRecommendation{Signal: entity.SignalBuy, Reasoning: "strong coverage"}}
		svc := NewAdvisorService(cfg, log, llm)

		articles := []entity.Article{
			scoredArticle(common.SentimentPositive, 0.8),
			scoredArticle(common.SentimentPositive, 0.8),
			scoredArticle(common.SentimentNegative, 0.6),
		}
		advice, err := svc.Advise(context.Background(), "AAPL", articles)
		require.NoError(t, err)

		assert.Equal(t, entity.SignalBuy, advice.AggregatorSignal)
		assert.Equal(t, entity.SignalBuy, advice.ModelSignal)
		assert.Equal(t, "strong coverage", advice.Reasoning)
		assert.Equal(t, entity.SignalBuy, llm.seen)
		assert.False(t, advice.Fallback)
	})

	t.Run("no scored articles holds without calling the model", func(t *testing.T) {
		llm := &fakeLLMRepository{err: errors.New("must not be called")}
		svc := NewAdvisorService(cfg, log, llm)

		advice, err := svc.Advise(context.Background(), "AAPL", []entity.Article{{Title: "unscored"}})
		require.NoError(t, err)

		assert.Equal(t, entity.SignalHold, advice.AggregatorSignal)
		assert.Equal(t, entity.SignalHold, advice.ModelSignal)
		assert.True(t, advice.Fallback)
		assert.Equal(t, entity.SentimentSummary{}, advice.Summary)
		assert.Equal(t, entity.Signal(""), llm.seen)
	})

	t.Run("model failure degrades to hold", func(t *testing.T) {
		llm := &fakeLLMRepository{err: errors.New("timeout")}
		svc := NewAdvisorService(cfg, log, llm)

		articles := []entity.Article{scoredArticle(common.SentimentNegative, 0.9)}
		advice, err := svc.Advise(context.Background(), "AAPL", articles)
		require.NoError(t, err)

		assert.Equal(t, entity.SignalSell, advice.AggregatorSignal)
		assert.Equal(t, entity.SignalHold, advice.ModelSignal)
		assert.True(t, advice.Fallback)
		assert.NotEmpty(t, advice.Reasoning)
	})
}
