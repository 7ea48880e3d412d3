package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSentimentRepository struct {
	byText map[string]*dto.SentimentPrediction
	err    error
	inputs []string
}

func (f *fakeSentimentRepository) Classify(_ context.Context, text string) (*dto.SentimentPrediction, error) {
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.byText[text]; ok {
		return p, nil
	}
	return &dto.SentimentPrediction{Label: common.SentimentNeutral, Score: 0.5}, nil
}

func sentimentTestConfig(inputLimit int) *config.Config {
	return &config.Config{Sentiment: config.Sentiment{InputLimit: inputLimit}}
}

func TestSentimentServiceScoreUnscored(t *testing.T) {
	log := testLogger(t)

	t.Run("scores pending articles and skips failures", func(t *testing.T) {
		articleRepo := newFakeArticleRepository()
		_, err := articleRepo.CreateIgnoreConflict(context.Background(), []entity.Article{
			{Title: "good news", Content: "great earnings", URL: "https://example.com/1"},
			{Title: "bad news", Content: "weak guidance", URL: "https://example.com/2"},
		}, 100)
		require.NoError(t, err)

		sentimentRepo := &fakeSentimentRepository{byText: map[string]*dto.SentimentPrediction{
			"great earnings": {Label: common.SentimentPositive, Score: 0.9},
			"weak guidance":  {Label: common.SentimentNegative, Score: 0.7},
		}}
		svc := NewSentimentService(sentimentTestConfig(512), log, articleRepo, sentimentRepo)

		scored, err := svc.ScoreUnscored(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, 2, scored)

		a := articleRepo.byURL["https://example.com/1"]
		require.True(t, a.Scored())
		assert.Equal(t, common.SentimentPositive, *a.SentimentLabel)
		assert.InDelta(t, 0.9, *a.SentimentScore, 1e-9)
		assert.NotNil(t, a.AnalyzedAt)
	})

	t.Run("second pass is a no-op", func(t *testing.T) {
		articleRepo := newFakeArticleRepository()
		_, err := articleRepo.CreateIgnoreConflict(context.Background(), []entity.Article{
			{Title: "good news", Content: "great earnings", URL: "https://example.com/1"},
		}, 100)
		require.NoError(t, err)

		sentimentRepo := &fakeSentimentRepository{}
		svc := NewSentimentService(sentimentTestConfig(512), log, articleRepo, sentimentRepo)

		_, err = svc.ScoreUnscored(context.Background(), 0)
		require.NoError(t, err)

		scored, err := svc.ScoreUnscored(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, 0, scored)
		assert.Len(t, sentimentRepo.inputs, 1)
	})

	t.Run("classifier failure leaves the article unscored", func(t *testing.T) {
		articleRepo := newFakeArticleRepository()
		_, err := articleRepo.CreateIgnoreConflict(context.Background(), []entity.Article{
			{Title: "good news", Content: "great earnings", URL: "https://example.com/1"},
		}, 100)
		require.NoError(t, err)

		sentimentRepo := &fakeSentimentRepository{err: errors.New("service unavailable")}
		svc := NewSentimentService(sentimentTestConfig(512), log, articleRepo, sentimentRepo)

		scored, err := svc.ScoreUnscored(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, 0, scored)
		assert.False(t, articleRepo.byURL["https://example.com/1"].Scored())
	})

	t.Run("input is truncated to the classifier limit", func(t *testing.T) {
		articleRepo := newFakeArticleRepository()
		long := strings.Repeat("x", 2000)
		_, err := articleRepo.CreateIgnoreConflict(context.Background(), []entity.Article{
			{Title: "long", Content: long, URL: "https://example.com/1"},
		}, 100)
		require.NoError(t, err)

		sentimentRepo := &fakeSentimentRepository{}
		svc := NewSentimentService(sentimentTestConfig(512), log, articleRepo, sentimentRepo)

		_, err = svc.ScoreUnscored(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, sentimentRepo.inputs, 1)
		assert.Len(t, sentimentRepo.inputs[0], 512)
	})

	t.Run("falls back to the title when content is empty", func(t *testing.T) {
		articleRepo := newFakeArticleRepository()
		_, err := articleRepo.CreateIgnoreConflict(context.Background(), []entity.Article{
			{Title: "headline only", URL: "https://example.com/1"},
		}, 100)
		require.NoError(t, err)

		sentimentRepo := &fakeSentimentRepository{}
		svc := NewSentimentService(sentimentTestConfig(512), log, articleRepo, sentimentRepo)

		_, err = svc.ScoreUnscored(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, sentimentRepo.inputs, 1)
		assert.Equal(t, "headline only", sentimentRepo.inputs[0])
	})
}
