package service

import (
	"context"

	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/repository"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"
)

// SentimentService runs stored articles through the sentiment classifier
// and writes the label and score back. Already-scored articles are never
// re-scored, so repeated runs are no-ops.
type SentimentService struct {
	cfg           *config.Config
	log           *logger.Logger
	articleRepo   repository.ArticleRepository
	sentimentRepo repository.SentimentRepository
}

// NewSentimentService creates a SentimentService.
func NewSentimentService(cfg *config.Config, log *logger.Logger, articleRepo repository.ArticleRepository, sentimentRepo repository.SentimentRepository) *SentimentService {
	return &SentimentService{
		cfg:           cfg,
		log:           log,
		articleRepo:   articleRepo,
		sentimentRepo: sentimentRepo,
	}
}

// ScoreUnscored classifies every stored article that has no sentiment yet,
// up to limit. A classifier failure skips that article and moves on; the
// article stays unscored and is retried on the next run. Returns the
// number of articles scored.
func (s *SentimentService) ScoreUnscored(ctx context.Context, limit int) (int, error) {
	articles, err := s.articleRepo.FindUnscored(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(articles) == 0 {
		return 0, nil
	}

	scored := 0
	for i := range articles {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}
		article := &articles[i]

		text := article.Content
		if text == "" {
			text = article.Title
		}
		text = utils.TruncateText(text, s.cfg.Sentiment.InputLimit)

		prediction, err := s.sentimentRepo.Classify(ctx, text)
		if err != nil {
			s.log.ErrorContext(ctx, "Sentiment classification failed, skipping article",
				logger.Field("article_id", article.ID),
				logger.ErrorField(err))
			continue
		}

		if err := s.articleRepo.UpdateSentiment(ctx, article.ID, prediction.Label, prediction.Score, utils.TimeNowUTC()); err != nil {
			s.log.ErrorContext(ctx, "Failed to store sentiment",
				logger.Field("article_id", article.ID),
				logger.ErrorField(err))
			continue
		}
		scored++
	}

	s.log.InfoContext(ctx, "Sentiment scoring pass finished",
		logger.IntField("candidates", len(articles)),
		logger.IntField("scored", scored))
	return scored, nil
}
