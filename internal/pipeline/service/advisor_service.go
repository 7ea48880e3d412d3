package service

import (
	"context"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/repository"
	"golang-stock-advisor/pkg/common"
	"golang-stock-advisor/pkg/logger"
)

// Advice is the outcome of advising on one ticker.
type Advice struct {
	AggregatorSignal entity.Signal
	ModelSignal      entity.Signal
	Reasoning        string
	Summary          entity.SentimentSummary
	Fallback         bool
}

// AdvisorService turns a ticker's scored articles into a Buy/Sell/Hold
// recommendation: a deterministic aggregate of the sentiment scores plus
// a model recommendation from the LLM.
type AdvisorService struct {
	cfg     *config.Config
	log     *logger.Logger
	llmRepo repository.LLMRepository
}

// NewAdvisorService creates an AdvisorService.
func NewAdvisorService(cfg *config.Config, log *logger.Logger, llmRepo repository.LLMRepository) *AdvisorService {
	return &AdvisorService{cfg: cfg, log: log, llmRepo: llmRepo}
}

// Advise produces the advice for one ticker from its scored articles.
// With no scored articles both signals are Hold. When the LLM call fails
// outright the model signal degrades to Hold with an explanation; the run
// still succeeds.
func (s *AdvisorService) Advise(ctx context.Context, symbol string, articles []entity.Article) (*Advice, error) {
	scored := make([]entity.Article, 0, len(articles))
	for _, a := range articles {
		if a.Scored() {
			scored = append(scored, a)
		}
	}

	if len(scored) == 0 {
		return &Advice{
			AggregatorSignal: entity.SignalHold,
			ModelSignal:      entity.SignalHold,
			Reasoning:        "No recent scored news is available for this ticker, so no position change is advised.",
			Fallback:         true,
		}, nil
	}

	summary := Aggregate(scored)
	aggregatorSignal := HeuristicSignal(summary)

	model, err := s.llmRepo.GenerateRecommendation(ctx, symbol, aggregatorSignal, summary, scored)
	if err != nil {
		s.log.ErrorContext(ctx, "Model recommendation failed, holding",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err))
		return &Advice{
			AggregatorSignal: aggregatorSignal,
			ModelSignal:      entity.SignalHold,
			Reasoning:        "The recommendation model was unavailable, so the safe default is to hold.",
			Summary:          summary,
			Fallback:         true,
		}, nil
	}

	return &Advice{
		AggregatorSignal: aggregatorSignal,
		ModelSignal:      model.Signal,
		Reasoning:        model.Reasoning,
		Summary:          summary,
		Fallback:         model.Fallback,
	}, nil
}

// Aggregate sums the classifier scores per label over the articles.
// Unscored articles contribute nothing.
func Aggregate(articles []entity.Article) entity.SentimentSummary {
	var summary entity.SentimentSummary
	for _, a := range articles {
		if !a.Scored() || a.SentimentScore == nil {
			continue
		}
		switch *a.SentimentLabel {
		case common.SentimentPositive:
			summary.Positive += *a.SentimentScore
		case common.SentimentNegative:
			summary.Negative += *a.SentimentScore
		case common.SentimentNeutral:
			summary.Neutral += *a.SentimentScore
		}
	}
	return summary
}

// HeuristicSignal maps an aggregate to a signal: Buy when positive weight
// exceeds negative, Sell when negative exceeds positive, Hold on a tie.
func HeuristicSignal(summary entity.SentimentSummary) entity.Signal {
	switch {
	case summary.Positive > summary.Negative:
		return entity.SignalBuy
	case summary.Negative > summary.Positive:
		return entity.SignalSell
	default:
		return entity.SignalHold
	}
}
