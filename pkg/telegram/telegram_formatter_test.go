package telegram

import (
	"strings"
	"testing"

	"golang-stock-advisor/internal/entity"

	"github.com/stretchr/testify/assert"

	"gorm.io/datatypes"
)

func TestFormatRecommendationForTelegram(t *testing.T) {
	rec := &entity.Recommendation{
		TickerSymbol:     "AAPL",
		AggregatorSignal: entity.SignalBuy,
		ModelSignal:      entity.SignalBuy,
		Reasoning:        "Coverage is strongly positive.",
		SentimentSummary: datatypes.NewJSONType(entity.SentimentSummary{Positive: 1.6, Negative: 0.6}),
		LatestClose:      110,
		PreviousClose:    100,
		ExperimentDay:    12,
	}

	msg := FormatRecommendationForTelegram(rec)
	assert.Contains(t, msg, "AAPL")
	assert.Contains(t, msg, "Buy")
	assert.Contains(t, msg, "pos 1.60")
	assert.Contains(t, msg, "110.00")
	assert.Contains(t, msg, "Day 12")
}

func TestFormatRecommendationsForTelegramSplitsLongBatches(t *testing.T) {
	long := strings.Repeat("very long reasoning ", 60)
	var recs []*entity.Recommendation
	for i := 0; i < 20; i++ {
		recs = append(recs, &entity.Recommendation{
			TickerSymbol: "AAPL",
			ModelSignal:  entity.SignalHold,
			Reasoning:    long,
		})
	}

	messages := FormatRecommendationsForTelegram(recs)
	assert.Greater(t, len(messages), 1)
	for _, m := range messages {
		assert.LessOrEqual(t, len(m), 4096)
	}
	assert.Contains(t, messages[0], "Daily Stock Recommendations")
}

func TestFormatRecommendationsForTelegramEmpty(t *testing.T) {
	messages := FormatRecommendationsForTelegram(nil)
	assert.Len(t, messages, 1)
	assert.Contains(t, messages[0], "No stock recommendations")
}
