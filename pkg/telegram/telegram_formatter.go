package telegram

import (
	"fmt"
	"strings"

	"golang-stock-advisor/internal/entity"
)

func signalIcon(signal entity.Signal) string {
	switch signal {
	case entity.SignalBuy:
		return "🟢"
	case entity.SignalSell:
		return "🔴"
	default:
		return "🟡"
	}
}

// FormatRecommendationForTelegram formats one stored recommendation into a
// Markdown string for Telegram.
func FormatRecommendationForTelegram(rec *entity.Recommendation) string {
	var builder strings.Builder

	summary := rec.SentimentSummary.Data()

	builder.WriteString(fmt.Sprintf("📈 *- - - - - %s - - - - -*\n", rec.TickerSymbol))
	builder.WriteString(fmt.Sprintf("%s *Recommendation:* %s\n", signalIcon(rec.ModelSignal), rec.ModelSignal))
	builder.WriteString(fmt.Sprintf("📊 *Sentiment aggregate:* %s (pos %.2f / neu %.2f / neg %.2f)\n",
		rec.AggregatorSignal, summary.Positive, summary.Neutral, summary.Negative))
	if rec.LatestClose > 0 && rec.PreviousClose > 0 {
		builder.WriteString(fmt.Sprintf("💰 *Close:* %.2f (prev %.2f)\n", rec.LatestClose, rec.PreviousClose))
	}
	if rec.Reasoning != "" {
		builder.WriteString(fmt.Sprintf("🤔 *Reasoning:*\n_%s_\n", rec.Reasoning))
	}
	builder.WriteString(fmt.Sprintf("📅 Day %d of the experiment\n", rec.ExperimentDay))

	return builder.String()
}

// FormatRecommendationsForTelegram formats a batch of recommendations into
// Markdown messages, splitting so no message exceeds the Telegram limit.
func FormatRecommendationsForTelegram(recs []*entity.Recommendation) []string {
	if len(recs) == 0 {
		return []string{"No stock recommendations were produced in this run."}
	}

	const maxLen = 4090
	var messages []string
	var currentMessage strings.Builder
	part := 1

	startNewPart := func() {
		currentMessage.Reset()
		if part == 1 {
			currentMessage.WriteString("📰 *Daily Stock Recommendations* 📰\n\n")
		} else {
			currentMessage.WriteString(fmt.Sprintf("---*Daily Stock Recommendations, Part %d*---\n\n", part))
		}
	}

	startNewPart()
	for _, rec := range recs {
		entry := FormatRecommendationForTelegram(rec) + "\n"
		if currentMessage.Len()+len(entry) > maxLen {
			messages = append(messages, currentMessage.String())
			part++
			startNewPart()
		}
		currentMessage.WriteString(entry)
	}
	messages = append(messages, currentMessage.String())

	return messages
}
