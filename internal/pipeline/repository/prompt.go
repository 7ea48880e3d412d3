package repository

import (
	"fmt"
	"strings"

	"golang-stock-advisor/internal/entity"
)

// BuildRecommendationPrompt builds the prompt for the final trading
// recommendation. The model is instructed to answer in a line-prefixed
// format so the response can be parsed deterministically.
func BuildRecommendationPrompt(symbol string, aggregatorSignal entity.Signal, summary entity.SentimentSummary, articles []entity.Article) string {
	var docBuilder strings.Builder
	for _, a := range articles {
		label := "neutral"
		score := 0.0
		if a.SentimentLabel != nil {
			label = *a.SentimentLabel
		}
		if a.SentimentScore != nil {
			score = *a.SentimentScore
		}
		docBuilder.WriteString(fmt.Sprintf("- %s (%s, %.3f)\n", a.Title, label, score))
	}

	return fmt.Sprintf(`You are a financial analyst advising on stock %s.

Aggregated sentiment over recent news (sum of confidence scores per label):
positive=%.3f neutral=%.3f negative=%.3f
Sentiment-based recommendation: %s

Recent article overviews:
%s
Based on the above, answer in exactly this format and nothing else:

Recommendation: <Buy|Sell|Hold>
Reasoning: <one or two short sentences>`,
		symbol,
		summary.Positive, summary.Neutral, summary.Negative,
		aggregatorSignal,
		docBuilder.String(),
	)
}

// ParseRecommendation extracts the recommendation token and reasoning from
// a model response. ok is false when no recognizable token was found, in
// which case the caller must fall back to the aggregator signal.
func ParseRecommendation(response string) (signal entity.Signal, reasoning string, ok bool) {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if rest, found := cutPrefixFold(line, "recommendation:"); found {
			if s, valid := normalizeSignal(rest); valid {
				signal = s
				ok = true
			}
			continue
		}
		if rest, found := cutPrefixFold(line, "reasoning:"); found {
			reasoning = strings.TrimSpace(rest)
		}
	}
	if ok {
		return signal, reasoning, true
	}

	// Lenient pass: some models answer with the bare token.
	if s, valid := normalizeSignal(response); valid {
		return s, reasoning, true
	}
	return "", reasoning, false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

func normalizeSignal(raw string) (entity.Signal, bool) {
	token := strings.TrimSpace(raw)
	token = strings.Trim(token, ".!*\"'`")
	if fields := strings.Fields(token); len(fields) > 0 {
		token = fields[0]
		token = strings.Trim(token, ".!*\"'`")
	}
	switch strings.ToLower(token) {
	case "buy":
		return entity.SignalBuy, true
	case "sell":
		return entity.SignalSell, true
	case "hold":
		return entity.SignalHold, true
	default:
		return "", false
	}
}
