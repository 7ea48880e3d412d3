package common

const (
	RedisStreamPipelineRun = "pipeline.run"

	RedisStreamGroup    = "pipeline-group"
	RedisStreamConsumer = "pipeline-consumer"
)

// Sentiment labels produced by the classifier.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Ticker record freshness status.
const (
	TickerStatusOK    = "ok"
	TickerStatusError = "error"
)
