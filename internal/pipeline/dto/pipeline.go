package dto

// PipelineRunRequest is the payload enqueued to trigger a pipeline run.
type PipelineRunRequest struct {
	Tickers           []string `json:"tickers"`
	ExtraKeywords     []string `json:"extra_keywords,omitempty"`
	ArticlesPerTicker int      `json:"articles_per_ticker,omitempty"`
}

// PipelineRunResult summarizes the outcome of one ticker in a run.
type PipelineRunResult struct {
	Ticker           string `json:"ticker"`
	Status           string `json:"status"`
	ArticlesStored   int    `json:"articles_stored"`
	ArticlesScored   int    `json:"articles_scored"`
	RecommendationID uint   `json:"recommendation_id,omitempty"`
	Error            string `json:"error,omitempty"`
}
