package entity

import (
	"time"

	"gorm.io/datatypes"
)

// SentimentSummary is the per-label score sum over the article set a
// recommendation was derived from.
type SentimentSummary struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Recommendation is one stored pipeline verdict for a ticker. Rows are
// append-only: every run creates a new row, nothing is updated afterwards.
type Recommendation struct {
	ID               uint                                     `gorm:"primaryKey" json:"id"`
	TickerSymbol     string                                   `gorm:"not null;index" json:"ticker_symbol"`
	AggregatorSignal Signal                                   `gorm:"not null" json:"aggregator_signal"`
	ModelSignal      Signal                                   `gorm:"not null" json:"model_signal"`
	Reasoning        string                                   `json:"reasoning"`
	SentimentSummary datatypes.JSONType[SentimentSummary]     `gorm:"type:jsonb" json:"sentiment_summary"`
	LatestClose      float64                                  `json:"latest_close"`
	PreviousClose    float64                                  `json:"previous_close"`
	Evaluated        bool                                     `json:"evaluated"`
	IsCorrect        bool                                     `json:"is_correct"`
	ExperimentDay    int                                      `json:"experiment_day"`
	CreatedAt        time.Time                                `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Recommendation model.
func (Recommendation) TableName() string {
	return "recommendations"
}
