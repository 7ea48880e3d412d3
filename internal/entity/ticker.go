package entity

import (
	"time"

	"github.com/lib/pq"
)

// Ticker is the stored record for one stock symbol. There is exactly one
// row per symbol; a refresh overwrites the whole row.
type Ticker struct {
	Symbol           string        `gorm:"primaryKey" json:"symbol"`
	LongName         string        `json:"long_name"`
	Sector           string        `json:"sector"`
	Industry         string        `json:"industry"`
	LatestClose      float64       `json:"latest_close"`
	PreviousClose    float64       `json:"previous_close"`
	MarketCap        float64       `json:"market_cap"`
	Volume           int64         `json:"volume"`
	FiftyTwoWeekHigh float64       `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64       `json:"fifty_two_week_low"`
	DividendYield    float64       `json:"dividend_yield"`
	Beta             float64       `json:"beta"`
	LinkedArticleIDs pq.Int64Array `gorm:"type:bigint[]" json:"linked_article_ids"`
	FetchedAt        time.Time     `json:"fetched_at"`
	Status           string        `json:"status"`
	ErrorMsg         string        `json:"error_msg,omitempty"`
}

// TableName specifies the table name for the Ticker model.
func (Ticker) TableName() string {
	return "tickers"
}
