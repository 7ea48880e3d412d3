package entity

import (
	"time"

	"github.com/lib/pq"
)

// Article is a fetched news article. The URL is the dedup key: re-fetching
// the same article must never create a second row.
type Article struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Content        string         `json:"content"`
	URL            string         `gorm:"unique;not null" json:"url"`
	Source         string         `json:"source"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	Keywords       pq.StringArray `gorm:"type:text[]" json:"keywords"`
	TickerSymbol   *string        `json:"ticker_symbol,omitempty"`
	SentimentLabel *string        `json:"sentiment_label,omitempty"`
	SentimentScore *float64       `json:"sentiment_score,omitempty"`
	AnalyzedAt     *time.Time     `json:"analyzed_at,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Article model.
func (Article) TableName() string {
	return "articles"
}

// Scored reports whether the sentiment scorer has already processed the article.
func (a *Article) Scored() bool {
	return a.SentimentLabel != nil
}
