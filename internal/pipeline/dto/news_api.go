package dto

import "time"

// NewsAPIResponse is the response envelope of the news-search provider.
type NewsAPIResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"`
	Code         string           `json:"code,omitempty"`
	Message      string           `json:"message,omitempty"`
	Articles     []NewsAPIArticle `json:"articles"`
}

// NewsAPIArticle is one article summary as returned by the provider.
type NewsAPIArticle struct {
	Source      NewsAPISource `json:"source"`
	Author      string        `json:"author"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	PublishedAt *time.Time    `json:"publishedAt"`
	Content     string        `json:"content"`
}

// NewsAPISource names the outlet an article came from.
type NewsAPISource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
