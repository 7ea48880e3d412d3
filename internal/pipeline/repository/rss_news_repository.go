package repository

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/logger"

	"github.com/mmcdole/gofeed"
)

// rssNewsRepository is a secondary news source reading Google News search
// feeds. It needs no API key and serves as a fallback when the primary
// provider is unavailable.
type rssNewsRepository struct {
	log    *logger.Logger
	parser *gofeed.Parser
}

// NewRSSNewsRepository creates a NewsSearchRepository backed by Google News RSS.
func NewRSSNewsRepository(log *logger.Logger) NewsSearchRepository {
	return &rssNewsRepository{
		log:    log,
		parser: gofeed.NewParser(),
	}
}

// Search fetches one feed per keyword and merges the items, newest first,
// bounded by pageSize.
func (r *rssNewsRepository) Search(ctx context.Context, keywords []string, pageSize int) ([]dto.NewsAPIArticle, error) {
	var items []*gofeed.Item
	for _, keyword := range keywords {
		feedURL := fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en", url.QueryEscape(keyword))
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			r.log.Error("Failed to parse RSS feed", logger.ErrorField(err), logger.StringField("keyword", keyword))
			continue
		}
		items = append(items, feed.Items...)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no RSS items fetched for keywords %v", keywords)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].PublishedParsed == nil || items[j].PublishedParsed == nil {
			return false
		}
		return items[i].PublishedParsed.After(*items[j].PublishedParsed)
	})

	seen := make(map[string]bool)
	var articles []dto.NewsAPIArticle
	for _, item := range items {
		if len(articles) >= pageSize {
			break
		}
		if item.Link == "" || seen[item.Link] {
			continue
		}
		seen[item.Link] = true

		source := ""
		if parsed, err := url.Parse(item.Link); err == nil {
			source = parsed.Hostname()
		}
		articles = append(articles, dto.NewsAPIArticle{
			Source:      dto.NewsAPISource{Name: source},
			Title:       item.Title,
			Description: item.Description,
			URL:         item.Link,
			PublishedAt: item.PublishedParsed,
			Content:     item.Description,
		})
	}

	return articles, nil
}
