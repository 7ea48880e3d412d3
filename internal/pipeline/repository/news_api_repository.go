package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/logger"

	"golang.org/x/time/rate"
)

// newsAPIRepository queries the NewsAPI /everything endpoint.
type newsAPIRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	client         *http.Client
	requestLimiter *rate.Limiter
}

// NewNewsAPIRepository creates a NewsSearchRepository backed by NewsAPI.
func NewNewsAPIRepository(cfg *config.Config, log *logger.Logger) NewsSearchRepository {
	var limiter *rate.Limiter
	if cfg.NewsAPI.MaxRequestPerMinute > 0 {
		secondsPerRequest := time.Minute / time.Duration(cfg.NewsAPI.MaxRequestPerMinute)
		limiter = rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	}
	return &newsAPIRepository{
		cfg: cfg,
		log: log,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		requestLimiter: limiter,
	}
}

// Search queries the provider once with an OR-joined keyword query.
func (r *newsAPIRepository) Search(ctx context.Context, keywords []string, pageSize int) ([]dto.NewsAPIArticle, error) {
	if r.requestLimiter != nil {
		if err := r.requestLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for request limit: %w", err)
		}
	}

	params := url.Values{}
	params.Set("q", strings.Join(keywords, " OR "))
	params.Set("language", r.cfg.NewsAPI.Language)
	params.Set("sortBy", r.cfg.NewsAPI.SortBy)
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))

	apiURL := fmt.Sprintf("%s/everything?%s", r.cfg.NewsAPI.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create news request: %w", err)
	}
	req.Header.Set("X-Api-Key", r.cfg.NewsAPI.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Error("Failed to send request to news API", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to send request to news API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.log.Error("Received non-OK response from news API",
			logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("received non-OK response from news API: %d - %s", resp.StatusCode, string(body))
	}

	var newsResp dto.NewsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&newsResp); err != nil {
		return nil, fmt.Errorf("failed to decode news API response: %w", err)
	}

	if newsResp.Status != "ok" {
		return nil, fmt.Errorf("news API returned status %q: %s", newsResp.Status, newsResp.Message)
	}

	r.log.Info("Fetched news articles",
		logger.StringField("query", strings.Join(keywords, " OR ")),
		logger.IntField("count", len(newsResp.Articles)),
		logger.IntField("total_results", newsResp.TotalResults),
	)

	return newsResp.Articles, nil
}
