package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/ratelimit"

	"golang.org/x/time/rate"
)

type openaiRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
}

// NewOpenAIRepository creates an LLMRepository backed by the OpenAI
// chat-completions API.
func NewOpenAIRepository(cfg *config.Config, log *logger.Logger) LLMRepository {
	var requestLimiter *rate.Limiter
	if cfg.OpenAI.MaxRequestPerMinute > 0 {
		secondsPerRequest := time.Minute / time.Duration(cfg.OpenAI.MaxRequestPerMinute)
		requestLimiter = rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	}

	var tokenLimiter *ratelimit.TokenLimiter
	if cfg.OpenAI.MaxTokenPerMinute > 0 {
		tokenLimiter = ratelimit.NewTokenLimiter(cfg.OpenAI.MaxTokenPerMinute)
	}

	return &openaiRepository{
		client: &http.Client{
			Timeout: cfg.OpenAI.Timeout,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
	}
}

// GenerateRecommendation asks the model for a Buy/Sell/Hold verdict. A
// response that does not parse to a valid token degrades to the aggregator
// signal; transport errors are returned to the caller.
func (r *openaiRepository) GenerateRecommendation(ctx context.Context, symbol string, aggregatorSignal entity.Signal, summary entity.SentimentSummary, articles []entity.Article) (*dto.ModelRecommendation, error) {
	prompt := BuildRecommendationPrompt(symbol, aggregatorSignal, summary, articles)

	resp, err := r.sendRequest(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenAI response")
	}
	content := resp.Choices[0].Message.Content

	signal, reasoning, ok := ParseRecommendation(content)
	if !ok {
		r.logger.Warn("Model response did not parse, using aggregator signal",
			logger.StringField("symbol", symbol),
			logger.StringField("response", content))
		return &dto.ModelRecommendation{
			Signal:    aggregatorSignal,
			Reasoning: "Model output was not a recognizable recommendation; used sentiment aggregate instead.",
			Fallback:  true,
		}, nil
	}

	return &dto.ModelRecommendation{Signal: signal, Reasoning: reasoning}, nil
}

func (r *openaiRepository) sendRequest(ctx context.Context, prompt string) (*dto.OpenAPIRes, error) {
	if r.requestLimiter != nil {
		if err := r.requestLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for request limit: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.OpenAI.Timeout)
	defer cancel()

	payload := dto.OpenAPIReq{
		Model: r.cfg.OpenAI.Model,
		Messages: []dto.Message{
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.cfg.OpenAI.BaseURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.cfg.OpenAI.APIKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("Received non-OK response from OpenAI API",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("model", r.cfg.OpenAI.Model))
		return nil, fmt.Errorf("received non-OK response from OpenAI API: %d - %s", resp.StatusCode, string(body))
	}

	var openaiResp dto.OpenAPIRes
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if r.tokenLimiter != nil {
		if err := r.tokenLimiter.Wait(ctx, openaiResp.Usage.TotalTokens); err != nil {
			return nil, fmt.Errorf("failed to wait for token limit: %w", err)
		}
	}

	return &openaiResp, nil
}
