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
	"google.golang.org/genai"
)

// geminiRepository is an LLMRepository backed by the Google Gemini API.
type geminiRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiRepository creates an LLMRepository backed by Gemini.
func NewGeminiRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (LLMRepository, error) {
	var requestLimiter *rate.Limiter
	if cfg.Gemini.MaxRequestPerMinute > 0 {
		secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
		requestLimiter = rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	}

	var tokenLimiter *ratelimit.TokenLimiter
	if cfg.Gemini.MaxTokenPerMinute > 0 {
		tokenLimiter = ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)
	}

	return &geminiRepository{
		client: &http.Client{
			Timeout: cfg.Gemini.Timeout,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

func (r *geminiRepository) GenerateRecommendation(ctx context.Context, symbol string, aggregatorSignal entity.Signal, summary entity.SentimentSummary, articles []entity.Article) (*dto.ModelRecommendation, error) {
	prompt := BuildRecommendationPrompt(symbol, aggregatorSignal, summary, articles)

	resp, err := r.sendRequest(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("invalid response from Gemini API: no content found")
	}
	content := resp.Candidates[0].Content.Parts[0].Text

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

func (r *geminiRepository) sendRequest(ctx context.Context, prompt string) (*dto.GeminiAPIResponse, error) {
	if r.tokenLimiter != nil {
		contents := []*genai.Content{
			genai.NewContentFromText(prompt, "user"),
		}
		tokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.Model, contents, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to count tokens: %w", err)
		}
		if err := r.tokenLimiter.Wait(ctx, int(tokenResp.TotalTokens)); err != nil {
			return nil, fmt.Errorf("failed to wait for token limit: %w", err)
		}
	}

	if r.requestLimiter != nil {
		if err := r.requestLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for request limit: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Gemini.Timeout)
	defer cancel()

	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{Parts: []dto.Part{{Text: prompt}}}},
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s:generateContent?key=%s", r.cfg.Gemini.BaseURL, r.cfg.Gemini.Model, r.cfg.Gemini.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("Received non-OK response from Gemini API",
			logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("received non-OK response from Gemini API: %d - %s", resp.StatusCode, string(body))
	}

	var geminiResp dto.GeminiAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &geminiResp, nil
}
