package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/common"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/retry"
)

// sentimentRepository classifies text with a hosted FinBERT model through
// the Hugging Face inference API.
type sentimentRepository struct {
	cfg    *config.Config
	log    *logger.Logger
	client *http.Client
	policy retry.Policy
}

// NewSentimentRepository creates a SentimentRepository.
func NewSentimentRepository(cfg *config.Config, log *logger.Logger) SentimentRepository {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Sentiment.MaxAttempts
	return &sentimentRepository{
		cfg: cfg,
		log: log,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		policy: policy,
	}
}

// Classify runs the classifier on text and returns the winning label and
// its confidence score. The caller is responsible for truncating the input.
func (r *sentimentRepository) Classify(ctx context.Context, text string) (*dto.SentimentPrediction, error) {
	var prediction *dto.SentimentPrediction
	err := r.policy.Do(ctx, func() error {
		var innerErr error
		prediction, innerErr = r.classifyOnce(ctx, text)
		return innerErr
	})
	return prediction, err
}

func (r *sentimentRepository) classifyOnce(ctx context.Context, text string) (*dto.SentimentPrediction, error) {
	payload, err := json.Marshal(dto.SentimentRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classifier payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s", r.cfg.Sentiment.BaseURL, r.cfg.Sentiment.Model)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.cfg.Sentiment.APIKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-OK response from classifier: %d - %s", resp.StatusCode, string(body))
	}

	// The inference API wraps predictions in an extra list per input.
	var nested [][]dto.SentimentPrediction
	if err := json.NewDecoder(resp.Body).Decode(&nested); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if len(nested) == 0 || len(nested[0]) == 0 {
		return nil, fmt.Errorf("classifier returned no predictions")
	}

	best := nested[0][0]
	for _, p := range nested[0][1:] {
		if p.Score > best.Score {
			best = p
		}
	}

	best.Label = normalizeLabel(best.Label)
	return &best, nil
}

func normalizeLabel(label string) string {
	switch strings.ToLower(label) {
	case common.SentimentPositive:
		return common.SentimentPositive
	case common.SentimentNegative:
		return common.SentimentNegative
	default:
		return common.SentimentNeutral
	}
}
