package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/retry"

	"github.com/piquette/finance-go/equity"
	"github.com/piquette/finance-go/quote"
)

// marketDataRepository fetches daily closes from Tiingo, falling back to
// Yahoo Finance when Tiingo is exhausted. Callers never learn which
// provider served the answer.
type marketDataRepository struct {
	cfg         *config.Config
	log         *logger.Logger
	client      *http.Client
	policy      retry.Policy
	yahooCloses func(symbol string) (*dto.ClosingPrices, error)
}

// NewMarketDataRepository creates the two-tier market data repository.
func NewMarketDataRepository(cfg *config.Config, log *logger.Logger) MarketDataRepository {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.MarketData.MaxAttempts
	policy.Retryable = func(err error) bool {
		return !errors.Is(err, ErrInsufficientPriceData)
	}
	return &marketDataRepository{
		cfg: cfg,
		log: log,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		policy:      policy,
		yahooCloses: fetchYahooCloses,
	}
}

// GetClosingPrices returns the two most recent session closes for a symbol.
// Transient primary failures are retried with backoff; any primary failure,
// including insufficient history, falls through to the Yahoo secondary.
// ErrInsufficientPriceData is returned only when neither provider has two
// sessions for the symbol.
func (r *marketDataRepository) GetClosingPrices(ctx context.Context, symbol string) (*dto.ClosingPrices, error) {
	var prices *dto.ClosingPrices
	err := r.policy.Do(ctx, func() error {
		var innerErr error
		prices, innerErr = r.fetchTiingoCloses(ctx, symbol)
		return innerErr
	})
	if err == nil {
		return prices, nil
	}

	r.log.Warn("Primary price provider failed, falling back to Yahoo Finance",
		logger.StringField("symbol", symbol), logger.ErrorField(err))

	prices, yErr := r.yahooCloses(symbol)
	if yErr == nil {
		return prices, nil
	}
	if errors.Is(yErr, ErrInsufficientPriceData) {
		return nil, fmt.Errorf("%w on both providers for %s: tiingo=%v", ErrInsufficientPriceData, symbol, err)
	}
	return nil, fmt.Errorf("both price providers failed for %s: tiingo=%v, yahoo=%w", symbol, err, yErr)
}

func (r *marketDataRepository) fetchTiingoCloses(ctx context.Context, symbol string) (*dto.ClosingPrices, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -r.cfg.MarketData.BackfillDays)

	apiURL := fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&endDate=%s&token=%s",
		r.cfg.MarketData.TiingoBaseURL, symbol,
		start.Format("2006-01-02"), end.Format("2006-01-02"),
		r.cfg.MarketData.TiingoAPIKey)

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create price request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Tiingo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: unknown symbol %s", ErrInsufficientPriceData, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-OK response from Tiingo: %d - %s", resp.StatusCode, string(body))
	}

	var rows []dto.TiingoPrice
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode Tiingo response: %w", err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %d sessions returned for %s", ErrInsufficientPriceData, len(rows), symbol)
	}

	latest := rows[len(rows)-1]
	previous := rows[len(rows)-2]
	return &dto.ClosingPrices{
		Latest:   closeOf(latest),
		Previous: closeOf(previous),
	}, nil
}

func closeOf(p dto.TiingoPrice) float64 {
	if p.AdjClose != 0 {
		return p.AdjClose
	}
	return p.Close
}

func fetchYahooCloses(symbol string) (*dto.ClosingPrices, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote from Yahoo Finance: %w", err)
	}
	if q == nil {
		return nil, fmt.Errorf("no quote data returned from Yahoo Finance for %s", symbol)
	}
	if q.RegularMarketPrice == 0 || q.RegularMarketPreviousClose == 0 {
		return nil, fmt.Errorf("%w: yahoo quote for %s missing closes", ErrInsufficientPriceData, symbol)
	}
	return &dto.ClosingPrices{
		Latest:   q.RegularMarketPrice,
		Previous: q.RegularMarketPreviousClose,
	}, nil
}

// GetFundamentals fetches the scalar fundamentals for a symbol from Yahoo.
// The company profile fields come from a second quoteSummary call; a failure
// there leaves them empty rather than failing the whole refresh.
func (r *marketDataRepository) GetFundamentals(ctx context.Context, symbol string) (*dto.TickerFundamentals, error) {
	var result *dto.TickerFundamentals
	err := r.policy.Do(ctx, func() error {
		e, err := equity.Get(symbol)
		if err != nil {
			return fmt.Errorf("failed to get equity from Yahoo Finance: %w", err)
		}
		if e == nil {
			return fmt.Errorf("no equity data returned from Yahoo Finance for %s", symbol)
		}
		result = &dto.TickerFundamentals{
			LongName:         e.LongName,
			MarketCap:        float64(e.MarketCap),
			Volume:           int64(e.RegularMarketVolume),
			FiftyTwoWeekHigh: e.FiftyTwoWeekHigh,
			FiftyTwoWeekLow:  e.FiftyTwoWeekLow,
			DividendYield:    e.TrailingAnnualDividendYield,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	profile, err := r.fetchCompanyProfile(ctx, symbol)
	if err != nil {
		r.log.Warn("Company profile fetch failed, leaving sector/industry/beta empty",
			logger.StringField("symbol", symbol), logger.ErrorField(err))
		return result, nil
	}
	result.Sector = profile.AssetProfile.Sector
	result.Industry = profile.AssetProfile.Industry
	result.Beta = profile.DefaultKeyStatistics.Beta.Raw
	return result, nil
}

// fetchCompanyProfile pulls the assetProfile and defaultKeyStatistics
// modules from the Yahoo quoteSummary endpoint.
func (r *marketDataRepository) fetchCompanyProfile(ctx context.Context, symbol string) (*dto.YahooQuoteSummaryResult, error) {
	apiURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile,defaultKeyStatistics",
		r.cfg.MarketData.YahooBaseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Yahoo quoteSummary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-OK response from Yahoo quoteSummary: %d - %s", resp.StatusCode, string(body))
	}

	var summary dto.YahooQuoteSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("failed to decode Yahoo quoteSummary response: %w", err)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("empty quoteSummary result for %s", symbol)
	}
	return &summary.QuoteSummary.Result[0], nil
}
