package service

import (
	"context"
	"strings"
	"time"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/repository"
	"golang-stock-advisor/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

const directoryCacheKey = "ticker-directory"

// TickerDirectory resolves company names and symbols to canonical ticker
// symbols, from a snapshot of the stored ticker records.
type TickerDirectory struct {
	tickerRepo repository.TickerRepository
	log        *logger.Logger
	cache      *gocache.Cache
}

// NewTickerDirectory creates a TickerDirectory whose snapshot is cached
// for ttl.
func NewTickerDirectory(tickerRepo repository.TickerRepository, log *logger.Logger, ttl time.Duration) *TickerDirectory {
	return &TickerDirectory{
		tickerRepo: tickerRepo,
		log:        log,
		cache:      gocache.New(ttl, 2*ttl),
	}
}

// Snapshot returns the case-insensitive {symbol, long name} → symbol
// mapping. A failed read yields an empty mapping, never an error: callers
// treat an unresolved keyword as "no match".
func (d *TickerDirectory) Snapshot(ctx context.Context) map[string]string {
	if cached, found := d.cache.Get(directoryCacheKey); found {
		return cached.(map[string]string)
	}

	tickers, err := d.tickerRepo.GetAll(ctx)
	if err != nil {
		d.log.Error("Failed to load ticker directory", logger.ErrorField(err))
		return map[string]string{}
	}

	mapping := BuildTickerMapping(tickers)
	d.cache.Set(directoryCacheKey, mapping, gocache.DefaultExpiration)
	return mapping
}

// Resolve maps a keyword to its canonical ticker symbol.
func (d *TickerDirectory) Resolve(ctx context.Context, keyword string) (string, bool) {
	symbol, ok := d.Snapshot(ctx)[normalizeKey(keyword)]
	return symbol, ok
}

// Invalidate drops the cached snapshot, forcing a reload on next use.
func (d *TickerDirectory) Invalidate() {
	d.cache.Delete(directoryCacheKey)
}

// BuildTickerMapping builds the lookup mapping from ticker records.
// Records with an empty symbol are skipped, as are empty display names.
func BuildTickerMapping(tickers []entity.Ticker) map[string]string {
	mapping := make(map[string]string, len(tickers)*2)
	for _, t := range tickers {
		symbol := strings.ToUpper(strings.TrimSpace(t.Symbol))
		if symbol == "" {
			continue
		}
		mapping[normalizeKey(symbol)] = symbol
		if name := strings.TrimSpace(t.LongName); name != "" {
			mapping[normalizeKey(name)] = symbol
		}
	}
	return mapping
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
