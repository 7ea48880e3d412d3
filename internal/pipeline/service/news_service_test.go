package service

import (
	"context"
	"testing"
	"time"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNewsSearchRepository struct {
	articles []dto.NewsAPIArticle
	err      error
	calls    int
}

func (f *fakeNewsSearchRepository) Search(_ context.Context, _ []string, _ int) ([]dto.NewsAPIArticle, error) {
	f.calls++
	return f.articles, f.err
}

type fakeArticleRepository struct {
	byURL       map[string]*entity.Article
	nextID      uint
	createCalls int
}

func newFakeArticleRepository() *fakeArticleRepository {
	return &fakeArticleRepository{byURL: map[string]*entity.Article{}, nextID: 1}
}

func (f *fakeArticleRepository) CreateIgnoreConflict(_ context.Context, articles []entity.Article, _ int) (int64, error) {
	f.createCalls++
	var inserted int64
	for i := range articles {
		if _, exists := f.byURL[articles[i].URL]; exists {
			continue
		}
		articles[i].ID = f.nextID
		f.nextID++
		stored := articles[i]
		f.byURL[stored.URL] = &stored
		inserted++
	}
	return inserted, nil
}

func (f *fakeArticleRepository) FindExistingURLs(_ context.Context, urls []string) (map[string]bool, error) {
	existing := map[string]bool{}
	for _, u := range urls {
		if _, ok := f.byURL[u]; ok {
			existing[u] = true
		}
	}
	return existing, nil
}

func (f *fakeArticleRepository) FindUnscored(_ context.Context, _ int) ([]entity.Article, error) {
	var out []entity.Article
	for _, a := range f.byURL {
		if !a.Scored() {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeArticleRepository) UpdateSentiment(_ context.Context, id uint, label string, score float64, analyzedAt time.Time) error {
	for _, a := range f.byURL {
		if a.ID == id {
			a.SentimentLabel = &label
			a.SentimentScore = &score
			a.AnalyzedAt = &analyzedAt
		}
	}
	return nil
}

func (f *fakeArticleRepository) FindByTickerSince(_ context.Context, symbol string, _ time.Time, _ int) ([]entity.Article, error) {
	var out []entity.Article
	for _, a := range f.byURL {
		if a.TickerSymbol != nil && *a.TickerSymbol == symbol && a.Scored() {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeArticleRepository) FindByTicker(_ context.Context, symbol string, _ int) ([]entity.Article, error) {
	var out []entity.Article
	for _, a := range f.byURL {
		if a.TickerSymbol != nil && *a.TickerSymbol == symbol {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeArticleRepository) FindRecent(_ context.Context, _ int) ([]entity.Article, error) {
	var out []entity.Article
	for _, a := range f.byURL {
		out = append(out, *a)
	}
	return out, nil
}

type fakeTickerRepository struct {
	tickers map[string]*entity.Ticker
	linked  map[string][]uint
}

func newFakeTickerRepository(tickers ...entity.Ticker) *fakeTickerRepository {
	f := &fakeTickerRepository{tickers: map[string]*entity.Ticker{}, linked: map[string][]uint{}}
	for i := range tickers {
		f.tickers[tickers[i].Symbol] = &tickers[i]
	}
	return f
}

func (f *fakeTickerRepository) Upsert(_ context.Context, ticker *entity.Ticker) error {
	f.tickers[ticker.Symbol] = ticker
	return nil
}

func (f *fakeTickerRepository) GetAll(_ context.Context) ([]entity.Ticker, error) {
	var out []entity.Ticker
	for _, t := range f.tickers {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTickerRepository) FindBySymbol(_ context.Context, symbol string) (*entity.Ticker, error) {
	t, ok := f.tickers[symbol]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeTickerRepository) LinkArticle(_ context.Context, symbol string, articleID uint) error {
	f.linked[symbol] = append(f.linked[symbol], articleID)
	return nil
}

func newsTestConfig() *config.Config {
	return &config.Config{
		Pipeline: config.Pipeline{
			ArticlesPerTicker: 20,
			WriteBatchSize:    100,
			TickerCacheTTL:    time.Minute,
		},
	}
}

func feedArticle(url, title string) dto.NewsAPIArticle {
	published := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return dto.NewsAPIArticle{
		Source:      dto.NewsAPISource{Name: "Test Wire"},
		Title:       title,
		Description: "description",
		URL:         url,
		PublishedAt: &published,
	}
}

func TestNewsServiceIngest(t *testing.T) {
	cfg := newsTestConfig()
	log := testLogger(t)

	t.Run("stores deduplicated articles linked to the resolved ticker", func(t *testing.T) {
		newsRepo := &fakeNewsSearchRepository{articles: []dto.NewsAPIArticle{
			feedArticle("https://example.com/a", "Apple rallies"),
			feedArticle("https://example.com/a", "Apple rallies (syndicated)"),
			feedArticle("https://example.com/b", "Apple dips"),
			{URL: "", Title: "no url"},
		}}
		articleRepo := newFakeArticleRepository()
		tickerRepo := newFakeTickerRepository(entity.Ticker{Symbol: "AAPL", LongName: "Apple Inc."})
		directory := NewTickerDirectory(tickerRepo, log, time.Minute)
		svc := NewNewsService(cfg, log, newsRepo, nil, articleRepo, tickerRepo, directory, nil)

		stored, err := svc.Ingest(context.Background(), []string{"AAPL", "Apple Inc."}, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored)
		assert.Len(t, tickerRepo.linked["AAPL"], 2)

		a := articleRepo.byURL["https://example.com/a"]
		require.NotNil(t, a)
		require.NotNil(t, a.TickerSymbol)
		assert.Equal(t, "AAPL", *a.TickerSymbol)
		assert.Equal(t, []string{"aapl", "apple inc."}, []string(a.Keywords))
	})

	t.Run("second ingest of the same feed stores nothing", func(t *testing.T) {
		newsRepo := &fakeNewsSearchRepository{articles: []dto.NewsAPIArticle{
			feedArticle("https://example.com/a", "Apple rallies"),
		}}
		articleRepo := newFakeArticleRepository()
		tickerRepo := newFakeTickerRepository(entity.Ticker{Symbol: "AAPL", LongName: "Apple Inc."})
		directory := NewTickerDirectory(tickerRepo, log, time.Minute)
		svc := NewNewsService(cfg, log, newsRepo, nil, articleRepo, tickerRepo, directory, nil)

		first, err := svc.Ingest(context.Background(), []string{"aapl"}, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), first)

		second, err := svc.Ingest(context.Background(), []string{"aapl"}, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(0), second)
		assert.Len(t, tickerRepo.linked["AAPL"], 1)
		// Known URLs are filtered out before the insert is attempted.
		assert.Equal(t, 1, articleRepo.createCalls)
	})

	t.Run("unknown keyword falls back to uppercased symbol", func(t *testing.T) {
		newsRepo := &fakeNewsSearchRepository{articles: []dto.NewsAPIArticle{
			feedArticle("https://example.com/n", "Nvidia soars"),
		}}
		articleRepo := newFakeArticleRepository()
		tickerRepo := newFakeTickerRepository()
		directory := NewTickerDirectory(tickerRepo, log, time.Minute)
		svc := NewNewsService(cfg, log, newsRepo, nil, articleRepo, tickerRepo, directory, nil)

		_, err := svc.Ingest(context.Background(), []string{"nvda"}, 20)
		require.NoError(t, err)

		a := articleRepo.byURL["https://example.com/n"]
		require.NotNil(t, a)
		require.NotNil(t, a.TickerSymbol)
		assert.Equal(t, "NVDA", *a.TickerSymbol)
	})

	t.Run("rss fallback is used when the primary provider fails", func(t *testing.T) {
		cfgWithRSS := newsTestConfig()
		cfgWithRSS.NewsAPI.EnableRSSFallback = true

		newsRepo := &fakeNewsSearchRepository{err: context.DeadlineExceeded}
		rssRepo := &fakeNewsSearchRepository{articles: []dto.NewsAPIArticle{
			feedArticle("https://example.com/r", "Apple via RSS"),
		}}
		articleRepo := newFakeArticleRepository()
		tickerRepo := newFakeTickerRepository(entity.Ticker{Symbol: "AAPL", LongName: "Apple Inc."})
		directory := NewTickerDirectory(tickerRepo, log, time.Minute)
		svc := NewNewsService(cfgWithRSS, log, newsRepo, rssRepo, articleRepo, tickerRepo, directory, nil)

		stored, err := svc.Ingest(context.Background(), []string{"aapl"}, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored)
		assert.Equal(t, 1, rssRepo.calls)
	})
}
