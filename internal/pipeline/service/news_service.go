package service

import (
	"context"
	"strings"

	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/internal/pipeline/repository"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"

	"github.com/lib/pq"
)

// NewsService fetches articles for a set of keywords and stores them,
// linked to the ticker the keywords resolve to. Ingestion is idempotent:
// an article URL seen twice is stored once.
type NewsService struct {
	cfg         *config.Config
	log         *logger.Logger
	newsRepo    repository.NewsSearchRepository
	rssRepo     repository.NewsSearchRepository
	articleRepo repository.ArticleRepository
	tickerRepo  repository.TickerRepository
	directory   *TickerDirectory
	extractor   *repository.ContentExtractor
}

// NewNewsService creates a NewsService. rssRepo and extractor are optional.
func NewNewsService(
	cfg *config.Config,
	log *logger.Logger,
	newsRepo repository.NewsSearchRepository,
	rssRepo repository.NewsSearchRepository,
	articleRepo repository.ArticleRepository,
	tickerRepo repository.TickerRepository,
	directory *TickerDirectory,
	extractor *repository.ContentExtractor,
) *NewsService {
	return &NewsService{
		cfg:         cfg,
		log:         log,
		newsRepo:    newsRepo,
		rssRepo:     rssRepo,
		articleRepo: articleRepo,
		tickerRepo:  tickerRepo,
		directory:   directory,
		extractor:   extractor,
	}
}

// Ingest searches the news provider for the keywords and stores the new
// articles. It returns the number of rows actually written.
func (s *NewsService) Ingest(ctx context.Context, keywords []string, pageSize int) (int64, error) {
	keywords = normalizeKeywords(keywords)
	if len(keywords) == 0 {
		return 0, nil
	}
	if pageSize <= 0 {
		pageSize = s.cfg.Pipeline.ArticlesPerTicker
	}

	fetched, err := s.search(ctx, keywords, pageSize)
	if err != nil {
		return 0, err
	}
	fetched = dedupByURL(fetched)
	fetched = s.dropStored(ctx, fetched)
	if len(fetched) == 0 {
		s.log.InfoContext(ctx, "No new articles found", logger.StringField("keywords", strings.Join(keywords, ",")))
		return 0, nil
	}

	symbol, resolved := s.resolveSymbol(ctx, keywords)
	articles := s.buildArticles(ctx, fetched, keywords, symbol, resolved)
	if len(articles) == 0 {
		return 0, nil
	}

	stored, err := s.articleRepo.CreateIgnoreConflict(ctx, articles, s.cfg.Pipeline.WriteBatchSize)
	if err != nil {
		return 0, err
	}

	if resolved {
		for i := range articles {
			// Conflicting rows come back with a zero id; only freshly
			// inserted rows are linked.
			if articles[i].ID == 0 {
				continue
			}
			if err := s.tickerRepo.LinkArticle(ctx, symbol, articles[i].ID); err != nil {
				s.log.ErrorContext(ctx, "Failed to link article to ticker",
					logger.StringField("symbol", symbol),
					logger.Field("article_id", articles[i].ID),
					logger.ErrorField(err))
			}
		}
	}

	s.log.InfoContext(ctx, "Ingested articles",
		logger.StringField("keywords", strings.Join(keywords, ",")),
		logger.IntField("fetched", len(fetched)),
		logger.Field("stored", stored))
	return stored, nil
}

// search queries the primary provider and falls back to the RSS provider
// when the primary fails or comes back empty.
func (s *NewsService) search(ctx context.Context, keywords []string, pageSize int) ([]dto.NewsAPIArticle, error) {
	fetched, err := s.newsRepo.Search(ctx, keywords, pageSize)
	if err == nil && len(fetched) > 0 {
		return fetched, nil
	}
	if err != nil {
		s.log.WarnContext(ctx, "Primary news provider failed", logger.ErrorField(err))
	}
	if s.rssRepo == nil || !s.cfg.NewsAPI.EnableRSSFallback {
		return fetched, err
	}

	rssFetched, rssErr := s.rssRepo.Search(ctx, keywords, pageSize)
	if rssErr != nil {
		s.log.WarnContext(ctx, "RSS fallback failed", logger.ErrorField(rssErr))
		if err != nil {
			return nil, err
		}
		return fetched, nil
	}
	return rssFetched, nil
}

// dropStored filters out articles whose URL is already stored, so known
// articles never go through content extraction again. The unique index on
// url still catches anything that races past this check.
func (s *NewsService) dropStored(ctx context.Context, fetched []dto.NewsAPIArticle) []dto.NewsAPIArticle {
	if len(fetched) == 0 {
		return fetched
	}
	urls := make([]string, 0, len(fetched))
	for _, a := range fetched {
		urls = append(urls, a.URL)
	}
	existing, err := s.articleRepo.FindExistingURLs(ctx, urls)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to check stored URLs, relying on insert conflict handling",
			logger.ErrorField(err))
		return fetched
	}
	if len(existing) == 0 {
		return fetched
	}
	out := fetched[:0]
	for _, a := range fetched {
		if existing[a.URL] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// resolveSymbol maps the search keywords to a known ticker symbol. When no
// keyword matches the directory the first keyword, uppercased, is assumed
// to be the symbol itself.
func (s *NewsService) resolveSymbol(ctx context.Context, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if symbol, ok := s.directory.Resolve(ctx, kw); ok {
			return symbol, true
		}
	}
	return strings.ToUpper(keywords[0]), false
}

func (s *NewsService) buildArticles(ctx context.Context, fetched []dto.NewsAPIArticle, keywords []string, symbol string, resolved bool) []entity.Article {
	articles := make([]entity.Article, 0, len(fetched))
	for i := range fetched {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}
		a := fetched[i]
		if a.URL == "" || strings.TrimSpace(a.Title) == "" {
			continue
		}

		article := entity.Article{
			Title:       utils.SafeText(a.Title),
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
			Keywords:    pq.StringArray(keywords),
			Content:     s.articleContent(ctx, a),
		}
		if resolved || symbol != "" {
			sym := symbol
			article.TickerSymbol = &sym
		}
		articles = append(articles, article)
	}
	return articles
}

// articleContent returns the best available body text for the article:
// the extracted full page when enabled and reachable, else the provider
// snippet, else the description.
func (s *NewsService) articleContent(ctx context.Context, a dto.NewsAPIArticle) string {
	if s.cfg.NewsAPI.FetchFullContent && s.extractor != nil {
		text, err := s.extractor.Extract(ctx, a.URL)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			s.log.DebugContext(ctx, "Content extraction failed, using snippet",
				logger.StringField("url", a.URL), logger.ErrorField(err))
		}
	}
	if a.Content != "" {
		return utils.SafeText(a.Content)
	}
	return utils.SafeText(a.Description)
}

func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func dedupByURL(articles []dto.NewsAPIArticle) []dto.NewsAPIArticle {
	seen := make(map[string]bool, len(articles))
	out := articles[:0]
	for _, a := range articles {
		if a.URL == "" || seen[a.URL] {
			continue
		}
		seen[a.URL] = true
		out = append(out, a)
	}
	return out
}
