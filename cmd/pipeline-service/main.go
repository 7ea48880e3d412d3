package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/delivery/consumer"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/internal/pipeline/repository"
	"golang-stock-advisor/internal/pipeline/service"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/postgres"
	"golang-stock-advisor/pkg/redis"
	"golang-stock-advisor/pkg/telegram"

	"google.golang.org/genai"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	runTickers []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the pipeline service",
	Run:   runServe,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the pipeline once for the given tickers and exits",
	Run:   runOnce,
}

type app struct {
	cfg         *config.Config
	logger      *logger.Logger
	db          *postgres.DB
	redisClient *redis.Client
	pipelineSvc *service.PipelineService
	taskSvc     service.TaskService
	close       func()
}

func buildApp(needsRedis bool) *app {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger.Info("Starting Pipeline Service", zap.String("name", cfg.App.Name))

	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}

	var redisClient *redis.Client
	if needsRedis {
		redisCfg := redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}
		redisClient, err = redis.NewClient(redisCfg)
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
	}

	articleRepo := repository.NewArticleRepository(db.DB)
	tickerRepo := repository.NewTickerRepository(db.DB)
	recRepo := repository.NewRecommendationRepository(db.DB)
	newsRepo := repository.NewNewsAPIRepository(cfg, appLogger)
	marketRepo := repository.NewMarketDataRepository(cfg, appLogger)
	sentimentRepo := repository.NewSentimentRepository(cfg, appLogger)

	var rssRepo repository.NewsSearchRepository
	if cfg.NewsAPI.EnableRSSFallback {
		rssRepo = repository.NewRSSNewsRepository(appLogger)
	}

	var extractor *repository.ContentExtractor
	if cfg.NewsAPI.FetchFullContent {
		extractor = repository.NewContentExtractor(appLogger)
	}

	var llmRepo repository.LLMRepository
	switch cfg.AI.Provider {
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", zap.Error(err))
		}
		llmRepo, err = repository.NewGeminiRepository(cfg, appLogger, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini repository", zap.Error(err))
		}
	default:
		llmRepo = repository.NewOpenAIRepository(cfg, appLogger)
	}

	var notifier telegram.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
		}
	}

	directory := service.NewTickerDirectory(tickerRepo, appLogger, cfg.Pipeline.TickerCacheTTL)
	newsSvc := service.NewNewsService(cfg, appLogger, newsRepo, rssRepo, articleRepo, tickerRepo, directory, extractor)
	scoringSvc := service.NewSentimentService(cfg, appLogger, articleRepo, sentimentRepo)
	advisorSvc := service.NewAdvisorService(cfg, appLogger, llmRepo)
	pipelineSvc := service.NewPipelineService(cfg, appLogger, newsSvc, scoringSvc, advisorSvc, marketRepo, tickerRepo, recRepo, articleRepo, directory, notifier)

	var taskSvc service.TaskService
	if redisClient != nil {
		taskSvc = service.NewTaskService(cfg, appLogger, redisClient.Client, pipelineSvc)
	}

	return &app{
		cfg:         cfg,
		logger:      appLogger,
		db:          db,
		redisClient: redisClient,
		pipelineSvc: pipelineSvc,
		taskSvc:     taskSvc,
		close: func() {
			if sqlDB, err := db.DB.DB(); err == nil {
				sqlDB.Close()
			}
			if redisClient != nil {
				redisClient.Close()
			}
			_ = appLogger.Sync()
		},
	}
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := buildApp(true)
	defer a.close()

	if err := a.taskSvc.EnsureGroup(context.Background()); err != nil {
		a.logger.Fatal("Failed to create consumer group", logger.ErrorField(err))
	}

	redisConsumer := consumer.NewRedisConsumer(a.cfg, a.taskSvc, a.logger)
	redisConsumer.Start(ctx)

	scheduler := service.NewScheduler(a.cfg, a.logger, a.taskSvc)
	if err := scheduler.Start(ctx); err != nil {
		a.logger.Fatal("Failed to start scheduler", logger.ErrorField(err))
	}

	a.logger.Info("Pipeline service started. Waiting for runs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("Shutting down pipeline service...")
	cancel()
	scheduler.Stop()
	redisConsumer.Stop()
	a.logger.Info("Pipeline service stopped.")
}

func runOnce(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := buildApp(false)
	defer a.close()

	req := dto.PipelineRunRequest{}
	for _, t := range runTickers {
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				req.Tickers = append(req.Tickers, s)
			}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, a.cfg.Pipeline.RunTimeout)
	defer cancel()

	results, err := a.pipelineSvc.Run(runCtx, req)
	if err != nil {
		a.logger.Fatal("Pipeline run failed", logger.ErrorField(err))
	}

	out, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(out))
}

func main() {
	rootCmd := &cobra.Command{Use: "pipeline-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-pipeline.yaml", "Path to the configuration file")
	runCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-pipeline.yaml", "Path to the configuration file")
	runCmd.Flags().StringSliceVarP(&runTickers, "tickers", "t", nil, "Tickers to process (defaults to the configured watchlist)")

	rootCmd.AddCommand(serveCmd, runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing pipeline-service CLI: %s\n", err)
		os.Exit(1)
	}
}
