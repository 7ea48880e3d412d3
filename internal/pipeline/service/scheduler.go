package service

import (
	"context"

	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler enqueues a pipeline run for the configured watchlist on a cron
// schedule. With no schedule configured it does nothing; runs can still be
// enqueued through the API.
type Scheduler struct {
	cfg     *config.Config
	log     *logger.Logger
	taskSvc TaskService
	cron    *cron.Cron
}

// NewScheduler creates a Scheduler.
func NewScheduler(cfg *config.Config, log *logger.Logger, taskSvc TaskService) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		log:     log,
		taskSvc: taskSvc,
		cron:    cron.New(),
	}
}

// Start registers the daily enqueue job and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Pipeline.DailyRunCron == "" {
		s.log.Info("No daily run schedule configured, scheduler idle")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.Pipeline.DailyRunCron, func() {
		if _, err := s.taskSvc.Enqueue(ctx, dto.PipelineRunRequest{}); err != nil {
			s.log.Error("Failed to enqueue scheduled run", logger.ErrorField(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("Scheduler started", logger.StringField("cron", s.cfg.Pipeline.DailyRunCron))
	return nil
}

// Stop stops the cron runner, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("Scheduler stopped")
}
