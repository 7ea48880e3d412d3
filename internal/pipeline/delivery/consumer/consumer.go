package consumer

import (
	"context"
	"sync"
	"time"

	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/service"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"
)

// RedisConsumer manages the consumption of pipeline runs from the Redis stream.
type RedisConsumer struct {
	cfg      *config.Config
	taskSvc  service.TaskService
	logger   *logger.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(cfg *config.Config, taskSvc service.TaskService, log *logger.Logger) *RedisConsumer {
	return &RedisConsumer{
		cfg:      cfg,
		taskSvc:  taskSvc,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// Start begins the consumer's run processing loop.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")
	c.registerStreamHandler(ctx, c.taskSvc.ProcessTask, c.cfg.Pipeline.RunTimeout)
}

func (c *RedisConsumer) registerStreamHandler(ctx context.Context, fn func(ctx context.Context), timeout time.Duration) {
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
