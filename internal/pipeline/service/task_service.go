package service

import (
	"context"
	"encoding/json"
	"time"

	"golang-stock-advisor/internal/pipeline/config"
	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/common"
	"golang-stock-advisor/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// TaskService connects the pipeline to its Redis stream: runs are enqueued
// as stream messages and consumed one at a time.
type TaskService interface {
	EnsureGroup(ctx context.Context) error
	Enqueue(ctx context.Context, req dto.PipelineRunRequest) (string, error)
	ProcessTask(ctx context.Context)
}

// NewTaskService creates a TaskService.
func NewTaskService(cfg *config.Config, log *logger.Logger, redisClient *redis.Client, pipeline *PipelineService) TaskService {
	return &taskService{
		cfg:         cfg,
		log:         log,
		redisClient: redisClient,
		pipeline:    pipeline,
	}
}

type taskService struct {
	cfg         *config.Config
	log         *logger.Logger
	redisClient *redis.Client
	pipeline    *PipelineService
}

// EnsureGroup creates the consumer group, and the stream with it, if they
// do not exist yet.
func (s *taskService) EnsureGroup(ctx context.Context) error {
	err := s.redisClient.XGroupCreateMkStream(ctx, common.RedisStreamPipelineRun, common.RedisStreamGroup, "$").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}
	return nil
}

// Enqueue publishes a run request to the stream and returns the message id.
func (s *taskService) Enqueue(ctx context.Context, req dto.PipelineRunRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	args := &redis.XAddArgs{
		Stream: common.RedisStreamPipelineRun,
		Values: map[string]interface{}{"payload": string(payload)},
	}
	if s.cfg.Redis.StreamMaxLen > 0 {
		args.MaxLen = s.cfg.Redis.StreamMaxLen
		args.Approx = true
	}
	id, err := s.redisClient.XAdd(ctx, args).Result()
	if err != nil {
		return "", err
	}
	s.log.InfoContext(ctx, "Pipeline run enqueued", logger.StringField("message_id", id))
	return id, nil
}

// ProcessTask dequeues and executes a single pipeline run.
func (s *taskService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamPipelineRun, ">"}, // ">" means only new messages
		Count:    1,
		Block:    2 * time.Second, // Block for 2 seconds to allow graceful shutdown
	}).Result()
	if err != nil {
		// Cancellation and empty reads are expected during shutdown or idle periods.
		if err == context.Canceled || err == context.DeadlineExceeded || err == redis.Nil {
			return
		}
		s.log.Error("Failed to read from pipeline stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}
	message := streams[0].Messages[0]

	var req dto.PipelineRunRequest
	payload, ok := message.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.StringField("message_id", message.ID))
		s.ackNDel(ctx, message.ID)
		return
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		s.log.Error("Failed to unmarshal run request", logger.ErrorField(err), logger.StringField("message_id", message.ID))
		// Acknowledge so a malformed message is not reprocessed forever.
		s.ackNDel(ctx, message.ID)
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Pipeline.RunTimeout)
	defer cancel()

	results, err := s.pipeline.Run(runCtx, req)
	if err != nil {
		s.log.Error("Pipeline run failed", logger.ErrorField(err), logger.StringField("message_id", message.ID))
		s.ackNDel(ctx, message.ID)
		return
	}

	failed := 0
	for _, r := range results {
		if r.Status != "ok" {
			failed++
		}
	}
	s.log.Info("Pipeline run processed",
		logger.StringField("message_id", message.ID),
		logger.IntField("tickers", len(results)),
		logger.IntField("failed", failed))
	s.ackNDel(ctx, message.ID)
}

func (s *taskService) ackNDel(ctx context.Context, messageID string) {
	if err := s.redisClient.XAck(ctx, common.RedisStreamPipelineRun, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to acknowledge message", logger.ErrorField(err), logger.StringField("message_id", messageID))
		return
	}
	if err := s.redisClient.XDel(ctx, common.RedisStreamPipelineRun, messageID).Err(); err != nil {
		s.log.Error("Failed to delete message", logger.ErrorField(err), logger.StringField("message_id", messageID))
	}
}

func isBusyGroup(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
