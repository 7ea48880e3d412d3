package service

import (
	"context"
	"encoding/json"

	"golang-stock-advisor/internal/pipeline/dto"
	"golang-stock-advisor/pkg/common"
	"golang-stock-advisor/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RunService enqueues pipeline runs for the pipeline service to pick up.
type RunService interface {
	Trigger(ctx context.Context, req dto.PipelineRunRequest) (string, error)
}

// NewRunService creates a RunService.
func NewRunService(redisClient *redis.Client, log *logger.Logger) RunService {
	return &runService{redisClient: redisClient, log: log}
}

type runService struct {
	redisClient *redis.Client
	log         *logger.Logger
}

// Trigger publishes the run request and returns the stream message id.
func (s *runService) Trigger(ctx context.Context, req dto.PipelineRunRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	id, err := s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamPipelineRun,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Result()
	if err != nil {
		return "", err
	}
	s.log.InfoContext(ctx, "Pipeline run triggered via API", logger.StringField("message_id", id))
	return id, nil
}
