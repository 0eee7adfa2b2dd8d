package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const redisJobKeyPrefix = "job:"

// RedisStore keeps each job as a JSON string under "job:{id}" with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("dispatch: redis client cannot be nil")
	}
	return &RedisStore{client: client, ttl: ttlOrDefault(ttl)}
}

func (s *RedisStore) Save(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("dispatch: job cannot be nil")
	}
	ctx, span := storeTracer.Start(ctx, "dispatch.jobstore.redis.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("dispatch.job_id", job.ID),
		attribute.Int("dispatch.processed", job.Processed()),
	)

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("dispatch: marshal job: %w", err)
	}
	if err := s.client.Set(ctx, redisJobKeyPrefix+job.ID, data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis set failed")
		return fmt.Errorf("dispatch: save job: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (*Job, error) {
	ctx, span := storeTracer.Start(ctx, "dispatch.jobstore.redis.get")
	defer span.End()
	span.SetAttributes(attribute.String("dispatch.job_id", jobID))

	data, err := s.client.Get(ctx, redisJobKeyPrefix+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis get failed")
		return nil, fmt.Errorf("dispatch: fetch job: %w", err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("dispatch: decode job: %w", err)
	}
	return &job, nil
}
