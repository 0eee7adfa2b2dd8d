package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/contact-dispatch/internal/config"
	"github.com/wolfman30/contact-dispatch/internal/dispatch"
	"github.com/wolfman30/contact-dispatch/internal/observability/metrics"
	"github.com/wolfman30/contact-dispatch/internal/ratelimit"
	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// ResolveJobStoreKind maps JOB_STORE to a concrete backend. "auto" picks
// redis when a client is available and memory otherwise.
func ResolveJobStoreKind(cfg *appconfig.Config, redisAvailable bool) (string, error) {
	kind := appconfig.JobStoreAuto
	if cfg != nil && cfg.JobStore != "" {
		kind = cfg.JobStore
	}
	switch kind {
	case appconfig.JobStoreAuto:
		if redisAvailable {
			return appconfig.JobStoreRedis, nil
		}
		return appconfig.JobStoreMemory, nil
	case appconfig.JobStoreMemory, appconfig.JobStoreRedis, appconfig.JobStoreDynamoDB, appconfig.JobStorePostgres:
		return kind, nil
	default:
		return "", fmt.Errorf("bootstrap: unknown job store %q", kind)
	}
}

// Backends carries the clients a job store may be built on. Only the one
// matching the selected kind needs to be set.
type Backends struct {
	Redis    *redis.Client
	Dynamo   *dynamodb.Client
	Postgres *pgxpool.Pool
}

// BuildJobStore returns the store for kind. The purger is non-nil for backends
// that do not expire records on their own.
func BuildJobStore(cfg *appconfig.Config, kind string, backends Backends, logger *logging.Logger) (dispatch.Store, dispatch.Purger, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch kind {
	case appconfig.JobStoreMemory:
		store := dispatch.NewMemoryStore(cfg.JobTTL)
		return store, store, nil
	case appconfig.JobStoreRedis:
		if backends.Redis == nil {
			return nil, nil, fmt.Errorf("bootstrap: job store %q requires REDIS_ADDR", kind)
		}
		return dispatch.NewRedisStore(backends.Redis, cfg.JobTTL), nil, nil
	case appconfig.JobStoreDynamoDB:
		if backends.Dynamo == nil {
			return nil, nil, fmt.Errorf("bootstrap: job store %q requires a dynamodb client", kind)
		}
		if strings.TrimSpace(cfg.DispatchJobsTable) == "" {
			return nil, nil, fmt.Errorf("bootstrap: DISPATCH_JOBS_TABLE is required")
		}
		return dispatch.NewDynamoStore(backends.Dynamo, cfg.DispatchJobsTable, cfg.JobTTL, logger), nil, nil
	case appconfig.JobStorePostgres:
		if backends.Postgres == nil {
			return nil, nil, fmt.Errorf("bootstrap: job store %q requires DATABASE_URL", kind)
		}
		store := dispatch.NewPGStore(backends.Postgres, cfg.JobTTL)
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown job store %q", kind)
	}
}

// BuildLimiter returns the admission limiter. Without Redis it counts in
// process memory and returns the counter so the caller can run its sweeper.
func BuildLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger, m *metrics.DispatchMetrics) (*ratelimit.Limiter, *ratelimit.MemoryCounter) {
	limiterCfg := ratelimit.DefaultConfig()
	if cfg != nil {
		limiterCfg.Limit = cfg.RateLimitRequests
		limiterCfg.Window = cfg.RateLimitWindow
		limiterCfg.FailOpen = cfg.RateLimitFailOpen
	}
	if redisClient != nil {
		return ratelimit.New(ratelimit.NewRedisCounter(redisClient), limiterCfg, logger, m), nil
	}
	counter := ratelimit.NewMemoryCounter()
	return ratelimit.New(counter, limiterCfg, logger, m), counter
}

// DispatchConfig maps env configuration onto the dispatcher's batching policy.
func DispatchConfig(cfg *appconfig.Config) dispatch.Config {
	if cfg == nil {
		return dispatch.DefaultConfig()
	}
	return dispatch.Config{
		BatchSize:       cfg.DispatchBatchSize,
		BatchDelay:      cfg.DispatchBatchDelay,
		SendTimeout:     cfg.DispatchSendTimeout,
		StrictTracking:  cfg.DispatchStrictTracking,
		DefaultLanguage: cfg.WhatsAppDefaultLanguage,
	}
}
