package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Job store backends selectable through JOB_STORE.
const (
	JobStoreAuto     = "auto"
	JobStoreMemory   = "memory"
	JobStoreRedis    = "redis"
	JobStoreDynamoDB = "dynamodb"
	JobStorePostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitFailOpen bool

	JobStore          string
	JobTTL            time.Duration
	JobPurgeInterval  time.Duration
	DispatchJobsTable string
	DatabaseURL       string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	DispatchBatchSize      int
	DispatchBatchDelay     time.Duration
	DispatchSendTimeout    time.Duration
	DispatchStrictTracking bool

	WhatsAppAPIBaseURL      string
	WhatsAppMaxRetries      int
	WhatsAppDefaultLanguage string

	// DefaultCountryArea is the country (2 digits) and area (2 digits) code
	// used when a request does not supply one.
	DefaultCountryArea string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour),
		RateLimitFailOpen: getEnvAsBool("RATE_LIMIT_FAIL_OPEN", true),

		JobStore:          strings.ToLower(strings.TrimSpace(getEnv("JOB_STORE", JobStoreAuto))),
		JobTTL:            getEnvAsDuration("JOB_TTL", time.Hour),
		JobPurgeInterval:  getEnvAsDuration("JOB_PURGE_INTERVAL", 10*time.Minute),
		DispatchJobsTable: getEnv("DISPATCH_JOBS_TABLE", "dispatch_jobs"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		DispatchBatchSize:      getEnvAsInt("DISPATCH_BATCH_SIZE", 10),
		DispatchBatchDelay:     getEnvAsDuration("DISPATCH_BATCH_DELAY", time.Second),
		DispatchSendTimeout:    getEnvAsDuration("DISPATCH_SEND_TIMEOUT", 30*time.Second),
		DispatchStrictTracking: getEnvAsBool("DISPATCH_STRICT_TRACKING", false),

		WhatsAppAPIBaseURL:      getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v19.0"),
		WhatsAppMaxRetries:      getEnvAsInt("WHATSAPP_MAX_RETRIES", 0),
		WhatsAppDefaultLanguage: getEnv("WHATSAPP_DEFAULT_LANGUAGE", "pt_BR"),

		DefaultCountryArea: getEnv("DEFAULT_COUNTRY_AREA", "5531"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
