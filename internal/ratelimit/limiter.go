// Package ratelimit admits requests against a fixed-window counter per client.
package ratelimit

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/contact-dispatch/internal/observability/metrics"
	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

var tracer = otel.Tracer("contact-dispatch.internal.ratelimit")

// CounterStore increments the counter for key, starting a window of the given
// length when the key is new or its previous window expired.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Config contains the admission policy.
type Config struct {
	Limit  int
	Window time.Duration
	// FailOpen admits requests when the counter store errors.
	FailOpen  bool
	KeyPrefix string
}

func DefaultConfig() Config {
	return Config{
		Limit:     100,
		Window:    time.Hour,
		FailOpen:  true,
		KeyPrefix: "rate_limit:",
	}
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int
	FailedOpen bool
}

// Limiter gates requests by client identity.
type Limiter struct {
	store   CounterStore
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.DispatchMetrics
}

// New builds a Limiter. A nil store admits everything.
func New(store CounterStore, cfg Config, logger *logging.Logger, m *metrics.DispatchMetrics) *Limiter {
	def := DefaultConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Limiter{store: store, cfg: cfg, logger: logger, metrics: m}
}

// Admit reports whether the client may proceed.
func (l *Limiter) Admit(ctx context.Context, clientKey string) bool {
	return l.Check(ctx, clientKey).Allowed
}

// Check counts one request for clientKey and decides admission. The
// (Limit+1)-th request inside a window is the first one denied.
func (l *Limiter) Check(ctx context.Context, clientKey string) Decision {
	if l == nil || l.store == nil {
		return Decision{Allowed: true}
	}
	ctx, span := tracer.Start(ctx, "ratelimit.check")
	defer span.End()

	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}

	count, err := l.store.Increment(ctx, l.cfg.KeyPrefix+clientKey, l.cfg.Window)
	if err != nil {
		span.RecordError(err)
		l.logger.Error("rate limit check failed", "error", err, "fail_open", l.cfg.FailOpen)
		if l.cfg.FailOpen {
			l.metrics.ObserveAdmission("fail_open")
			span.SetAttributes(attribute.Bool("ratelimit.failed_open", true))
			return Decision{Allowed: true, Limit: l.cfg.Limit, FailedOpen: true}
		}
		l.metrics.ObserveAdmission("denied")
		return Decision{Allowed: false, Limit: l.cfg.Limit}
	}

	d := Decision{Allowed: count <= int64(l.cfg.Limit), Count: count, Limit: l.cfg.Limit}
	span.SetAttributes(
		attribute.Int64("ratelimit.count", count),
		attribute.Bool("ratelimit.allowed", d.Allowed),
	)
	if d.Allowed {
		l.metrics.ObserveAdmission("allowed")
	} else {
		l.metrics.ObserveAdmission("denied")
		l.logger.Warn("rate limit exceeded", "client", clientKey, "count", count, "max", l.cfg.Limit)
	}
	return d
}
