package dispatch

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
)

// DefaultJobTTL is how long a job record stays readable after its last write.
const DefaultJobTTL = time.Hour

var storeTracer = otel.Tracer("contact-dispatch.internal.dispatch.store")

// ErrJobNotFound covers ids that never existed and records that expired.
var ErrJobNotFound = errors.New("dispatch: job not found")

// Store persists job records. Save overwrites the whole record and restarts
// its retention window.
type Store interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, jobID string) (*Job, error)
}

// Purger is implemented by stores that cannot expire records on their own.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultJobTTL
	}
	return ttl
}
