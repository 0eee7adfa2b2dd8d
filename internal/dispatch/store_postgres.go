package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type pgDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore persists jobs to the dispatch_jobs table. Expiry is enforced on read
// and by PurgeExpired.
type PGStore struct {
	db  pgDB
	ttl time.Duration
	now func() time.Time
}

var (
	_ Store  = (*PGStore)(nil)
	_ Purger = (*PGStore)(nil)
)

// NewPGStore builds a Postgres-backed Store. db is usually a *pgxpool.Pool.
func NewPGStore(db pgDB, ttl time.Duration) *PGStore {
	if db == nil {
		panic("dispatch: postgres pool cannot be nil")
	}
	return &PGStore{db: db, ttl: ttlOrDefault(ttl), now: time.Now}
}

func (s *PGStore) Save(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("dispatch: job cannot be nil")
	}
	ctx, span := storeTracer.Start(ctx, "dispatch.jobstore.postgres.save")
	defer span.End()
	span.SetAttributes(attribute.String("dispatch.job_id", job.ID))

	results, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("dispatch: marshal results: %w", err)
	}
	expiresAt := s.now().UTC().Add(s.ttl)
	if _, err := s.db.Exec(ctx, `
		INSERT INTO dispatch_jobs (
			job_id, status, total, completed, failed, results,
			created_at, updated_at, expires_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (job_id) DO UPDATE SET
			status = EXCLUDED.status,
			completed = EXCLUDED.completed,
			failed = EXCLUDED.failed,
			results = EXCLUDED.results,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at
	`, job.ID, string(job.Status), job.Total, job.Completed, job.Failed, results,
		job.CreatedAt.UTC(), job.UpdatedAt.UTC(), expiresAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "postgres upsert failed")
		return fmt.Errorf("dispatch: failed to persist job: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, jobID string) (*Job, error) {
	ctx, span := storeTracer.Start(ctx, "dispatch.jobstore.postgres.get")
	defer span.End()
	span.SetAttributes(attribute.String("dispatch.job_id", jobID))

	var (
		job     Job
		status  string
		results []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT job_id, status, total, completed, failed, results, created_at, updated_at
		FROM dispatch_jobs
		WHERE job_id = $1 AND expires_at > $2
	`, jobID, s.now().UTC()).Scan(
		&job.ID, &status, &job.Total, &job.Completed, &job.Failed, &results, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "postgres select failed")
		return nil, fmt.Errorf("dispatch: failed to fetch job: %w", err)
	}
	job.Status = Status(status)
	job.Results = []Result{}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &job.Results); err != nil {
			return nil, fmt.Errorf("dispatch: decode results: %w", err)
		}
	}
	return &job, nil
}

// PurgeExpired deletes rows past their retention window.
func (s *PGStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM dispatch_jobs WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("dispatch: purge expired jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
