package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/contact-dispatch/internal/config"
	"github.com/wolfman30/contact-dispatch/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, metrics := setupMetrics()
	if handler == nil || metrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	metrics.ObserveJob("submitted")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "contact_dispatch_dispatch_jobs_total") {
		t.Fatalf("expected job counter to be exported")
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("expected go runtime collector to be registered")
	}
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	logger := logging.New("error")
	if pool := connectPostgresPool(context.Background(), "", logger); pool != nil {
		t.Fatalf("expected nil pool for empty URL")
	}
}

func TestBuildBackends(t *testing.T) {
	logger := logging.New("error")

	backends, closeFn, err := buildBackends(context.Background(), &appconfig.Config{}, appconfig.JobStoreMemory, nil, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	closeFn()
	if backends.Redis != nil || backends.Dynamo != nil || backends.Postgres != nil {
		t.Fatalf("expected no backends for memory store")
	}

	if _, _, err := buildBackends(context.Background(), &appconfig.Config{}, appconfig.JobStoreRedis, nil, logger); err == nil {
		t.Fatalf("expected error for redis store without a client")
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	backends, _, err = buildBackends(context.Background(), &appconfig.Config{}, appconfig.JobStoreRedis, client, logger)
	if err != nil || backends.Redis != client {
		t.Fatalf("expected redis backend, err=%v", err)
	}

	if _, _, err := buildBackends(context.Background(), &appconfig.Config{}, appconfig.JobStorePostgres, nil, logger); err == nil {
		t.Fatalf("expected error for postgres store without DATABASE_URL")
	}

	cfg := &appconfig.Config{AWSRegion: "us-east-1", AWSAccessKeyID: "test", AWSSecretAccessKey: "test"}
	backends, _, err = buildBackends(context.Background(), cfg, appconfig.JobStoreDynamoDB, nil, logger)
	if err != nil || backends.Dynamo == nil {
		t.Fatalf("expected dynamodb client, err=%v", err)
	}
}
