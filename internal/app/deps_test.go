package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamtube/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		Tokens: config.TokenConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		ObjectStore: config.ObjectStoreConfig{
			Bucket:   "test-bucket",
			Endpoint: "http://localhost:9000",
			Region:   "us-east-1",
		},
		FFProbePath:    "ffprobe",
		FFProbeTimeout: time.Second,
		AuthRateLimit:  10,
		AuthRateWindow: time.Minute,
		AuthRateBurst:  5,
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Videos == nil {
		t.Fatal("expected video repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Verifier == nil {
		t.Fatal("expected token verifier to be configured")
	}
	if deps.Media == nil {
		t.Fatal("expected media store to be configured")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected auth rate limiter to be configured")
	}
}

func TestBuildDependenciesRequiresBucket(t *testing.T) {
	cfg := config.Config{
		Tokens: config.TokenConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
		},
	}

	if _, err := buildDependencies(context.Background(), fakePool{}, cfg); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
