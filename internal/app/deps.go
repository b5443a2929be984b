package app

import (
	"context"
	"time"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/config"
	"github.com/streamtube/backend/internal/db"
	"github.com/streamtube/backend/internal/handlers"
	"github.com/streamtube/backend/internal/media"
	"github.com/streamtube/backend/internal/middleware"
	"github.com/streamtube/backend/internal/repositories"
	"github.com/streamtube/backend/internal/storage"
)

const authLimiterTTL = 10 * time.Minute

// buildDependencies assembles the concrete collaborators behind the HTTP
// handlers: Postgres repositories, the JWT session layer, and the S3-backed
// media store with ffprobe duration probing.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)

	tokens := auth.NewTokenManager(
		cfg.Tokens.AccessSecret,
		cfg.Tokens.RefreshSecret,
		cfg.Tokens.AccessTTL,
		cfg.Tokens.RefreshTTL,
	)
	sessions := auth.NewSessionManager(tokens, users)

	objects, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}
	prober := media.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout)
	mediaStore := media.NewS3Store(objects, prober, cfg.ObjectStore.PlaybackBaseURL)

	limiter := middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateBurst, authLimiterTTL)

	return handlers.Dependencies{
		Users:          users,
		Videos:         videos,
		Sessions:       sessions,
		Verifier:       tokens,
		Media:          mediaStore,
		AuthLimiter:    limiter,
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, nil
}
