package repositories

import (
	"context"

	"github.com/streamtube/backend/internal/models"
)

// VideoRepository defines the data access contract for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.VideoWithOwner, error)
	SetPublished(ctx context.Context, id string, published bool) error
}

// SubscriptionRepository persists subscriber/channel relations. The HTTP
// surface only reads them through aggregation; writes exist for seed data
// and tests.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
}
