package repositories

import (
	"context"

	"github.com/streamtube/backend/internal/models"
)

// UserRepository defines the data access contract for users, including the
// aggregated channel/history views derived from them.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, email, userName string) (models.User, error)
	UpdateProfile(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string, limit, offset int) ([]models.VideoWithOwner, error)
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}
