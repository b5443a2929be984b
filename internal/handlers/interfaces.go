package handlers

import (
	"context"

	"github.com/streamtube/backend/internal/media"
	"github.com/streamtube/backend/internal/models"
)

// UserStore captures the persistence operations required by the user
// handlers, including the aggregated channel and history views.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, email, userName string) (models.User, error)
	UpdateProfile(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error)
	ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string, limit, offset int) ([]models.VideoWithOwner, error)
}

// SessionService manages the login/logout/refresh lifecycle for users.
type SessionService interface {
	Login(ctx context.Context, email, userName, password string) (models.User, models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, token string) (models.SessionTokens, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// AccessVerifier validates access tokens and yields the embedded user id.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// MediaStore uploads local scratch files to durable storage.
type MediaStore interface {
	UploadImage(ctx context.Context, localPath string) (media.Upload, error)
	UploadVideo(ctx context.Context, localPath string) (media.Upload, error)
}

// VideoStore captures persistence for video publishing workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.VideoWithOwner, error)
	SetPublished(ctx context.Context, id string, published bool) error
}
