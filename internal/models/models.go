package models

import "time"

// User represents an account on the StreamTube platform. Password holds the
// bcrypt hash and RefreshToken the single active session token; neither may
// appear in a response, so handlers serialize the Sanitized projection.
type User struct {
	ID            string
	UserName      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the sanitized view of a user returned by the API.
type PublicUser struct {
	ID            string    `json:"id"`
	UserName      string    `json:"userName"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Sanitized strips the password hash and refresh token from the record.
func (u User) Sanitized() PublicUser {
	return PublicUser{
		ID:            u.ID,
		UserName:      u.UserName,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}

// Owner is the minimal user projection embedded in video listings.
type Owner struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	UserName  string `json:"userName"`
	AvatarURL string `json:"avatar"`
}

// Video stores an uploaded video entry referencing media-store outputs.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"`
	VideoURL     string    `json:"videoFile"`
	PlaybackURL  string    `json:"playbackUrl,omitempty"`
	ThumbnailURL string    `json:"thumbnail"`
	Published    bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
}

// VideoWithOwner pairs a video with its owner's public projection.
type VideoWithOwner struct {
	Video
	Owner Owner `json:"owner"`
}

// Subscription links a subscriber to the channel they follow. Rows are only
// read through aggregation; no endpoint mutates them.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// ChannelProfile is the aggregated, read-only channel view.
type ChannelProfile struct {
	FullName          string `json:"fullName"`
	UserName          string `json:"userName"`
	AvatarURL         string `json:"avatar"`
	CoverImageURL     string `json:"coverImage,omitempty"`
	Email             string `json:"email"`
	SubscribersCount  int    `json:"subscribersCount"`
	SubscribedToCount int    `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
