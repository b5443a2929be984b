package repositories

import (
	"context"
	"sync"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/models"
)

// MemoryStore implements the repository contracts with in-memory maps for
// tests and local development. Insertion order is preserved for videos and
// watch history so ordering semantics match the SQL implementations.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]models.User
	videos        map[string]models.Video
	videoOrder    []string
	subscriptions []models.Subscription
	history       map[string][]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]models.User),
		videos:  make(map[string]models.Video),
		history: make(map[string][]string),
	}
}

// Create persists a new user, enforcing username/email uniqueness.
func (s *MemoryStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email || existing.UserName == user.UserName {
			return ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

// FindByID fetches a user by identifier.
func (s *MemoryStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// FindByLogin fetches a user by email or username.
func (s *MemoryStore) FindByLogin(_ context.Context, email, userName string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if (email != "" && user.Email == email) || (userName != "" && user.UserName == userName) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// UpdateProfile persists profile edits and returns the updated record.
func (s *MemoryStore) UpdateProfile(_ context.Context, userID, fullName, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	user.FullName = fullName
	user.Email = email
	s.users[userID] = user
	return user, nil
}

// UpdateAvatar persists a new avatar URL and returns the updated record.
func (s *MemoryStore) UpdateAvatar(_ context.Context, userID, avatarURL string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	user.AvatarURL = avatarURL
	s.users[userID] = user
	return user, nil
}

// SetRefreshToken stores or clears the active refresh token.
func (s *MemoryStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

// UpdatePassword stores a new password hash.
func (s *MemoryStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.Password = passwordHash
	s.users[userID] = user
	return nil
}

// ChannelProfile aggregates subscription relations for the named channel.
func (s *MemoryStore) ChannelProfile(_ context.Context, userName, viewerID string) (models.ChannelProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var channel models.User
	found := false
	for _, user := range s.users {
		if user.UserName == userName {
			channel = user
			found = true
			break
		}
	}
	if !found {
		return models.ChannelProfile{}, ErrNotFound
	}

	profile := models.ChannelProfile{
		FullName:      channel.FullName,
		UserName:      channel.UserName,
		AvatarURL:     channel.AvatarURL,
		CoverImageURL: channel.CoverImageURL,
		Email:         channel.Email,
	}

	for _, sub := range s.subscriptions {
		if sub.ChannelID == channel.ID {
			profile.SubscribersCount++
			if viewerID != "" && sub.SubscriberID == viewerID {
				profile.IsSubscribed = true
			}
		}
		if sub.SubscriberID == channel.ID {
			profile.SubscribedToCount++
		}
	}

	return profile, nil
}

// WatchHistory resolves the user's watched videos in append order.
func (s *MemoryStore) WatchHistory(_ context.Context, userID string, limit, offset int) ([]models.VideoWithOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := s.history[userID]
	var list []models.VideoWithOwner
	for i := offset; i < len(refs) && len(list) < limit; i++ {
		video, ok := s.videos[refs[i]]
		if !ok {
			continue
		}
		list = append(list, s.withOwnerLocked(video))
	}
	return list, nil
}

// AppendWatchHistory records a watched video at the end of the sequence.
func (s *MemoryStore) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[videoID]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.history[userID] {
		if existing == videoID {
			return nil
		}
	}
	s.history[userID] = append(s.history[userID], videoID)
	return nil
}

// CreateVideo persists a new video.
func (s *MemoryStore) CreateVideo(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[video.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.users[video.OwnerID]; !ok {
		return ErrNotFound
	}
	s.videos[video.ID] = video
	s.videoOrder = append(s.videoOrder, video.ID)
	return nil
}

// FindVideoByID fetches a video by identifier.
func (s *MemoryStore) FindVideoByID(_ context.Context, id string) (models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

// ListPublished returns published videos with owner projections.
func (s *MemoryStore) ListPublished(_ context.Context, limit, offset int) ([]models.VideoWithOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.VideoWithOwner
	skipped := 0
	for _, id := range s.videoOrder {
		video := s.videos[id]
		if !video.Published {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(list) == limit {
			break
		}
		list = append(list, s.withOwnerLocked(video))
	}
	return list, nil
}

// SetPublished flips the publish flag for a video.
func (s *MemoryStore) SetPublished(_ context.Context, id string, published bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return ErrNotFound
	}
	video.Published = published
	s.videos[id] = video
	return nil
}

// Subscribe records a subscriber/channel relation.
func (s *MemoryStore) Subscribe(_ context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.subscriptions {
		if existing.SubscriberID == sub.SubscriberID && existing.ChannelID == sub.ChannelID {
			return ErrConflict
		}
	}
	s.subscriptions = append(s.subscriptions, sub)
	return nil
}

func (s *MemoryStore) withOwnerLocked(video models.Video) models.VideoWithOwner {
	owner := s.users[video.OwnerID]
	return models.VideoWithOwner{
		Video: video,
		Owner: models.Owner{
			ID:        owner.ID,
			FullName:  owner.FullName,
			UserName:  owner.UserName,
			AvatarURL: owner.AvatarURL,
		},
	}
}

// Videos exposes the store through the VideoRepository contract. The video
// methods carry distinct names on MemoryStore itself because the user-facing
// Create/FindByID occupy those slots.
func (s *MemoryStore) Videos() VideoRepository {
	return memoryVideoView{s}
}

type memoryVideoView struct {
	s *MemoryStore
}

func (v memoryVideoView) Create(ctx context.Context, video models.Video) error {
	return v.s.CreateVideo(ctx, video)
}

func (v memoryVideoView) FindByID(ctx context.Context, id string) (models.Video, error) {
	return v.s.FindVideoByID(ctx, id)
}

func (v memoryVideoView) ListPublished(ctx context.Context, limit, offset int) ([]models.VideoWithOwner, error) {
	return v.s.ListPublished(ctx, limit, offset)
}

func (v memoryVideoView) SetPublished(ctx context.Context, id string, published bool) error {
	return v.s.SetPublished(ctx, id, published)
}

var _ UserRepository = (*MemoryStore)(nil)
var _ auth.CredentialStore = (*MemoryStore)(nil)
var _ VideoRepository = memoryVideoView{}
