package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/streamtube/backend/internal/models"
)

var errUserMissing = errors.New("user missing")

type fakeCredentialStore struct {
	users map[string]models.User
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{users: make(map[string]models.User)}
}

func (s *fakeCredentialStore) add(t *testing.T, id, email, userName, password string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{ID: id, Email: email, UserName: userName, Password: string(hashed)}
	s.users[id] = user
	return user
}

func (s *fakeCredentialStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, errUserMissing
	}
	return user, nil
}

func (s *fakeCredentialStore) FindByLogin(_ context.Context, email, userName string) (models.User, error) {
	for _, user := range s.users {
		if (email != "" && user.Email == email) || (userName != "" && user.UserName == userName) {
			return user, nil
		}
	}
	return models.User{}, errUserMissing
}

func (s *fakeCredentialStore) SetRefreshToken(_ context.Context, userID, token string) error {
	user, ok := s.users[userID]
	if !ok {
		return errUserMissing
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

func (s *fakeCredentialStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	user, ok := s.users[userID]
	if !ok {
		return errUserMissing
	}
	user.Password = passwordHash
	s.users[userID] = user
	return nil
}

func newTestSessionManager(store CredentialStore) *SessionManager {
	return NewSessionManager(newTestTokenManager(), store)
}

func TestSessionManagerLogin(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "alice@example.com", "alice", "password123")
	manager := newTestSessionManager(store)

	user, tokens, err := manager.Login(context.Background(), "alice@example.com", "", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("expected user-1 got %q", user.ID)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", tokens)
	}

	if stored := store.users["user-1"].RefreshToken; stored != tokens.RefreshToken {
		t.Fatalf("expected stored refresh token %q got %q", tokens.RefreshToken, stored)
	}

	if _, _, err := manager.Login(context.Background(), "", "alice", "password123"); err != nil {
		t.Fatalf("login by username: %v", err)
	}
}

func TestSessionManagerLoginFailures(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "alice@example.com", "alice", "password123")
	manager := newTestSessionManager(store)

	if _, _, err := manager.Login(context.Background(), "missing@example.com", "", "password123"); !errors.Is(err, errUserMissing) {
		t.Fatalf("expected store error to pass through got %v", err)
	}

	if _, _, err := manager.Login(context.Background(), "alice@example.com", "", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials got %v", err)
	}
}

func TestSessionManagerRefreshRotation(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "alice@example.com", "alice", "password123")
	manager := newTestSessionManager(store)

	_, first, err := manager.Login(context.Background(), "alice@example.com", "", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := manager.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	// The rotated-out token still verifies but no longer matches the store.
	if _, err := manager.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected token mismatch got %v", err)
	}

	if _, err := manager.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("refresh with current token: %v", err)
	}
}

func TestSessionManagerRefreshFailures(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "alice@example.com", "alice", "password123")
	manager := newTestSessionManager(store)

	if _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token for empty input got %v", err)
	}

	if _, err := manager.Refresh(context.Background(), "garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token got %v", err)
	}

	// A refresh token signed for a user the store no longer knows.
	ghost, _, err := manager.tokens.Issue("user-ghost", RefreshToken)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := manager.Refresh(context.Background(), ghost); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token for unknown user got %v", err)
	}
}

func TestSessionManagerLogout(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "alice@example.com", "alice", "password123")
	manager := newTestSessionManager(store)

	_, tokens, err := manager.Login(context.Background(), "alice@example.com", "", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := manager.Logout(context.Background(), "user-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := manager.Logout(context.Background(), "user-1"); err != nil {
		t.Fatalf("repeated logout should be idempotent: %v", err)
	}

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected mismatch after logout got %v", err)
	}
}

func TestSessionManagerChangePassword(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "alice@example.com", "alice", "oldpassword")
	manager := newTestSessionManager(store)

	if err := manager.ChangePassword(context.Background(), "user-1", "wrong", "newpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials got %v", err)
	}

	if err := manager.ChangePassword(context.Background(), "user-1", "oldpassword", "newpassword"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, _, err := manager.Login(context.Background(), "alice@example.com", "", "newpassword"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestSessionManagerChangePasswordKeepsSession(t *testing.T) {
	store := newFakeCredentialStore()
	store.add(t, "user-1", "alice@example.com", "alice", "oldpassword")
	manager := newTestSessionManager(store)

	_, tokens, err := manager.Login(context.Background(), "alice@example.com", "", "oldpassword")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := manager.ChangePassword(context.Background(), "user-1", "oldpassword", "newpassword"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("expected old refresh token to stay valid until next rotation: %v", err)
	}
}

func TestSessionManagerConstructor(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil store")
		}
	}()
	NewSessionManager(NewTokenManager("a", "b", time.Minute, time.Hour), nil)
}
