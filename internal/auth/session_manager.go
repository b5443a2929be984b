package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/streamtube/backend/internal/models"
)

var (
	// ErrInvalidCredentials indicates the supplied password does not match
	// the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenMismatch indicates a refresh token that verified correctly but
	// no longer matches the stored value: it was rotated or revoked.
	ErrTokenMismatch = errors.New("refresh token superseded or revoked")
)

// CredentialStore is the user persistence surface the session manager needs.
// Implementations must return their package's not-found error unchanged so
// callers can map it.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, email, userName string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// SessionManager orchestrates login, logout, token rotation and password
// changes against the credential store. At most one refresh token is valid
// per user: issuing a new one overwrites, and thereby revokes, the previous.
type SessionManager struct {
	tokens *TokenManager
	store  CredentialStore
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(tokens *TokenManager, store CredentialStore) *SessionManager {
	if tokens == nil || store == nil {
		panic("auth: token manager and credential store must not be nil")
	}
	return &SessionManager{tokens: tokens, store: store}
}

// Login verifies the password for the user matching the email or username
// and issues a fresh token pair. Store lookup errors pass through unchanged.
func (m *SessionManager) Login(ctx context.Context, email, userName, password string) (models.User, models.SessionTokens, error) {
	user, err := m.store.FindByLogin(ctx, email, userName)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err := m.issueAndStore(ctx, user.ID)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	user.RefreshToken = tokens.RefreshToken
	return user, tokens, nil
}

// Logout clears the stored refresh token for the user. Clearing an already
// absent token succeeds, so the operation is idempotent.
func (m *SessionManager) Logout(ctx context.Context, userID string) error {
	return m.store.SetRefreshToken(ctx, userID, "")
}

// Refresh exchanges a verified refresh token for a new pair, rotating the
// stored value. Presenting a token that no longer matches the stored one
// fails with ErrTokenMismatch, which catches reuse of rotated tokens.
func (m *SessionManager) Refresh(ctx context.Context, incoming string) (models.SessionTokens, error) {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return models.SessionTokens{}, ErrTokenInvalid
	}

	userID, err := m.tokens.Verify(incoming, RefreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		return models.SessionTokens{}, ErrTokenInvalid
	}

	if user.RefreshToken == "" || user.RefreshToken != incoming {
		return models.SessionTokens{}, ErrTokenMismatch
	}

	return m.issueAndStore(ctx, user.ID)
}

// ChangePassword verifies the old password and persists a hash of the new
// one. The stored refresh token is left untouched: an existing session stays
// valid until its next rotation.
func (m *SessionManager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return m.store.UpdatePassword(ctx, userID, string(hashed))
}

func (m *SessionManager) issueAndStore(ctx context.Context, userID string) (models.SessionTokens, error) {
	tokens, err := m.tokens.IssuePair(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.SetRefreshToken(ctx, userID, tokens.RefreshToken); err != nil {
		return models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	return tokens, nil
}
