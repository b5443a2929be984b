package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/streamtube/backend/internal/models"
)

// TokenKind selects which secret and lifetime sign a token.
type TokenKind string

const (
	// AccessToken is the short-lived credential attached to each request.
	AccessToken TokenKind = "access"
	// RefreshToken is the long-lived credential exchanged for a new pair.
	RefreshToken TokenKind = "refresh"
)

var (
	// ErrTokenInvalid indicates a malformed token, a bad signature, or a
	// token presented for the wrong kind.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired indicates the token's lifetime has elapsed.
	ErrTokenExpired = errors.New("token expired")
)

// TokenManager issues and verifies signed, time-bounded session tokens.
// Tokens embed the user identity as the JWT subject; verification is a pure
// function of secret, payload and clock.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewTokenManager constructs a TokenManager signing access and refresh
// tokens with separate secrets and TTLs.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessSecret == "" || refreshSecret == "" {
		panic("auth: token secrets must not be empty")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs a token of the requested kind for the provided user identity.
func (m *TokenManager) Issue(userID string, kind TokenKind) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	secret, ttl := m.material(kind)
	now := m.now()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return signed, expiresAt, nil
}

// IssuePair generates a fresh access and refresh token pair for the user.
func (m *TokenManager) IssuePair(userID string) (models.SessionTokens, error) {
	accessToken, accessExpiry, err := m.Issue(userID, AccessToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refreshToken, refreshExpiry, err := m.Issue(userID, RefreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// Verify checks the token signature and expiry for the given kind and
// returns the embedded user identity.
func (m *TokenManager) Verify(token string, kind TokenKind) (string, error) {
	secret, _ := m.material(kind)

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}

// VerifyAccess validates an access token and returns the user identity.
func (m *TokenManager) VerifyAccess(token string) (string, error) {
	return m.Verify(token, AccessToken)
}

// VerifyRefresh validates a refresh token and returns the user identity.
func (m *TokenManager) VerifyRefresh(token string) (string, error) {
	return m.Verify(token, RefreshToken)
}

func (m *TokenManager) material(kind TokenKind) ([]byte, time.Duration) {
	if kind == RefreshToken {
		return m.refreshSecret, m.refreshTTL
	}
	return m.accessSecret, m.accessTTL
}
