package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
}

func TestTokenManagerIssueAndVerify(t *testing.T) {
	manager := newTestTokenManager()

	token, expiresAt, err := manager.Issue("user-1", AccessToken)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry got %v", expiresAt)
	}

	userID, err := manager.Verify(token, AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1 got %q", userID)
	}
}

func TestTokenManagerRejectsWrongKind(t *testing.T) {
	manager := newTestTokenManager()

	token, _, err := manager.Issue("user-1", AccessToken)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := manager.Verify(token, RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token got %v", err)
	}
}

func TestTokenManagerRejectsForeignSignature(t *testing.T) {
	manager := newTestTokenManager()
	other := NewTokenManager("different-access", "different-refresh", time.Minute, time.Hour)

	token, _, err := other.Issue("user-1", AccessToken)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := manager.Verify(token, AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token got %v", err)
	}

	if _, err := manager.Verify("not-a-token", AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token for garbage got %v", err)
	}
}

func TestTokenManagerExpiry(t *testing.T) {
	manager := newTestTokenManager()

	current := time.Now().UTC()
	manager.now = func() time.Time { return current }

	token, _, err := manager.Issue("user-1", AccessToken)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	current = current.Add(2 * time.Minute)

	if _, err := manager.Verify(token, AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired token got %v", err)
	}
}

func TestTokenManagerIssuePair(t *testing.T) {
	manager := newTestTokenManager()

	tokens, err := manager.IssuePair("user-7")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}
	if !tokens.RefreshExpiresAt.After(tokens.AccessExpiresAt) {
		t.Fatal("expected refresh token to outlive access token")
	}

	if _, err := manager.VerifyAccess(tokens.AccessToken); err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if _, err := manager.VerifyRefresh(tokens.RefreshToken); err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
}

func TestTokenManagerIssueValidation(t *testing.T) {
	manager := newTestTokenManager()
	if _, _, err := manager.Issue("", AccessToken); err == nil {
		t.Fatal("expected error for empty user id")
	}
}
