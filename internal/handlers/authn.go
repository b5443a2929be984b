package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/models"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// requireAuth wraps a handler so it only runs for authenticated requests.
// The access token is read from the accessToken cookie or, failing that,
// a Bearer Authorization header. The resolved user is stored on the
// request context for the wrapped handler.
func requireAuth(verifier AccessVerifier, store UserStore, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := accessTokenFromRequest(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		userID, err := verifier.VerifyAccess(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		user, err := store.FindByID(r.Context(), userID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), currentUserKey, user)
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", user.ID))
		next(w, r.WithContext(ctx))
	}
}

func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// userFromContext returns the authenticated user placed on the context by
// requireAuth. The boolean is false on unauthenticated requests.
func userFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(currentUserKey).(models.User)
	return user, ok
}
