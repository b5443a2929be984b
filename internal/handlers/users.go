package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/media"
	"github.com/streamtube/backend/internal/models"
	"github.com/streamtube/backend/internal/repositories"
)

// UserHandler implements account, session, and profile endpoints.
type UserHandler struct {
	Users    UserStore
	Sessions SessionService
	Media    MediaStore
	Limiter  RateLimiter

	UploadDir      string
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// Register handles POST /api/v1/users/register requests. The payload is
// multipart form data with a required avatar part and an optional cover
// image part.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Media == nil {
		logger.Error("registration dependencies unavailable", "hasUsers", h.Users != nil, "hasMedia", h.Media != nil)
		respondError(w, http.StatusInternalServerError, "registration services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "register") {
		logger.Warn("registration rate limited", "ip", clientIP(r))
		respondError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes()); err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	fullName := strings.TrimSpace(r.FormValue("fullName"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	userName := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	password := r.FormValue("password")

	if fullName == "" || email == "" || userName == "" || strings.TrimSpace(password) == "" {
		logger.Warn("registration missing fields", "email", email, "userName", userName)
		respondError(w, http.StatusBadRequest, "fullName, email, username and password are required")
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		logger.Warn("registration invalid email", "email", email, "error", err)
		respondError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	avatar, err := h.uploadFormImage(r, "avatar")
	if err != nil {
		logger.Warn("avatar upload failed", "error", err)
		respondError(w, http.StatusBadRequest, "avatar image is required")
		return
	}

	// The cover image is optional and a failed upload is tolerated; the
	// account is still created with an empty cover URL.
	var coverURL string
	if cover, err := h.uploadFormImage(r, "coverImage"); err == nil {
		coverURL = cover.URL
	} else if !errors.Is(err, http.ErrMissingFile) {
		logger.Warn("cover image upload failed", "error", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		UserName:      userName,
		Email:         email,
		FullName:      fullName,
		Password:      string(hashed),
		AvatarURL:     avatar.URL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("registration conflict", "email", email, "userName", userName)
			respondError(w, http.StatusConflict, "user with email or username already exists")
			return
		}
		logger.Error("failed to create user", "error", err, "email", email)
		respondError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	created, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		logger.Error("failed to load created user", "error", err, "userId", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	respondData(w, http.StatusCreated, created.Sanitized(), "user registered successfully")
}

// Login handles POST /api/v1/users/login requests. The identifier may be an
// email address or a username.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondError(w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		logger.Warn("login rate limited", "ip", clientIP(r))
		respondError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.UserName = strings.TrimSpace(strings.ToLower(req.UserName))
	if (req.Email == "" && req.UserName == "") || req.Password == "" {
		logger.Warn("login missing credentials")
		respondError(w, http.StatusBadRequest, "email or username and password are required")
		return
	}

	user, tokens, err := h.Sessions.Login(ctx, req.Email, req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("login unknown user", "email", req.Email, "userName", req.UserName)
			respondError(w, http.StatusNotFound, "user does not exist")
			return
		}
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("login password mismatch", "email", req.Email, "userName", req.UserName)
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		logger.Error("login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setSessionCookies(w, tokens)
	respondData(w, http.StatusOK, sessionResponse{User: user.Sanitized(), Tokens: tokens}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout requests.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Sessions.Logout(ctx, user.ID); err != nil {
		respondDomainError(w, r, err, "failed to log out")
		return
	}

	clearSessionCookies(w)
	respondData(w, http.StatusOK, nil, "user logged out successfully")
}

// RefreshAccessToken handles POST /api/v1/users/refreshAccessToken requests.
// The refresh token is read from the refreshToken cookie, falling back to
// the JSON body.
func (h UserHandler) RefreshAccessToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	token := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = req.RefreshToken
		}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		logger.Warn("missing refresh token")
		respondError(w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		respondDomainError(w, r, err, "failed to refresh session")
		return
	}

	setSessionCookies(w, tokens)
	respondData(w, http.StatusOK, tokens, "access token refreshed")
}

// ChangePassword handles POST /api/v1/users/changePassword requests.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password payload", "error", err)
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.OldPassword) == "" || strings.TrimSpace(req.NewPassword) == "" {
		respondError(w, http.StatusBadRequest, "old and new passwords are required")
		return
	}

	if err := h.Sessions.ChangePassword(ctx, user.ID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("change password mismatch", "userId", user.ID)
			respondError(w, http.StatusBadRequest, "invalid old password")
			return
		}
		respondDomainError(w, r, err, "failed to change password")
		return
	}

	respondData(w, http.StatusOK, nil, "password changed successfully")
}

// GetCurrentUser handles GET /api/v1/users/get-user requests.
func (h UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, ok := userFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	respondData(w, http.StatusOK, user.Sanitized(), "current user fetched successfully")
}

// UpdateProfile handles PATCH /api/v1/users/edit-user requests.
func (h UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "fullName and email are required")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("profile invalid email", "email", req.Email, "error", err)
		respondError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	updated, err := h.Users.UpdateProfile(ctx, user.ID, req.FullName, req.Email)
	if err != nil {
		respondDomainError(w, r, err, "failed to update profile")
		return
	}

	respondData(w, http.StatusOK, updated.Sanitized(), "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar-edit-user requests.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes()); err != nil {
		logger.Warn("invalid avatar payload", "error", err)
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	avatar, err := h.uploadFormImage(r, "avatar")
	if err != nil {
		logger.Warn("avatar upload failed", "error", err, "userId", user.ID)
		respondError(w, http.StatusBadRequest, "avatar image is required")
		return
	}

	updated, err := h.Users.UpdateAvatar(ctx, user.ID, avatar.URL)
	if err != nil {
		respondDomainError(w, r, err, "failed to update avatar")
		return
	}

	respondData(w, http.StatusOK, updated.Sanitized(), "avatar updated successfully")
}

// ChannelProfile handles GET /api/v1/users/get-user-channel/{userName}
// requests.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	viewer, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	userName := strings.TrimSpace(strings.ToLower(r.PathValue("userName")))
	if userName == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}

	profile, err := h.Users.ChannelProfile(ctx, userName, viewer.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(w, http.StatusNotFound, "channel does not exist")
			return
		}
		respondDomainError(w, r, err, "failed to load channel")
		return
	}

	respondData(w, http.StatusOK, profile, "channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/get-watch-hostory requests. The
// misspelled path segment is kept for compatibility with existing clients.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, offset := parsePage(r)
	history, err := h.Users.WatchHistory(ctx, user.ID, limit, offset)
	if err != nil {
		respondDomainError(w, r, err, "failed to load watch history")
		return
	}

	respondData(w, http.StatusOK, history, "watch history fetched successfully")
}

// uploadFormImage stores the named multipart part in a scratch file and
// hands it to the media store. The scratch file is removed by the store on
// both success and failure.
func (h UserHandler) uploadFormImage(r *http.Request, field string) (media.Upload, error) {
	localPath, err := h.saveUpload(r, field)
	if err != nil {
		return media.Upload{}, err
	}
	return h.Media.UploadImage(r.Context(), localPath)
}

// saveUpload copies the named multipart part to the upload scratch
// directory, preserving the client filename's extension so downstream
// checks can see it.
func (h UserHandler) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return writeScratch(h.UploadDir, header, file)
}

func (h UserHandler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 64 << 20
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func writeScratch(dir string, header *multipart.FileHeader, file multipart.File) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	out, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parsePage reads limit/offset query parameters, clamping them to sane
// bounds.
func parsePage(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

type loginRequest struct {
	Email    string `json:"email"`
	UserName string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type sessionResponse struct {
	User   models.PublicUser    `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}
