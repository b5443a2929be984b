package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Media:          deps.Media,
		Limiter:        deps.AuthLimiter,
		UploadDir:      deps.UploadDir,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Media:          deps.Media,
		UploadDir:      deps.UploadDir,
		MaxUploadBytes: deps.MaxUploadBytes,
	}

	guard := func(next http.HandlerFunc) http.HandlerFunc {
		return requireAuth(deps.Verifier, deps.Users, next)
	}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/users/register", users.Register)
	mux.HandleFunc("/api/v1/users/login", users.Login)
	mux.HandleFunc("/api/v1/users/refreshAccessToken", users.RefreshAccessToken)
	mux.HandleFunc("/api/v1/users/logout", guard(users.Logout))
	mux.HandleFunc("/api/v1/users/changePassword", guard(users.ChangePassword))
	mux.HandleFunc("/api/v1/users/get-user", guard(users.GetCurrentUser))
	mux.HandleFunc("/api/v1/users/edit-user", guard(users.UpdateProfile))
	mux.HandleFunc("/api/v1/users/avatar-edit-user", guard(users.UpdateAvatar))
	mux.HandleFunc("/api/v1/users/get-user-channel/{userName}", guard(users.ChannelProfile))
	mux.HandleFunc("/api/v1/users/get-watch-hostory", guard(users.WatchHistory))
	mux.HandleFunc("/api/v1/videos", guard(videos.Handle))
	mux.HandleFunc("/api/v1/videos/toggle/publish/{videoId}", guard(videos.TogglePublish))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Videos   VideoStore
	Sessions SessionService
	Verifier AccessVerifier
	Media    MediaStore

	AuthLimiter RateLimiter

	UploadDir      string
	MaxUploadBytes int64
}
