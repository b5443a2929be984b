package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/streamtube/backend/internal/models"
)

func publishRequest(t *testing.T, env *testEnv, token, videoName, thumbName string) *httptest.ResponseRecorder {
	t.Helper()

	fields := map[string]string{
		"title":       "My Video",
		"description": "A description",
	}
	body, contentType := multipartBody(t, fields,
		filePart{field: "videoFile", name: videoName, content: "video-bytes"},
		filePart{field: "thumbnail", name: thumbName, content: "thumb-bytes"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return env.do(req)
}

func TestPublishVideo(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "sam", "sam@example.com", "password123")
	token := env.accessToken(t, owner.ID)

	rec := publishRequest(t, env, token, "clip.mp4", "thumb.png")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	var video models.Video
	if err := json.Unmarshal(resp.Data, &video); err != nil {
		t.Fatalf("decode video: %v", err)
	}
	if video.OwnerID != owner.ID {
		t.Fatalf("expected owner %s got %s", owner.ID, video.OwnerID)
	}
	if video.Published {
		t.Fatal("new videos must start unpublished")
	}
	if video.VideoURL == "" || video.ThumbnailURL == "" {
		t.Fatalf("expected media urls: %+v", video)
	}
	if video.Duration != 42.5 {
		t.Fatalf("expected probed duration, got %f", video.Duration)
	}
	if video.PlaybackURL == "" {
		t.Fatal("expected playback url from media store")
	}
}

func TestPublishValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "tina", "tina@example.com", "password123")
	token := env.accessToken(t, owner.ID)

	// Wrong video container.
	if rec := publishRequest(t, env, token, "clip.mov", "thumb.png"); rec.Code != http.StatusBadRequest {
		t.Fatalf("mov upload: expected 400 got %d", rec.Code)
	}

	// Wrong thumbnail type.
	if rec := publishRequest(t, env, token, "clip.mp4", "thumb.gif"); rec.Code != http.StatusBadRequest {
		t.Fatalf("gif thumbnail: expected 400 got %d", rec.Code)
	}

	// Extension checks are case-insensitive.
	if rec := publishRequest(t, env, token, "CLIP.MP4", "THUMB.JPG"); rec.Code != http.StatusCreated {
		t.Fatalf("uppercase extensions: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	// Blank title.
	body, contentType := multipartBody(t, map[string]string{"title": "  ", "description": "d"},
		filePart{field: "videoFile", name: "clip.mp4", content: "v"},
		filePart{field: "thumbnail", name: "t.png", content: "t"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := env.do(req); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank title: expected 400 got %d", rec.Code)
	}

	// Missing video part.
	body, contentType = multipartBody(t, map[string]string{"title": "t", "description": "d"},
		filePart{field: "thumbnail", name: "t.png", content: "t"},
	)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := env.do(req); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing video: expected 400 got %d", rec.Code)
	}
}

func TestPublishUploadFailure(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "uma", "uma@example.com", "password123")
	token := env.accessToken(t, owner.ID)

	env.media.videoErr = errors.New("upstream unavailable")
	if rec := publishRequest(t, env, token, "clip.mp4", "thumb.png"); rec.Code != http.StatusBadRequest {
		t.Fatalf("failed upload: expected 400 got %d", rec.Code)
	}
}

func TestListPublishedVideos(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "vera", "vera@example.com", "password123")
	viewer := env.addUser(t, "walt", "walt@example.com", "password123")

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		video := models.Video{
			ID:        fmt.Sprintf("video-%d", i),
			OwnerID:   owner.ID,
			Title:     fmt.Sprintf("Video %d", i),
			Published: i%2 == 0,
		}
		if err := env.store.CreateVideo(ctx, video); err != nil {
			t.Fatalf("seed video: %v", err)
		}
	}

	token := env.accessToken(t, viewer.ID)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	var videos []models.VideoWithOwner
	if err := json.Unmarshal(resp.Data, &videos); err != nil {
		t.Fatalf("decode videos: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("expected 3 published videos got %d", len(videos))
	}
	for _, v := range videos {
		if !v.Published {
			t.Fatalf("unpublished video leaked: %+v", v)
		}
		if v.Owner.UserName != "vera" {
			t.Fatalf("missing owner projection: %+v", v)
		}
	}

	// Pagination window.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/videos?limit=1&offset=1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = env.do(req)
	resp = decodeEnvelope(t, rec)
	videos = nil
	if err := json.Unmarshal(resp.Data, &videos); err != nil {
		t.Fatalf("decode videos: %v", err)
	}
	if len(videos) != 1 || videos[0].ID != "video-2" {
		t.Fatalf("unexpected page: %+v", videos)
	}
}

func TestListClampsLimit(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.addUser(t, "xena", "xena@example.com", "password123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos?limit=junk&offset=-4", nil)
	limit, offset := parsePage(req)
	if limit != defaultPageLimit || offset != 0 {
		t.Fatalf("expected defaults, got limit=%d offset=%d", limit, offset)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/videos?limit=100000", nil)
	limit, _ = parsePage(req)
	if limit != maxPageLimit {
		t.Fatalf("expected clamp to %d, got %d", maxPageLimit, limit)
	}

	// The clamped request still succeeds end to end.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/videos?limit=100000", nil)
	req.Header.Set("Authorization", "Bearer "+env.accessToken(t, viewer.ID))
	if rec := env.do(req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestTogglePublish(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "yuri", "yuri@example.com", "password123")
	token := env.accessToken(t, owner.ID)

	ctx := context.Background()
	video := models.Video{ID: "video-1", OwnerID: owner.ID, Title: "Clip", Published: false}
	if err := env.store.CreateVideo(ctx, video); err != nil {
		t.Fatalf("seed video: %v", err)
	}

	toggle := func() models.Video {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/videos/toggle/publish/video-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := env.do(req)
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle: expected 200 got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeEnvelope(t, rec)
		var updated models.Video
		if err := json.Unmarshal(resp.Data, &updated); err != nil {
			t.Fatalf("decode video: %v", err)
		}
		return updated
	}

	if updated := toggle(); !updated.Published {
		t.Fatal("expected video to be published after first toggle")
	}
	if updated := toggle(); updated.Published {
		t.Fatal("expected video to be unpublished after second toggle")
	}

	stored, err := env.store.FindVideoByID(ctx, "video-1")
	if err != nil {
		t.Fatalf("load video: %v", err)
	}
	if stored.Published {
		t.Fatal("store state does not match toggles")
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/videos/toggle/publish/ghost", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := env.do(req); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown video: expected 404 got %d", rec.Code)
	}
}
