package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeObjectSaver struct {
	keys []string
	err  error
}

func (f *fakeObjectSaver) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.keys = append(f.keys, name)
	return "https://cdn.example.com/" + name, nil
}

type fixedProber struct {
	duration float64
	err      error
}

func (p fixedProber) Probe(context.Context, string) (float64, error) {
	return p.duration, p.err
}

func writeScratchFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("payload"), 0o600); err != nil {
		t.Fatalf("write scratch file: %v", err)
	}
	return path
}

func TestS3StoreUploadImage(t *testing.T) {
	saver := &fakeObjectSaver{}
	store := NewS3Store(saver, nil, "")
	store.newKey = func() string { return "key-1" }

	path := writeScratchFile(t, "avatar.PNG")

	upload, err := store.UploadImage(context.Background(), path)
	if err != nil {
		t.Fatalf("upload image: %v", err)
	}
	if upload.URL != "https://cdn.example.com/images/key-1.png" {
		t.Fatalf("unexpected url %q", upload.URL)
	}
	if upload.Duration != 0 || upload.PlaybackURL != "" {
		t.Fatalf("image uploads carry no duration or playback url: %+v", upload)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected scratch file to be removed after upload")
	}
}

func TestS3StoreUploadImageFailureStillRemovesFile(t *testing.T) {
	saver := &fakeObjectSaver{err: errors.New("service unreachable")}
	store := NewS3Store(saver, nil, "")

	path := writeScratchFile(t, "avatar.png")

	if _, err := store.UploadImage(context.Background(), path); err == nil {
		t.Fatal("expected upload error")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected scratch file to be removed after failed upload")
	}
}

func TestS3StoreUploadVideo(t *testing.T) {
	saver := &fakeObjectSaver{}
	store := NewS3Store(saver, fixedProber{duration: 42.5}, "https://stream.example.com/")
	store.newKey = func() string { return "key-2" }

	path := writeScratchFile(t, "clip.mp4")

	upload, err := store.UploadVideo(context.Background(), path)
	if err != nil {
		t.Fatalf("upload video: %v", err)
	}
	if upload.URL != "https://cdn.example.com/videos/key-2.mp4" {
		t.Fatalf("unexpected url %q", upload.URL)
	}
	if upload.PlaybackURL != "https://stream.example.com/videos/key-2.m3u8" {
		t.Fatalf("unexpected playback url %q", upload.PlaybackURL)
	}
	if upload.Duration != 42.5 {
		t.Fatalf("expected probed duration got %v", upload.Duration)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected scratch file to be removed after upload")
	}
}

func TestS3StoreUploadVideoProbeFailure(t *testing.T) {
	saver := &fakeObjectSaver{}
	store := NewS3Store(saver, fixedProber{err: errors.New("unreadable")}, "")

	path := writeScratchFile(t, "clip.mp4")

	if _, err := store.UploadVideo(context.Background(), path); err == nil {
		t.Fatal("expected probe error")
	}
	if len(saver.keys) != 0 {
		t.Fatalf("expected no upload after probe failure, got %v", saver.keys)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected scratch file to be removed after probe failure")
	}
}

func TestS3StoreUploadVideoWithoutPlaybackBase(t *testing.T) {
	saver := &fakeObjectSaver{}
	store := NewS3Store(saver, fixedProber{duration: 1}, "")

	path := writeScratchFile(t, "clip.mp4")

	upload, err := store.UploadVideo(context.Background(), path)
	if err != nil {
		t.Fatalf("upload video: %v", err)
	}
	if upload.PlaybackURL != "" {
		t.Fatalf("expected empty playback url got %q", upload.PlaybackURL)
	}
	if !strings.HasPrefix(upload.URL, "https://cdn.example.com/videos/") {
		t.Fatalf("unexpected url %q", upload.URL)
	}
}
