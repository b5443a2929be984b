// Package media adapts local scratch files into durable media-store objects.
// Uploads return an explicit result so callers can tell a rejected file from
// an unreachable service, and the scratch file is always removed, whether
// the upload succeeds or fails.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/streamtube/backend/internal/logging"
)

// Upload is the result of a media-store upload.
type Upload struct {
	URL         string
	PlaybackURL string
	Duration    float64
}

// ObjectSaver persists a named object and returns its public location.
type ObjectSaver interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// DurationProber reports the playable duration of a local media file in
// seconds.
type DurationProber interface {
	Probe(ctx context.Context, path string) (float64, error)
}

// S3Store uploads local files to object storage, probing video durations on
// the way through.
type S3Store struct {
	objects         ObjectSaver
	prober          DurationProber
	playbackBaseURL string

	newKey func() string
}

// NewS3Store constructs a media store over the provided object saver. The
// playback base URL, when set, is used to derive adaptive-streaming URLs for
// uploaded videos.
func NewS3Store(objects ObjectSaver, prober DurationProber, playbackBaseURL string) *S3Store {
	if objects == nil {
		panic("media: object saver must not be nil")
	}
	return &S3Store{
		objects:         objects,
		prober:          prober,
		playbackBaseURL: strings.TrimSuffix(playbackBaseURL, "/"),
		newKey:          uuid.NewString,
	}
}

// UploadImage stores a local image file and returns its public URL. The
// local file is removed before returning, on success and on failure.
func (s *S3Store) UploadImage(ctx context.Context, localPath string) (Upload, error) {
	ctx, span := logging.StartSpan(ctx, "media.upload_image")
	defer span.End()
	defer removeLocal(localPath)

	file, err := os.Open(localPath)
	if err != nil {
		return Upload{}, fmt.Errorf("open image %s: %w", localPath, err)
	}
	defer file.Close()

	key := path.Join("images", s.newKey()+strings.ToLower(filepath.Ext(localPath)))
	url, err := s.objects.Save(ctx, key, file)
	if err != nil {
		return Upload{}, fmt.Errorf("upload image: %w", err)
	}

	return Upload{URL: url}, nil
}

// UploadVideo stores a local video file, probes its duration, and returns
// the public URL plus a derived playback URL when one is configured. The
// local file is removed before returning, on success and on failure.
func (s *S3Store) UploadVideo(ctx context.Context, localPath string) (Upload, error) {
	ctx, span := logging.StartSpan(ctx, "media.upload_video")
	defer span.End()
	defer removeLocal(localPath)

	duration := 0.0
	if s.prober != nil {
		probed, err := s.prober.Probe(ctx, localPath)
		if err != nil {
			return Upload{}, fmt.Errorf("probe video duration: %w", err)
		}
		duration = probed
	}

	file, err := os.Open(localPath)
	if err != nil {
		return Upload{}, fmt.Errorf("open video %s: %w", localPath, err)
	}
	defer file.Close()

	base := s.newKey()
	key := path.Join("videos", base+strings.ToLower(filepath.Ext(localPath)))
	url, err := s.objects.Save(ctx, key, file)
	if err != nil {
		return Upload{}, fmt.Errorf("upload video: %w", err)
	}

	playback := ""
	if s.playbackBaseURL != "" {
		playback = fmt.Sprintf("%s/videos/%s.m3u8", s.playbackBaseURL, base)
	}

	return Upload{URL: url, PlaybackURL: playback, Duration: duration}, nil
}

func removeLocal(localPath string) {
	if localPath == "" {
		return
	}
	_ = os.Remove(localPath)
}
