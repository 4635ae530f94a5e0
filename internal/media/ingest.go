package media

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/storycut/storycut-agent/internal/project"
)

// KindForMIME maps a declared content type onto an asset kind: image/* is
// image, video/* is video, anything else is treated as audio.
func KindForMIME(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return project.KindImage
	case strings.HasPrefix(ct, "video/"):
		return project.KindVideo
	default:
		return project.KindAudio
	}
}

// Ingestor writes uploaded blobs into the media directory and produces asset
// records. The locator it assigns is the stored file name, relative to the
// media dir; nothing outside this package interprets it.
type Ingestor struct {
	dir    string
	logger *slog.Logger
}

func NewIngestor(mediaDir string, logger *slog.Logger) (*Ingestor, error) {
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create media dir: %w", err)
	}
	return &Ingestor{dir: mediaDir, logger: logger}, nil
}

func (in *Ingestor) Dir() string {
	return in.dir
}

// IngestAsset stores the blob and returns an asset record without touching
// the project document; the caller registers the record with the store.
func (in *Ingestor) IngestAsset(name, contentType string, body io.Reader) (project.MediaAsset, error) {
	id := project.NewID()
	locator, size, err := in.write(id, name, body)
	if err != nil {
		return project.MediaAsset{}, err
	}

	asset := project.MediaAsset{
		ID:        id,
		Name:      name,
		Kind:      KindForMIME(contentType),
		Locator:   locator,
		SizeBytes: size,
	}
	if in.logger != nil {
		in.logger.Info("asset ingested", "asset_id", id, "kind", asset.Kind, "size", size)
	}
	return asset, nil
}

// IngestVoiceover stores an uploaded audio blob as a voiceover track record.
func (in *Ingestor) IngestVoiceover(name string, durationSeconds float64, body io.Reader) (project.VoiceoverTrack, error) {
	id := project.NewID()
	locator, _, err := in.write(id, name, body)
	if err != nil {
		return project.VoiceoverTrack{}, err
	}

	return project.VoiceoverTrack{
		ID:              id,
		Name:            name,
		Locator:         locator,
		DurationSeconds: durationSeconds,
	}, nil
}

func (in *Ingestor) write(id, name string, body io.Reader) (string, int64, error) {
	// Uploaded names are untrusted; only their extension survives into the
	// stored file name.
	ext := filepath.Ext(filepath.Base(name))
	stored := id + ext

	f, err := os.Create(filepath.Join(in.dir, stored))
	if err != nil {
		return "", 0, fmt.Errorf("failed to store upload: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, body)
	if err != nil {
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("failed to store upload: %w", err)
	}
	return stored, size, nil
}

// Remove deletes the stored bytes behind a locator. Missing files are not an
// error; the document reference is already gone.
func (in *Ingestor) Remove(locator string) {
	if locator == "" {
		return
	}
	path := filepath.Join(in.dir, filepath.Base(locator))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) && in.logger != nil {
		in.logger.Warn("failed to remove media file", "locator", locator, "error", err)
	}
}

// ContentType guesses a serving content type from a locator's extension.
func ContentType(locator string) string {
	ct := mime.TypeByExtension(filepath.Ext(locator))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
