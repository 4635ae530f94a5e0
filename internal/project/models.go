package project

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindImage = "image"
	KindVideo = "video"
	KindAudio = "audio"

	TransitionNone     = "none"
	TransitionFade     = "fade"
	TransitionSlide    = "slide"
	TransitionZoom     = "zoom"
	TransitionDissolve = "dissolve"
	TransitionWipe     = "wipe"

	// Scene duration bounds in seconds, matching the editor's slider.
	MinSceneDuration = 1
	MaxSceneDuration = 60

	DefaultSceneDuration = 5
	DefaultTransition    = TransitionFade
)

var Transitions = map[string]bool{
	TransitionNone:     true,
	TransitionFade:     true,
	TransitionSlide:    true,
	TransitionZoom:     true,
	TransitionDissolve: true,
	TransitionWipe:     true,
}

var AssetKinds = map[string]bool{
	KindImage: true,
	KindVideo: true,
	KindAudio: true,
}

// MediaAsset is an ingested image, video or audio file available to scenes.
// Assets are immutable after ingestion; their lifetime is independent of the
// scenes that reference them.
type MediaAsset struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Kind            string    `json:"kind"`
	Locator         string    `json:"locator"`
	SizeBytes       int64     `json:"size_bytes,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Scene is one ordered unit of the storyboard timeline. Order values form a
// permutation of 0..N-1 across all scenes at all times.
type Scene struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DurationSeconds int      `json:"duration_seconds"`
	MediaAssetIDs   []string `json:"media_asset_ids"`
	Transition      string   `json:"transition"`
	Order           int      `json:"order"`
}

// VoiceoverTrack is an audio clip optionally bound to one scene. A scene may
// be the target of any number of tracks.
type VoiceoverTrack struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Locator         string    `json:"locator"`
	DurationSeconds float64   `json:"duration_seconds"`
	SceneID         string    `json:"scene_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Watermark overlays text in one corner of the exported video.
type Watermark struct {
	Text     string `json:"text"`
	Position string `json:"position"`
}

// ExportSettings is the value object the export dialog edits. It has no
// lifecycle of its own; the last used settings are kept on the document.
type ExportSettings struct {
	Resolution      string     `json:"resolution"`
	Format          string     `json:"format"`
	Quality         string     `json:"quality"`
	IncludeBranding bool       `json:"include_branding"`
	Watermark       *Watermark `json:"watermark,omitempty"`
}

// DefaultExportSettings matches the export dialog's initial state.
func DefaultExportSettings() ExportSettings {
	return ExportSettings{
		Resolution: "1080p",
		Format:     "mp4",
		Quality:    "high",
	}
}

// Document is the full project state: the unit of persistence.
type Document struct {
	Script         string           `json:"script"`
	Scenes         []Scene          `json:"scenes"`
	Assets         []MediaAsset     `json:"assets"`
	Voiceovers     []VoiceoverTrack `json:"voiceovers"`
	ExportSettings ExportSettings   `json:"export_settings"`
	Revision       int64            `json:"revision"`
}

// ScenePatch carries the updatable scene fields for UpdateScene. Nil fields
// are left untouched; Order is deliberately absent (only reorder moves it).
type ScenePatch struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	Transition      *string `json:"transition,omitempty"`
}

const (
	ExportStatusPending   = "pending"
	ExportStatusRunning   = "running"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
	ExportStatusCancelled = "cancelled"
)

// Export is one export attempt, persisted for history and status polling.
type Export struct {
	ID           string         `json:"id"`
	Status       string         `json:"status"`
	Settings     ExportSettings `json:"settings"`
	Progress     int            `json:"progress"`
	ArtifactPath string         `json:"artifact_path,omitempty"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}
