package api

import (
	"time"

	"github.com/storycut/storycut-agent/internal/project"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State           string          `json:"state"`
	SceneCount      int             `json:"scene_count"`
	AssetCount      int             `json:"asset_count"`
	VoiceoverCount  int             `json:"voiceover_count"`
	TimelineSeconds int             `json:"timeline_seconds"`
	Revision        int64           `json:"revision"`
	ActiveExport    *ExportResponse `json:"active_export,omitempty"`
}

type ScriptResponse struct {
	Script string `json:"script"`
}

type UpdateScriptRequest struct {
	Script string `json:"script"`
}

type SceneResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DurationSeconds int      `json:"duration_seconds"`
	MediaAssetIDs   []string `json:"media_asset_ids"`
	Transition      string   `json:"transition"`
	Order           int      `json:"order"`
}

type ScenesResponse struct {
	Scenes []SceneResponse `json:"scenes"`
}

type ReorderSceneRequest struct {
	BeforeID string `json:"before_id,omitempty"`
	AfterID  string `json:"after_id,omitempty"`
}

type AttachAssetRequest struct {
	AssetID string `json:"asset_id"`
}

type AssetResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Kind            string  `json:"kind"`
	SizeBytes       int64   `json:"size_bytes,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type AssetsResponse struct {
	Assets []AssetResponse `json:"assets"`
}

type VoiceoverResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	DurationSeconds float64 `json:"duration_seconds"`
	SceneID         string  `json:"scene_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type VoiceoversResponse struct {
	Voiceovers []VoiceoverResponse `json:"voiceovers"`
}

type AssignVoiceoverRequest struct {
	SceneID *string `json:"scene_id"`
}

type ExportRequest struct {
	Settings project.ExportSettings `json:"settings"`
}

type ExportResponse struct {
	ID           string                 `json:"id"`
	Status       string                 `json:"status"`
	Settings     project.ExportSettings `json:"settings"`
	Progress     int                    `json:"progress"`
	ArtifactPath string                 `json:"artifact_path,omitempty"`
	Error        string                 `json:"error,omitempty"`
	CreatedAt    string                 `json:"created_at"`
	UpdatedAt    string                 `json:"updated_at"`
}

type ExportsResponse struct {
	Exports []ExportResponse `json:"exports"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SceneToResponse(s project.Scene) SceneResponse {
	ids := s.MediaAssetIDs
	if ids == nil {
		ids = []string{}
	}
	return SceneResponse{
		ID:              s.ID,
		Title:           s.Title,
		Description:     s.Description,
		DurationSeconds: s.DurationSeconds,
		MediaAssetIDs:   ids,
		Transition:      s.Transition,
		Order:           s.Order,
	}
}

func AssetToResponse(a project.MediaAsset) AssetResponse {
	return AssetResponse{
		ID:              a.ID,
		Name:            a.Name,
		Kind:            a.Kind,
		SizeBytes:       a.SizeBytes,
		DurationSeconds: a.DurationSeconds,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
}

func VoiceoverToResponse(v project.VoiceoverTrack) VoiceoverResponse {
	return VoiceoverResponse{
		ID:              v.ID,
		Name:            v.Name,
		DurationSeconds: v.DurationSeconds,
		SceneID:         v.SceneID,
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
	}
}

func ExportToResponse(e *project.Export) ExportResponse {
	return ExportResponse{
		ID:           e.ID,
		Status:       e.Status,
		Settings:     e.Settings,
		Progress:     e.Progress,
		ArtifactPath: e.ArtifactPath,
		Error:        e.Error,
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    e.UpdatedAt.Format(time.RFC3339),
	}
}
