package export

import (
	"strings"

	"github.com/storycut/storycut-agent/internal/project"
)

// Resolution frame sizes, as shown in the export dialog.
var resolutions = map[string][2]int{
	"720p":  {1280, 720},
	"1080p": {1920, 1080},
	"4k":    {3840, 2160},
}

var formats = map[string]bool{
	"mp4": true,
	"mov": true,
}

var qualities = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
}

var watermarkPositions = map[string]bool{
	"top-left":     true,
	"top-right":    true,
	"bottom-left":  true,
	"bottom-right": true,
}

// ValidateSettings checks enum membership and the watermark sub-object.
// Settings are a pure value object; nothing is normalised in place.
func ValidateSettings(s project.ExportSettings) error {
	if _, ok := resolutions[s.Resolution]; !ok {
		return &project.ValidationError{Field: "resolution", Reason: "must be one of 720p, 1080p, 4k"}
	}
	if !formats[s.Format] {
		return &project.ValidationError{Field: "format", Reason: "must be one of mp4, mov"}
	}
	if !qualities[s.Quality] {
		return &project.ValidationError{Field: "quality", Reason: "must be one of low, medium, high"}
	}
	if s.Watermark != nil {
		if strings.TrimSpace(s.Watermark.Text) == "" {
			return &project.ValidationError{Field: "watermark.text", Reason: "must not be empty"}
		}
		if !watermarkPositions[s.Watermark.Position] {
			return &project.ValidationError{
				Field:  "watermark.position",
				Reason: "must be one of top-left, top-right, bottom-left, bottom-right",
			}
		}
	}
	return nil
}

// FrameSize returns the pixel dimensions for a validated resolution.
func FrameSize(resolution string) (width, height int) {
	dims := resolutions[resolution]
	return dims[0], dims[1]
}
