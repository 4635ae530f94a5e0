package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/storycut/storycut-agent/internal/project"
)

// ProgressFunc receives percentages in 0..100. Implementations of Renderer
// must never call it with a value lower than one already reported.
type ProgressFunc func(percent int)

// Renderer turns a timeline and settings into an artifact on disk. The real
// encode pipeline lives outside this repository; the orchestrator only
// depends on this contract.
type Renderer interface {
	Render(ctx context.Context, tl project.Timeline, settings project.ExportSettings, progress ProgressFunc) (string, error)
}

// SimRenderer fabricates an export: it advances progress on a ticker and
// writes a render manifest as the artifact. It honours cancellation between
// ticks and reports 100 before returning.
type SimRenderer struct {
	dir    string
	tick   time.Duration
	step   int
	logger *slog.Logger
}

func NewSimRenderer(artifactsDir string, tick time.Duration, step int, logger *slog.Logger) *SimRenderer {
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	if step <= 0 {
		step = 10
	}
	return &SimRenderer{dir: artifactsDir, tick: tick, step: step, logger: logger}
}

// renderManifest is the fabricated artifact payload.
type renderManifest struct {
	Resolution   string    `json:"resolution"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Format       string    `json:"format"`
	Quality      string    `json:"quality"`
	SceneCount   int       `json:"scene_count"`
	TotalSeconds int       `json:"total_seconds"`
	RenderedAt   time.Time `json:"rendered_at"`
}

func (r *SimRenderer) Render(ctx context.Context, tl project.Timeline, settings project.ExportSettings, progress ProgressFunc) (string, error) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	pct := 0
	for pct < 100 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			pct += r.step
			if pct > 100 {
				pct = 100
			}
			progress(pct)
		}
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create artifacts dir: %w", err)
	}

	width, height := FrameSize(settings.Resolution)
	manifest := renderManifest{
		Resolution:   settings.Resolution,
		Width:        width,
		Height:       height,
		Format:       settings.Format,
		Quality:      settings.Quality,
		SceneCount:   len(tl.Entries),
		TotalSeconds: tl.TotalSeconds,
		RenderedAt:   time.Now(),
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("export_%d.%s.json", time.Now().UnixNano(), settings.Format)
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("render complete", "artifact", path, "scenes", len(tl.Entries))
	}
	return path, nil
}
