// Package capture stands in for the microphone capture collaborator. A real
// recorder would stream from an input device; this one fabricates a track
// after a fixed session length, which is all the editor needs.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/storycut/storycut-agent/internal/project"
)

// ErrRecordingInFlight is returned when a capture session is requested while
// one is already running.
var ErrRecordingInFlight = errors.New("a recording is already in progress")

// Fabricated track length in seconds.
const recordedDuration = 10

type Recorder struct {
	delay  time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	recording bool
}

func NewRecorder(delay time.Duration, logger *slog.Logger) *Recorder {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Recorder{delay: delay, logger: logger}
}

// Record runs one capture session and returns the resulting track. take is
// the 1-based recording number, used only for naming. The session is
// cancellable through ctx; a cancelled session produces no track.
func (r *Recorder) Record(ctx context.Context, take int) (project.VoiceoverTrack, error) {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return project.VoiceoverTrack{}, ErrRecordingInFlight
	}
	r.recording = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
	}()

	if r.logger != nil {
		r.logger.Info("recording started", "take", take)
	}

	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		if r.logger != nil {
			r.logger.Info("recording cancelled", "take", take)
		}
		return project.VoiceoverTrack{}, ctx.Err()
	case <-timer.C:
	}

	track := project.VoiceoverTrack{
		ID:              project.NewID(),
		Name:            fmt.Sprintf("Recording %d", take),
		DurationSeconds: recordedDuration,
	}
	if r.logger != nil {
		r.logger.Info("recording finished", "take", take, "voiceover_id", track.ID)
	}
	return track, nil
}

// Recording reports whether a session is currently running.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}
