package export

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/storycut/storycut-agent/internal/project"
)

// Orchestrator runs at most one export at a time. A request against an empty
// timeline fails before any progress is emitted; a request while an export is
// running is rejected, never queued. Progress is monotonic and completion is
// only ever reported at 100.
type Orchestrator struct {
	repo     project.Repository
	renderer Renderer
	logger   *slog.Logger

	mu     sync.Mutex
	active *activeExport
}

type activeExport struct {
	export project.Export
	cancel context.CancelFunc
	done   chan struct{}
}

func NewOrchestrator(repo project.Repository, renderer Renderer, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{repo: repo, renderer: renderer, logger: logger}
}

// Start validates the request, claims the single flight slot and launches the
// render in the background. The returned export is the pending job record.
func (o *Orchestrator) Start(ctx context.Context, tl project.Timeline, settings project.ExportSettings) (*project.Export, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	if len(tl.Entries) == 0 {
		return nil, ErrEmptyTimeline
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return nil, ErrExportInFlight
	}

	now := time.Now()
	e := project.Export{
		ID:        project.NewID(),
		Status:    project.ExportStatusPending,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.repo.CreateExport(ctx, &e); err != nil {
		return nil, err
	}

	renderCtx, cancel := context.WithCancel(context.Background())
	act := &activeExport{export: e, cancel: cancel, done: make(chan struct{})}
	o.active = act

	go o.run(renderCtx, act, tl, settings)

	out := e
	return &out, nil
}

func (o *Orchestrator) run(ctx context.Context, act *activeExport, tl project.Timeline, settings project.ExportSettings) {
	defer close(act.done)
	defer func() {
		o.mu.Lock()
		o.active = nil
		o.mu.Unlock()
	}()

	id := act.export.ID
	bg := context.Background()

	o.setStatus(bg, act, project.ExportStatusRunning, "", "")
	if o.logger != nil {
		o.logger.Info("export started", "export_id", id, "scenes", len(tl.Entries), "total_seconds", tl.TotalSeconds)
	}

	onProgress := func(pct int) {
		o.mu.Lock()
		if pct <= act.export.Progress || act.export.Status != project.ExportStatusRunning {
			o.mu.Unlock()
			return
		}
		if pct > 100 {
			pct = 100
		}
		act.export.Progress = pct
		o.mu.Unlock()
		if err := o.repo.UpdateExportProgress(bg, id, pct); err != nil && o.logger != nil {
			o.logger.Warn("failed to persist export progress", "export_id", id, "error", err)
		}
	}

	artifact, err := o.renderer.Render(ctx, tl, settings, onProgress)
	switch {
	case errors.Is(err, context.Canceled):
		o.setStatus(bg, act, project.ExportStatusCancelled, "cancelled by user", "")
		if o.logger != nil {
			o.logger.Info("export cancelled", "export_id", id)
		}
	case err != nil:
		o.setStatus(bg, act, project.ExportStatusFailed, err.Error(), "")
		if o.logger != nil {
			o.logger.Error("export failed", "export_id", id, "error", err)
		}
	default:
		// The renderer contract requires progress to have reached 100 before
		// a successful return; completion is never reported short of it.
		onProgress(100)
		o.setStatus(bg, act, project.ExportStatusCompleted, "", artifact)
		if o.logger != nil {
			o.logger.Info("export completed", "export_id", id, "artifact", artifact)
		}
	}
}

func (o *Orchestrator) setStatus(ctx context.Context, act *activeExport, status, errMsg, artifact string) {
	o.mu.Lock()
	act.export.Status = status
	act.export.Error = errMsg
	act.export.ArtifactPath = artifact
	act.export.UpdatedAt = time.Now()
	o.mu.Unlock()

	if err := o.repo.UpdateExportStatus(ctx, act.export.ID, status, errMsg, artifact); err != nil && o.logger != nil {
		o.logger.Warn("failed to persist export status", "export_id", act.export.ID, "error", err)
	}
}

// Cancel stops the in-flight export. Cancelling an export that already
// reached a terminal state is a no-op; an unknown id is NotFoundError.
func (o *Orchestrator) Cancel(ctx context.Context, id string) error {
	o.mu.Lock()
	if o.active != nil && o.active.export.ID == id {
		cancel := o.active.cancel
		o.mu.Unlock()
		cancel()
		return nil
	}
	o.mu.Unlock()

	e, err := o.repo.GetExport(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return &project.NotFoundError{Kind: "export", ID: id}
	}
	return nil
}

// Active returns a copy of the in-flight export, or nil when idle.
func (o *Orchestrator) Active() *project.Export {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return nil
	}
	e := o.active.export
	return &e
}

// Get returns the current view of one export, preferring in-memory state for
// the active job.
func (o *Orchestrator) Get(ctx context.Context, id string) (*project.Export, error) {
	if act := o.Active(); act != nil && act.ID == id {
		return act, nil
	}
	return o.repo.GetExport(ctx, id)
}

// Wait blocks until the export identified by id has reached a terminal state.
// It exists for the benefit of shutdown and tests.
func (o *Orchestrator) Wait(id string) {
	o.mu.Lock()
	if o.active == nil || o.active.export.ID != id {
		o.mu.Unlock()
		return
	}
	done := o.active.done
	o.mu.Unlock()
	<-done
}
