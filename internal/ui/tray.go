package ui

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"
	"github.com/storycut/storycut-agent/internal/export"
	"github.com/storycut/storycut-agent/internal/project"
)

type Tray struct {
	projectSvc   *project.Service
	orchestrator *export.Orchestrator
	logger       *slog.Logger

	statusItem *systray.MenuItem
	scenesItem *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Project      *project.Service
	Orchestrator *export.Orchestrator
	Logger       *slog.Logger
	OnQuit       func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		projectSvc:   cfg.Project,
		orchestrator: cfg.Orchestrator,
		logger:       cfg.Logger,
		onQuit:       cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Storycut")
	systray.SetTooltip("Storycut Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.scenesItem = systray.AddMenuItem("Scenes: 0", "Scenes on the storyboard")
	t.scenesItem.Disable()

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Storycut Agent")

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			case <-ticker.C:
				t.refresh()
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if active := t.orchestrator.Active(); active != nil {
		t.statusItem.SetTitle(fmt.Sprintf("Status: Exporting %d%%", active.Progress))
	} else {
		t.statusItem.SetTitle("Status: Idle")
	}
	t.scenesItem.SetTitle(fmt.Sprintf("Scenes: %d", len(t.projectSvc.Store().Scenes())))
}

func (t *Tray) Quit() {
	systray.Quit()
}
