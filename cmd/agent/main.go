package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storycut/storycut-agent/internal/api"
	"github.com/storycut/storycut-agent/internal/capture"
	"github.com/storycut/storycut-agent/internal/config"
	"github.com/storycut/storycut-agent/internal/db"
	"github.com/storycut/storycut-agent/internal/export"
	"github.com/storycut/storycut-agent/internal/logging"
	"github.com/storycut/storycut-agent/internal/media"
	"github.com/storycut/storycut-agent/internal/project"
	"github.com/storycut/storycut-agent/internal/suggest"
	"github.com/storycut/storycut-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting storycut agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   STORYCUT AGENT v0.1.0                   ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	projectSvc, err := project.Load(context.Background(), repo, logger)
	if err != nil {
		return fmt.Errorf("failed to load project document: %w", err)
	}

	ingestor, err := media.NewIngestor(cfg.MediaDir(), logger)
	if err != nil {
		return fmt.Errorf("failed to prepare media dir: %w", err)
	}
	mediaServer := media.NewServer(cfg.MediaDir(), logger)

	renderer := export.NewSimRenderer(cfg.ArtifactsDir(), cfg.ExportTick(), cfg.ExportStep(), logging.WithComponent(logger, "renderer"))
	orchestrator := export.NewOrchestrator(repo, renderer, logging.WithComponent(logger, "export"))

	recorder := capture.NewRecorder(cfg.RecordDelay(), logging.WithComponent(logger, "capture"))
	suggester := suggest.NewService(cfg.SuggestDelay(), logging.WithComponent(logger, "suggest"))

	apiServer := api.NewServer(api.ServerConfig{
		Port:         cfg.Port(),
		Project:      projectSvc,
		Repository:   repo,
		Orchestrator: orchestrator,
		Ingestor:     ingestor,
		MediaServer:  mediaServer,
		Recorder:     recorder,
		Suggester:    suggester,
		Logger:       logger,
		StartTime:    startTime,
		DeviceID:     deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Project:      projectSvc,
			Orchestrator: orchestrator,
			Logger:       logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	if active := orchestrator.Active(); active != nil {
		logger.Info("cancelling in-flight export", "export_id", active.ID)
		orchestrator.Cancel(context.Background(), active.ID)
		orchestrator.Wait(active.ID)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
