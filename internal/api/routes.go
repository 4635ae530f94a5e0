package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/storycut/storycut-agent/internal/config"
	"github.com/storycut/storycut-agent/internal/project"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSMiddleware())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/project", projectHandler(cfg))

		r.Get("/script", getScriptHandler(cfg))
		r.Put("/script", updateScriptHandler(cfg))
		r.Post("/script/suggest", suggestScriptHandler(cfg))

		r.Get("/scenes", listScenesHandler(cfg))
		r.Post("/scenes", addSceneHandler(cfg))
		r.Patch("/scenes/{id}", updateSceneHandler(cfg))
		r.Delete("/scenes/{id}", deleteSceneHandler(cfg))
		r.Post("/scenes/{id}/reorder", reorderSceneHandler(cfg))
		r.Post("/scenes/{id}/assets", attachAssetHandler(cfg))
		r.Delete("/scenes/{id}/assets/{assetID}", detachAssetHandler(cfg))

		r.Get("/assets", listAssetsHandler(cfg))
		r.Post("/assets", uploadAssetHandler(cfg))
		r.Delete("/assets/{id}", deleteAssetHandler(cfg))
		r.Get("/assets/{id}/content", assetContentHandler(cfg))

		r.Get("/voiceovers", listVoiceoversHandler(cfg))
		r.Post("/voiceovers", uploadVoiceoverHandler(cfg))
		r.Post("/voiceovers/record", recordVoiceoverHandler(cfg))
		r.Delete("/voiceovers/{id}", deleteVoiceoverHandler(cfg))
		r.Put("/voiceovers/{id}/scene", assignVoiceoverHandler(cfg))
		r.Get("/voiceovers/{id}/content", voiceoverContentHandler(cfg))

		r.Get("/timeline", timelineHandler(cfg))

		r.Get("/exports", listExportsHandler(cfg))
		r.Post("/exports", startExportHandler(cfg))
		r.Get("/exports/{id}", getExportHandler(cfg))
		r.Post("/exports/{id}/cancel", cancelExportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := cfg.Project.Snapshot()
		tl := cfg.Project.Timeline()

		state := "idle"
		var active *ExportResponse
		if e := cfg.Orchestrator.Active(); e != nil {
			state = "exporting"
			resp := ExportToResponse(e)
			active = &resp
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:           state,
			SceneCount:      len(doc.Scenes),
			AssetCount:      len(doc.Assets),
			VoiceoverCount:  len(doc.Voiceovers),
			TimelineSeconds: tl.TotalSeconds,
			Revision:        doc.Revision,
			ActiveExport:    active,
		})
	}
}

func projectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Project.Snapshot())
	}
}

func getScriptHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, ScriptResponse{Script: cfg.Project.Script()})
	}
}

func updateScriptHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateScriptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Project.SetScript(r.Context(), req.Script)
		WriteJSON(w, http.StatusOK, ScriptResponse{Script: req.Script})
	}
}

func suggestScriptHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := cfg.Suggester.Suggest(r.Context(), cfg.Project.Script())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "suggestion unavailable", "INTERNAL_ERROR")
			return
		}
		script := cfg.Project.AppendScript(r.Context(), text)
		WriteJSON(w, http.StatusOK, ScriptResponse{Script: script})
	}
}

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Project.Timeline())
	}
}

// writeDomainError maps the store's error taxonomy onto HTTP statuses:
// validation failures surface as 400, missing entities on read paths as 404.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case project.IsValidation(err):
		WriteError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case project.IsNotFound(err):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
