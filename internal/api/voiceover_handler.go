package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/storycut/storycut-agent/internal/capture"
)

func listVoiceoversHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracks := cfg.Project.Store().Voiceovers()
		resp := VoiceoversResponse{Voiceovers: make([]VoiceoverResponse, len(tracks))}
		for i, t := range tracks {
			resp.Voiceovers[i] = VoiceoverToResponse(t)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func uploadVoiceoverHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid multipart body", "BAD_REQUEST")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "file field is required", "BAD_REQUEST")
			return
		}
		defer file.Close()

		duration := 0.0
		if d := r.FormValue("duration_seconds"); d != "" {
			if parsed, err := strconv.ParseFloat(d, 64); err == nil && parsed >= 0 {
				duration = parsed
			}
		}

		track, err := cfg.Ingestor.IngestVoiceover(header.Filename, duration, file)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		track = cfg.Project.AddVoiceover(r.Context(), track)
		WriteJSON(w, http.StatusCreated, VoiceoverToResponse(track))
	}
}

func recordVoiceoverHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		take := len(cfg.Project.Store().Voiceovers()) + 1

		track, err := cfg.Recorder.Record(r.Context(), take)
		if err != nil {
			if errors.Is(err, capture.ErrRecordingInFlight) {
				WriteError(w, http.StatusConflict, err.Error(), "RECORDING_IN_FLIGHT")
				return
			}
			WriteError(w, http.StatusInternalServerError, "recording failed", "INTERNAL_ERROR")
			return
		}

		track = cfg.Project.AddVoiceover(r.Context(), track)
		WriteJSON(w, http.StatusCreated, VoiceoverToResponse(track))
	}
}

func deleteVoiceoverHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		track, err := cfg.Project.Store().Voiceover(id)
		if err == nil {
			cfg.Ingestor.Remove(track.Locator)
		}

		cfg.Project.DeleteVoiceover(r.Context(), id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func assignVoiceoverHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req AssignVoiceoverRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sceneID := ""
		if req.SceneID != nil {
			sceneID = *req.SceneID
		}

		if err := cfg.Project.AssignVoiceover(r.Context(), id, sceneID); err != nil {
			writeDomainError(w, err)
			return
		}

		track, err := cfg.Project.Store().Voiceover(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, VoiceoverToResponse(*track))
	}
}

func voiceoverContentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		track, err := cfg.Project.Store().Voiceover(chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if track.Locator == "" {
			// Simulated recordings carry no bytes.
			WriteError(w, http.StatusNotFound, "voiceover has no stored audio", "NOT_FOUND")
			return
		}

		if err := cfg.MediaServer.ServeLocator(w, r, track.Locator); err != nil {
			cfg.Logger.Error("voiceover serving error", "error", err, "voiceover_id", track.ID)
		}
	}
}
