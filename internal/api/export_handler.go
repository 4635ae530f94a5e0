package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storycut/storycut-agent/internal/export"
)

func startExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		tl := cfg.Project.Timeline()

		job, err := cfg.Orchestrator.Start(r.Context(), tl, req.Settings)
		if err != nil {
			switch {
			case errors.Is(err, export.ErrEmptyTimeline):
				WriteError(w, http.StatusUnprocessableEntity, err.Error(), "EMPTY_TIMELINE")
			case errors.Is(err, export.ErrExportInFlight):
				WriteError(w, http.StatusConflict, err.Error(), "EXPORT_IN_FLIGHT")
			default:
				writeDomainError(w, err)
			}
			return
		}

		// Settings that started an export become the document's defaults for
		// the next dialog session.
		cfg.Project.SetExportSettings(r.Context(), req.Settings)

		WriteJSON(w, http.StatusAccepted, ExportToResponse(job))
	}
}

func getExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := cfg.Orchestrator.Get(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "export not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ExportToResponse(job))
	}
}

func listExportsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListExports(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list exports", "INTERNAL_ERROR")
			return
		}

		resp := ExportsResponse{Exports: make([]ExportResponse, len(jobs))}
		for i, j := range jobs {
			if act := cfg.Orchestrator.Active(); act != nil && act.ID == j.ID {
				j = act
			}
			resp.Exports[i] = ExportToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func cancelExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := cfg.Orchestrator.Cancel(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}
