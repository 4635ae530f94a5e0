package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storycut/storycut-agent/internal/project"
)

func listScenesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scenes := cfg.Project.Store().Scenes()
		resp := ScenesResponse{Scenes: make([]SceneResponse, len(scenes))}
		for i, s := range scenes {
			resp.Scenes[i] = SceneToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func addSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc := cfg.Project.AddScene(r.Context())
		WriteJSON(w, http.StatusCreated, SceneToResponse(sc))
	}
}

func updateSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var patch project.ScenePatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sc, err := cfg.Project.UpdateScene(r.Context(), id, patch)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if sc == nil {
			WriteError(w, http.StatusNotFound, "scene not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, SceneToResponse(*sc))
	}
}

func deleteSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Project.DeleteScene(r.Context(), chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func reorderSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req ReorderSceneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.BeforeID == "" && req.AfterID == "" {
			WriteError(w, http.StatusBadRequest, "before_id or after_id is required", "BAD_REQUEST")
			return
		}
		if req.BeforeID != "" && req.AfterID != "" {
			WriteError(w, http.StatusBadRequest, "before_id and after_id are mutually exclusive", "BAD_REQUEST")
			return
		}

		cfg.Project.ReorderScene(r.Context(), id, req.BeforeID, req.AfterID)

		scenes := cfg.Project.Store().Scenes()
		resp := ScenesResponse{Scenes: make([]SceneResponse, len(scenes))}
		for i, s := range scenes {
			resp.Scenes[i] = SceneToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func attachAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req AttachAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.AssetID == "" {
			WriteError(w, http.StatusBadRequest, "asset_id is required", "BAD_REQUEST")
			return
		}

		cfg.Project.AddAssetToScene(r.Context(), id, req.AssetID)

		sc, err := cfg.Project.Store().Scene(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SceneToResponse(*sc))
	}
}

func detachAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Project.RemoveAssetFromScene(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "assetID"))
		w.WriteHeader(http.StatusNoContent)
	}
}
