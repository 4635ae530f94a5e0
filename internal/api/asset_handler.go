package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Uploads are buffered up to this many bytes in memory; larger files spill to
// temp files.
const maxUploadMemory = 32 << 20

func listAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets := cfg.Project.Store().Assets()
		resp := AssetsResponse{Assets: make([]AssetResponse, len(assets))}
		for i, a := range assets {
			resp.Assets[i] = AssetToResponse(a)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func uploadAssetHandler(cfg ServerConfig) http.HandlerFunc {
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

		asset, err := cfg.Ingestor.IngestAsset(header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		// The editor may know the clip length from the <video> element; trust
		// it, the renderer is simulated anyway.
		if d := r.FormValue("duration_seconds"); d != "" {
			if parsed, err := strconv.ParseFloat(d, 64); err == nil && parsed >= 0 {
				asset.DurationSeconds = parsed
			}
		}

		asset = cfg.Project.AddAsset(r.Context(), asset)
		WriteJSON(w, http.StatusCreated, AssetToResponse(asset))
	}
}

func deleteAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		asset, err := cfg.Project.Store().Asset(id)
		if err == nil {
			cfg.Ingestor.Remove(asset.Locator)
		}

		cfg.Project.DeleteAsset(r.Context(), id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func assetContentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, err := cfg.Project.Store().Asset(chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if err := cfg.MediaServer.ServeLocator(w, r, asset.Locator); err != nil {
			cfg.Logger.Error("asset serving error", "error", err, "asset_id", asset.ID)
		}
	}
}
