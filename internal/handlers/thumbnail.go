package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"media-uploader/internal/assetstore"
	"media-uploader/internal/logging"
)

// thumbnailTimeout bounds background generation of a single thumbnail,
// including the fetch of the source asset.
const thumbnailTimeout = 60 * time.Second

// ThumbnailRequest asks the service to generate a preview for an
// uploaded asset.
type ThumbnailRequest struct {
	AssetURL string `json:"assetUrl"`
}

// Thumbnail accepts a thumbnail generation request and processes it in
// the background. Clients fire-and-forget this call, so we answer 202 as
// soon as the request is validated.
func (h *Handlers) Thumbnail(w http.ResponseWriter, r *http.Request) {
	var req ThumbnailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AssetURL == "" {
		writeJSONError(w, "assetUrl is required", http.StatusBadRequest)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), thumbnailTimeout)
		defer cancel()

		if _, err := h.generator.Generate(ctx, req.AssetURL); err != nil {
			logging.Warn("Thumbnail generation failed for %s: %v", req.AssetURL, err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "accepted"})
}

// GetThumbnail returns the stored thumbnail record for an asset, looked
// up by its assetUrl query parameter.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	assetURL := r.URL.Query().Get("assetUrl")
	if assetURL == "" {
		writeJSONError(w, "assetUrl is required", http.StatusBadRequest)
		return
	}

	thumb, err := h.store.GetThumbnail(r.Context(), assetURL)
	if err != nil {
		if errors.Is(err, assetstore.ErrNotFound) {
			writeJSONError(w, "thumbnail not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to look up thumbnail for %s: %v", assetURL, err)
		writeJSONError(w, "failed to look up thumbnail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"assetUrl":  thumb.AssetURL,
		"path":      thumb.Path,
		"width":     thumb.Width,
		"height":    thumb.Height,
		"sizeBytes": thumb.SizeBytes,
	})
}
