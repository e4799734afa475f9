package handlers

import (
	"net/http"
	"strconv"

	"media-uploader/internal/logging"
)

// AssetResponse is the JSON shape of a recorded asset.
type AssetResponse struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	CreatedAt   string `json:"createdAt"`
}

// ListAssets returns recently authorized assets, newest first. An
// optional limit query parameter caps the result count.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	assets, err := h.store.ListAssets(r.Context(), limit)
	if err != nil {
		logging.Error("Failed to list assets: %v", err)
		writeJSONError(w, "failed to list assets", http.StatusInternalServerError)
		return
	}

	response := make([]AssetResponse, 0, len(assets))
	for _, a := range assets {
		response = append(response, AssetResponse{
			Key:         a.Key,
			URL:         a.URL,
			ContentType: a.ContentType,
			SizeBytes:   a.SizeBytes,
			CreatedAt:   a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}
