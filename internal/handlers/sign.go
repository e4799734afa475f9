package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"media-uploader/internal/assetstore"
	"media-uploader/internal/logging"
	"media-uploader/internal/signing"
)

// Sign authorizes a single upload. The client describes the file it wants
// to send and receives a pre-signed upload URL, the final asset URL and a
// short-lived credential in return.
func (h *Handlers) Sign(w http.ResponseWriter, r *http.Request) {
	var req signing.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	auth, err := h.signer.Authorize(r.Context(), req)
	if err != nil {
		var verr *signing.ValidationError
		if errors.As(err, &verr) {
			logging.Debug("Sign request rejected: %s (file=%s)", verr.Reason, req.FileName)
			writeJSONError(w, verr.Reason, http.StatusBadRequest)
			return
		}
		logging.Error("Failed to authorize upload for %s: %v", req.FileName, err)
		writeJSONError(w, "failed to authorize upload", http.StatusInternalServerError)
		return
	}

	// Record the asset now so it is queryable as soon as the client
	// finishes the transfer.
	if h.store != nil {
		_, err := h.store.RecordAsset(r.Context(), assetstore.Asset{
			Key:         auth.Key,
			URL:         auth.AssetURL,
			ContentType: auth.ContentType,
			SizeBytes:   req.SizeBytes,
		})
		if err != nil {
			logging.Warn("Failed to record asset %s: %v", auth.Key, err)
		}
	}

	logging.Debug("Authorized upload: key=%s size=%d", auth.Key, req.SizeBytes)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, auth)
}
