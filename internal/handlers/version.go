package handlers

import (
	"net/http"

	"media-uploader/internal/startup"
)

// Version returns the application version and build information
func (h *Handlers) Version(w http.ResponseWriter, _ *http.Request) {
	buildInfo := startup.GetBuildInfo()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, buildInfo)
}
