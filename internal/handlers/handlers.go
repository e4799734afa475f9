package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"media-uploader/internal/assetstore"
	"media-uploader/internal/signing"
	"media-uploader/internal/thumbnailer"
)

// Handlers bundles the HTTP handlers of the upload service with their
// dependencies.
type Handlers struct {
	signer    *signing.Service
	generator *thumbnailer.Generator
	store     *assetstore.Store
	startTime time.Time
}

// New creates the handler set.
func New(signer *signing.Service, generator *thumbnailer.Generator, store *assetstore.Store) *Handlers {
	return &Handlers{
		signer:    signer,
		generator: generator,
		store:     store,
		startTime: time.Now(),
	}
}

// RegisterRoutes attaches all routes to the router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/sign", h.Sign).Methods(http.MethodPost)
	router.HandleFunc("/api/thumbnail", h.Thumbnail).Methods(http.MethodPost)
	router.HandleFunc("/api/thumbnail", h.GetThumbnail).Methods(http.MethodGet)
	router.HandleFunc("/api/assets", h.ListAssets).Methods(http.MethodGet)

	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	router.HandleFunc("/version", h.Version).Methods(http.MethodGet)
}
