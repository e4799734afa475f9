// Package handlers implements the HTTP API of the upload service:
// upload authorization, thumbnail generation, asset listing and the
// health and version endpoints.
package handlers
