// Package startup handles process startup concerns: build information,
// the banner, directory validation and route logging.
package startup
