// Package capabilities detects, once per process, whether compression can
// be offloaded to libvips and whether the host should be treated as a
// low-end device. Detection never fails; errors and panics degrade to
// conservative defaults (no offload, low-end).
package capabilities
