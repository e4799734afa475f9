// Package workers derives worker pool sizes and the upload concurrency cap
// from the available CPU budget. GOMAXPROCS (container-aware in Go 1.19+)
// is used rather than runtime.NumCPU so cgroup limits are respected. The
// UPLOAD_WORKERS environment variable overrides all derived values.
package workers
