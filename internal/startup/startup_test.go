package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version != Version {
		t.Errorf("Version = %s, want %s", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", info.GoVersion, runtime.Version())
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("OS/Arch = %s/%s, want %s/%s", info.OS, info.Arch, runtime.GOOS, runtime.GOARCH)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/sign", "api/sign"},
		{"/api/thumbnail", "api/thumbnail"},
		{"/api/assets/{key}", "api/assets"},
		{"/health", "health"},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/sign", func(http.ResponseWriter, *http.Request) {}).Methods("POST")
	router.HandleFunc("/health", func(http.ResponseWriter, *http.Request) {}).Methods("GET")

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("GetRoutes() returned %d routes, want 2", len(routes))
	}

	found := false
	for _, r := range routes {
		if r.Path == "/api/sign" && r.Method == "POST" {
			found = true
		}
	}
	if !found {
		t.Error("POST /api/sign not found in routes")
	}
}

func TestEnsureDirectory(t *testing.T) {
	base := t.TempDir()

	// Creates missing directories.
	dir := filepath.Join(base, "new", "nested")
	if err := EnsureDirectory(dir, "test"); err != nil {
		t.Errorf("EnsureDirectory() for missing dir error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory was not created: %v", err)
	}

	// Accepts existing directories.
	if err := EnsureDirectory(dir, "test"); err != nil {
		t.Errorf("EnsureDirectory() for existing dir error = %v", err)
	}

	// Rejects files.
	file := filepath.Join(base, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDirectory(file, "test"); err == nil {
		t.Error("EnsureDirectory() for a file expected error, got nil")
	}
}

func TestTestWriteAccess(t *testing.T) {
	if err := TestWriteAccess(t.TempDir()); err != nil {
		t.Errorf("TestWriteAccess() on temp dir error = %v", err)
	}
	if err := TestWriteAccess(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("TestWriteAccess() on missing dir expected error, got nil")
	}
}
