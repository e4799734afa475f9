package capabilities

import (
	"sync"

	"media-uploader/internal/compress"
	"media-uploader/internal/logging"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Thresholds below which a machine is treated as low-end. Low-end devices
// get a smaller upload concurrency cap.
const (
	lowEndCoreThreshold   = 4
	lowEndMemoryThreshold = 2 * 1024 * 1024 * 1024 // 2 GiB
)

// Capabilities describes what this runtime can do, detected once per
// process.
type Capabilities struct {
	// OffloadAvailable is true when libvips can take compression off the
	// pure-Go path.
	OffloadAvailable bool
	// IsLowEndDevice is true on machines with few cores or little memory.
	IsLowEndDevice bool

	// Raw observations, for logging and diagnostics.
	LogicalCores     int
	TotalMemoryBytes uint64
}

var (
	detectOnce sync.Once
	detected   Capabilities
)

// Detect probes the runtime once and caches the result. It never fails:
// any panic or probe error degrades to Conservative().
func Detect() Capabilities {
	detectOnce.Do(func() {
		detected = detect()
		logging.Info("Capabilities: offload=%v lowEnd=%v cores=%d memory=%d MB",
			detected.OffloadAvailable, detected.IsLowEndDevice,
			detected.LogicalCores, detected.TotalMemoryBytes/(1024*1024))
	})
	return detected
}

// Conservative returns the defaults used when detection fails: no
// offload, treat the device as low-end.
func Conservative() Capabilities {
	return Capabilities{
		OffloadAvailable: false,
		IsLowEndDevice:   true,
	}
}

func detect() (caps Capabilities) {
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("Capability detection panicked, using conservative defaults: %v", r)
			caps = Conservative()
		}
	}()

	caps = Conservative()
	caps.OffloadAvailable = compress.VipsAvailable()

	cores, err := cpu.Counts(true)
	if err != nil || cores <= 0 {
		logging.Warn("Could not detect CPU count: %v", err)
		return caps
	}
	caps.LogicalCores = cores

	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil {
		logging.Warn("Could not detect memory size: %v", err)
		return caps
	}
	caps.TotalMemoryBytes = vm.Total

	caps.IsLowEndDevice = classify(cores, vm.Total)
	return caps
}

// classify applies the low-end thresholds to raw observations.
func classify(cores int, totalMemory uint64) bool {
	return cores < lowEndCoreThreshold || totalMemory < lowEndMemoryThreshold
}
