package capabilities

import "testing"

func TestClassify(t *testing.T) {
	const gib = 1024 * 1024 * 1024

	tests := []struct {
		name   string
		cores  int
		memory uint64
		want   bool
	}{
		{"plenty of everything", 8, 16 * gib, false},
		{"exactly at thresholds", 4, 2 * gib, false},
		{"few cores", 2, 8 * gib, true},
		{"little memory", 8, 1 * gib, true},
		{"raspberry pi class", 4, 1 * gib, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.cores, tt.memory); got != tt.want {
				t.Errorf("classify(%d, %d) = %v, want %v", tt.cores, tt.memory, got, tt.want)
			}
		})
	}
}

func TestConservative(t *testing.T) {
	caps := Conservative()
	if caps.OffloadAvailable {
		t.Error("conservative defaults must not enable offload")
	}
	if !caps.IsLowEndDevice {
		t.Error("conservative defaults must treat the device as low-end")
	}
}

func TestDetectIsStable(t *testing.T) {
	first := Detect()
	second := Detect()
	if first != second {
		t.Errorf("Detect() not stable: %+v vs %+v", first, second)
	}
}
