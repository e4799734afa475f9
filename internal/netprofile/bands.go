package netprofile

import (
	"fmt"
	"os"

	"media-uploader/internal/compress"

	"gopkg.in/yaml.v3"
)

// Band maps a throughput range to the compression budget used while the
// connection is classified into it. Bands are ordered slowest first; the
// last band has no upper bound.
type Band struct {
	Name           EffectiveType   `yaml:"name"`
	MaxBytesPerSec float64         `yaml:"maxBytesPerSec"`
	Budget         compress.Budget `yaml:"budget"`
}

// DefaultBands returns the built-in classification bands: slow below
// 50KB/s, medium up to 500KB/s, fast above.
func DefaultBands() []Band {
	return []Band{
		{
			Name:           TypeSlow,
			MaxBytesPerSec: 50 * 1024,
			Budget:         compress.Budget{MaxBytes: 300 * 1024, MinQuality: 40, MaxDimension: 1280},
		},
		{
			Name:           TypeMedium,
			MaxBytesPerSec: 500 * 1024,
			Budget:         compress.Budget{MaxBytes: 800 * 1024, MinQuality: 55, MaxDimension: 1600},
		},
		{
			Name:   TypeFast,
			Budget: compress.Budget{MaxBytes: 2 * 1024 * 1024, MinQuality: 70, MaxDimension: 2048},
		},
	}
}

type bandsFile struct {
	Bands []Band `yaml:"bands"`
}

// LoadBands reads classification bands from a YAML file, validating
// ordering and budget sanity. An empty path returns the defaults.
func LoadBands(path string) ([]Band, error) {
	if path == "" {
		return DefaultBands(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bands file: %w", err)
	}

	var f bandsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse bands file %s: %w", path, err)
	}

	if err := validateBands(f.Bands); err != nil {
		return nil, fmt.Errorf("invalid bands file %s: %w", path, err)
	}
	return f.Bands, nil
}

func validateBands(bands []Band) error {
	if len(bands) == 0 {
		return fmt.Errorf("no bands defined")
	}

	var prev float64
	for i, b := range bands {
		if b.Name == "" {
			return fmt.Errorf("band %d has no name", i)
		}
		last := i == len(bands)-1
		if last {
			if b.MaxBytesPerSec != 0 {
				return fmt.Errorf("last band %q must be unbounded (maxBytesPerSec 0)", b.Name)
			}
		} else {
			if b.MaxBytesPerSec <= prev {
				return fmt.Errorf("band %q threshold %.0f not above previous %.0f", b.Name, b.MaxBytesPerSec, prev)
			}
			prev = b.MaxBytesPerSec
		}
		if b.Budget.MaxBytes <= 0 {
			return fmt.Errorf("band %q has non-positive maxBytes", b.Name)
		}
		if b.Budget.MinQuality < 1 || b.Budget.MinQuality > 100 {
			return fmt.Errorf("band %q minQuality %d out of range", b.Name, b.Budget.MinQuality)
		}
		if b.Budget.MaxDimension <= 0 {
			return fmt.Errorf("band %q has non-positive maxDimension", b.Name)
		}
	}
	return nil
}
