// Package config loads service and pipeline configuration from the
// environment, with optional YAML tuning of the network classification
// bands.
package config
