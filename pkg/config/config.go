// Package config provides configuration loading and management for mrivolviz.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Normalization parameters
	Normalization struct {
		// Strategy selects the rescaling strategy: "minmax" or "percentile"
		Strategy string `yaml:"strategy"`

		// LowPercentile is the lower clip bound for the percentile strategy
		LowPercentile float64 `yaml:"lowPercentile"`

		// HighPercentile is the upper clip bound for the percentile strategy
		HighPercentile float64 `yaml:"highPercentile"`
	} `yaml:"normalization"`

	// Classification parameters
	Classification struct {
		// TissueThreshold is the lower bound of the tissue intensity band
		TissueThreshold float64 `yaml:"tissueThreshold"`

		// RegionThreshold is the lower bound of the high-intensity band
		RegionThreshold float64 `yaml:"regionThreshold"`

		// SampleRatio is the fraction of tissue points kept for rendering
		SampleRatio float64 `yaml:"sampleRatio"`

		// FloorCount is the minimum number of points kept per class
		FloorCount int `yaml:"floorCount"`

		// RegionBoost multiplies SampleRatio for the region class
		RegionBoost float64 `yaml:"regionBoost"`

		// Seed seeds the sampling randomness for reproducible output
		Seed uint64 `yaml:"seed"`

		// Workers is the number of parallel chunks for the voxel scan
		Workers int `yaml:"workers"`
	} `yaml:"classification"`

	// Output parameters
	Output struct {
		// Dir is the directory where rendered outputs are written
		Dir string `yaml:"dir"`

		// WritePLY enables binary PLY point-cloud export
		WritePLY bool `yaml:"writePly"`

		// WriteHTML enables the 3D scatter HTML export
		WriteHTML bool `yaml:"writeHtml"`

		// WriteSlices enables per-axis overlay slice JPEGs
		WriteSlices bool `yaml:"writeSlices"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default normalization parameters
	cfg.Normalization.Strategy = "percentile"
	cfg.Normalization.LowPercentile = 1.0
	cfg.Normalization.HighPercentile = 99.0

	// Set default classification parameters, matching the interactive
	// viewer defaults
	cfg.Classification.TissueThreshold = 0.1
	cfg.Classification.RegionThreshold = 0.6
	cfg.Classification.SampleRatio = 0.1
	cfg.Classification.FloorCount = 100
	cfg.Classification.RegionBoost = 2.0
	cfg.Classification.Seed = 1
	cfg.Classification.Workers = runtime.NumCPU()

	// Set default output parameters
	cfg.Output.Dir = "mrivolviz_output"
	cfg.Output.WritePLY = true
	cfg.Output.WriteHTML = true
	cfg.Output.WriteSlices = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
