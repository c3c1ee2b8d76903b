// Package config provides configuration loading and management for nerve-tracer.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"os"
	"path/filepath"

	"nerve-tracer/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config represents the analysis configuration loaded from YAML.
type Config struct {
	// Field describes the imaged field of view.
	Field struct {
		// Width and Height are the expected raster dimensions in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// ViewDiameterMM is the physical field-of-view width in millimetres
		ViewDiameterMM float64 `yaml:"viewDiameterMM"`
	} `yaml:"field"`

	// Prune controls skeleton pruning.
	Prune struct {
		// LengthThresh removes end segments with fewer pixels than this
		LengthThresh int `yaml:"lengthThresh"`

		// MaxIterations caps the fixed-point loop (0 = initial pixel count + 1)
		MaxIterations int `yaml:"maxIterations"`
	} `yaml:"prune"`

	// Profile controls per-component attribute sampling.
	Profile struct {
		WidthKernel       int     `yaml:"widthKernel"`
		WidthSigma        float64 `yaml:"widthSigma"`
		BodyDistance      float64 `yaml:"bodyDistance"`
		ReconstructBodies bool    `yaml:"reconstructBodies"`
	} `yaml:"profile"`

	// Trunk controls main-trunk classification.
	Trunk struct {
		SeedLengthInitial float64 `yaml:"seedLengthInitial"`
		SeedLengthStep    float64 `yaml:"seedLengthStep"`
		ShortEdgeLength   float64 `yaml:"shortEdgeLength"`
		AngleToleranceDeg float64 `yaml:"angleToleranceDeg"`
		MinTrunkLength    float64 `yaml:"minTrunkLength"`
		MinTrunkWidth     float64 `yaml:"minTrunkWidth"`
		CurvatureWeight   float64 `yaml:"curvatureWeight"`
		IntensityWeight   float64 `yaml:"intensityWeight"`
		WidthWeight       float64 `yaml:"widthWeight"`
		MaxFrontier       int     `yaml:"maxFrontier"`
		MaxIterations     int     `yaml:"maxIterations"`
		CurvatureStep     float64 `yaml:"curvatureStep"`
		CurvatureSigma    float64 `yaml:"curvatureSigma"`
	} `yaml:"trunk"`

	// Cleanup controls post-classification trunk demotion.
	Cleanup struct {
		MinGroupLength   float64 `yaml:"minGroupLength"`
		BorderMargin     float64 `yaml:"borderMargin"`
		MinEndEdgeLength float64 `yaml:"minEndEdgeLength"`
	} `yaml:"cleanup"`

	// Filter removes faint components that never reach the border.
	Filter struct {
		Enabled         bool    `yaml:"enabled"`
		IntensityThresh float64 `yaml:"intensityThresh"`
		BorderMargin    float64 `yaml:"borderMargin"`
	} `yaml:"filter"`

	// Metrics controls output formatting.
	Metrics struct {
		// Precision is the number of decimals every index is rounded to
		Precision int `yaml:"precision"`
	} `yaml:"metrics"`

	// Runtime controls parallelism and logging.
	Runtime struct {
		// Workers bounds per-component parallelism (0 = GOMAXPROCS)
		Workers        int    `yaml:"workers"`
		LogLevel       string `yaml:"logLevel"`
		LogDevelopment bool   `yaml:"logDevelopment"`
	} `yaml:"runtime"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Field.Width = 384
	cfg.Field.Height = 384
	cfg.Field.ViewDiameterMM = 0.4

	cfg.Prune.LengthThresh = 5

	cfg.Profile.WidthKernel = 5
	cfg.Profile.WidthSigma = 1.0
	cfg.Profile.BodyDistance = 3.0

	cfg.Trunk.SeedLengthInitial = 25
	cfg.Trunk.SeedLengthStep = 5
	cfg.Trunk.ShortEdgeLength = 1
	cfg.Trunk.AngleToleranceDeg = 60
	cfg.Trunk.MinTrunkLength = 300
	cfg.Trunk.MinTrunkWidth = 150
	cfg.Trunk.CurvatureWeight = 0.5
	cfg.Trunk.IntensityWeight = 0.5
	cfg.Trunk.WidthWeight = 0.25
	cfg.Trunk.MaxFrontier = 64
	cfg.Trunk.CurvatureStep = 1.0
	cfg.Trunk.CurvatureSigma = 10.0

	cfg.Cleanup.MinGroupLength = 250
	cfg.Cleanup.BorderMargin = 38
	cfg.Cleanup.MinEndEdgeLength = 3

	cfg.Filter.Enabled = true
	cfg.Filter.IntensityThresh = 0.4
	cfg.Filter.BorderMargin = 38

	cfg.Metrics.Precision = 3

	cfg.Runtime.LogLevel = "info"

	return cfg
}

// Validate checks values that would make the analysis meaningless. Every
// rejection is an errors.ErrInputContract.
func (c *Config) Validate() error {
	switch {
	case c.Field.Width < 0 || c.Field.Height < 0:
		return errors.InputContractf("field size must not be negative, got %dx%d", c.Field.Width, c.Field.Height)
	case c.Field.ViewDiameterMM <= 0:
		return errors.InputContractf("viewDiameterMM must be positive, got %g", c.Field.ViewDiameterMM)
	case c.Prune.MaxIterations < 0:
		return errors.InputContractf("prune.maxIterations must not be negative, got %d", c.Prune.MaxIterations)
	case c.Trunk.SeedLengthStep <= 0:
		return errors.InputContractf("seedLengthStep must be positive, got %g", c.Trunk.SeedLengthStep)
	case c.Trunk.MaxFrontier < 0:
		return errors.InputContractf("maxFrontier must not be negative, got %d", c.Trunk.MaxFrontier)
	case c.Trunk.MaxIterations < 0:
		return errors.InputContractf("trunk.maxIterations must not be negative, got %d", c.Trunk.MaxIterations)
	case c.Trunk.CurvatureStep <= 0:
		return errors.InputContractf("curvatureStep must be positive, got %g", c.Trunk.CurvatureStep)
	case c.Trunk.CurvatureSigma < 0:
		return errors.InputContractf("curvatureSigma must not be negative, got %g", c.Trunk.CurvatureSigma)
	case c.Profile.WidthKernel <= 0 || c.Profile.WidthKernel%2 == 0:
		return errors.InputContractf("widthKernel must be a positive odd number, got %d", c.Profile.WidthKernel)
	case c.Metrics.Precision < 0:
		return errors.InputContractf("precision must not be negative, got %d", c.Metrics.Precision)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", configPath)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "error creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
