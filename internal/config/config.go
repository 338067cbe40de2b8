// Package config holds the run configuration for the pipeline binary.
// Settings come from defaults, optionally an HCL file, with CLI flags
// overriding both (the overlay happens in cmd).
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the effective pipeline configuration.
type Config struct {
	BaseURL    string `hcl:"base_url,optional"`
	DBPath     string `hcl:"db,optional"`
	Limit      int    `hcl:"limit,optional"`
	Offset     int    `hcl:"offset,optional"`
	MaxRetries int    `hcl:"max_retries,optional"`
	BackoffMS  int    `hcl:"backoff_ms,optional"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:    "https://pokeapi.co/api/v2",
		DBPath:     "pokemon.db",
		Limit:      20,
		Offset:     0,
		MaxRetries: 3,
		BackoffMS:  500,
	}
}

// Load reads an HCL config file and overlays its set fields on the
// defaults. The file needs a .hcl (or .json) extension for hclsimple to
// pick a syntax.
func Load(path string) (Config, error) {
	var file Config
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg := Default()
	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if file.DBPath != "" {
		cfg.DBPath = file.DBPath
	}
	if file.Limit > 0 {
		cfg.Limit = file.Limit
	}
	if file.Offset > 0 {
		cfg.Offset = file.Offset
	}
	if file.MaxRetries > 0 {
		cfg.MaxRetries = file.MaxRetries
	}
	if file.BackoffMS > 0 {
		cfg.BackoffMS = file.BackoffMS
	}
	return cfg, nil
}

// Backoff returns the base backoff interval as a duration.
func (c Config) Backoff() time.Duration {
	return time.Duration(c.BackoffMS) * time.Millisecond
}
