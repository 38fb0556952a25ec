package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/forge-sre/forge/pkg/ferrors"
)

// Initialize loads forge.yaml (if present) from configDir, expands env vars,
// merges it over the built-in defaults, validates the result, and returns a
// ready-to-use Config. A missing forge.yaml is not an error — Forge runs
// entirely on defaults for local/demo use.
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg := defaultConfig()
	cfg.configDir = configDir

	path := filepath.Join(configDir, "forge.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		data = ExpandEnv(data)
		var user Config
		if uerr := yaml.Unmarshal(data, &user); uerr != nil {
			return nil, newLoadError("forge.yaml", uerr)
		}
		if merr := mergo.Merge(cfg, &user, mergo.WithOverride); merr != nil {
			return nil, newLoadError("forge.yaml", fmt.Errorf("merging user config: %w", merr))
		}
		// mergo never overrides with a zero value, so an explicit "false"
		// demo toggle is applied here.
		var toggles struct {
			Demo struct {
				FallbackEnabled     *bool `yaml:"fallback_enabled"`
				BackgroundDeepening *bool `yaml:"background_deepening"`
			} `yaml:"demo"`
		}
		if yaml.Unmarshal(data, &toggles) == nil && cfg.Demo != nil {
			if v := toggles.Demo.FallbackEnabled; v != nil {
				cfg.Demo.FallbackEnabled = *v
			}
			if v := toggles.Demo.BackgroundDeepening; v != nil {
				cfg.Demo.BackgroundDeepening = *v
			}
		}
	case errors.Is(err, os.ErrNotExist):
		log.Info("no forge.yaml found, using built-in defaults")
	default:
		return nil, newLoadError("forge.yaml", err)
	}

	if err := validate(cfg); err != nil {
		return nil, ferrors.New(ferrors.KindConfig, "config.validate", err)
	}

	log.Info("configuration initialized",
		"storage_path", cfg.StoragePath,
		"http_addr", cfg.HTTPAddr,
		"fallback_enabled", cfg.Demo.FallbackEnabled)

	return cfg, nil
}
