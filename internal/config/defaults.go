package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// DefaultModelDir is the conventional directory the training step writes the artifact to.
	DefaultModelDir = "/opt/ml/model"

	// DefaultModelFilename is the artifact filename inside the model directory.
	DefaultModelFilename = "model.json"

	// DefaultHTTPPort is the port /ping and /invocations are served on.
	DefaultHTTPPort = 8080

	// DefaultGRPCPort is the port of the gRPC health and inference services.
	DefaultGRPCPort = 9090

	// DefaultMaxBodySize bounds the /invocations request body.
	DefaultMaxBodySize = "8M"

	// DefaultLogLevel is used when neither the config nor the environment set one.
	DefaultLogLevel = "info"
)

// DefaultConfigPath returns the default path for the tabserve config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "tabserve", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "tabserve")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "tabserve")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "tabserve")
		}
		return filepath.Join(home, ".config", "tabserve")
	}
}

// Default returns a config with every field set to its default.
func Default() *Config {
	cfg := &Config{Version: "v1"}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "v1"
	}
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = DefaultHTTPPort
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = DefaultGRPCPort
	}
	if cfg.Server.MaxBodySize == "" {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Model.Dir == "" {
		cfg.Model.Dir = DefaultModelDir
	}
	if cfg.Model.Filename == "" {
		cfg.Model.Filename = DefaultModelFilename
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}
