package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/ekisa-team/tabserve/internal/envvar"
	"github.com/ekisa-team/tabserve/internal/xfs"
)

const schemaURL = "tabserve.v1.schema.json"

//go:embed schema/tabserve.v1.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString(schemaURL, schemaJSON)

// Load reads the config file at path, applies environment overrides and defaults.
// A missing file is not an error: the defaults and the environment are used instead.
func Load(path string) (*Config, error) {
	cfg, err := LoadAndValidate(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	cfg.Model.Dir = xfs.ExpandTilde(cfg.Model.Dir)

	return cfg, nil
}

// LoadAndValidate loads the YAML file at path and validates it against the embedded schema.
func LoadAndValidate(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse validates and decodes a YAML document.
func Parse(data []byte) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal into Config struct: %w", err)
	}

	return &config, nil
}

// applyEnv overrides config values with environment variables.
func applyEnv(cfg *Config) error {
	if dir := os.Getenv(envvar.ModelDir); dir != "" {
		cfg.Model.Dir = dir
	}

	if p := os.Getenv(envvar.TabserveServerHTTPPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("config: invalid %s: %w", envvar.TabserveServerHTTPPort, err)
		}
		cfg.Server.HTTPPort = port
	}

	if p := os.Getenv(envvar.TabserveServerGRPCPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("config: invalid %s: %w", envvar.TabserveServerGRPCPort, err)
		}
		cfg.Server.GRPCPort = port
	}

	if level := os.Getenv(envvar.TabserveLogLevel); level != "" {
		cfg.Log.Level = level
	}

	return nil
}
