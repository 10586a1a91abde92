package config

import (
	"path/filepath"
)

// SourceType represents the type of model source.
type SourceType string

const (
	// SourceTypeHuggingFace represents a Hugging Face model repository source.
	SourceTypeHuggingFace SourceType = "huggingface"
)

// Config holds the main configuration for the application.
type Config struct {
	Version string       `json:"version"           yaml:"version"`
	Server  ServerConfig `json:"server,omitempty"  yaml:"server,omitempty"`
	Model   ModelConfig  `json:"model,omitempty"   yaml:"model,omitempty"`
	Log     LogConfig    `json:"log,omitempty"     yaml:"log,omitempty"`
}

// ServerConfig holds the listeners of the HTTP and gRPC transports.
type ServerConfig struct {
	MaxBodySize string `json:"max_body_size,omitempty" yaml:"max_body_size,omitempty"`
	HTTPPort    int    `json:"http_port,omitempty"     yaml:"http_port,omitempty"`
	GRPCPort    int    `json:"grpc_port,omitempty"     yaml:"grpc_port,omitempty"`
	DisableGRPC bool   `json:"disable_grpc,omitempty"  yaml:"disable_grpc,omitempty"`
}

// ModelConfig describes where the model artifact lives.
type ModelConfig struct {
	Source   SourceConfig `json:"source,omitempty"   yaml:"source,omitempty"`
	Dir      string       `json:"dir,omitempty"      yaml:"dir,omitempty"`
	Filename string       `json:"filename,omitempty" yaml:"filename,omitempty"`
}

// LogConfig holds logging settings. Level is hot-reloaded by the Watcher.
type LogConfig struct {
	Level  string `json:"level,omitempty"   yaml:"level,omitempty"`
	File   string `json:"file,omitempty"    yaml:"file,omitempty"`
	ToFile bool   `json:"to_file,omitempty" yaml:"to_file,omitempty"`
}

// SourceConfig wraps optional sources (only one should be set).
type SourceConfig struct {
	HuggingFace *HuggingFaceSource `json:"huggingface,omitempty" yaml:"huggingface,omitempty"`
}

// -------------------------
// Source definitions
// -------------------------

// ModelSource represents a remote source the artifact is fetched from.
type ModelSource interface {
	Type() SourceType
}

// HuggingFaceSource represents a Hugging Face model repository source.
type HuggingFaceSource struct {
	Repo          string   `json:"repo"                     yaml:"repo"`
	Revision      string   `json:"revision,omitempty"       yaml:"revision,omitempty"`
	RepoType      string   `json:"repo_type,omitempty"      yaml:"repo_type,omitempty"`
	Token         string   `json:"token,omitempty"          yaml:"token,omitempty"`
	Include       []string `json:"include,omitempty"        yaml:"include,omitempty"`
	Exclude       []string `json:"exclude,omitempty"        yaml:"exclude,omitempty"`
	MaxWorkers    int      `json:"max_workers,omitempty"    yaml:"max_workers,omitempty"`
	ForceDownload bool     `json:"force_download,omitempty" yaml:"force_download,omitempty"`
}

// Type returns the Hugging Face source type.
func (h HuggingFaceSource) Type() SourceType {
	return SourceTypeHuggingFace
}

// GetSource returns the configured source, if any.
func (m *ModelConfig) GetSource() (ModelSource, bool) {
	if m.Source.HuggingFace != nil {
		return *m.Source.HuggingFace, true
	}

	return nil, false
}

// SetHuggingFaceSource sets the Hugging Face source.
func (m *ModelConfig) SetHuggingFaceSource(source HuggingFaceSource) {
	m.Source.HuggingFace = &source
}

// ArtifactPath returns the full path of the model artifact.
func (m *ModelConfig) ArtifactPath() string {
	return filepath.Join(m.Dir, m.Filename)
}
