package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/tabserve/internal/envvar"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(envvar.ModelDir, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPPort, cfg.Server.HTTPPort)
	assert.Equal(t, DefaultGRPCPort, cfg.Server.GRPCPort)
	assert.Equal(t, filepath.Join(DefaultModelDir, DefaultModelFilename), cfg.Model.ArtifactPath())
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestLoad_FileValues(t *testing.T) {
	t.Setenv(envvar.ModelDir, "")

	path := writeConfig(t, `
version: v1
server:
  http_port: 8081
  disable_grpc: true
model:
  dir: /srv/model
  filename: model.yaml
  source:
    huggingface:
      repo: acme/churn
      revision: main
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.HTTPPort)
	assert.True(t, cfg.Server.DisableGRPC)
	assert.Equal(t, "/srv/model/model.yaml", cfg.Model.ArtifactPath())
	assert.Equal(t, "debug", cfg.Log.Level)

	src, ok := cfg.Model.GetSource()
	require.True(t, ok)
	assert.Equal(t, SourceTypeHuggingFace, src.Type())
	assert.Equal(t, "acme/churn", src.(HuggingFaceSource).Repo)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	t.Setenv(envvar.ModelDir, "/from/env")
	t.Setenv(envvar.TabserveServerHTTPPort, "9000")
	t.Setenv(envvar.TabserveLogLevel, "error")

	path := writeConfig(t, "model:\n  dir: /from/file\nserver:\n  http_port: 8081\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Model.Dir)
	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_InvalidEnvPort(t *testing.T) {
	t.Setenv(envvar.TabserveServerGRPCPort, "not-a-port")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "unknown: 1\n",
		"port range":      "server:\n  http_port: 70000\n",
		"bad level":       "log:\n  level: verbose\n",
		"missing hf repo": "model:\n  source:\n    huggingface:\n      revision: main\n",
		"bad body size":   "server:\n  max_body_size: lots\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	t.Setenv(envvar.TabserveLogLevel, "")
	path := writeConfig(t, "log:\n  level: info\n")

	var lastLevel atomic.Value
	w, err := NewWatcher(path, func(cfg *Config, err error) {
		if err == nil {
			lastLevel.Store(cfg.Log.Level)
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "info", w.Snapshot().Log.Level)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	assert.Eventually(t, func() bool {
		level, _ := lastLevel.Load().(string)
		return level == "debug"
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, "debug", w.Snapshot().Log.Level)
	assert.GreaterOrEqual(t, w.ReloadCount(), uint32(1))
}
