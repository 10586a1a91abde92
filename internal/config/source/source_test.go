package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ekisa-team/tabserve/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRunner is a mock implementation of CommandRunner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	called := m.Called(name, args)
	out, _ := called.Get(0).([]byte)
	return out, called.Error(1)
}

func newTestDownloader(runner CommandRunner) *HuggingFaceDownloader {
	d := NewHuggingFaceDownloader(runner)
	d.retryDelay = time.Millisecond
	return d
}

func TestHuggingFaceDownloader_Download(t *testing.T) {
	dir := t.TempDir()
	src := config.HuggingFaceSource{
		Repo:     "acme/iris-linear",
		Revision: "v1",
		Include:  []string{"model.json"},
	}

	runner := new(MockRunner)
	runner.On("CombinedOutput", "hf", []string{
		"download", "acme/iris-linear",
		"--local-dir", dir,
		"--revision", "v1",
		"--include", "model.json",
	}).Return([]byte("ok"), nil).Once()

	d := newTestDownloader(runner)

	cached, err := d.Download(context.Background(), src, dir)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.FileExists(t, filepath.Join(dir, markerFilename))

	// marker matches, the runner is not called again
	cached, err = d.Download(context.Background(), src, dir)
	require.NoError(t, err)
	assert.True(t, cached)

	runner.AssertExpectations(t)
}

func TestHuggingFaceDownloader_RevisionChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, markerFilename), []byte("repo: acme/m\nrevision: v1\n"), 0o644))

	runner := new(MockRunner)
	runner.On("CombinedOutput", "hf", mock.Anything).Return([]byte(nil), nil).Once()

	d := newTestDownloader(runner)
	cached, err := d.Download(context.Background(), config.HuggingFaceSource{Repo: "acme/m", Revision: "v2"}, dir)
	require.NoError(t, err)
	assert.False(t, cached)

	content, err := os.ReadFile(filepath.Join(dir, markerFilename))
	require.NoError(t, err)
	assert.Equal(t, "repo: acme/m\nrevision: v2\n", string(content))
	runner.AssertExpectations(t)
}

func TestHuggingFaceDownloader_Retries(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("exit status 1")

	t.Run("succeeds after failures", func(t *testing.T) {
		runner := new(MockRunner)
		runner.On("CombinedOutput", "hf", mock.Anything).Return([]byte("503"), boom).Twice()
		runner.On("CombinedOutput", "hf", mock.Anything).Return([]byte("ok"), nil).Once()

		_, err := newTestDownloader(runner).Download(context.Background(), config.HuggingFaceSource{Repo: "acme/m"}, dir)
		require.NoError(t, err)
		runner.AssertNumberOfCalls(t, "CombinedOutput", 3)
	})

	t.Run("gives up", func(t *testing.T) {
		runner := new(MockRunner)
		runner.On("CombinedOutput", "hf", mock.Anything).Return([]byte("503"), boom)

		_, err := newTestDownloader(runner).Download(context.Background(),
			config.HuggingFaceSource{Repo: "acme/other", ForceDownload: true}, dir)
		require.ErrorIs(t, err, boom)
		runner.AssertNumberOfCalls(t, "CombinedOutput", defaultMaxRetries)
	})
}

func TestHuggingFaceDownloader_InvalidSource(t *testing.T) {
	runner := new(MockRunner)
	d := newTestDownloader(runner)

	_, err := d.Download(context.Background(), config.HuggingFaceSource{Repo: "  "}, t.TempDir())
	assert.Error(t, err)
	runner.AssertNotCalled(t, "CombinedOutput", mock.Anything, mock.Anything)
}

func TestFetch_NoSource(t *testing.T) {
	cfg := &config.ModelConfig{Dir: filepath.Join(t.TempDir(), "missing")}

	require.NoError(t, Fetch(context.Background(), cfg))
	assert.NoDirExists(t, cfg.Dir)
}

func TestFetchWith(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	src := config.HuggingFaceSource{Repo: "acme/m"}

	runner := new(MockRunner)
	runner.On("CombinedOutput", "hf", mock.Anything).Return([]byte(nil), nil).Once()

	require.NoError(t, FetchWith(context.Background(), newTestDownloader(runner), src, dir))
	assert.DirExists(t, dir)
	runner.AssertExpectations(t)
}

func TestGetDownloader(t *testing.T) {
	d, err := GetDownloader(config.SourceTypeHuggingFace)
	require.NoError(t, err)
	assert.IsType(t, &HuggingFaceDownloader{}, d)

	_, err = GetDownloader("s3")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}
