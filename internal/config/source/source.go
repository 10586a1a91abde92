// Package source fetches model artifacts from remote sources into the model directory.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ekisa-team/tabserve/internal/config"
)

// ErrUnsupportedSource is returned for a source type without a downloader.
var ErrUnsupportedSource = errors.New("unsupported model source")

// Downloader downloads a model source into targetDir.
// It reports whether the existing content was reused.
type Downloader interface {
	Download(ctx context.Context, src config.ModelSource, targetDir string) (cached bool, err error)
}

// GetDownloader returns the downloader of a source type.
func GetDownloader(t config.SourceType) (Downloader, error) {
	switch t {
	case config.SourceTypeHuggingFace:
		return NewHuggingFaceDownloader(ExecCommandRunner{}), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, t)
	}
}

// EnsureModelsDirectory creates the model directory if needed.
func EnsureModelsDirectory(path string) error {
	return os.MkdirAll(path, 0o755)
}

// Fetch downloads the configured source, if any, into the model directory.
// Without a source it does nothing.
func Fetch(ctx context.Context, cfg *config.ModelConfig) error {
	src, ok := cfg.GetSource()
	if !ok {
		return nil
	}

	downloader, err := GetDownloader(src.Type())
	if err != nil {
		return err
	}

	return FetchWith(ctx, downloader, src, cfg.Dir)
}

// FetchWith downloads src into dir with the given downloader.
func FetchWith(ctx context.Context, downloader Downloader, src config.ModelSource, dir string) error {
	if err := EnsureModelsDirectory(dir); err != nil {
		return fmt.Errorf("failed to prepare model directory %s: %w", dir, err)
	}

	if _, err := downloader.Download(ctx, src, dir); err != nil {
		return fmt.Errorf("failed to download %s model into %s: %w", src.Type(), dir, err)
	}

	return nil
}
