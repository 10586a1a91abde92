package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekisa-team/tabserve/internal/config"
)

const (
	defaultRetryDelay = 2 * time.Second
	defaultMaxRetries = 3
	defaultTimeout    = 5 * time.Minute
	markerFilename    = ".tabserve-downloaded"
)

// HuggingFaceDownloader downloads a model repository with the hf CLI.
type HuggingFaceDownloader struct {
	runner     CommandRunner
	retryDelay time.Duration
}

// NewHuggingFaceDownloader creates a downloader running commands through runner.
func NewHuggingFaceDownloader(runner CommandRunner) *HuggingFaceDownloader {
	return &HuggingFaceDownloader{
		runner:     runner,
		retryDelay: defaultRetryDelay,
	}
}

// Download downloads the repository into targetDir. It is skipped when the marker
// file records the same repo and revision, unless ForceDownload is set.
func (d *HuggingFaceDownloader) Download(ctx context.Context, src config.ModelSource, targetDir string) (bool, error) {
	hfSource, ok := src.(config.HuggingFaceSource)
	if !ok {
		return false, fmt.Errorf("invalid source type: %T", src)
	}

	repo := strings.TrimSpace(hfSource.Repo)
	if repo == "" {
		return false, fmt.Errorf("invalid repo name: %q", hfSource.Repo)
	}

	markerPath := filepath.Join(targetDir, markerFilename)
	markerContent := d.markerContent(repo, hfSource.Revision)

	if !hfSource.ForceDownload && !d.shouldRedownload(markerPath, markerContent) {
		slog.Info("Model already downloaded and up-to-date (marker match), skipping", "repo", repo, "path", targetDir)
		return true, nil
	}

	args := d.buildArgs(repo, hfSource, targetDir)

	var lastErr error
	for attempt := range defaultMaxRetries {
		if attempt > 0 {
			slog.Info("Retrying download", "repo", repo, "attempt", attempt+1, "last_error", lastErr)
			select {
			case <-ctx.Done():
				return false, fmt.Errorf("download canceled: %w", ctx.Err())
			case <-time.After(d.retryDelay):
			}
		} else {
			slog.Info("Downloading model", "repo", repo, "path", targetDir)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		output, err := d.runner.CombinedOutput(attemptCtx, "hf", args...)
		attemptErr := attemptCtx.Err()
		cancel()

		if err == nil {
			if err := os.WriteFile(markerPath, []byte(markerContent), 0o644); err != nil {
				slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
			}

			slog.Info("Model downloaded successfully", "repo", repo, "path", targetDir, "attempt", attempt+1)
			return false, nil
		}

		lastErr = err
		slog.Error("Failed to download model", "repo", repo, "attempt", attempt+1, "error", err, "output", string(output))

		if ctx.Err() != nil {
			return false, fmt.Errorf("download canceled: %w", ctx.Err())
		}
		if errors.Is(attemptErr, context.DeadlineExceeded) {
			slog.Warn("Download timed out", "repo", repo, "attempt", attempt+1)
		}
	}

	return false, lastErr
}

// buildArgs builds the hf CLI arguments.
func (d *HuggingFaceDownloader) buildArgs(repo string, src config.HuggingFaceSource, targetDir string) []string {
	args := []string{
		"download",
		repo,
		"--local-dir", targetDir,
	}

	if src.Revision != "" {
		args = append(args, "--revision", src.Revision)
	}
	if src.RepoType != "" {
		args = append(args, "--repo-type", src.RepoType)
	}
	for _, inc := range src.Include {
		args = append(args, "--include", inc)
	}
	for _, exc := range src.Exclude {
		args = append(args, "--exclude", exc)
	}
	if src.ForceDownload {
		args = append(args, "--force-download")
	}
	if src.Token != "" {
		args = append(args, "--token", src.Token)
	}
	if src.MaxWorkers > 0 {
		args = append(args, "--max-workers", fmt.Sprintf("%d", src.MaxWorkers))
	}

	return args
}

// markerContent generates the expected content of the marker file.
func (d *HuggingFaceDownloader) markerContent(repo, revision string) string {
	return fmt.Sprintf("repo: %s\nrevision: %s\n", repo, revision)
}

// shouldRedownload compares the marker file with the expected content.
func (d *HuggingFaceDownloader) shouldRedownload(markerPath, expectedContent string) bool {
	content, err := os.ReadFile(markerPath)
	if err != nil {
		slog.Debug("Marker file missing or unreadable", "path", markerPath, "error", err)
		return true
	}

	if string(content) != expectedContent {
		slog.Info("Model config changed (marker mismatch), will redownload",
			"marker_path", markerPath,
			"expected_snippet", expectedContent,
			"actual_snippet", string(content))
		return true
	}

	return false
}
