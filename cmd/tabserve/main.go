package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/ekisa-team/tabserve/internal/config"
	"github.com/ekisa-team/tabserve/internal/config/source"
	"github.com/ekisa-team/tabserve/internal/env"
	"github.com/ekisa-team/tabserve/internal/logger"
	"github.com/ekisa-team/tabserve/internal/model"
	grpcserver "github.com/ekisa-team/tabserve/internal/server/grpc"
	httpserver "github.com/ekisa-team/tabserve/internal/server/http"
	"github.com/ekisa-team/tabserve/internal/service"
	"github.com/ekisa-team/tabserve/internal/xfs"
)

const shutdownTimeout = 5 * time.Second

func main() {
	var (
		flagHTTPPort   = flag.Int("http-port", config.DefaultHTTPPort, "HTTP port to listen on")
		flagGRPCPort   = flag.Int("grpc-port", config.DefaultGRPCPort, "GRPC port to listen on")
		flagConfigPath = flag.String("config", path.Join(config.DefaultConfigPath(), "config.yaml"), "Path to config file")
	)
	flag.Parse()

	environment := env.FromEnv()

	cfg, err := config.Load(*flagConfigPath)
	if err != nil {
		slog.Error("Failed to load config", "config", *flagConfigPath, "error", err)
		os.Exit(1)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "http-port":
			cfg.Server.HTTPPort = *flagHTTPPort
		case "grpc-port":
			cfg.Server.GRPCPort = *flagGRPCPort
		}
	})

	var level slog.LevelVar
	setLevel(&level, cfg.Log.Level)

	opts := []logger.Option{
		logger.WithLevel(&level),
		logger.WithLogToFile(cfg.Log.ToFile),
	}
	if cfg.Log.File != "" {
		opts = append(opts, logger.WithLogFile(cfg.Log.File))
	}
	slog.SetDefault(logger.New(environment, opts...))

	if ok, _ := xfs.IsRegularFile(*flagConfigPath); ok {
		watcher, err := config.NewWatcher(*flagConfigPath, func(cfg *config.Config, err error) {
			if err != nil {
				slog.Error("Failed to reload config", "error", err)
				return
			}

			setLevel(&level, cfg.Log.Level)
			slog.Info("Config reloaded", "log_level", level.Level().String())
		})
		if err != nil {
			slog.Error("Failed to create config watcher", "error", err)
			os.Exit(1)
		}
		defer watcher.Close()
	}

	slog.Info("Config loaded successfully", "config", *flagConfigPath, "env", environment, "model_dir", cfg.Model.Dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := source.Fetch(ctx, &cfg.Model); err != nil {
		slog.Error("Failed to fetch model artifact", "error", err)
		os.Exit(1)
	}

	bundle, err := model.Load(cfg.Model.ArtifactPath())
	if err != nil {
		slog.Error("Failed to load model", "path", cfg.Model.ArtifactPath(), "error", err)
		os.Exit(1)
	}

	svc := service.NewInference(bundle, nil)

	httpSrv := httpserver.NewServer(httpserver.Config{
		MaxBodySize: cfg.Server.MaxBodySize,
		Port:        cfg.Server.HTTPPort,
	}, svc)

	errCh := make(chan error, 2)
	go func() {
		errCh <- httpSrv.Start()
	}()

	var grpcSrv *grpcserver.Server
	if !cfg.Server.DisableGRPC {
		grpcSrv = grpcserver.NewServer(grpcserver.Config{Port: cfg.Server.GRPCPort}, svc)
		go func() {
			errCh <- grpcSrv.Start()
		}()
	}

	exitCode := 0
	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			slog.Error("Server stopped", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Failed to shut down HTTP server", "error", err)
	}
	if grpcSrv != nil {
		grpcSrv.Stop(shutdownCtx)
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func setLevel(level *slog.LevelVar, s string) {
	l, err := logger.ParseLevel(s)
	if err != nil {
		slog.Warn("Invalid log level, keeping current", "level", s, "error", err)
		return
	}
	level.Set(l)
}
