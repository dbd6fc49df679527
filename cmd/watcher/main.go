package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/falcon-incidents/internal/app"
	"github.com/samvad-hq/falcon-incidents/internal/config"
	"github.com/samvad-hq/falcon-incidents/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "watcher start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireToken(); err != nil {
		return err
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("watcher starting", "config", map[string]any{
		"app_name":        cfg.AppName,
		"app_env":         cfg.Env,
		"base_url":        cfg.BaseURL,
		"feeds_file":      cfg.FeedsFile,
		"publishers_file": cfg.PublishersFile,
		"poll_interval":   cfg.PollInterval.String(),
		"storage_type":    cfg.StorageType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := app.NewWatcher(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize watcher", "error", err)
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.ErrorObj("failed to release watcher resources", "error", err)
		}
	}()

	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watcher run: %w", err)
	}

	return nil
}
