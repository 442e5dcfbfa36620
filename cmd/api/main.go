package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"todoTracker/internal/app"
	"todoTracker/internal/config"
	"todoTracker/internal/logger"
)

const defaultConfigPath = "config.yml"

func main() {
	if err := run(); err != nil {
		logger.Error("App: stopped with error", err)
		logger.Sync()
		fmt.Fprintln(os.Stderr, "todo-tracker:", err)
		os.Exit(1)
	}
}

func run() error {
	path := os.Getenv("TODOS_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		a.Close()
		return err
	}
	return a.Run(ctx)
}
