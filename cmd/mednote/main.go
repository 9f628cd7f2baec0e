package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iamvkosarev/mednote/config"
	"github.com/iamvkosarev/mednote/internal/app"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

func main() {
	cfgPath := flag.String("config", "config/config.yml", "path to the yaml config, empty to read the environment only")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// stdout belongs to the console.
	logger := logging.NewWithWriter(os.Stderr, cfg.Log.Level)
	slog.SetDefault(logger.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = app.Run(ctx, cfg, logger, os.Stdin, os.Stdout); err != nil {
		logger.Error("mednote stopped", "error", err)
		os.Exit(1)
	}
}
