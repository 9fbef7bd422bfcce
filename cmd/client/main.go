package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/driftbox/driftbox/internal/buildinfo"
	"github.com/driftbox/driftbox/internal/client/cli"
	"github.com/driftbox/driftbox/internal/client/config"
	"github.com/driftbox/driftbox/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	configPath := pflag.StringP("config", "c", "", "path to a config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewZap(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
