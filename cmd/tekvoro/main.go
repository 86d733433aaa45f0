// Command tekvoro signs in to the Tekvoro website session, checks protected
// routes and reports or queries telemetry from a terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tekvoro/web-platform/internal/cli"
	"github.com/tekvoro/web-platform/internal/pkg/config"
	"github.com/tekvoro/web-platform/pkg/logger"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Error().Err(err).Msg("load configuration")
		return 1
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Output:  os.Stderr,
		Service: "tekvoro-cli",
	})
	log.Debug().Str("version", version).Str("build_date", buildDate).Str("env", cfg.Env).Msg("starting")

	app, closeFn, err := cli.Build(ctx, cfg, version, os.Stdin, os.Stdout, os.Stderr, log)
	if err != nil {
		log.Error().Err(err).Msg("initialise")
		return 1
	}
	defer closeFn()

	return app.Run(ctx, os.Args[1:])
}
