package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/bradstire/wst-reader/internal/cli"
	"github.com/bradstire/wst-reader/internal/config"
	"github.com/bradstire/wst-reader/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Tracing is opt-in from the environment. Config errors surface from
	// the commands that need the config.
	enabled := false
	if cfg, err := config.Load(); err == nil {
		enabled = cfg.OTelEnabled
	}
	shutdown, err := telemetry.Init(ctx, telemetry.Options{Enabled: enabled, Service: "wst", Writer: os.Stderr})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitFailure
	}
	defer func() { _ = shutdown(context.Background()) }()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
