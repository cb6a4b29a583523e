package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/openoverheid/internal/cli"
	"github.com/samvad-hq/openoverheid/internal/config"
	"github.com/samvad-hq/openoverheid/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rdwapk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("rdwapk starting", "args", os.Args[1:])
	logger.DebugObj("rdwapk config", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.New(cfg, log).RootCommand()
	root.SilenceErrors = true
	if err := root.ExecuteContext(ctx); err != nil {
		logger.ErrorObj("rdwapk command failed", "error", err)
		return err
	}
	if ctx.Err() != nil {
		logger.WarnObj("rdwapk interrupted", "reason", ctx.Err())
	}
	return nil
}
