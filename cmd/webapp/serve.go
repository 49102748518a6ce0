package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/app"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Bootstrap the metadata store and serve HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, o *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := o.load()
	if err != nil {
		return err
	}

	logger, logCloser, err := app.NewLogger(ctx, cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err.Error())
		return err
	}
	defer a.Close()

	logger.Info("starting", "version", version, "commit", commit, "addr", cfg.Addr(), "env", cfg.Env)

	// A failed bootstrap keeps the process up with the store unavailable;
	// probes answer 503 and file operations fail.
	if err := a.Bootstrap(ctx); err != nil {
		logger.Error("database bootstrap failed", "error", err.Error())
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := a.CheckBucket(checkCtx); err != nil {
		logger.Warn("object store bucket check failed", "bucket", cfg.ObjectStore.Bucket, "error", err.Error())
	}
	cancel()

	if err := a.Run(ctx); err != nil {
		logger.Error("server error", "error", err.Error())
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
