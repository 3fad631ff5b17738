package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/inkdash/artifact"
	"github.com/spektr-org/inkdash/dashboard"
	"github.com/spektr-org/inkdash/dataset"
	"github.com/spektr-org/inkdash/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the dataset and serve the dashboard",
	Long: `Load every table, render the default selection and serve the
dashboard and its JSON API until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(background(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables, err := loadTables(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	store, err := dashboard.NewStore(tables)
	if err != nil {
		return fmt.Errorf("initial selection: %w", err)
	}
	session := dashboard.NewSession(store, tables, logger)

	artifacts, err := artifact.Open(ctx, cfg.Artifacts)
	if err != nil {
		logger.Warn("artifact store unavailable; artifacts will not be served", zap.Error(err))
		artifacts = nil
	}

	if cfg.Data.Watch {
		watcher, err := dataset.NewStaleWatcher(cfg.Data.Dir, logger, nil)
		if err != nil {
			return fmt.Errorf("watch %s: %w", cfg.Data.Dir, err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("watch %s: %w", cfg.Data.Dir, err)
		}
		defer watcher.Stop()
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.NewHandlers(session, artifacts, logger), logger)
	return server.New(cfg.Addr, router, logger).Run(ctx, cfg.ShutdownTimeout)
}

// background is used by commands that run without signal handling.
func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
