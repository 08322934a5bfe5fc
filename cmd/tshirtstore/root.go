package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/viralforge/tshirtstore/internal/app/bootstrap"
	"github.com/viralforge/tshirtstore/internal/logging"
)

var configFile string

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tshirtstore",
		Short:        "Account and session service for the t-shirt store",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "configs/default.yaml", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewWorkerCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}

// setupLogger installs the process logger from cfg.
func setupLogger(cfg bootstrap.Config) *slog.Logger {
	v := cfg.Version
	if version != "dev" {
		v = version
	}
	return logging.Setup(logging.Options{
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Version: v,
		Writer:  os.Stdout,
	}).With("service", cfg.ServiceID)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
