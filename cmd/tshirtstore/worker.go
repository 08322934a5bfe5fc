package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viralforge/tshirtstore/internal/app/bootstrap"
)

func NewWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Relay account events from the outbox",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := setupLogger(cfg)

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			runtime, err := bootstrap.NewRuntime(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("bootstrap worker runtime: %w", err)
			}
			return runtime.RunWorker(ctx)
		},
	}
}
