package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viralforge/tshirtstore/internal/app/bootstrap"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the gRPC session service",
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
				return fmt.Errorf("bootstrap api runtime: %w", err)
			}
			return runtime.RunAPI(ctx)
		},
	}
}
