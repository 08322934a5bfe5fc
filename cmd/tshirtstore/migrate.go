package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viralforge/tshirtstore/internal/app/bootstrap"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadDatabaseConfig(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return bootstrap.Migrate(cmd.Context(), cfg, setupLogger(cfg))
		},
	}
}
