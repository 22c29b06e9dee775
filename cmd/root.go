package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aquarisk/workbench/internal/config"
	"github.com/aquarisk/workbench/internal/model"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "workbench",
	Short: "Water-risk audit workbench for industrial portfolios",
	Long:  "Manages clients, sites and audit snapshots, scores water exposure per site, enriches audits from external providers and renders one-page PDF reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		if cfg.Sectors.CatalogPath != "" {
			if err := model.LoadSectorCatalog(cfg.Sectors.CatalogPath); err != nil {
				return fmt.Errorf("load sector catalog: %w", err)
			}
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
