package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terrastat/surfacer/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "surfacer",
	Short: "Spatial sample datasets and IDW surface estimation",
	Long:  "Imports point sample datasets (CSV, XLSX, shapefile), stores them in SQLite or PostGIS, and interpolates values and grids with inverse distance weighting.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
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
