package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Giomelox/Be-Analytic-ETL/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "be-analytic",
	Short: "ANATEL service-quality ETL",
	Long:  "Extracts the ANATEL service-quality performance index from the dados.gov.br catalog, normalizes it into a canonical fact table in Postgres, and maintains the analytical view on top of it.",
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
