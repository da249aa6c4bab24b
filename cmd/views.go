package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Giomelox/Be-Analytic-ETL/internal/loader"
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Bootstrap the analytical view",
	Long: `Ensures the fact table exists (running migrations if needed) and
creates or replaces the consolidacao_de_metricas view with the month-over-month
variation per economic group and service. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := loader.EnsureView(ctx, pool); err != nil {
			return eris.Wrap(err, "views")
		}

		fmt.Println("View ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewsCmd)
}
