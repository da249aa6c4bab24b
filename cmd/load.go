package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Giomelox/Be-Analytic-ETL/internal/catalog"
	"github.com/Giomelox/Be-Analytic-ETL/internal/fetcher"
	"github.com/Giomelox/Be-Analytic-ETL/internal/loader"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run the full ETL pipeline",
	Long: `Runs one end-to-end load: resolves the dataset in the open-data
catalog, downloads every service-quality resource in parallel, normalizes
the rows into canonical facts and persists them idempotently.

Exits non-zero only when the catalog is unreachable or every resource
failed; individual resource failures are reported and tolerated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Load.Deadline)
		defer cancel()

		log := zap.L().With(zap.String("command", "load"))

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := loader.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "load: migrate")
		}

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    cfg.Load.UserAgent,
			APIKeyHeader: "chave-api-dados-abertos",
			APIKey:       cfg.Catalog.APIKey,
			Timeout:      cfg.Load.FetchTimeout,
		})

		engine := loader.NewEngine(
			catalog.NewClient(f, cfg.Catalog.BaseURL),
			f,
			loader.NewSink(pool),
			loader.Config{
				Dataset:       cfg.Catalog.Dataset,
				Workers:       cfg.Load.Workers,
				RetryAttempts: cfg.Load.RetryAttempts,
			},
		)

		loadLog := loader.NewLoadLog(pool)
		runID, err := loadLog.Start(ctx, cfg.Catalog.Dataset)
		if err != nil {
			return err
		}

		log.Info("starting load", zap.String("dataset", cfg.Catalog.Dataset))

		summary, err := engine.Run(ctx)
		if err != nil {
			if logErr := loadLog.Fail(ctx, runID, err.Error()); logErr != nil {
				log.Warn("failed to record run failure", zap.Error(logErr))
			}
			return eris.Wrap(err, "load")
		}

		if err := loadLog.Complete(ctx, runID, summary); err != nil {
			log.Warn("failed to record run summary", zap.Error(err))
		}

		printSummary(os.Stdout, summary)

		if !summary.Success() {
			return eris.New("load: every resource failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

// printSummary writes the human-readable run report.
func printSummary(out io.Writer, s *loader.RunSummary) {
	fmt.Fprintf(out, "Resources: %d attempted, %d succeeded, %d skipped, %d failed\n",
		s.Attempted, s.Succeeded, s.Skipped, s.Failed)
	fmt.Fprintf(out, "Facts written: %d (rows rejected: %d)\n", s.FactsWritten, s.RowsRejected)

	for _, o := range s.Outcomes {
		if o.Status != loader.StatusSucceeded {
			fmt.Fprintf(out, "  %s %s: %s\n", o.Status, o.Resource.Title, o.Reason)
		}
	}
}
