// Package loader orchestrates the ETL run: catalog discovery, parallel
// resource downloads, parsing, normalization and idempotent persistence,
// plus the analytical-view bootstrap consumed separately.
package loader

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Giomelox/Be-Analytic-ETL/internal/catalog"
	"github.com/Giomelox/Be-Analytic-ETL/internal/fetcher"
	"github.com/Giomelox/Be-Analytic-ETL/internal/ida"
	"github.com/Giomelox/Be-Analytic-ETL/internal/resilience"
	"github.com/Giomelox/Be-Analytic-ETL/internal/tabular"
)

// Config carries the orchestration knobs.
type Config struct {
	Dataset       string        // catalog name of the dataset to load
	Workers       int           // parallel resource workers
	RetryAttempts int           // attempts per retryable operation
	RetryBackoff  time.Duration // initial backoff between attempts
}

// Engine runs the full pipeline over every resource of the dataset.
type Engine struct {
	catalog *catalog.Client
	fetch   fetcher.Fetcher
	sink    *Sink
	cfg     Config
}

func NewEngine(cat *catalog.Client, f fetcher.Fetcher, sink *Sink, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Engine{catalog: cat, fetch: f, sink: sink, cfg: cfg}
}

func (e *Engine) retryConfig(operation string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = e.cfg.RetryAttempts
	if e.cfg.RetryBackoff > 0 {
		cfg.InitialBackoff = e.cfg.RetryBackoff
	}
	cfg.OnRetry = resilience.RetryLogger("ida", operation)
	return cfg
}

// Run executes one end-to-end load. It returns an error only when the
// catalog itself is unreachable or malformed; per-resource failures are
// recorded in the summary and never cancel sibling resources.
func (e *Engine) Run(ctx context.Context) (*RunSummary, error) {
	log := zap.L().With(zap.String("component", "loader"))
	started := time.Now().UTC()

	if err := e.sink.Ping(ctx); err != nil {
		return nil, err
	}

	datasetID, err := resilience.DoVal(ctx, e.retryConfig("find_dataset"),
		func(ctx context.Context) (string, error) {
			return e.catalog.FindDatasetID(ctx, e.cfg.Dataset)
		})
	if err != nil {
		return nil, eris.Wrapf(err, "loader: resolve dataset %q", e.cfg.Dataset)
	}

	resources, err := resilience.DoVal(ctx, e.retryConfig("list_resources"),
		func(ctx context.Context) ([]catalog.Resource, error) {
			return e.catalog.Resources(ctx, datasetID)
		})
	if err != nil {
		return nil, eris.Wrapf(err, "loader: list resources of %s", datasetID)
	}

	log.Info("discovered resources",
		zap.String("dataset", datasetID),
		zap.Int("count", len(resources)))

	outcomes := make([]ResourceOutcome, len(resources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, res := range resources {
		i, res := i, res
		g.Go(func() error {
			outcomes[i] = e.process(gctx, res)
			return nil // failures live in the outcome, never cancel siblings
		})
	}
	_ = g.Wait()

	summary := summarize(started, outcomes)
	log.Info("run complete",
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int64("facts_written", summary.FactsWritten),
		zap.Int("rows_rejected", summary.RowsRejected))
	return summary, nil
}

// process runs one resource through fetch, parse, normalize and store.
func (e *Engine) process(ctx context.Context, res catalog.Resource) ResourceOutcome {
	log := zap.L().With(
		zap.String("resource", res.ID),
		zap.String("title", res.Title))

	out := ResourceOutcome{Resource: res, Status: StatusFailed}

	data, err := resilience.DoVal(ctx, e.retryConfig("download"),
		func(ctx context.Context) ([]byte, error) {
			return e.fetch.DownloadBytes(ctx, res.URL)
		})
	if err != nil {
		if errors.Is(err, fetcher.ErrEmptyPayload) {
			log.Warn("resource empty", zap.Error(err))
			out.Reason = ReasonResourceEmpty
		} else {
			log.Warn("resource unreachable", zap.Error(err))
			out.Reason = ReasonResourceUnreachable
		}
		out.Err = err
		return out
	}

	rows, err := tabular.Parse(data, res.Format)
	if errors.Is(err, tabular.ErrUnsupportedFormat) {
		log.Info("skipping unsupported format", zap.String("format", res.Format))
		out.Status = StatusSkipped
		out.Reason = ReasonFormatUnsupported
		return out
	}
	if err != nil {
		log.Warn("parse failed", zap.Error(err))
		out.Reason = ReasonParseFailed
		out.Err = err
		return out
	}

	serviceType := ida.ServiceType(res.Service)
	facts := make([]ida.Fact, 0, rows.Len())
	for {
		row, ok := rows.Next()
		if !ok {
			break
		}
		fact, rej := ida.Normalize(row, res.ID, serviceType)
		if rej != nil {
			out.RowsRejected++
			log.Debug("row rejected",
				zap.String("reason", string(rej.Reason)),
				zap.String("detail", rej.Detail))
			continue
		}
		facts = append(facts, fact)
	}

	written, err := e.sink.Store(ctx, facts)
	if err != nil {
		log.Warn("store failed", zap.Error(err))
		out.Reason = ReasonSinkFailed
		out.Err = err
		return out
	}

	out.Status = StatusSucceeded
	out.FactsWritten = written
	log.Info("resource loaded",
		zap.Int64("facts", written),
		zap.Int("rejected", out.RowsRejected),
		zap.Int("duplicates_skipped", len(facts)-int(written)))
	return out
}
