// Package app provides the top-level lifecycle of a tax export run. It wires
// dependencies, drives fetch, valuation, and report writing in sequence, and
// archives the finished artifact to the optional backends.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quantfm/stellartax/internal/config"
	"github.com/quantfm/stellartax/internal/domain"
	"github.com/quantfm/stellartax/internal/notify"
	"github.com/quantfm/stellartax/internal/report"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run executes one export: fetch the account's trades for the configured tax
// year, value them, write the CSV, then archive and notify. It returns nil on
// an empty window; only wiring, report writing, or archival can fail the run.
func (a *App) Run(ctx context.Context) error {
	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	logger := a.logger.With(slog.String("run_id", uuid.NewString()))

	accountID := a.cfg.Report.AccountID
	year := a.cfg.Report.Year
	window := domain.NewYearWindow(year)

	logger.InfoContext(ctx, "starting export",
		slog.String("account", accountID),
		slog.Int("year", year),
	)

	trades := deps.Fetcher.FetchTrades(ctx, accountID, window)
	if len(trades) == 0 {
		logger.InfoContext(ctx, "no trades found in tax window")
		_ = deps.Notifier.Notify(ctx, notify.EventEmptyWindow,
			"stellartax: empty window",
			fmt.Sprintf("No trades found for %s in %d.", accountID, year),
		)
		return nil
	}
	logger.InfoContext(ctx, "trades fetched", slog.Int("count", len(trades)))

	rows := deps.Pipeline.BuildTaxRows(ctx, trades)

	outputFile := a.cfg.Report.OutputFile
	if err := report.WriteFile(outputFile, rows); err != nil {
		_ = deps.Notifier.Notify(ctx, notify.EventRunFailed,
			"stellartax: run failed",
			fmt.Sprintf("Writing %s failed: %v", outputFile, err),
		)
		return fmt.Errorf("app: write report: %w", err)
	}
	logger.InfoContext(ctx, "report written",
		slog.Int("rows", len(rows)),
		slog.String("path", outputFile),
	)

	if err := a.archive(ctx, deps, rows, outputFile); err != nil {
		_ = deps.Notifier.Notify(ctx, notify.EventRunFailed,
			"stellartax: run failed",
			fmt.Sprintf("Archiving the report failed: %v", err),
		)
		return fmt.Errorf("app: archive report: %w", err)
	}

	_ = deps.Notifier.Notify(ctx, notify.EventReportWritten,
		"stellartax: report written",
		fmt.Sprintf("%d rows for %s (%d) written to %s.", len(rows), accountID, year, outputFile),
	)
	return nil
}

// archive pushes the finished report to the optional backends. The database
// insert and the object upload are independent, so they run concurrently; the
// core pipeline itself stays strictly sequential.
func (a *App) archive(ctx context.Context, deps *Dependencies, rows []domain.TaxRow, outputFile string) error {
	if deps.RowStore == nil && deps.BlobWriter == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	if deps.RowStore != nil {
		g.Go(func() error {
			return deps.RowStore.InsertRows(gctx, a.cfg.Report.AccountID, a.cfg.Report.Year, rows)
		})
	}

	if deps.BlobWriter != nil {
		g.Go(func() error {
			f, err := os.Open(outputFile)
			if err != nil {
				return fmt.Errorf("open report for upload: %w", err)
			}
			defer f.Close()

			key := fmt.Sprintf("reports/%s/%d/%s",
				a.cfg.Report.AccountID, a.cfg.Report.Year, filepath.Base(outputFile))
			return deps.BlobWriter.Put(gctx, key, f, "text/csv")
		})
	}

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
