package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/a3tai/f931-consolidator/internal/batch"
	"github.com/a3tai/f931-consolidator/internal/config"
	"github.com/a3tai/f931-consolidator/internal/consolidate"
	"github.com/a3tai/f931-consolidator/internal/export"
	"github.com/a3tai/f931-consolidator/internal/form931"
	"github.com/a3tai/f931-consolidator/internal/mcp"
	"github.com/a3tai/f931-consolidator/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the process logger. In stdio mode stdout carries the MCP
// protocol, so logs go to stderr and only when debug is enabled.
func newLogger(cfg *config.Config, stderr io.Writer) *slog.Logger {
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// newProcessor wires the extraction engine to the PDF service
func newProcessor(cfg *config.Config, pdfService *pdf.Service, logger *slog.Logger) *batch.Processor {
	var opts []form931.Option
	if cfg.PositionalPeriods {
		opts = append(opts, form931.WithPositionalPeriods())
	}
	return batch.NewProcessor(
		form931.NewExtractor(form931.DefaultRuleSet(), opts...),
		batch.WithSource(pdfService),
		batch.WithWorkers(cfg.Workers),
		batch.WithLogger(logger),
	)
}

// runBatch consolidates cfg.Directory, writes one workbook per company (or
// only cfg.Company) and prints a summary to out
func runBatch(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	pdfService, err := pdf.NewService(cfg.MaxFileSize, cfg.Directory)
	if err != nil {
		return err
	}

	result, err := newProcessor(cfg, pdfService, logger).ProcessDirectory(ctx, cfg.Directory)
	if err != nil {
		return err
	}

	var tables []*consolidate.Table
	if cfg.Company != "" {
		t, ok := result.Table(cfg.Company)
		if !ok {
			return fmt.Errorf("company not found: %s", cfg.Company)
		}
		tables = append(tables, t)
	} else {
		tables = result.Tables()
	}
	if len(tables) == 0 {
		printWarnings(out, result.Warnings)
		return fmt.Errorf("no F.931 declarations with a period found in %s", cfg.Directory)
	}

	exporter := export.NewService(logger)
	fmt.Fprintf(out, "Processed %d document(s) from %s\n", len(result.Records), cfg.Directory)
	for _, t := range tables {
		path, err := exporter.WriteFile(t, cfg.OutputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", t.Company)
		fmt.Fprintf(out, "  Periods: %s\n", strings.Join(t.Columns, ", "))
		fmt.Fprintf(out, "  Workbook: %s\n", path)
	}
	if n := len(result.Consolidation.Excluded); n > 0 {
		fmt.Fprintf(out, "\nExcluded %d document(s) without a period\n", n)
	}
	printWarnings(out, result.Warnings)
	return nil
}

func printWarnings(out io.Writer, warnings []form931.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(out, "\nWarnings (%d):\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(out, "  %s %s\n", w.Type.Severity(), w.Error())
	}
}

// runStdio serves the MCP tools until ctx is cancelled or stdin closes
func runStdio(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	pdfService, err := pdf.NewService(cfg.MaxFileSize, cfg.Directory)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(cfg, pdfService, newProcessor(cfg, pdfService, logger),
		export.NewService(logger), logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)
	logger.Debug("f931.config", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsStdioMode() {
		err = runStdio(ctx, cfg, logger)
	} else {
		err = runBatch(ctx, cfg, os.Stdout, logger)
	}
	if err != nil {
		logger.Error("f931.run.failed", "mode", cfg.Mode, "err", err)
		if cfg.IsBatchMode() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "F.931 Consolidator\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
