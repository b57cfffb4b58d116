// Package cli implements the command-line interface for pricecmp.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/kilupskalvis/pricecmp/internal/catalog"
	"github.com/kilupskalvis/pricecmp/internal/config"
	"github.com/kilupskalvis/pricecmp/internal/store"
	"github.com/spf13/cobra"
)

// Overridden in tests.
var (
	errOut io.Writer = os.Stderr
	osExit           = os.Exit
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config  *config.Config
	Catalog *catalog.Store
	Logger  *slog.Logger
}

// Close releases the catalog and reports a degraded store. Safe to call twice.
func (c *cmdContext) Close() {
	if c.Catalog == nil {
		return
	}
	if status := c.Catalog.Status(); status.Degraded {
		warnDegraded(errOut, status.Err)
	}
	c.Catalog.Close()
	c.Catalog = nil
}

// exitError prints an error, closes the catalog so a degraded store is
// still reported, and exits
func (c *cmdContext) exitError(format string, args ...interface{}) {
	fmt.Fprintf(errOut, "error: "+format+"\n", args...)
	c.Close()
	osExit(1)
}

// initContext loads the configuration, opens the configured backend and
// loads the catalog. A failing backend leaves the catalog usable in memory.
func initContext(opts ...catalog.Option) *cmdContext {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	p, err := store.Open(cfg.Backend, cfg.DatabasePath())
	if err != nil {
		exitError("failed to open %s store: %v", cfg.Backend, err)
	}

	opts = append([]catalog.Option{catalog.WithPersister(p), catalog.WithLogger(logger)}, opts...)
	st := catalog.New(opts...)
	if err := st.Load(context.Background()); err != nil {
		logger.Debug("catalog load failed", "error", err)
	}

	return &cmdContext{Config: cfg, Catalog: st, Logger: logger}
}

var rootCmd = &cobra.Command{
	Use:   "pricecmp",
	Short: "Compare prices across vendors",
	Long: `pricecmp keeps a catalog of vendors, items and the prices each vendor
quotes per item, and shows which vendor offers the best price.

Data lives in a .pricecmp directory created by 'pricecmp init'.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(vendorCmd)
	rootCmd.AddCommand(itemCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(errOut, "error: "+format+"\n", args...)
	osExit(1)
}

// warnDegraded prints the memory-only warning in yellow
func warnDegraded(w io.Writer, err error) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(w, "warning: %v\n", err)
	yellow.Fprintln(w, "warning: changes were applied in memory only and were not saved")
}

// newLogger builds a slog logger for the given level and format
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
