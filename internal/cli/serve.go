package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kilupskalvis/pricecmp/internal/catalog"
	"github.com/kilupskalvis/pricecmp/internal/server"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP",
	Long: `Serve the catalog as a JSON API with Prometheus metrics.

The listen address defaults to the 'listen' config key and can be
overridden with PRICECMP_LISTEN or --listen.

Examples:
  pricecmp serve
  pricecmp serve --listen 0.0.0.0:8730`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (host:port)")
}

func runServe(_ *cobra.Command, _ []string) {
	metrics := server.NewMetrics()

	c := initContext(catalog.WithObserver(metrics))
	defer c.Close()

	// Server logs go to stdout; CLI warnings stay on stderr
	logger := newLogger(os.Stdout, c.Config.LogLevel, c.Config.LogFormat)

	listen := c.Config.Listen
	if serveListen != "" {
		listen = serveListen
	}

	status := c.Catalog.Status()
	metrics.CatalogSize(status.Vendors, status.Items)
	metrics.Degraded(status.Degraded)
	if status.Degraded {
		logger.Warn("serving from memory only", "error", status.Err)
	}

	cfg := server.DefaultServerConfig()
	cfg.RequestsPerMinute = c.Config.RequestsPerMinute
	cfg.Metrics = metrics

	h, handlerCleanup := server.Handler(c.Catalog, cfg, logger)
	defer handlerCleanup()

	srv := &http.Server{
		Addr:              listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return context.Background() },
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting pricecmp server",
			"listen", listen,
			"backend", c.Config.Backend,
			"vendors", status.Vendors,
			"items", status.Items,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
