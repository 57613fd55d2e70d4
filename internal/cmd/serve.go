package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/cameronsjo/toolcat/internal/plugin"
	"github.com/cameronsjo/toolcat/internal/service"
	"github.com/cameronsjo/toolcat/internal/ui"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

// serveCmd runs the conversion service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion service",
	Long: `Run the conversion service in the foreground.

Endpoints:
  /plugins                                   Registered plugins
  /plugins/format_converter/                 Converter info
  /plugins/format_converter/convert/<dir>    Conversions (POST)
  /health                                    Health check
  /metrics                                   Prometheus metrics

Stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (default: server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv, err := newService(addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	ui.Success("Conversion service listening on %s", addr)
	level.Info(logger).Log("msg", "conversion service started", "addr", addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	ui.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	level.Info(logger).Log("msg", "conversion service stopped")
	return nil
}

// newService assembles the registry, metrics and HTTP server.
func newService(addr string) (*service.Server, error) {
	registry := plugin.NewRegistry(logger)
	if err := registry.Register(service.NewFormatConverter(cfg.Server.MaxBodyBytes, logger)); err != nil {
		return nil, fmt.Errorf("register converter: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return service.NewServer(registry, service.Options{
		Addr:       addr,
		Logger:     logger,
		Registerer: reg,
		Gatherer:   reg,
	}), nil
}
