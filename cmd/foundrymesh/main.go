// Command foundrymesh runs the orchestration API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yadejumobi/foundrymesh/client"
	"github.com/yadejumobi/foundrymesh/config"
	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/logging"
	"github.com/yadejumobi/foundrymesh/registry"
	"github.com/yadejumobi/foundrymesh/runner"
	"github.com/yadejumobi/foundrymesh/server"
	"github.com/yadejumobi/foundrymesh/trace"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "foundrymesh",
		Short:         "Multi-agent orchestration core for capability-specific worker services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the orchestration HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := buildLogger(cfg)

	reg, err := registry.New(cfg.Agents...)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	rec, shutdownTracing, err := buildRecorder(ctx, cfg, logger)
	if err != nil {
		return err
	}

	inv := client.New(func(o *client.Options) {
		o.DefaultTimeout = cfg.Orchestration.DefaultTimeout
		o.Logger = logger
	})

	r := runner.New(reg, inv, func(o *runner.Options) {
		o.Recorder = rec
		o.Logger = logger
		o.MaxHandoffs = cfg.Orchestration.MaxHandoffs
		o.MaxRounds = cfg.Orchestration.MaxRounds
		o.MaxConcurrentRuns = cfg.Orchestration.MaxConcurrentRuns
		o.Retention = cfg.Orchestration.Retention
	})
	defer r.Close()

	srv := server.New(r, cfg.Server, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return shutdownTracing(shutdownCtx)
}

func buildLogger(cfg *config.Config) logging.Logger {
	level := logging.LogLevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = logging.LogLevelDebug
	case "warn":
		level = logging.LogLevelWarn
	case "error":
		level = logging.LogLevelError
	}
	return logging.NewSlogLogger(level, cfg.LogFormat, false)
}

func buildRecorder(ctx context.Context, cfg *config.Config, logger logging.Logger) (core.Recorder, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Tracing.Enabled {
		return trace.NewRecorder(), noop, nil
	}

	exporter, err := trace.NewOTLPExporter(ctx, cfg.Tracing)
	if err != nil {
		return nil, nil, fmt.Errorf("build trace exporter: %w", err)
	}
	logger.Info("trace export enabled", "endpoint", cfg.Tracing.Endpoint)

	rec := trace.NewRecorder(func(o *trace.RecorderOptions) { o.Exporter = exporter })
	return rec, exporter.Shutdown, nil
}
