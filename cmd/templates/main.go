// Command templates downloads the Camunda connector element templates into one JSON file.
//
// Usage:
//
//	templates [--output all-connectors.json] [--sources sources.yaml] [--timeout 30s]
//	templates serve [--schedule "06:00;18:00"] [--port 8000]
//
// Every flag falls back to its environment variable (see config.GetEnvVars).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/bpmn-tools/config"
	"github.com/giygas/bpmn-tools/data"
	"github.com/giygas/bpmn-tools/health"
	"github.com/giygas/bpmn-tools/logging"
	"github.com/giygas/bpmn-tools/metrics"
	"github.com/giygas/bpmn-tools/scheduler"
	"github.com/giygas/bpmn-tools/server"
	"github.com/giygas/bpmn-tools/templates"
	"github.com/spf13/cobra"
)

// Scheduled collections older than this count as stale in /health
const scheduledMaxAge = 24 * time.Hour

type flagValues struct {
	output      string
	sources     string
	metricsFile string
	timeout     time.Duration
	schedule    string
	port        string
	address     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		logging.Error("templates failed", "error", err)
	}
	if cerr := logging.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg   *config.Config
		flags flagValues
	)

	rootCmd := &cobra.Command{
		Use:   "templates",
		Short: "Download Camunda connector element templates into one JSON array",
		Long: `Fetches each template source in order, flattens arrays one level and writes
the combined collection as an indented JSON array. Sources that cannot be
downloaded or parsed are reported and skipped.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(cmd, &flags)
			if err != nil {
				return err
			}
			cfg = loaded

			logging.InitLogger(logging.Options{
				Env:            cfg.Env,
				Level:          cfg.LogLevel,
				LogDir:         cfg.LogDir,
				RetentionWeeks: cfg.LogRetentionWeeks,
				MaxFileSize:    cfg.MaxLogFileSize,
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.output, "output", "o", "", "output file (env TEMPLATES_OUTPUT, default "+config.DefaultOutputPath+")")
	pf.StringVar(&flags.sources, "sources", "", "YAML file listing template URLs (env TEMPLATES_SOURCES)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-source download timeout, 0 for none (env HTTP_TIMEOUT)")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics here after a run (env METRICS_FILE)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collection over HTTP and refresh it on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	serveCmd.Flags().StringVar(&flags.schedule, "schedule", "", `daily refresh times, e.g. "06:00;18:00" (env TEMPLATES_SCHEDULE)`)
	serveCmd.Flags().StringVar(&flags.port, "port", "", "listen port (env PORT)")
	serveCmd.Flags().StringVar(&flags.address, "address", "", "listen address (env ADDRESS)")

	rootCmd.AddCommand(serveCmd)
	return rootCmd
}

// loadConfig reads the environment and lets explicitly set flags override it
func loadConfig(cmd *cobra.Command, flags *flagValues) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	if fs.Changed("output") {
		cfg.OutputPath = flags.output
	}
	if fs.Changed("sources") {
		cfg.SourcesFile = flags.sources
	}
	if fs.Changed("timeout") {
		cfg.HTTPTimeout = flags.timeout
	}
	if fs.Changed("metrics-file") {
		cfg.MetricsFile = flags.metricsFile
	}
	if fs.Changed("schedule") {
		cfg.Schedule = flags.schedule
	}
	if fs.Changed("port") {
		cfg.Port = flags.port
	}
	if fs.Changed("address") {
		cfg.Address = flags.address
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func newAggregator(cfg *config.Config, out io.Writer) (*templates.Aggregator, error) {
	sources, err := templates.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}
	return templates.NewAggregator(templates.NewHTTPFetcher(cfg.HTTPTimeout), sources, out), nil
}

func runFetch(ctx context.Context, cfg *config.Config, out io.Writer) error {
	agg, err := newAggregator(cfg, out)
	if err != nil {
		return err
	}

	if _, err := agg.Save(ctx, cfg.OutputPath); err != nil {
		return err
	}

	writeMetrics(cfg.MetricsFile)
	return nil
}

func writeMetrics(path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logging.Warn("Failed to write metrics file", "path", path, "error", err)
	}
}

func runServe(ctx context.Context, cfg *config.Config, out io.Writer) error {
	agg, err := newAggregator(cfg, out)
	if err != nil {
		return err
	}

	store := data.NewDataContainer()
	times := cfg.ScheduleTimes()

	sched := scheduler.NewScheduler(store, agg, cfg.OutputPath, times)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	var maxAge time.Duration
	if len(times) > 0 {
		maxAge = scheduledMaxAge
	}
	checker := health.NewHealthChecker(store, maxAge, sched.NextRun)
	srv := server.NewServer(cfg, store, checker)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	writeMetrics(cfg.MetricsFile)
	return nil
}
