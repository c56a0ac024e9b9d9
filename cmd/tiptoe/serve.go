package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/tiptoe"
	httpAdapter "github.com/aretw0/tiptoe/internal/adapters/http"
	"github.com/aretw0/tiptoe/internal/adapters/logsink"
	"github.com/aretw0/tiptoe/internal/adapters/redis"
	"github.com/aretw0/tiptoe/internal/adapters/tcp"
	"github.com/aretw0/tiptoe/internal/config"
	"github.com/aretw0/tiptoe/internal/logging"
	"github.com/aretw0/tiptoe/internal/presentation/tui"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/observability"
	"github.com/aretw0/tiptoe/pkg/persistence/middleware"
	"github.com/aretw0/tiptoe/pkg/ports"
	"github.com/aretw0/tiptoe/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mediator server",
	Long: `Listens for peers on a TCP address and mediates navigation between them.
Settings come from defaults, then the config file, then TIPTOE_* environment
variables, then flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger := logging.New(level)

		if term.IsTerminal(int(os.Stderr.Fd())) {
			tui.PrintBanner(cmd.ErrOrStderr(), tiptoe.Version)
		}
		return serve(cmd.Context(), cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address peers connect to")
	serveCmd.Flags().String("log-sink", "", "Address of a log viewer for command events")
	serveCmd.Flags().String("admin", "", "Address of the admin HTTP API (disabled when empty)")
	serveCmd.Flags().Int("capacity", 0, "Maximum tracked history")
	serveCmd.Flags().Duration("decay", 0, "Idle time after which juggling ends")
	serveCmd.Flags().String("redis", "", "Redis address for the event recorder")
}

// loadConfig layers defaults, file, environment and flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.Environ()); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("listen") {
		cfg.Listen, _ = flags.GetString("listen")
	}
	if flags.Changed("log-sink") {
		cfg.LogSink, _ = flags.GetString("log-sink")
	}
	if flags.Changed("admin") {
		cfg.AdminAddr, _ = flags.GetString("admin")
	}
	if flags.Changed("capacity") {
		cfg.Capacity, _ = flags.GetInt("capacity")
	}
	if flags.Changed("decay") {
		cfg.Decay, _ = flags.GetDuration("decay")
	}
	if flags.Changed("redis") {
		cfg.Redis.Addr, _ = flags.GetString("redis")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serve(parent context.Context, cfg config.Config, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	signals := runner.NewSignalManager(parent)
	defer signals.Stop()
	ctx := signals.Context()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	redact, err := middleware.NewRedactMiddleware(cfg.Redact)
	if err != nil {
		return err
	}
	recorders, closeRecorders := openRecorders(ctx, cfg, logger)
	defer closeRecorders()

	srv := tiptoe.New(
		tiptoe.WithLogger(logger),
		tiptoe.WithCapacity(cfg.Capacity),
		tiptoe.WithDecay(cfg.Decay),
		tiptoe.WithPruneInterval(cfg.PruneInterval),
		tiptoe.WithLifecycleHooks(metrics.Hooks()),
		tiptoe.WithLifecycleHooks(observability.LogHooks(logger)),
		tiptoe.WithRecorder(middleware.Chain(recorders, redact)),
	)

	listener, err := tcp.Listen(cfg.Listen, tcp.WithLogger(logger))
	if err != nil {
		return err
	}
	defer listener.Close()
	logger.Info("listening for peers", "addr", listener.Addr().String())

	r := runner.NewRunner(srv,
		runner.WithAcceptor(listener),
		runner.WithIdleDelay(cfg.IdleDelay),
		runner.WithLogger(logger),
	)

	if cfg.AdminAddr != "" {
		admin := &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           httpAdapter.NewHandler(r, httpAdapter.WithGatherer(reg), httpAdapter.WithLogger(logger)),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("starting admin server", "addr", admin.Addr)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("admin server failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := admin.Shutdown(shutdownCtx); err != nil {
				logger.Warn("admin server did not stop gracefully", "err", err)
			}
		}()
	}

	if err := r.Run(ctx); err != nil {
		return err
	}
	logger.Info("shutting down", "interrupted", signals.Interrupted())
	return nil
}

// openRecorders connects the configured event sinks. Sinks that cannot be
// reached are reported and skipped; the log sink falls back to stderr.
func openRecorders(ctx context.Context, cfg config.Config, logger *slog.Logger) (tee, func()) {
	var sinks tee
	var closers []func() error

	if cfg.LogSink != "" {
		sink, err := logsink.Dial(ctx, cfg.LogSink, os.Stderr)
		if err != nil {
			logger.Info("log sink unavailable, writing events to stderr", "err", err)
		}
		sinks = append(sinks, sink)
		closers = append(closers, sink.Close)
	}

	if cfg.Redis.Addr != "" {
		rec := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithKey(cfg.Redis.Key),
			redis.WithMaxLen(cfg.Redis.MaxLen),
		)
		if err := rec.Ping(ctx); err != nil {
			logger.Warn("redis recorder disabled", "addr", cfg.Redis.Addr, "err", err)
			rec.Close()
		} else {
			sinks = append(sinks, rec)
			closers = append(closers, rec.Close)
		}
	}

	return sinks, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Debug("closing recorder failed", "err", err)
			}
		}
	}
}

// tee records every event on each of its recorders.
type tee []ports.Recorder

func (t tee) Record(ctx context.Context, event *domain.CommandEvent) error {
	var errs []error
	for _, r := range t {
		if err := r.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
