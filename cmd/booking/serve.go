package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/activity-booking/internal/booking"
	"github.com/example/activity-booking/internal/config"
	httptransport "github.com/example/activity-booking/internal/http"
	"github.com/example/activity-booking/internal/logging"
	"github.com/example/activity-booking/internal/schedule"
	"github.com/example/activity-booking/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the booking HTTP API",
		Long: `Serve loads its settings from BOOKING_* environment variables, opens the
session store and serves the JSON API until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			environ := environMap(os.Environ())
			if path, _ := cmd.Flags().GetString("schedule"); path != "" {
				environ["BOOKING_SCHEDULE_PATH"] = path
			}
			cfg, err := config.LoadFrom(environ)
			if err != nil {
				return err
			}

			logger, err := logging.New(cmd.OutOrStdout(), cfg.LogLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, logger)
		},
	}
}

// newHandler wires the store, engine and router for cfg. Engine spans go to
// tracing, or to the global provider when tracing is nil. The returned close
// function releases the store.
func newHandler(ctx context.Context, cfg config.Config, logger *slog.Logger, now func() time.Time, tracing trace.TracerProvider) (http.Handler, func() error, error) {
	scheduleCfg, err := schedule.LoadConfig(cfg.SchedulePath)
	if err != nil {
		return nil, nil, fmt.Errorf("load schedule: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}

	if tracing == nil {
		tracing = otel.GetTracerProvider()
	}
	engine := booking.NewEngineWithLogger(store, now, logger, booking.WithTracer(tracing.Tracer(booking.TracerName)))
	scheduleHandler, err := httptransport.NewScheduleHandler(scheduleCfg, cfg.HorizonDays, now, logger)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Sessions:   httptransport.NewSessionHandler(engine, logger),
		Schedule:   scheduleHandler,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
	return router, closeStore, nil
}

func runServer(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	tracing, shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, telemetry.ServiceName)
	if err != nil {
		logger.Error("failed to start tracing", "error", err)
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if terr := shutdownTracing(flushCtx); terr != nil {
			logger.Error("failed to flush traces", "error", terr)
		}
	}()
	if cfg.OTelEndpoint != "" {
		logger.Info("tracing enabled", "endpoint", cfg.OTelEndpoint)
	}

	handler, closeStore, err := newHandler(ctx, cfg, logger, time.Now, tracing)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("failed to close session store", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr, "store", cfg.StoreDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		return err
	}
	// Wait for in-flight requests before the store is closed.
	<-shutdownDone
	logger.Info("booking API stopped")
	return nil
}

func environMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok {
			out[key] = value
		}
	}
	return out
}
