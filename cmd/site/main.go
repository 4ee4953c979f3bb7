package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/pyconza/pyconza-site/internal/adapters/httpapi"
	"github.com/pyconza/pyconza-site/internal/markup"
	"github.com/pyconza/pyconza-site/internal/platform/bootstrap"
	"github.com/pyconza/pyconza-site/internal/platform/config"
	"github.com/pyconza/pyconza-site/internal/platform/logger"
	"github.com/pyconza/pyconza-site/internal/platform/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "site: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServerConfigFromEnv()
	if err != nil {
		return err
	}

	fs := pflag.NewFlagSet("site", pflag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "listen port")
	fs.StringVar(&cfg.SiteConfigPath, "config", cfg.SiteConfigPath, "site settings YAML (defaults built in)")
	fs.StringVar(&cfg.SiteRoot, "root", cfg.SiteRoot, "site root for static/template/media paths")
	fs.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "ticket store: memory or postgres")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "postgres DSN")
	fs.BoolVar(&cfg.Migrate, "migrate", cfg.Migrate, "apply schema migrations at startup")
	fs.StringVar(&cfg.FixturesPath, "fixtures", cfg.FixturesPath, "ticket fixtures YAML for the memory store")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New("pyconza-site", cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTP(reg)
	metrics.RegisterTicketGauges(reg, app.Vars, cfg.StatsTimeout, log)

	renderer := markup.New(app.Settings.Markup, app.Vars, log)
	api := httpapi.NewServer(app.Settings, app.Tickets, app.Vars, renderer, log)
	handler := httpapi.NewRouterWithOptions(api, log, httpapi.RouterOptions{
		MetricsMiddleware: httpMetrics.Middleware,
		MetricsHandler:    metrics.Handler(reg),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http_listen",
			slog.String("addr", srv.Addr),
			slog.String("storage", cfg.StorageBackend),
			slog.Int("variables", len(app.Vars.Names())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown_start")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
