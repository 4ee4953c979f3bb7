// Package bootstrap assembles the ticket services shared by the site server and
// the ticketstats command.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pyconza/pyconza-site/internal/adapters/fixtures"
	memticketrepo "github.com/pyconza/pyconza-site/internal/adapters/memory/ticketrepo"
	"github.com/pyconza/pyconza-site/internal/adapters/postgres"
	"github.com/pyconza/pyconza-site/internal/adapters/postgres/migrations"
	pgticketrepo "github.com/pyconza/pyconza-site/internal/adapters/postgres/ticketrepo"
	"github.com/pyconza/pyconza-site/internal/app/tickets"
	platformclock "github.com/pyconza/pyconza-site/internal/platform/clock"
	"github.com/pyconza/pyconza-site/internal/platform/config"
	clockport "github.com/pyconza/pyconza-site/internal/ports/out/clock"
	"github.com/pyconza/pyconza-site/internal/ports/out/ticketrepo"
)

type App struct {
	Settings config.Settings
	Clock    clockport.Clock
	Repo     ticketrepo.Repository
	Tickets  *tickets.Service
	Vars     *tickets.Registry

	closers []func()
}

// Close releases storage resources. It is safe to call more than once.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Build loads site settings, opens the configured ticket store and registers
// every configured counter as a variable.
func Build(ctx context.Context, cfg config.ServerConfig, log *slog.Logger) (*App, error) {
	settings, err := config.Load(cfg.SiteConfigPath, cfg.SiteRoot)
	if err != nil {
		return nil, fmt.Errorf("site settings: %w", err)
	}
	app := &App{
		Settings: settings,
		Clock:    platformclock.NewSystemClockIn(settings.Location()),
	}

	repo, err := openStore(ctx, cfg, app, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Repo = repo
	app.Tickets = tickets.NewService(repo, app.Clock, settings.TicketGroups())

	counters := make([]tickets.Counter, 0, len(settings.Tickets.Counters))
	for _, c := range settings.Tickets.Counters {
		counters = append(counters, tickets.Counter(c))
	}
	app.Vars = tickets.NewRegistry()
	if err := app.Tickets.RegisterCounters(app.Vars, counters); err != nil {
		app.Close()
		return nil, fmt.Errorf("register counters: %w", err)
	}
	return app, nil
}

func openStore(ctx context.Context, cfg config.ServerConfig, app *App, log *slog.Logger) (ticketrepo.Repository, error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		if cfg.Migrate {
			if err := migrations.Apply(ctx, pool); err != nil {
				return nil, err
			}
			v, err := migrations.Version(ctx, pool)
			if err != nil {
				return nil, err
			}
			log.Info("db_migrated", slog.Int64("version", v))
		}
		return pgticketrepo.NewRepo(pool), nil

	default:
		repo := memticketrepo.NewRepo()
		if cfg.FixturesPath == "" {
			return repo, nil
		}
		fx, err := fixtures.LoadFile(cfg.FixturesPath)
		if err != nil {
			return nil, err
		}
		n, err := fixtures.Seed(ctx, repo, app.Clock, fx)
		if err != nil {
			return nil, fmt.Errorf("seed fixtures: %w", err)
		}
		log.Info("fixtures_seeded",
			slog.String("path", cfg.FixturesPath),
			slog.Int("ticket_types", len(fx.TicketTypes)),
			slog.Int("tickets", n),
		)
		return repo, nil
	}
}
