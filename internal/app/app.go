// Package app assembles the services shared by the API server and propctl.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lv-tradesense/internal/accounts"
	"lv-tradesense/internal/auth"
	"lv-tradesense/internal/config"
	"lv-tradesense/internal/db"
	"lv-tradesense/internal/health"
	"lv-tradesense/internal/marketdata"
	"lv-tradesense/internal/plans"
	"lv-tradesense/internal/recorder"
	"lv-tradesense/internal/session"
	"lv-tradesense/internal/store"
	"lv-tradesense/internal/trading"

	"github.com/jackc/pgx/v5/pgxpool"
)

type App struct {
	Config   config.Config
	Pool     *pgxpool.Pool
	Store    store.Store
	Catalog  *plans.Catalog
	Bus      *marketdata.Bus
	Provider marketdata.Provider
	Static   *marketdata.StaticFetcher
	Recorder recorder.Recorder
	Auth     *auth.Service
	Accounts *accounts.Service
	Trading  *trading.Service
}

// New wires every service from cfg. With requireDB set an empty DB_DSN is an error;
// otherwise the in-memory store is used.
func New(ctx context.Context, cfg config.Config, requireDB bool) (*App, error) {
	a := &App{Config: cfg, Bus: marketdata.NewBus()}
	if cfg.DBDSN != "" {
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate db: %w", err)
		}
		a.Pool = pool
		a.Store = store.NewPostgres(pool)
	} else {
		if requireDB {
			return nil, errors.New("DB_DSN is required")
		}
		log.Println("[app] DB_DSN not set, using in-memory store")
		a.Store = store.NewMemory()
	}

	a.Catalog = plans.Default()
	if cfg.PlansFile != "" {
		catalog, err := plans.LoadFile(cfg.PlansFile)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("load plans: %w", err)
		}
		a.Catalog = catalog
	}

	var fetcher marketdata.Fetcher
	switch cfg.QuoteSource {
	case "static":
		a.Static = marketdata.NewStaticFetcher(nil)
		fetcher = a.Static
	default:
		fetcher = marketdata.NewYahooFetcher()
	}
	a.Provider = marketdata.NewCachedProvider(marketdata.NewQuoteCache(cfg.QuoteMaxAge), fetcher, a.Bus)

	a.Recorder = recorder.NewNoop()
	if cfg.RecorderSQLitePath != "" {
		rec, err := recorder.OpenSQLite(cfg.RecorderSQLitePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open recorder: %w", err)
		}
		a.Recorder = rec
	}

	a.Auth = auth.NewService(a.Store, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL)
	a.Accounts = accounts.NewService(a.Store, a.Catalog)
	a.Trading = trading.NewService(a.Store, a.Provider, session.NewLocks(cfg.LockTimeout), a.Bus, a.Recorder)
	return a, nil
}

// HealthChecks reports the dependencies readiness depends on.
func (a *App) HealthChecks() map[string]health.Check {
	checks := map[string]health.Check{
		"store": func(ctx context.Context) error {
			_, err := a.Store.ActiveChallengeIDs(ctx)
			return err
		},
	}
	if a.Pool != nil {
		checks["postgres"] = func(ctx context.Context) error { return a.Pool.Ping(ctx) }
	}
	return checks
}

func (a *App) Close() {
	if a.Recorder != nil {
		if err := a.Recorder.Close(); err != nil {
			log.Printf("[app] close recorder: %v", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
