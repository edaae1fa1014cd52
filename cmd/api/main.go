package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lv-tradesense/internal/accounts"
	"lv-tradesense/internal/app"
	"lv-tradesense/internal/auth"
	"lv-tradesense/internal/config"
	"lv-tradesense/internal/health"
	"lv-tradesense/internal/httpserver"
	"lv-tradesense/internal/marketdata"
	"lv-tradesense/internal/scheduler"
	"lv-tradesense/internal/trading"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := app.New(ctx, cfg, cfg.AppMode == "production")
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	sched := scheduler.New(ctx, a.Trading)
	if err := sched.Register(cfg.DailyResetCron, cfg.SweepCron); err != nil {
		log.Fatal(err)
	}

	limiter := httpserver.NewRateLimiter(20, 40)
	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:     auth.NewHandler(a.Auth),
		AccountsHandler: accounts.NewHandler(a.Accounts),
		TradingHandler:  trading.NewHandler(a.Trading, a.Accounts),
		MarketHandler:   marketdata.NewHandler(a.Provider, a.Static),
		HealthHandler:   health.NewHandler(time.Now(), a.HealthChecks()),
		AuthService:     a.Auth,
		InternalToken:   cfg.InternalToken,
		WSHandler:       httpserver.NewWSHandler(a.Bus, a.Auth, a.Accounts, cfg.WebSocketOrigin),
		RateLimiter:     limiter,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Prune(3 * time.Minute)
			case <-ctx.Done():
				return
			}
		}
	}()

	sched.Start()
	log.Printf("server listening on %s (mode=%s quotes=%s)", cfg.HTTPAddr, cfg.AppMode, cfg.QuoteSource)
	log.Printf("health endpoint: http://localhost%s/health", cfg.HTTPAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		sched.Stop()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
