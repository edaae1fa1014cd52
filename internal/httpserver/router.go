package httpserver

import (
	"net/http"

	"lv-tradesense/internal/accounts"
	"lv-tradesense/internal/auth"
	"lv-tradesense/internal/health"
	"lv-tradesense/internal/marketdata"
	"lv-tradesense/internal/trading"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	AuthHandler     *auth.Handler
	AccountsHandler *accounts.Handler
	TradingHandler  *trading.Handler
	MarketHandler   *marketdata.Handler
	HealthHandler   *health.Handler
	AuthService     TokenParser
	InternalToken   string
	WSHandler       http.Handler
	RateLimiter     *RateLimiter
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(SecurityHeaders)
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware)
	}

	r.Get("/health", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", d.AuthHandler.Register)
		r.Post("/auth/login", d.AuthHandler.Login)
		r.Get("/plans", d.AccountsHandler.Plans)
		r.Get("/quotes/{symbol}", d.MarketHandler.Quote)
		if d.WSHandler != nil {
			r.Get("/ws", d.WSHandler.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Get("/me", authed(d.AuthHandler.Me))

			r.Route("/challenges", func(r chi.Router) {
				r.Get("/", authed(d.AccountsHandler.List))
				r.Post("/", authed(d.AccountsHandler.Create))
				r.Get("/active", authed(d.AccountsHandler.Active))
				r.Get("/{id}", authed(d.AccountsHandler.Get))
				r.Get("/{id}/status", authed(d.AccountsHandler.Status))
				r.Get("/{id}/metrics", authed(d.AccountsHandler.Metrics))
				r.Post("/{id}/evaluate", authed(d.TradingHandler.Evaluate))
			})
			r.Post("/trades", authed(d.TradingHandler.Settle))
			r.Get("/trades", authed(d.TradingHandler.Trades))
			r.Get("/positions", authed(d.TradingHandler.Positions))
		})

		r.Group(func(r chi.Router) {
			r.Use(InternalAuth(d.InternalToken))
			r.Post("/internal/daily-reset", d.TradingHandler.DailyReset)
			r.Post("/internal/sweep", d.TradingHandler.Sweep)
			r.Post("/internal/quotes", d.MarketHandler.SetPrice)
			r.Get("/internal/metrics", d.HealthHandler.Metrics)
		})
	})
	return r
}
