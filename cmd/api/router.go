package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storecart/internal/cart"
	"github.com/noah-isme/storecart/internal/catalog"
	"github.com/noah-isme/storecart/internal/client"
	"github.com/noah-isme/storecart/internal/common"
	"github.com/noah-isme/storecart/internal/config"
	"github.com/noah-isme/storecart/internal/health"
	"github.com/noah-isme/storecart/internal/obs"
	"github.com/noah-isme/storecart/internal/ratelimit"
	"github.com/noah-isme/storecart/internal/resilience"
	"github.com/noah-isme/storecart/internal/security"
)

type routerDeps struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Redis   *redis.Client
	Catalog *catalog.Service
	Carts   *cart.Service
	Tracing bool
}

func newRouter(d routerDeps) http.Handler {
	cfg := d.Config

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.EnablePrometheus {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	var limiter ratelimit.Allower = ratelimit.NewMemoryWindow("ratelimit")
	if d.Redis != nil {
		limiter = ratelimit.Fallback{
			Primary:   ratelimit.RedisWindow{Client: d.Redis, Prefix: "ratelimit:"},
			Secondary: limiter,
			Breaker: resilience.NewBreaker(5, 0.5, 30*time.Second).
				WithTarget("redis_ratelimit").
				WithLogger(d.Logger),
		}
	}
	limit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: func(err error) { d.Logger.Error().Err(err).Msg("rate limiter unavailable") },
	}
	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL, Scope: client.Key}

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: d.Catalog})
	cartHandler := &cart.Handler{Svc: d.Carts, Currency: cfg.CurrencyCode}
	healthHandler := health.Handler{Probes: map[string]health.Probe{"redis": health.RedisProbe(d.Redis)}}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(security.Headers{EnableHSTS: cfg.EnableHSTS}.Middleware)
	r.Use(client.NewResolver("").Middleware)
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", common.IdempotencyHeader, client.DefaultHeader},
		ExposedHeaders: []string{"X-Total-Count", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if httpMetrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.EnablePprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
		v.Route("/items", func(items chi.Router) {
			items.Get("/", catalogHandler.List)
			items.Get("/{sku}", catalogHandler.Get)
			items.With(limit.Middleware, idem.Middleware).Post("/", catalogHandler.Register)
		})

		v.Route("/carts", func(c chi.Router) {
			c.Get("/{id}", cartHandler.Get)
			c.Get("/{id}/total", cartHandler.Total)
			c.Get("/{id}/size", cartHandler.Size)
			c.Group(func(g chi.Router) {
				g.Use(limit.Middleware)
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Create)
				g.Put("/{id}/items/{sku}", cartHandler.SetItem)
				g.Delete("/{id}/items/{sku}", cartHandler.RemoveItem)
				g.Delete("/{id}/items", cartHandler.Clear)
				g.Put("/{id}/membership", cartHandler.SetMembership)
				g.Delete("/{id}", cartHandler.Delete)
			})
		})
	})

	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
