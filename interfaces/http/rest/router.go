// Package rest wires the chi router for the Kraxel API.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kraxel-io/kraxel-api/interfaces/http/rest/handlers"
	"github.com/kraxel-io/kraxel-api/interfaces/http/rest/middleware"
	"github.com/kraxel-io/kraxel-api/pkg/response"
)

const (
	apiName    = "Kraxel API"
	apiVersion = "1.0.0"
)

// Router assembles middleware and endpoint handlers.
type Router struct {
	transactions *handlers.TransactionHandler
	tokens       *handlers.TokenHandler
	swaps        *handlers.SwapHandler
	prices       *handlers.PriceHandler
	admin        *handlers.AdminHandler

	corsOrigins   []string
	slowThreshold time.Duration
	logger        *zap.Logger
}

// NewRouter creates a router over the given handlers.
func NewRouter(
	transactions *handlers.TransactionHandler,
	tokens *handlers.TokenHandler,
	swaps *handlers.SwapHandler,
	prices *handlers.PriceHandler,
	admin *handlers.AdminHandler,
	corsOrigins []string,
	slowThreshold time.Duration,
	logger *zap.Logger,
) *Router {
	return &Router{
		transactions:  transactions,
		tokens:        tokens,
		swaps:         swaps,
		prices:        prices,
		admin:         admin,
		corsOrigins:   corsOrigins,
		slowThreshold: slowThreshold,
		logger:        logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger, rt.slowThreshold))
	router.Use(middleware.Metrics)
	router.Use(middleware.CacheBypass)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-No-Cache"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Process-Time-Ms"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/", rt.root)
	router.Get("/health", rt.health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/transactions", rt.transactions.Routes)
	router.Route("/tokens", rt.tokens.Routes)
	router.Route("/swaps", rt.swaps.Routes)
	router.Route("/prices", rt.prices.Routes)
	router.Route("/admin", rt.admin.Routes)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Resource not found", r.URL.Path)
	})

	return router
}

func (rt *Router) root(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]any{
		"name":        apiName,
		"version":     apiVersion,
		"description": "Blockchain data API",
	}, nil)
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]any{"status": "ok"}, nil)
}
