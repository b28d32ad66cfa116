package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tair/warehouse-erp/pkg/auth"
	"github.com/tair/warehouse-erp/pkg/grpcx"
	"github.com/tair/warehouse-erp/pkg/httpx"
)

// APIPrefix is where the module routes are mounted
const APIPrefix = "/api/v1"

// RouterConfig holds what the router needs besides the handlers
type RouterConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	AllowedOrigins []string
	Auth           *auth.Validator
	Metrics        *httpx.Metrics
	Gatherer       prometheus.Gatherer
	DB             grpcx.Pinger
}

// NewRouter builds the HTTP handler: middlewares, health, metrics and the
// authenticated module routes
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	mw := httpx.DefaultMiddlewareConfig(cfg.ServiceName, cfg.Metrics)
	if cfg.RequestTimeout > 0 {
		mw.TimeoutDuration = cfg.RequestTimeout
	}
	if len(cfg.AllowedOrigins) > 0 {
		mw.CORSOptions.AllowedOrigins = cfg.AllowedOrigins
	}
	httpx.RegisterMiddlewares(router, mw)

	router.HandleFunc("/health", healthCheck(cfg.DB)).Methods("GET")

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	validator := cfg.Auth
	if validator == nil {
		validator = auth.NewValidator("")
	}
	api := router.PathPrefix(APIPrefix).Subrouter()
	api.Use(httpx.AuthMiddleware(validator))

	h.Products.RegisterRoutes(api)
	h.Warehouses.RegisterRoutes(api)
	h.Inventory.RegisterRoutes(api)
	h.Orders.RegisterRoutes(api)

	return httpx.CORS(mw, router)
}

func healthCheck(db grpcx.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			httpx.JSON(w, http.StatusOK, httpx.Response{Success: true, Data: map[string]string{"status": "healthy"}})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, httpx.Response{
				Success: false,
				Message: "database unreachable",
				Data:    map[string]string{"status": "unhealthy", "database": "down"},
			})
			return
		}
		httpx.JSON(w, http.StatusOK, httpx.Response{
			Success: true,
			Data:    map[string]string{"status": "healthy", "database": "up"},
		})
	}
}
