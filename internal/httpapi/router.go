// Package httpapi exposes the listing query over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"listing-workers/internal/common/logger"
	"listing-workers/internal/common/metrics"
	"listing-workers/internal/models"
	"listing-workers/internal/service"
)

type ListingService interface {
	Query(ctx context.Context, req service.QueryRequest) (service.QueryResult, error)
	Find(ctx context.Context, id string) (models.ListingView, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Service            ListingService
	Checks             map[string]HealthCheck
	RateLimitPerMinute int
	Logger             logger.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Logger.WithFields(map[string]interface{}{"component": "httpapi"})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/health", healthHandler(d.Checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if d.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(d.RateLimitPerMinute, time.Minute))
		}
		r.Use(render.SetContentType(render.ContentTypeJSON))
		RegisterListings(r, d.Service, log)
	})

	return r
}

// instrument counts requests by route pattern and status code.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
