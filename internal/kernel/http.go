// Package kernel builds the HTTP handler: global middleware, the operational
// endpoints and the /api route table.
package kernel

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shashiranjanraj/kabadi/app/routes"
	"github.com/shashiranjanraj/kabadi/internal/bootstrap"
	"github.com/shashiranjanraj/kabadi/pkg/metrics"
	"github.com/shashiranjanraj/kabadi/pkg/middleware"
	"github.com/shashiranjanraj/kabadi/pkg/reqid"
	"github.com/shashiranjanraj/kabadi/pkg/response"
	"github.com/shashiranjanraj/kabadi/pkg/router"
	"github.com/shashiranjanraj/kabadi/pkg/storage"
)

const healthTimeout = 2 * time.Second

// Options tune the global middleware.
type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int // 0 disables rate limiting
	StorageURL         string
	TrustedProxies     middleware.TrustedProxies
}

type HTTPKernel struct {
	router *router.Router
}

// NewHTTPKernel builds the router for app. ctx bounds background work such as
// the rate limiter's janitor.
func NewHTTPKernel(ctx context.Context, app *bootstrap.App, opts Options) *HTTPKernel {
	r := router.New()

	// Outermost first: metrics see total latency, recovery catches panics
	// before the logger writes, request ids exist before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.RealIP(opts.TrustedProxies))
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.CORSOptionsFor(opts.CORSOrigins)))
	if opts.RateLimitPerMinute > 0 {
		r.Use(middleware.RateLimit(ctx, opts.RateLimitPerMinute))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/health", "health", health(app))

	if disk, ok := app.Disk.(*storage.LocalDisk); ok {
		prefix := storagePrefix(opts.StorageURL)
		r.Mount(prefix, "storage", http.StripPrefix(prefix, http.FileServer(http.Dir(disk.Root()))))
	}

	routes.RegisterAPI(r, app.API())
	return &HTTPKernel{router: r}
}

func (k *HTTPKernel) Handler() http.Handler  { return k.router.Handler() }
func (k *HTTPKernel) Routes() []router.Route { return k.router.Routes() }

func health(app *bootstrap.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := app.Store.Ping(ctx); err != nil {
			response.ErrorWithCause(w, http.StatusServiceUnavailable, "Store unreachable", err.Error())
			return
		}
		response.Success(w, map[string]interface{}{
			"status":       "ok",
			"transactions": app.Store.Transactional(),
			"feedClients":  app.Hub.ClientCount(),
		})
	}
}

// storagePrefix is the path part of the public storage URL, default /storage.
func storagePrefix(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || strings.Trim(u.Path, "/") == "" {
		return "/storage"
	}
	return "/" + strings.Trim(u.Path, "/")
}
