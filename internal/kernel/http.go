// Package kernel wires the application: it builds the stores, services and
// controllers once at startup and assembles the HTTP handler with the
// global middleware stack.
package kernel

import (
	"net/http"

	"github.com/shashiranjanraj/parcelhub/app/controllers"
	"github.com/shashiranjanraj/parcelhub/app/routes"
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/pkg/auth"
	"github.com/shashiranjanraj/parcelhub/pkg/metrics"
	"github.com/shashiranjanraj/parcelhub/pkg/middleware"
	"github.com/shashiranjanraj/parcelhub/pkg/reqid"
	"github.com/shashiranjanraj/parcelhub/pkg/router"
	"github.com/shashiranjanraj/parcelhub/pkg/ws"
)

// Deps are the collaborators the HTTP kernel is built from.
type Deps struct {
	Services    *services.Services
	Store       controllers.Pinger // nil on the memory driver
	Hub         *ws.Hub
	Verifier    auth.Verifier
	Limiter     *middleware.RateLimiter // nil disables rate limiting
	CORSOrigins []string
}

// HTTPKernel owns the router.
type HTTPKernel struct {
	router *router.Router
}

// NewHTTPKernel builds the router and its global middleware.
func NewHTTPKernel(d Deps) *HTTPKernel {
	r := router.New()

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics (outermost, times the whole request)
	//  2. Request ID
	//  3. Logger, tagged with request_id
	//  4. Recovery
	//  5. CORS
	//  6. Rate limiter
	r.Use(metrics.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(d.CORSOrigins)))
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware)
	}

	r.Get("/metrics", "metrics", metrics.Handler())

	c := routes.NewControllers(d.Services, d.Store, d.Hub)
	routes.RegisterAPI(r, c, middleware.Auth(d.Verifier))

	return &HTTPKernel{router: r}
}

// Handler returns the root http.Handler.
func (k *HTTPKernel) Handler() http.Handler {
	return k.router.Handler()
}

// Routes lists the named routes.
func (k *HTTPKernel) Routes() []router.RouteInfo {
	return k.router.Routes()
}
