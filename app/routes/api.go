package routes

import (
	"github.com/shashiranjanraj/parcelhub/app/controllers"
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/pkg/ctx"
	"github.com/shashiranjanraj/parcelhub/pkg/router"
	"github.com/shashiranjanraj/parcelhub/pkg/ws"
)

// Controllers holds one controller per resource.
type Controllers struct {
	Home     *controllers.HomeController
	Parcels  *controllers.ParcelController
	Payments *controllers.PaymentController
	Tracking *controllers.TrackingController
	Users    *controllers.UserController
	Riders   *controllers.RiderController
}

// NewControllers builds the controllers over svc. store backs /health and
// may be nil.
func NewControllers(svc *services.Services, store controllers.Pinger, hub *ws.Hub) Controllers {
	return Controllers{
		Home:     controllers.NewHomeController(store),
		Parcels:  controllers.NewParcelController(svc.Parcels),
		Payments: controllers.NewPaymentController(svc.Payments),
		Tracking: controllers.NewTrackingController(svc.Tracking, hub),
		Users:    controllers.NewUserController(svc.Users),
		Riders:   controllers.NewRiderController(svc.Riders),
	}
}

// RegisterAPI mounts the public and token-protected routes.
func RegisterAPI(r *router.Router, c Controllers, requireAuth router.Middleware) {
	r.Get("/", "home", ctx.Wrap(c.Home.Index))
	r.Get("/health", "health", ctx.Wrap(c.Home.Health))

	// Tracking log
	r.Post("/track", "track.store", ctx.Wrap(c.Tracking.Store))
	r.Get("/track/{tracking_id}", "track.history", ctx.Wrap(c.Tracking.History))
	r.Get("/track/{tracking_id}/live", "track.live", ctx.Wrap(c.Tracking.Live))

	// Users
	r.Post("/users", "users.store", ctx.Wrap(c.Users.Store))
	r.Get("/users/search", "users.search", ctx.Wrap(c.Users.Search))
	r.Get("/users/{email}/role", "users.role", ctx.Wrap(c.Users.ShowRole))
	r.Patch("/users/role/{email}", "users.role.update", ctx.Wrap(c.Users.UpdateRole))

	// Riders
	r.Post("/riders", "riders.store", ctx.Wrap(c.Riders.Store))
	r.Get("/riders/pending", "riders.pending", ctx.Wrap(c.Riders.Pending))
	r.Get("/riders/active", "riders.active", ctx.Wrap(c.Riders.Active))
	r.Patch("/riders/update-status/{id}", "riders.status", ctx.Wrap(c.Riders.UpdateStatus))

	protected := r.Group("", requireAuth)

	// Parcels
	protected.Post("/parcels", "parcels.store", ctx.Wrap(c.Parcels.Store))
	protected.Get("/parcels", "parcels.index", ctx.Wrap(c.Parcels.Index))
	protected.Get("/parcels/{id}", "parcels.show", ctx.Wrap(c.Parcels.Show))
	protected.Delete("/parcels/{id}", "parcels.destroy", ctx.Wrap(c.Parcels.Destroy))
	protected.Get("/myparcels", "parcels.mine", ctx.Wrap(c.Parcels.Mine))

	// Payments
	protected.Post("/create-payment-intent", "payments.intent", ctx.Wrap(c.Payments.CreateIntent))
	protected.Post("/payments", "payments.store", ctx.Wrap(c.Payments.Store))
	protected.Get("/payments", "payments.index", ctx.Wrap(c.Payments.Index))
}
