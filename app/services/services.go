package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"github.com/shashiranjanraj/parcelhub/internal/gateway"
	"github.com/shashiranjanraj/parcelhub/pkg/event"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
)

// Services bundles the application services. It is built once at startup.
type Services struct {
	Parcels  *ParcelService
	Payments *PaymentService
	Tracking *TrackingService
	Users    *UserService
	Riders   *RiderService
	Cascades *CascadeLog
}

// Config carries the collaborators the services need besides storage.
type Config struct {
	Gateway  gateway.PaymentGateway
	Currency string
	Bus      *event.Bus
	Live     Publisher
}

// New wires the services over repos and registers the cascade listeners on
// cfg.Bus (a new bus when nil).
func New(repos repositories.Set, cfg Config) *Services {
	if cfg.Bus == nil {
		cfg.Bus = event.NewBus()
	}
	if cfg.Gateway == nil {
		cfg.Gateway = gateway.Disabled{}
	}

	cascades := NewCascadeLog(repos.Cascades)
	s := &Services{
		Parcels:  NewParcelService(repos.Parcels),
		Payments: NewPaymentService(repos.Payments, repos.Parcels, cascades, cfg.Gateway, cfg.Currency),
		Tracking: NewTrackingService(repos.Tracking, cfg.Live),
		Users:    NewUserService(repos.Users),
		Riders:   NewRiderService(repos.Riders, cfg.Bus),
		Cascades: cascades,
	}
	RegisterListeners(cfg.Bus, s.Users, cascades)
	return s
}

// RegisterListeners attaches the rider-activation role cascade to bus.
func RegisterListeners(bus *event.Bus, users *UserService, cascades *CascadeLog) {
	bus.Listen(EventRiderActivated, func(ctx context.Context, payload interface{}) error {
		ev, ok := payload.(RiderActivated)
		if !ok {
			return fmt.Errorf("unexpected payload %T", payload)
		}

		cid := cascades.Begin(ctx, models.CascadeRiderRole, ev.RiderID, ev.Email)
		state, err := users.AssignRiderRole(ctx, ev.Email)
		detail := ""
		switch {
		case err != nil:
			detail = err.Error()
		case state == models.CascadeUnmatched:
			detail = "user not found"
			logger.WithCtx(ctx).Warn("rider activated without a matching user",
				"rider_id", ev.RiderID, "email", ev.Email)
		}
		cascades.Finish(ctx, cid, models.CascadeRiderRole, state, detail)
		return err
	})
}
