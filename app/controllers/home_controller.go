package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/parcelhub/pkg/ctx"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HomeController struct {
	store Pinger
}

// NewHomeController returns the controller. store may be nil when the
// service runs on the memory driver.
func NewHomeController(store Pinger) *HomeController {
	return &HomeController{store: store}
}

func (hc *HomeController) Index(c *ctx.Context) {
	c.String(http.StatusOK, "Parcel Management Server is running")
}

func (hc *HomeController) Health(c *ctx.Context) {
	if hc.store != nil {
		pingCtx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := hc.store.Ping(pingCtx); err != nil {
			c.Log().Warn("health check failed", "error", err)
			c.ErrorDetail(http.StatusServiceUnavailable, "database unreachable", err.Error())
			return
		}
	}
	c.Success(map[string]any{"status": "ok", "time": time.Now().UTC()})
}
