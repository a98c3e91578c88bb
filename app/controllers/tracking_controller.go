package controllers

import (
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/pkg/ctx"
	"github.com/shashiranjanraj/parcelhub/pkg/ws"
)

type TrackingController struct {
	svc *services.TrackingService
	hub *ws.Hub
}

func NewTrackingController(svc *services.TrackingService, hub *ws.Hub) *TrackingController {
	return &TrackingController{svc: svc, hub: hub}
}

// Store handles POST /track.
func (tc *TrackingController) Store(c *ctx.Context) {
	var in services.TrackingInput
	if !c.BindJSON(&in) {
		return
	}
	id, err := tc.svc.Append(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]any{"insertedId": id})
}

// History handles GET /track/{tracking_id}.
func (tc *TrackingController) History(c *ctx.Context) {
	events, err := tc.svc.History(c.Context(), c.Param("tracking_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(events)
}

// Live upgrades GET /track/{tracking_id}/live to a websocket that receives
// each new event for the tracking id.
func (tc *TrackingController) Live(c *ctx.Context) {
	ws.Upgrade(c.W, c.R, tc.hub, c.Param("tracking_id"))
}
