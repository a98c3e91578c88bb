package controllers

import (
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/pkg/ctx"
)

type RiderController struct {
	svc *services.RiderService
}

func NewRiderController(svc *services.RiderService) *RiderController {
	return &RiderController{svc: svc}
}

// Store handles POST /riders.
func (rc *RiderController) Store(c *ctx.Context) {
	var doc map[string]any
	if !c.DecodeJSON(&doc) {
		return
	}
	id, err := rc.svc.Apply(c.Context(), doc)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(map[string]any{"insertedId": id})
}

func (rc *RiderController) Pending(c *ctx.Context) {
	riders, err := rc.svc.Pending(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(riders)
}

// Active handles GET /riders/active?search=.
func (rc *RiderController) Active(c *ctx.Context) {
	riders, err := rc.svc.Active(c.Context(), c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(riders)
}

// UpdateStatus handles PATCH /riders/update-status/{id}.
func (rc *RiderController) UpdateStatus(c *ctx.Context) {
	var in services.RiderStatusInput
	if !c.BindJSONStrict(&in) {
		return
	}
	status, err := rc.svc.UpdateStatus(c.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.SuccessMessage("Rider status updated to "+string(status), map[string]any{"status": status})
}
