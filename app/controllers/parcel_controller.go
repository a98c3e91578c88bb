package controllers

import (
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/pkg/ctx"
)

type ParcelController struct {
	svc *services.ParcelService
}

func NewParcelController(svc *services.ParcelService) *ParcelController {
	return &ParcelController{svc: svc}
}

// Store handles POST /parcels.
func (pc *ParcelController) Store(c *ctx.Context) {
	var doc map[string]any
	if !c.DecodeJSON(&doc) {
		return
	}
	id, err := pc.svc.Create(c.Context(), doc, c.CallerEmail())
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(map[string]any{"insertedId": id})
}

// Index handles GET /parcels with an optional ?email= owner filter.
func (pc *ParcelController) Index(c *ctx.Context) {
	parcels, err := pc.svc.List(c.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(parcels)
}

// Mine handles GET /myparcels. Without ?email= the caller's own parcels are
// listed.
func (pc *ParcelController) Mine(c *ctx.Context) {
	owner := c.DefaultQuery("email", c.CallerEmail())
	parcels, err := pc.svc.List(c.Context(), owner)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(parcels)
}

func (pc *ParcelController) Show(c *ctx.Context) {
	p, err := pc.svc.Get(c.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

func (pc *ParcelController) Destroy(c *ctx.Context) {
	n, err := pc.svc.Delete(c.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]any{"deletedCount": n})
}
