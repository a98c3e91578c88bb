package controllers

import (
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/pkg/ctx"
)

type PaymentController struct {
	svc *services.PaymentService
}

func NewPaymentController(svc *services.PaymentService) *PaymentController {
	return &PaymentController{svc: svc}
}

type intentInput struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// CreateIntent handles POST /create-payment-intent. amount is in the
// smallest currency unit.
func (pc *PaymentController) CreateIntent(c *ctx.Context) {
	var in intentInput
	if !c.BindJSONStrict(&in) {
		return
	}
	secret, err := pc.svc.CreateIntent(c.Context(), in.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]string{"clientSecret": secret})
}

// Store handles POST /payments.
func (pc *PaymentController) Store(c *ctx.Context) {
	var in services.RecordPaymentInput
	if !c.BindJSONStrict(&in) {
		return
	}
	res, err := pc.svc.Record(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	if res.Warning != "" {
		c.SuccessMessage(res.Warning, res)
		return
	}
	c.SuccessMessage("Payment recorded", res)
}

func (pc *PaymentController) Index(c *ctx.Context) {
	payments, err := pc.svc.List(c.Context(), c.Query("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(payments)
}
