// Package gateway adapts the external payment processor.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/parcelhub/pkg/breaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrUnavailable is returned when no gateway is configured or its breaker is open.
var ErrUnavailable = errors.New("gateway: payment gateway unavailable")

// PaymentGateway creates payment intents for amounts in the smallest currency unit.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
}

// Stripe creates payment intents through the Stripe API.
type Stripe struct {
	sc *client.API
	cb *breaker.Breaker
}

// NewStripe returns a Stripe gateway authenticated with secretKey.
func NewStripe(secretKey string) *Stripe {
	return NewStripeWithBackend(secretKey, nil)
}

// NewStripeWithBackend routes API calls through backend (nil means the
// default Stripe endpoint).
func NewStripeWithBackend(secretKey string, backend stripe.Backend) *Stripe {
	sc := &client.API{}
	var backends *stripe.Backends
	if backend != nil {
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}
	sc.Init(secretKey, backends)
	return &Stripe{sc: sc, cb: breaker.NewWithClassifier(breaker.PaymentGateway, callerFault)}
}

// callerFault reports errors caused by the request itself (4xx from Stripe,
// cancelled contexts). They say nothing about gateway health.
func callerFault(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *stripe.Error
	return errors.As(err, &se) && se.HTTPStatusCode > 0 && se.HTTPStatusCode < 500
}

// CreateIntent returns the client secret of a new payment intent.
func (s *Stripe) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	secret, err := breaker.Do(s.cb, func() (string, error) {
		pi, err := s.sc.PaymentIntents.New(params)
		if err != nil {
			return "", err
		}
		return pi.ClientSecret, nil
	})
	if errors.Is(err, breaker.ErrOpen) {
		return "", ErrUnavailable
	}
	if err != nil {
		return "", fmt.Errorf("gateway: create intent: %w", err)
	}
	return secret, nil
}

// Disabled is used when no gateway key is configured.
type Disabled struct{}

func (Disabled) CreateIntent(context.Context, int64, string) (string, error) {
	return "", ErrUnavailable
}

// New returns a Stripe gateway, or Disabled when secretKey is empty.
func New(secretKey string) PaymentGateway {
	if secretKey == "" {
		return Disabled{}
	}
	return NewStripe(secretKey)
}
