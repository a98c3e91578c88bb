// Package breaker builds circuit breakers for outbound dependencies
// (identity provider key fetch, payment gateway).
package breaker

import (
	"errors"
	"time"

	"github.com/shashiranjanraj/parcelhub/pkg/logger"
	"github.com/shashiranjanraj/parcelhub/pkg/metrics"
	"github.com/sony/gobreaker"
)

// Names of the breakers used by the service.
const (
	IdentityKeys   = "identity-keys"
	PaymentGateway = "payment-gateway"
)

// ErrOpen is returned instead of calling the dependency while the breaker is open.
var ErrOpen = errors.New("breaker: dependency unavailable")

// Breaker wraps a gobreaker.CircuitBreaker and counts outcomes per target.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a breaker that opens after 3 consecutive failures. Every
// error counts as a failure.
func New(name string) *Breaker {
	return NewWithClassifier(name, nil)
}

// NewWithClassifier is New with a custom outcome check: errors for which
// isSuccessful reports true are returned to the caller but do not count
// towards opening the breaker. A nil isSuccessful treats only nil as success.
func NewWithClassifier(name string, isSuccessful func(err error) bool) *Breaker {
	timeout := 30 * time.Second
	if name == IdentityKeys {
		timeout = 10 * time.Second
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})}
}

// Name returns the breaker's name.
func (b *Breaker) Name() string { return b.cb.Name() }

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Do runs fn through the breaker. Open-state rejections are reported as ErrOpen.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})

	var zero T
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordGateway(b.Name(), "open")
		return zero, ErrOpen
	case err != nil:
		metrics.RecordGateway(b.Name(), "error")
		return zero, err
	}

	metrics.RecordGateway(b.Name(), "ok")
	v, _ := out.(T)
	return v, nil
}
