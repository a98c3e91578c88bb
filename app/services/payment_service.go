package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"github.com/shashiranjanraj/parcelhub/internal/gateway"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
	"github.com/shashiranjanraj/parcelhub/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordPaymentInput is a confirmed payment reported by the client.
type RecordPaymentInput struct {
	ParcelID      string  `json:"parcelId"       validate:"required,objectid"`
	Amount        float64 `json:"amount"         validate:"required,gt=0"`
	TransactionID string  `json:"transactionId"  validate:"required"`
	Email         string  `json:"email"          validate:"required,email"`
	Title         string  `json:"title"          validate:"required"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
	PaymentTime   string  `json:"payment_time"   validate:"nullable,date"`
}

// RecordPaymentResult reports the stored payment and how many parcels were
// marked paid. Warning is set when the payment was stored but the parcel was
// not updated.
type RecordPaymentResult struct {
	InsertedID primitive.ObjectID `json:"insertedId"`
	Updated    int64              `json:"updated"`
	Warning    string             `json:"warning,omitempty"`
}

type PaymentService struct {
	payments repositories.PaymentRepository
	parcels  repositories.ParcelRepository
	cascades *CascadeLog
	gw       gateway.PaymentGateway
	currency string
	now      func() time.Time
}

func NewPaymentService(
	payments repositories.PaymentRepository,
	parcels repositories.ParcelRepository,
	cascades *CascadeLog,
	gw gateway.PaymentGateway,
	currency string,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		parcels:  parcels,
		cascades: cascades,
		gw:       gw,
		currency: currency,
		now:      models.Now,
	}
}

// CreateIntent asks the gateway for a payment intent of amount, given in the
// smallest currency unit, and returns its client secret.
func (s *PaymentService) CreateIntent(ctx context.Context, amount int64) (string, error) {
	if amount <= 0 {
		return "", invalid("Invalid amount")
	}
	secret, err := s.gw.CreateIntent(ctx, amount, s.currency)
	if errors.Is(err, gateway.ErrUnavailable) {
		return "", unavailable("Payment gateway unavailable", err)
	}
	if err != nil {
		return "", internal("Failed to create payment intent", err)
	}
	return secret, nil
}

// Record stores the payment, then marks the parcel paid. The second step is
// not atomic with the first: its outcome is written to the cascade log and
// reported through Updated and Warning, never as an error.
func (s *PaymentService) Record(ctx context.Context, in RecordPaymentInput) (RecordPaymentResult, error) {
	parcelID, err := repositories.ParseID(in.ParcelID)
	if err != nil {
		return RecordPaymentResult{}, invalid("Invalid parcelId")
	}
	if in.Amount <= 0 {
		return RecordPaymentResult{}, invalid("Invalid amount")
	}

	paidAt := s.now()
	if in.PaymentTime != "" {
		if paidAt, err = models.ParseTime(in.PaymentTime); err != nil {
			return RecordPaymentResult{}, invalid("Invalid payment_time")
		}
	}

	payment := models.Payment{
		ParcelID:      parcelID,
		Amount:        in.Amount,
		TransactionID: in.TransactionID,
		Email:         strings.ToLower(in.Email),
		Title:         in.Title,
		PaymentMethod: in.PaymentMethod,
		PaymentTime:   paidAt,
	}
	id, err := s.payments.Insert(ctx, &payment)
	if err != nil {
		return RecordPaymentResult{}, internal("Failed to record payment", err)
	}

	result := RecordPaymentResult{InsertedID: id}
	log := logger.WithCtx(ctx).With("payment_id", id.Hex(), "parcel_id", parcelID.Hex())

	cid := s.cascades.Begin(ctx, models.CascadeParcelPaid, id.Hex(), parcelID.Hex())
	res, err := s.parcels.SetPaymentStatus(ctx, parcelID, models.Paid)
	switch {
	case err != nil:
		log.Error("payment recorded but parcel not marked paid", "error", err)
		s.cascades.Finish(ctx, cid, models.CascadeParcelPaid, models.CascadeFailed, err.Error())
		result.Warning = "Payment recorded but the parcel status could not be updated"
	case res.Matched == 0:
		log.Warn("payment recorded for unknown parcel")
		s.cascades.Finish(ctx, cid, models.CascadeParcelPaid, models.CascadeUnmatched, "parcel not found")
		result.Warning = "Payment recorded but no parcel matched parcelId"
	default:
		result.Updated = res.Modified
		detail := ""
		if res.Modified == 0 {
			detail = "parcel already paid"
		}
		s.cascades.Finish(ctx, cid, models.CascadeParcelPaid, models.CascadeApplied, detail)
	}

	metrics.PaymentsRecorded.WithLabelValues(strconv.FormatBool(result.Updated > 0)).Inc()
	return result, nil
}

// List returns payments latest first, for one payer when email is non-empty.
func (s *PaymentService) List(ctx context.Context, email string) ([]models.Payment, error) {
	payments, err := s.payments.List(ctx, strings.ToLower(email))
	if err != nil {
		return nil, internal("Failed to fetch payments", err)
	}
	return payments, nil
}
