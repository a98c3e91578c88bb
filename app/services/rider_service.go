package services

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"github.com/shashiranjanraj/parcelhub/pkg/event"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventRiderActivated is fired after a rider moves to active.
const EventRiderActivated = "rider.activated"

// RiderActivated is the payload of EventRiderActivated.
type RiderActivated struct {
	RiderID string
	Email   string
}

// RiderStatusInput is an administrator's status decision.
type RiderStatusInput struct {
	Status string `json:"status" validate:"required,in=accepted,rejected,active,deactivated"`
	Email  string `json:"email"  validate:"nullable,email"`
}

type RiderService struct {
	riders repositories.RiderRepository
	bus    *event.Bus
	now    func() time.Time
}

func NewRiderService(riders repositories.RiderRepository, bus *event.Bus) *RiderService {
	return &RiderService{riders: riders, bus: bus, now: models.Now}
}

// Apply stores a pending application. One application per email.
func (s *RiderService) Apply(ctx context.Context, doc map[string]any) (primitive.ObjectID, error) {
	rider, err := models.NewRider(doc, s.now())
	if err != nil {
		return primitive.NilObjectID, &Error{Kind: ErrInvalidInput, Message: "Invalid rider application", Cause: err}
	}

	exists, err := s.riders.ExistsByEmail(ctx, rider.Email)
	if err != nil {
		return primitive.NilObjectID, internal("Failed to check rider application", err)
	}
	if exists {
		return primitive.NilObjectID, conflict("Rider already applied")
	}

	id, err := s.riders.Insert(ctx, &rider)
	if errors.Is(err, repositories.ErrDuplicate) {
		return primitive.NilObjectID, conflict("Rider already applied")
	}
	if err != nil {
		return primitive.NilObjectID, internal("Failed to submit rider application", err)
	}
	return id, nil
}

func (s *RiderService) Pending(ctx context.Context) ([]models.Rider, error) {
	riders, err := s.riders.List(ctx, []models.RiderStatus{models.RiderPending}, "")
	if err != nil {
		return nil, internal("Failed to fetch pending riders", err)
	}
	return riders, nil
}

// Active returns accepted and active riders whose name contains search.
func (s *RiderService) Active(ctx context.Context, search string) ([]models.Rider, error) {
	riders, err := s.riders.List(ctx, models.ActiveRiderStatuses, search)
	if err != nil {
		return nil, internal("Failed to fetch active riders", err)
	}
	return riders, nil
}

// UpdateStatus moves a rider to a new status. Activation fires
// EventRiderActivated; listener failures are logged by the bus and do not
// affect the result.
func (s *RiderService) UpdateStatus(ctx context.Context, id string, in RiderStatusInput) (models.RiderStatus, error) {
	status, err := models.ParseRiderStatus(in.Status)
	if err != nil {
		return "", invalid("Invalid status")
	}
	oid, err := repositories.ParseID(id)
	if err != nil {
		return "", invalid("Invalid rider id")
	}

	email := normalizeEmail(in.Email)
	if status == models.RiderActive && email == "" {
		rider, err := s.riders.FindByID(ctx, oid)
		if errors.Is(err, repositories.ErrNotFound) {
			return "", notFound("Rider not found")
		}
		if err != nil {
			return "", internal("Failed to fetch rider", err)
		}
		email = rider.Email
	}

	res, err := s.riders.SetStatus(ctx, oid, status)
	if err != nil {
		return "", internal("Failed to update rider status", err)
	}
	if res.Matched == 0 {
		return "", notFound("Rider not found")
	}
	if res.Modified == 0 {
		return "", noChange("Rider not found or status not updated")
	}

	if status == models.RiderActive && s.bus != nil {
		s.bus.Fire(ctx, EventRiderActivated, RiderActivated{RiderID: oid.Hex(), Email: email})
	}
	return status, nil
}
