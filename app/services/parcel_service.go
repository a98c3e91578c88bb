package services

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"github.com/shashiranjanraj/parcelhub/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ParcelService struct {
	parcels repositories.ParcelRepository
	now     func() time.Time
}

func NewParcelService(parcels repositories.ParcelRepository) *ParcelService {
	return &ParcelService{parcels: parcels, now: models.Now}
}

// Create stores a parcel document. owner is used when the document carries no
// created_by.
func (s *ParcelService) Create(ctx context.Context, doc map[string]any, owner string) (primitive.ObjectID, error) {
	if len(doc) == 0 {
		return primitive.NilObjectID, invalid("Parcel data is missing")
	}
	p, err := models.NewParcel(doc, owner, s.now())
	if err != nil {
		return primitive.NilObjectID, &Error{Kind: ErrInvalidInput, Message: "Invalid parcel data", Cause: err}
	}

	id, err := s.parcels.Insert(ctx, &p)
	if err != nil {
		return primitive.NilObjectID, internal("Failed to add parcel", err)
	}
	metrics.ParcelsCreated.Inc()
	return id, nil
}

// List returns parcels newest first, for one owner when owner is non-empty.
func (s *ParcelService) List(ctx context.Context, owner string) ([]models.Parcel, error) {
	parcels, err := s.parcels.List(ctx, normalizeEmail(owner))
	if err != nil {
		return nil, internal("Failed to fetch parcels", err)
	}
	return parcels, nil
}

func (s *ParcelService) Get(ctx context.Context, id string) (models.Parcel, error) {
	oid, err := repositories.ParseID(id)
	if err != nil {
		return models.Parcel{}, invalid("Invalid parcel id")
	}
	p, err := s.parcels.FindByID(ctx, oid)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Parcel{}, notFound("Parcel not found")
	}
	if err != nil {
		return models.Parcel{}, internal("Failed to fetch parcel", err)
	}
	return p, nil
}

// Delete removes a parcel and returns how many documents went away. A missing
// parcel is not an error.
func (s *ParcelService) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := repositories.ParseID(id)
	if err != nil {
		return 0, invalid("Invalid parcel id")
	}
	n, err := s.parcels.Delete(ctx, oid)
	if err != nil {
		return 0, internal("Failed to delete parcel", err)
	}
	return n, nil
}
