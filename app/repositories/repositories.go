// Package repositories persists the domain entities in MongoDB.
//
// Services depend on the interfaces declared here; app/repositories/memory
// provides in-process implementations for tests and the memory store driver.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/pkg/database"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("repositories: document not found")
	ErrDuplicate = errors.New("repositories: duplicate key")
	ErrInvalidID = errors.New("repositories: invalid id")
)

// UpdateResult reports how many documents an update matched and changed.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

type ParcelRepository interface {
	Insert(ctx context.Context, p *models.Parcel) (primitive.ObjectID, error)
	// List returns parcels newest first, restricted to owner when non-empty.
	List(ctx context.Context, owner string) ([]models.Parcel, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Parcel, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (UpdateResult, error)
}

type PaymentRepository interface {
	Insert(ctx context.Context, p *models.Payment) (primitive.ObjectID, error)
	// List returns payments latest first, restricted to email when non-empty.
	List(ctx context.Context, email string) ([]models.Payment, error)
}

type TrackingRepository interface {
	Insert(ctx context.Context, e *models.TrackingEvent) (primitive.ObjectID, error)
	// ListByTrackingID returns events oldest first.
	ListByTrackingID(ctx context.Context, trackingID string) ([]models.TrackingEvent, error)
}

type UserRepository interface {
	Insert(ctx context.Context, u *models.User) (primitive.ObjectID, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	TouchLogin(ctx context.Context, email string, at time.Time) error
	// Search matches email case-insensitively on a substring.
	Search(ctx context.Context, emailPart string, limit int) ([]models.UserSummary, error)
	// SetRole moves the user from role `from` to `to`. An empty previous
	// clears previous_role. Matched is 0 when the user no longer holds `from`.
	SetRole(ctx context.Context, email string, from, to, previous models.Role) (UpdateResult, error)
}

type RiderRepository interface {
	Insert(ctx context.Context, r *models.Rider) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Rider, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// List returns riders in any of statuses whose name contains nameLike,
	// case-insensitively. An empty nameLike matches every rider.
	List(ctx context.Context, statuses []models.RiderStatus, nameLike string) ([]models.Rider, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.RiderStatus) (UpdateResult, error)
}

type CascadeRepository interface {
	Insert(ctx context.Context, c *models.Cascade) (primitive.ObjectID, error)
	SetState(ctx context.Context, id primitive.ObjectID, state models.CascadeState, detail string, at time.Time) error
	// List returns records newest first, restricted to state when non-empty.
	List(ctx context.Context, state models.CascadeState, limit int) ([]models.Cascade, error)
}

// Set bundles one repository per collection.
type Set struct {
	Parcels  ParcelRepository
	Payments PaymentRepository
	Tracking TrackingRepository
	Users    UserRepository
	Riders   RiderRepository
	Cascades CascadeRepository
}

// NewMongo builds the MongoDB-backed repository set.
func NewMongo(db *database.DB) Set {
	return Set{
		Parcels:  NewParcelRepository(db.Collection(database.Parcels)),
		Payments: NewPaymentRepository(db.Collection(database.Payments)),
		Tracking: NewTrackingRepository(db.Collection(database.Tracking)),
		Users:    NewUserRepository(db.Collection(database.Users)),
		Riders:   NewRiderRepository(db.Collection(database.Riders)),
		Cascades: NewCascadeRepository(db.Collection(database.Cascades)),
	}
}

// ParseID converts a 24-hex string to an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

func insertedID(res *mongo.InsertOneResult) primitive.ObjectID {
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}
