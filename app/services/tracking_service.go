package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Publisher pushes a message to the subscribers of a topic.
type Publisher interface {
	Publish(topic string, data []byte) bool
}

// TrackingInput is one status update for a tracking id.
type TrackingInput struct {
	TrackingID string `json:"tracking_id" validate:"required,max=128"`
	ParcelID   string `json:"parcel_id"`
	Status     string `json:"status"      validate:"required"`
	Message    string `json:"message"`
	UpdatedBy  string `json:"updated_by"`
}

type TrackingService struct {
	events repositories.TrackingRepository
	live   Publisher
	now    func() time.Time
}

// NewTrackingService returns the service. live may be nil.
func NewTrackingService(events repositories.TrackingRepository, live Publisher) *TrackingService {
	return &TrackingService{events: events, live: live, now: models.Now}
}

// Append stores an event stamped with the current time and pushes it to live
// subscribers of the tracking id.
func (s *TrackingService) Append(ctx context.Context, in TrackingInput) (primitive.ObjectID, error) {
	if in.TrackingID == "" || in.Status == "" {
		return primitive.NilObjectID, invalid("tracking_id and status are required")
	}
	ev := models.TrackingEvent{
		TrackingID: in.TrackingID,
		ParcelID:   in.ParcelID,
		Status:     in.Status,
		Message:    in.Message,
		UpdatedBy:  in.UpdatedBy,
		Timestamp:  s.now(),
	}
	id, err := s.events.Insert(ctx, &ev)
	if err != nil {
		return primitive.NilObjectID, internal("Failed to add tracking event", err)
	}

	if s.live != nil {
		if data, err := json.Marshal(ev); err == nil {
			s.live.Publish(ev.TrackingID, data)
		} else {
			logger.WithCtx(ctx).Warn("tracking event not published", "tracking_id", ev.TrackingID, "error", err)
		}
	}
	return id, nil
}

// History returns the events of a tracking id, oldest first.
func (s *TrackingService) History(ctx context.Context, trackingID string) ([]models.TrackingEvent, error) {
	events, err := s.events.ListByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, internal("Failed to fetch tracking events", err)
	}
	return events, nil
}
