package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackingEvent is one append-only status entry for a tracking id.
type TrackingEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"        json:"_id"`
	TrackingID string             `bson:"tracking_id"          json:"tracking_id"`
	ParcelID   string             `bson:"parcel_id,omitempty"  json:"parcel_id,omitempty"`
	Status     string             `bson:"status"               json:"status"`
	Message    string             `bson:"message"              json:"message"`
	UpdatedBy  string             `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
	Timestamp  time.Time          `bson:"timestamp"            json:"timestamp"`
}
