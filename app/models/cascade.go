package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cascade kinds.
const (
	CascadeParcelPaid = "payment.parcel_paid"
	CascadeRiderRole  = "rider.user_role"
)

// Cascade records the second step of a two-step write so a partial failure
// stays visible to operators.
type Cascade struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"    json:"_id"`
	Kind      string             `bson:"kind"             json:"kind"`
	SourceID  string             `bson:"source_id"        json:"source_id"`
	Target    string             `bson:"target"           json:"target"`
	State     CascadeState       `bson:"state"            json:"state"`
	Detail    string             `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt time.Time          `bson:"created_at"       json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"       json:"updated_at"`
}
