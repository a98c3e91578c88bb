package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rider is a delivery-worker application. Application details beyond the
// fixed fields are kept in Fields.
type Rider struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name,omitempty"`
	Status    RiderStatus        `bson:"status"`
	AppliedAt time.Time          `bson:"applied_at"`
	Fields    map[string]any     `bson:",inline"`
}

var riderKeys = []string{"_id", "email", "name", "status", "applied_at"}

// NewRider builds a pending application from a client document.
func NewRider(doc map[string]any, now time.Time) (Rider, error) {
	email, _ := doc["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Rider{}, fmt.Errorf("email is required")
	}
	name, _ := doc["name"].(string)

	return Rider{
		Email:     email,
		Name:      name,
		Status:    RiderPending,
		AppliedAt: now,
		Fields:    extras(doc, riderKeys...),
	}, nil
}

func (r Rider) MarshalJSON() ([]byte, error) {
	fixed := map[string]any{
		"_id":        r.ID.Hex(),
		"email":      r.Email,
		"status":     r.Status,
		"applied_at": r.AppliedAt,
	}
	if r.Name != "" {
		fixed["name"] = r.Name
	}
	return flatten(r.Fields, fixed)
}

var _ json.Marshaler = Rider{}
