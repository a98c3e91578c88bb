package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Parcel is a delivery request. Delivery details supplied by the client are
// kept as-is in Fields.
type Parcel struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	CreatedBy     string             `bson:"created_by"`
	CreationDate  time.Time          `bson:"creation_date"`
	PaymentStatus PaymentStatus      `bson:"payment_status"`
	Fields        map[string]any     `bson:",inline"`
}

var parcelKeys = []string{"_id", "created_by", "creation_date", "payment_status"}

// NewParcel builds a parcel from a client document. created_by falls back to
// owner, creation_date to now. The owner is stored lowercased. Any supplied
// payment_status is ignored.
func NewParcel(doc map[string]any, owner string, now time.Time) (Parcel, error) {
	p := Parcel{
		CreatedBy:     owner,
		CreationDate:  now,
		PaymentStatus: Unpaid,
		Fields:        extras(doc, parcelKeys...),
	}

	if v, ok := doc["created_by"]; ok && v != nil {
		s, isString := v.(string)
		if !isString {
			return Parcel{}, fmt.Errorf("created_by must be a string")
		}
		if s != "" {
			p.CreatedBy = s
		}
	}
	p.CreatedBy = strings.ToLower(strings.TrimSpace(p.CreatedBy))

	if v, ok := doc["creation_date"]; ok && v != nil {
		t, err := ParseTime(v)
		if err != nil {
			return Parcel{}, fmt.Errorf("creation_date: %w", err)
		}
		p.CreationDate = t
	}
	return p, nil
}

func (p Parcel) MarshalJSON() ([]byte, error) {
	return flatten(p.Fields, map[string]any{
		"_id":            p.ID.Hex(),
		"created_by":     p.CreatedBy,
		"creation_date":  p.CreationDate,
		"payment_status": p.PaymentStatus,
	})
}

var _ json.Marshaler = Parcel{}
