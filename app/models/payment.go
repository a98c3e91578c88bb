package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is an immutable record of a completed payment.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"  json:"_id"`
	ParcelID      primitive.ObjectID `bson:"parcelId"       json:"parcelId"`
	Amount        float64            `bson:"amount"         json:"amount"`
	TransactionID string             `bson:"transactionId"  json:"transactionId"`
	Email         string             `bson:"email"          json:"email"`
	Title         string             `bson:"title"          json:"title"`
	PaymentMethod string             `bson:"payment_method" json:"payment_method"`
	PaymentTime   time.Time          `bson:"payment_time"   json:"payment_time"`
}
