package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/pkg/database"
	"github.com/shashiranjanraj/parcelhub/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentMongo stores payments in the payments collection.
type PaymentMongo struct {
	col *mongo.Collection
}

func NewPaymentRepository(col *mongo.Collection) *PaymentMongo {
	return &PaymentMongo{col: col}
}

func (r *PaymentMongo) Insert(ctx context.Context, p *models.Payment) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Payments, "insert", time.Now())

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(res), nil
}

func (r *PaymentMongo) List(ctx context.Context, email string) ([]models.Payment, error) {
	defer metrics.ObserveDBQuery(database.Payments, "find", time.Now())

	filter := bson.M{}
	if email != "" {
		filter["email"] = email
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "payment_time", Value: -1}}))
	if err != nil {
		return nil, err
	}
	payments := []models.Payment{}
	if err := cur.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
