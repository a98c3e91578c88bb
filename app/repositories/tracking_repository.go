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

// TrackingMongo appends to the tracking collection. It never updates or
// deletes.
type TrackingMongo struct {
	col *mongo.Collection
}

func NewTrackingRepository(col *mongo.Collection) *TrackingMongo {
	return &TrackingMongo{col: col}
}

func (r *TrackingMongo) Insert(ctx context.Context, e *models.TrackingEvent) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Tracking, "insert", time.Now())

	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	res, err := r.col.InsertOne(ctx, e)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(res), nil
}

func (r *TrackingMongo) ListByTrackingID(ctx context.Context, trackingID string) ([]models.TrackingEvent, error) {
	defer metrics.ObserveDBQuery(database.Tracking, "find", time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"tracking_id": trackingID}, opts)
	if err != nil {
		return nil, err
	}
	events := []models.TrackingEvent{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
