package repositories

import (
	"context"
	"regexp"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/pkg/database"
	"github.com/shashiranjanraj/parcelhub/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RiderMongo stores rider applications. riders.email carries a unique index.
type RiderMongo struct {
	col *mongo.Collection
}

func NewRiderRepository(col *mongo.Collection) *RiderMongo {
	return &RiderMongo{col: col}
}

func (r *RiderMongo) Insert(ctx context.Context, rider *models.Rider) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Riders, "insert", time.Now())

	if rider.ID.IsZero() {
		rider.ID = primitive.NewObjectID()
	}
	res, err := r.col.InsertOne(ctx, rider)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(res), nil
}

func (r *RiderMongo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Rider, error) {
	defer metrics.ObserveDBQuery(database.Riders, "find_one", time.Now())

	var rider models.Rider
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rider)
	return rider, mapErr(err)
}

func (r *RiderMongo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	defer metrics.ObserveDBQuery(database.Riders, "count", time.Now())

	n, err := r.col.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RiderMongo) List(ctx context.Context, statuses []models.RiderStatus, nameLike string) ([]models.Rider, error) {
	defer metrics.ObserveDBQuery(database.Riders, "find", time.Now())

	filter := bson.M{}
	switch len(statuses) {
	case 0:
	case 1:
		filter["status"] = statuses[0]
	default:
		filter["status"] = bson.M{"$in": statuses}
	}
	if nameLike != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(nameLike), Options: "i"}
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "applied_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	riders := []models.Rider{}
	if err := cur.All(ctx, &riders); err != nil {
		return nil, err
	}
	return riders, nil
}

func (r *RiderMongo) SetStatus(ctx context.Context, id primitive.ObjectID, status models.RiderStatus) (UpdateResult, error) {
	defer metrics.ObserveDBQuery(database.Riders, "update", time.Now())

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}
