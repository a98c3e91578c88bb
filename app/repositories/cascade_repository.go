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

// CascadeMongo stores cascade records.
type CascadeMongo struct {
	col *mongo.Collection
}

func NewCascadeRepository(col *mongo.Collection) *CascadeMongo {
	return &CascadeMongo{col: col}
}

func (r *CascadeMongo) Insert(ctx context.Context, c *models.Cascade) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Cascades, "insert", time.Now())

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	res, err := r.col.InsertOne(ctx, c)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(res), nil
}

func (r *CascadeMongo) SetState(ctx context.Context, id primitive.ObjectID, state models.CascadeState, detail string, at time.Time) error {
	defer metrics.ObserveDBQuery(database.Cascades, "update", time.Now())

	set := bson.M{"state": state, "updated_at": at}
	if detail != "" {
		set["detail"] = detail
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CascadeMongo) List(ctx context.Context, state models.CascadeState, limit int) ([]models.Cascade, error) {
	defer metrics.ObserveDBQuery(database.Cascades, "find", time.Now())

	filter := bson.M{}
	if state != "" {
		filter["state"] = state
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	records := []models.Cascade{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
