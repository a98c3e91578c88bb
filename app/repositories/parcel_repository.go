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

// ParcelMongo stores parcels in the parcels collection.
type ParcelMongo struct {
	col *mongo.Collection
}

func NewParcelRepository(col *mongo.Collection) *ParcelMongo {
	return &ParcelMongo{col: col}
}

func (r *ParcelMongo) Insert(ctx context.Context, p *models.Parcel) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Parcels, "insert", time.Now())

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(res), nil
}

func (r *ParcelMongo) List(ctx context.Context, owner string) ([]models.Parcel, error) {
	defer metrics.ObserveDBQuery(database.Parcels, "find", time.Now())

	filter := bson.M{}
	if owner != "" {
		filter["created_by"] = owner
	}
	opts := options.Find().SetSort(bson.D{{Key: "creation_date", Value: -1}})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	parcels := []models.Parcel{}
	if err := cur.All(ctx, &parcels); err != nil {
		return nil, err
	}
	return parcels, nil
}

func (r *ParcelMongo) FindByID(ctx context.Context, id primitive.ObjectID) (models.Parcel, error) {
	defer metrics.ObserveDBQuery(database.Parcels, "find_one", time.Now())

	var p models.Parcel
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	return p, mapErr(err)
}

func (r *ParcelMongo) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	defer metrics.ObserveDBQuery(database.Parcels, "delete", time.Now())

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *ParcelMongo) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (UpdateResult, error) {
	defer metrics.ObserveDBQuery(database.Parcels, "update", time.Now())

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"payment_status": status}})
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}
