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

// UserMongo stores users keyed by email.
type UserMongo struct {
	col *mongo.Collection
}

func NewUserRepository(col *mongo.Collection) *UserMongo {
	return &UserMongo{col: col}
}

func (r *UserMongo) Insert(ctx context.Context, u *models.User) (primitive.ObjectID, error) {
	defer metrics.ObserveDBQuery(database.Users, "insert", time.Now())

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(res), nil
}

func (r *UserMongo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	defer metrics.ObserveDBQuery(database.Users, "find_one", time.Now())

	var u models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, mapErr(err)
}

func (r *UserMongo) TouchLogin(ctx context.Context, email string, at time.Time) error {
	defer metrics.ObserveDBQuery(database.Users, "update", time.Now())

	res, err := r.col.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"last_log_in": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserMongo) Search(ctx context.Context, emailPart string, limit int) ([]models.UserSummary, error) {
	defer metrics.ObserveDBQuery(database.Users, "find", time.Now())

	filter := bson.M{"email": primitive.Regex{Pattern: regexp.QuoteMeta(emailPart), Options: "i"}}
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "email": 1, "role": 1, "created_at": 1}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	users := []models.UserSummary{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserMongo) SetRole(ctx context.Context, email string, from, to, previous models.Role) (UpdateResult, error) {
	defer metrics.ObserveDBQuery(database.Users, "update", time.Now())

	update := bson.M{"$set": bson.M{"role": to}}
	if previous != "" {
		update["$set"] = bson.M{"role": to, "previous_role": previous}
	} else {
		update["$unset"] = bson.M{"previous_role": ""}
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"email": email, "role": from}, update)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}
