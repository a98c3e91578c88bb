// Package database manages the MongoDB connection shared by all repositories.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	Parcels  = "parcels"
	Payments = "payments"
	Tracking = "tracking"
	Users    = "users"
	Riders   = "riders"
	Cascades = "cascades"
	Logs     = "logs"
)

// DB holds the client and the application database handle. It is built once
// at startup and passed to the repositories.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect opens the client, configures the pool and verifies the connection.
// Returns an error instead of exiting so the caller can shut down gracefully.
func Connect(ctx context.Context, uri, name string) (*DB, error) {
	clientOpts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50).
		SetMaxConnIdleTime(2 * time.Minute).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return &DB{Client: client, Database: client.Database(name)}, nil
}

// Collection returns a handle to the named collection.
func (d *DB) Collection(name string) *mongo.Collection {
	return d.Database.Collection(name)
}

// Ping verifies the primary is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// Index is one index declaration for EnsureIndexes.
type Index struct {
	Collection string
	Keys       bson.D
	Unique     bool
}

// Indexes lists the indexes the service relies on.
var Indexes = []Index{
	{Collection: Users, Keys: bson.D{{Key: "email", Value: 1}}, Unique: true},
	{Collection: Riders, Keys: bson.D{{Key: "email", Value: 1}}, Unique: true},
	{Collection: Riders, Keys: bson.D{{Key: "status", Value: 1}}},
	{Collection: Parcels, Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "creation_date", Value: -1}}},
	{Collection: Payments, Keys: bson.D{{Key: "email", Value: 1}, {Key: "payment_time", Value: -1}}},
	{Collection: Tracking, Keys: bson.D{{Key: "tracking_id", Value: 1}, {Key: "timestamp", Value: 1}}},
	{Collection: Cascades, Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
	{Collection: Logs, Keys: bson.D{{Key: "time", Value: -1}}},
}

// EnsureIndexes creates every entry of Indexes and returns the created names.
func (d *DB) EnsureIndexes(ctx context.Context) ([]string, error) {
	var names []string
	for _, idx := range Indexes {
		opts := options.Index()
		if idx.Unique {
			opts.SetUnique(true)
		}
		name, err := d.Collection(idx.Collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    idx.Keys,
			Options: opts,
		})
		if err != nil {
			return names, fmt.Errorf("database: index on %s: %w", idx.Collection, err)
		}
		names = append(names, idx.Collection+"."+name)
	}
	return names, nil
}
