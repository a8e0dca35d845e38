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
	ProductCollection = "products"
	OrderCollection   = "orders"
	UserCollection    = "users"
	CounterCollection = "counters"
)

// DBinstance connects to MongoDB and verifies the server answers.
func DBinstance(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the stores rely on. Index creation is
// idempotent, so this runs on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		ProductCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "available", Value: 1}}},
			{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
		},
		OrderCollection: {
			{Keys: bson.D{{Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		UserCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "active", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", name, err)
		}
	}
	return nil
}

// NextSequence atomically increments and returns the named counter, creating
// it on first use.
func NextSequence(ctx context.Context, db *mongo.Database, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	err := db.Collection(CounterCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("incrementing counter %s: %w", name, err)
	}
	return counter.Seq, nil
}

// SeedSequence raises the named counter to at least value. It lets a fresh
// counter continue after orders numbered before the counter existed.
func SeedSequence(ctx context.Context, db *mongo.Database, name string, value int64) error {
	_, err := db.Collection(CounterCollection).UpdateOne(
		ctx,
		bson.M{"_id": name},
		bson.D{{Key: "$max", Value: bson.D{{Key: "seq", Value: value}}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("seeding counter %s: %w", name, err)
	}
	return nil
}
