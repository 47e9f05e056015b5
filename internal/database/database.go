package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/config"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB opens the single process-wide client and returns the application
// database. Every repository receives this handle; none dials on its own.
func ConnectDB(cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logrus.WithField("db", cfg.DBName).Info("Connected to MongoDB")
	return client.Database(cfg.DBName), nil
}

// EnsureIndexes creates the unique constraints the domain relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"user_prayer_groups": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "prayer_group_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "prayer_group_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		"devices": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "endpoint", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"prayer_request_shares": {
			{
				Keys: bson.D{
					{Key: "prayer_request_id", Value: 1},
					{Key: "shared_with_id", Value: 1},
					{Key: "shared_with_type", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "shared_with_type", Value: 1}, {Key: "shared_with_id", Value: 1}}},
		},
		"prayer_requests": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
		"notifications": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	logrus.Info("MongoDB indexes ensured")
	return nil
}

// Disconnect closes the client behind db.
func Disconnect(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}
