package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeviceRepository stores web-push subscriptions.
type DeviceRepository struct {
	collection *mongo.Collection
}

func NewDeviceRepository(db *mongo.Database) *DeviceRepository {
	return &DeviceRepository{
		collection: db.Collection("devices"),
	}
}

// UpsertDevice inserts the device or, when (user_id, endpoint) already
// exists, overwrites its keys and title.
func (r *DeviceRepository) UpsertDevice(ctx context.Context, d *models.Device) (*models.Device, error) {
	now := time.Now()
	filter := bson.M{"user_id": d.UserID, "endpoint": d.Endpoint}
	update := bson.M{
		"$set": bson.M{
			"keys":       d.Keys,
			"title":      d.Title,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Device
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		logrus.WithError(err).WithField("user_id", d.UserID.Hex()).Error("Failed to upsert device")
		return nil, fmt.Errorf("failed to upsert device: %w", err)
	}
	return &saved, nil
}

func (r *DeviceRepository) GetDevice(ctx context.Context, userID primitive.ObjectID, endpoint string) (*models.Device, error) {
	var d models.Device
	if err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "endpoint": endpoint}).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to find device: %w", translate(err))
	}
	return &d, nil
}

func (r *DeviceRepository) GetDeviceByID(ctx context.Context, id primitive.ObjectID) (*models.Device, error) {
	var d models.Device
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to find device: %w", translate(err))
	}
	return &d, nil
}

func (r *DeviceRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Device, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer cursor.Close(ctx)

	devices := []models.Device{}
	if err := cursor.All(ctx, &devices); err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}
	return devices, nil
}

func (r *DeviceRepository) DeleteByEndpoint(ctx context.Context, userID primitive.ObjectID, endpoint string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "endpoint": endpoint})
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DeviceRepository) UpdateTitle(ctx context.Context, id primitive.ObjectID, title string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"title": title, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to rename device: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
