package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RequestFilter narrows FindByUser. Zero fields do not filter.
type RequestFilter struct {
	Status       models.RequestStatus
	Visibilities []models.Visibility
	IDs          []primitive.ObjectID
}

// PrayerRequestRepository handles database operations related to prayer requests.
type PrayerRequestRepository struct {
	collection *mongo.Collection
}

// NewPrayerRequestRepository creates a new instance of PrayerRequestRepository.
func NewPrayerRequestRepository(db *mongo.Database) *PrayerRequestRepository {
	return &PrayerRequestRepository{
		collection: db.Collection("prayer_requests"),
	}
}

// CreateRequest inserts a new prayer request.
func (r *PrayerRequestRepository) CreateRequest(ctx context.Context, req *models.PrayerRequest) (*models.PrayerRequest, error) {
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert prayer request")
		return nil, fmt.Errorf("failed to create prayer request: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted ID")
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	req.ID = insertedID

	logger.Log.WithField("request_id", req.ID.Hex()).Info("Prayer request created successfully")
	return req, nil
}

// GetRequestByID fetches a prayer request by its ID.
func (r *PrayerRequestRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.PrayerRequest, error) {
	var req models.PrayerRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		logger.Log.WithError(err).WithField("request_id", id.Hex()).Warn("Failed to find prayer request by ID")
		return nil, fmt.Errorf("failed to find prayer request: %w", translate(err))
	}
	return &req, nil
}

// UpdateRequest writes the mutable fields of req (text, status, visibility).
func (r *PrayerRequestRepository) UpdateRequest(ctx context.Context, req *models.PrayerRequest) error {
	req.UpdatedAt = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": req.ID},
		bson.M{"$set": bson.M{
			"text":       req.Text,
			"status":     req.Status,
			"visibility": req.Visibility,
			"updated_at": req.UpdatedAt,
		}},
	)
	if err != nil {
		logger.Log.WithError(err).WithField("request_id", req.ID.Hex()).Error("Failed to update prayer request")
		return fmt.Errorf("failed to update prayer request: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRequest deletes a prayer request by its ID.
func (r *PrayerRequestRepository) DeleteRequest(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		logger.Log.WithError(err).WithField("request_id", id.Hex()).Error("Failed to delete prayer request")
		return fmt.Errorf("failed to delete prayer request: %w", err)
	}
	return nil
}

// FindByUser returns userID's requests matching f, most recently updated first.
func (r *PrayerRequestRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, f RequestFilter) ([]models.PrayerRequest, error) {
	filter := bson.M{"user_id": userID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if len(f.Visibilities) > 0 {
		filter["visibility"] = bson.M{"$in": f.Visibilities}
	}
	if f.IDs != nil {
		filter["_id"] = bson.M{"$in": f.IDs}
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch prayer requests")
		return nil, fmt.Errorf("failed to fetch prayer requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []models.PrayerRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode prayer requests: %w", err)
	}
	return requests, nil
}
