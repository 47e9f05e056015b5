package repository

import (
	"context"
	"fmt"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ShareRepository stores the prayer_request_shares ledger.
type ShareRepository struct {
	collection *mongo.Collection
}

func NewShareRepository(db *mongo.Database) *ShareRepository {
	return &ShareRepository{
		collection: db.Collection("prayer_request_shares"),
	}
}

// CreateShares inserts share rows in one batch.
func (r *ShareRepository) CreateShares(ctx context.Context, shares []models.PrayerRequestShare) error {
	if len(shares) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(shares))
	for i := range shares {
		docs = append(docs, shares[i])
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		logrus.WithError(err).Error("Failed to insert prayer request shares")
		return fmt.Errorf("failed to insert shares: %w", err)
	}
	return nil
}

func (r *ShareRepository) GetSharesByRequest(ctx context.Context, requestID primitive.ObjectID) ([]models.PrayerRequestShare, error) {
	return r.find(ctx, bson.M{"prayer_request_id": requestID})
}

// DeleteSharesByRequest removes every share row of a request.
func (r *ShareRepository) DeleteSharesByRequest(ctx context.Context, requestID primitive.ObjectID) error {
	result, err := r.collection.DeleteMany(ctx, bson.M{"prayer_request_id": requestID})
	if err != nil {
		return fmt.Errorf("failed to delete shares: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"request_id": requestID.Hex(),
		"deleted":    result.DeletedCount,
	}).Debug("Prayer request shares cleared")
	return nil
}

// DeleteGroupShares removes the GROUP rows of a request pointing at groupIDs.
func (r *ShareRepository) DeleteGroupShares(ctx context.Context, requestID primitive.ObjectID, groupIDs []primitive.ObjectID) error {
	if len(groupIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{
		"prayer_request_id": requestID,
		"shared_with_type":  models.SharedWithGroup,
		"shared_with_id":    bson.M{"$in": groupIDs},
	})
	if err != nil {
		return fmt.Errorf("failed to delete group shares: %w", err)
	}
	return nil
}

// RequestIDsSharedWithGroups returns ids of ownerID's requests that have a
// GROUP share row for any of groupIDs.
func (r *ShareRepository) RequestIDsSharedWithGroups(ctx context.Context, ownerID primitive.ObjectID, groupIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(groupIDs) == 0 {
		return []primitive.ObjectID{}, nil
	}

	shares, err := r.find(ctx, bson.M{
		"owner_id":         ownerID,
		"shared_with_type": models.SharedWithGroup,
		"shared_with_id":   bson.M{"$in": groupIDs},
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]bool, len(shares))
	ids := make([]primitive.ObjectID, 0, len(shares))
	for _, s := range shares {
		if !seen[s.PrayerRequestID] {
			seen[s.PrayerRequestID] = true
			ids = append(ids, s.PrayerRequestID)
		}
	}
	return ids, nil
}

func (r *ShareRepository) find(ctx context.Context, filter bson.M) ([]models.PrayerRequestShare, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shares: %w", err)
	}
	defer cursor.Close(ctx)

	shares := []models.PrayerRequestShare{}
	if err := cursor.All(ctx, &shares); err != nil {
		return nil, fmt.Errorf("failed to decode shares: %w", err)
	}
	return shares, nil
}
