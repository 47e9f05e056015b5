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
)

type PrayerGroupRepository struct {
	collection *mongo.Collection
}

func NewPrayerGroupRepository(db *mongo.Database) *PrayerGroupRepository {
	return &PrayerGroupRepository{
		collection: db.Collection("prayer_groups"),
	}
}

func (r *PrayerGroupRepository) CreateGroup(ctx context.Context, group *models.PrayerGroup) (*models.PrayerGroup, error) {
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt

	result, err := r.collection.InsertOne(ctx, group)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert prayer group")
		return nil, fmt.Errorf("failed to create prayer group: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	group.ID = insertedID

	logger.Log.WithField("group_id", group.ID.Hex()).Info("Prayer group created successfully")
	return group, nil
}

func (r *PrayerGroupRepository) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.PrayerGroup, error) {
	var group models.PrayerGroup
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group); err != nil {
		return nil, fmt.Errorf("failed to find prayer group: %w", translate(err))
	}
	return &group, nil
}
