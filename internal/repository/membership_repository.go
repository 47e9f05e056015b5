package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MembershipRepository stores user_prayer_groups documents.
type MembershipRepository struct {
	collection *mongo.Collection
}

func NewMembershipRepository(db *mongo.Database) *MembershipRepository {
	return &MembershipRepository{
		collection: db.Collection("user_prayer_groups"),
	}
}

func (r *MembershipRepository) CreateMembership(ctx context.Context, m *models.UserPrayerGroup) (*models.UserPrayerGroup, error) {
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt

	result, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	m.ID = insertedID
	return m, nil
}

func (r *MembershipRepository) GetMembership(ctx context.Context, userID, groupID primitive.ObjectID) (*models.UserPrayerGroup, error) {
	var m models.UserPrayerGroup
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "prayer_group_id": groupID}).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("failed to find membership: %w", translate(err))
	}
	return &m, nil
}

func (r *MembershipRepository) UpdateStatus(ctx context.Context, userID, groupID primitive.ObjectID, status models.MembershipStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"user_id": userID, "prayer_group_id": groupID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update membership status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MembershipRepository) DeleteMembership(ctx context.Context, userID, groupID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "prayer_group_id": groupID})
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AcceptedGroupIDs returns the groups userID is an ACCEPTED member of.
func (r *MembershipRepository) AcceptedGroupIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{"user_id": userID, "status": models.MembershipAccepted}
	opts := options.Find().SetProjection(bson.M{"prayer_group_id": 1})

	memberships, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.PrayerGroupID)
	}
	return ids, nil
}

// AcceptedMemberIDs returns the distinct ACCEPTED members of any of groupIDs.
func (r *MembershipRepository) AcceptedMemberIDs(ctx context.Context, groupIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(groupIDs) == 0 {
		return []primitive.ObjectID{}, nil
	}

	filter := bson.M{
		"prayer_group_id": bson.M{"$in": groupIDs},
		"status":          models.MembershipAccepted,
	}
	opts := options.Find().SetProjection(bson.M{"user_id": 1})

	memberships, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]bool, len(memberships))
	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (r *MembershipRepository) ListByGroupAndStatus(ctx context.Context, groupID primitive.ObjectID, status models.MembershipStatus) ([]models.UserPrayerGroup, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, bson.M{"prayer_group_id": groupID, "status": status}, opts)
}

func (r *MembershipRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.UserPrayerGroup, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find memberships: %w", err)
	}
	defer cursor.Close(ctx)

	memberships := []models.UserPrayerGroup{}
	if err := cursor.All(ctx, &memberships); err != nil {
		return nil, fmt.Errorf("failed to decode memberships: %w", err)
	}
	return memberships, nil
}
