package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "PENDING"
	MembershipAccepted MembershipStatus = "ACCEPTED"
)

// UserPrayerGroup links a user to a group. One document per (user_id, prayer_group_id).
type UserPrayerGroup struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	PrayerGroupID primitive.ObjectID `bson:"prayer_group_id" json:"prayer_group_id"`
	Status        MembershipStatus   `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
