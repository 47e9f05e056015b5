package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GroupType string

const (
	GroupPublic  GroupType = "PUBLIC"
	GroupPrivate GroupType = "PRIVATE"
)

func (t GroupType) Valid() bool {
	return t == GroupPublic || t == GroupPrivate
}

// PrayerGroup is a set of users sharing prayer requests. Type never changes after creation.
type PrayerGroup struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Type        GroupType          `bson:"type" json:"type"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	ImageURL    string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
