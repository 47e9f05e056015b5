package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string

const (
	StatusInProgress RequestStatus = "IN_PROGRESS"
	StatusAnswered   RequestStatus = "ANSWERED"
	StatusArchived   RequestStatus = "ARCHIVED"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusInProgress, StatusAnswered, StatusArchived:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityShared  Visibility = "SHARED"
)

// PrayerRequest is a request posted by a user. Visibility and the request's
// share rows are always written together.
type PrayerRequest struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Text       string             `bson:"text" json:"text"`
	Status     RequestStatus      `bson:"status" json:"status"`
	Visibility Visibility         `bson:"visibility" json:"visibility"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
