package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SharedWithType string

const (
	SharedWithUser  SharedWithType = "USER"
	SharedWithGroup SharedWithType = "GROUP"
)

// PrayerRequestShare records one SHARED-visibility target of a request.
type PrayerRequestShare struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PrayerRequestID primitive.ObjectID `bson:"prayer_request_id" json:"prayer_request_id"`
	SharedWithID    primitive.ObjectID `bson:"shared_with_id" json:"shared_with_id"`
	SharedWithType  SharedWithType     `bson:"shared_with_type" json:"shared_with_type"`
	OwnerID         primitive.ObjectID `bson:"owner_id" json:"owner_id"`
}

// ShareSelection is a parsed share list: a visibility plus, for SHARED, the
// target group ids in input order without duplicates.
type ShareSelection struct {
	Visibility Visibility
	GroupIDs   []primitive.ObjectID
}

// ParseShareTargets accepts entries of the form "public", "private" or
// "group:<hex id>". public and private must stand alone. An empty list means private.
func ParseShareTargets(targets []string) (ShareSelection, error) {
	if len(targets) == 0 {
		return ShareSelection{Visibility: VisibilityPrivate}, nil
	}

	var sel ShareSelection
	seen := make(map[primitive.ObjectID]bool)
	for _, raw := range targets {
		t := strings.TrimSpace(raw)
		switch {
		case strings.EqualFold(t, "public"), strings.EqualFold(t, "private"):
			if len(targets) > 1 {
				return ShareSelection{}, fmt.Errorf("%q cannot be combined with other share targets", t)
			}
			if strings.EqualFold(t, "public") {
				return ShareSelection{Visibility: VisibilityPublic}, nil
			}
			return ShareSelection{Visibility: VisibilityPrivate}, nil
		case strings.HasPrefix(strings.ToLower(t), "group:"):
			id, err := primitive.ObjectIDFromHex(t[len("group:"):])
			if err != nil {
				return ShareSelection{}, fmt.Errorf("invalid group id in share target %q", t)
			}
			if !seen[id] {
				seen[id] = true
				sel.GroupIDs = append(sel.GroupIDs, id)
			}
		default:
			return ShareSelection{}, fmt.Errorf("unknown share target %q", t)
		}
	}
	sel.Visibility = VisibilityShared
	return sel, nil
}
