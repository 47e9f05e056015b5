package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipService resolves and manages group memberships.
type MembershipService struct {
	repo   MembershipStore
	groups GroupStore
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(repo MembershipStore, groups GroupStore) *MembershipService {
	return &MembershipService{repo: repo, groups: groups}
}

// AcceptedGroupIDs returns the groups userID has ACCEPTED membership in.
func (s *MembershipService) AcceptedGroupIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids, err := s.repo.AcceptedGroupIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve groups of %s: %w", userID.Hex(), err)
	}
	return ids, nil
}

// MutualGroupIDs returns the groups both users are ACCEPTED members of.
func (s *MembershipService) MutualGroupIDs(ctx context.Context, a, b primitive.ObjectID) ([]primitive.ObjectID, error) {
	aGroups, err := s.AcceptedGroupIDs(ctx, a)
	if err != nil {
		return nil, err
	}
	if a == b {
		return aGroups, nil
	}
	bGroups, err := s.AcceptedGroupIDs(ctx, b)
	if err != nil {
		return nil, err
	}
	return intersect(aGroups, bGroups), nil
}

// AcceptedMembersOf returns the distinct ACCEPTED members of groupIDs.
func (s *MembershipService) AcceptedMembersOf(ctx context.Context, groupIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids, err := s.repo.AcceptedMemberIDs(ctx, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group members: %w", err)
	}
	return ids, nil
}

// CoMembers returns every ACCEPTED member of userID's ACCEPTED groups, except userID.
func (s *MembershipService) CoMembers(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	groupIDs, err := s.AcceptedGroupIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	members, err := s.AcceptedMembersOf(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	return without(members, userID), nil
}

// JoinGroup adds userID to a group. PUBLIC groups accept immediately, PRIVATE
// groups leave the membership PENDING until the owner approves it.
func (s *MembershipService) JoinGroup(ctx context.Context, userIDHex, groupIDHex string) (*models.UserPrayerGroup, error) {
	userID, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}
	groupID, err := parseID(groupIDHex)
	if err != nil {
		return nil, err
	}

	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	status := models.MembershipPending
	if group.Type == models.GroupPublic {
		status = models.MembershipAccepted
	}

	m, err := s.repo.CreateMembership(ctx, &models.UserPrayerGroup{
		UserID:        userID,
		PrayerGroupID: groupID,
		Status:        status,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to join group: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userIDHex,
		"group_id": groupIDHex,
		"status":   status,
	}).Info("User joined prayer group")
	return m, nil
}

// ApproveMember moves a PENDING membership to ACCEPTED. Only the owner may approve.
func (s *MembershipService) ApproveMember(ctx context.Context, ownerIDHex, groupIDHex, memberIDHex string) error {
	ownerID, err := parseID(ownerIDHex)
	if err != nil {
		return err
	}
	groupID, err := parseID(groupIDHex)
	if err != nil {
		return err
	}
	memberID, err := parseID(memberIDHex)
	if err != nil {
		return err
	}

	if err := s.requireOwner(ctx, ownerID, groupID); err != nil {
		return err
	}

	m, err := s.repo.GetMembership(ctx, memberID, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load membership: %w", err)
	}
	if m.Status == models.MembershipAccepted {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, memberID, groupID, models.MembershipAccepted); err != nil {
		return fmt.Errorf("failed to approve member: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"group_id":  groupIDHex,
		"member_id": memberIDHex,
	}).Info("Membership approved")
	return nil
}

// LeaveGroup deletes userID's membership. Requests shared with the group stop
// being visible through it at once. The owner cannot leave.
func (s *MembershipService) LeaveGroup(ctx context.Context, userIDHex, groupIDHex string) error {
	userID, err := parseID(userIDHex)
	if err != nil {
		return err
	}
	groupID, err := parseID(groupIDHex)
	if err != nil {
		return err
	}

	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load group: %w", err)
	}
	if group.OwnerID == userID {
		return validationErr("the group owner cannot leave the group")
	}

	if err := s.repo.DeleteMembership(ctx, userID, groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to leave group: %w", err)
	}
	return nil
}

// ListPending returns PENDING memberships of a group for its owner.
func (s *MembershipService) ListPending(ctx context.Context, ownerIDHex, groupIDHex string) ([]models.UserPrayerGroup, error) {
	ownerID, err := parseID(ownerIDHex)
	if err != nil {
		return nil, err
	}
	groupID, err := parseID(groupIDHex)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, ownerID, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListByGroupAndStatus(ctx, groupID, models.MembershipPending)
}

func (s *MembershipService) requireOwner(ctx context.Context, ownerID, groupID primitive.ObjectID) error {
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load group: %w", err)
	}
	if group.OwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

func intersect(a, b []primitive.ObjectID) []primitive.ObjectID {
	set := make(map[primitive.ObjectID]bool, len(b))
	for _, id := range b {
		set[id] = true
	}
	out := []primitive.ObjectID{}
	for _, id := range a {
		if set[id] {
			out = append(out, id)
			delete(set, id)
		}
	}
	return out
}

func without(ids []primitive.ObjectID, drop primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
