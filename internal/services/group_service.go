package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/repository"
	"github.com/Dias221467/Prayer_Manager/pkg/logger"
)

type GroupService struct {
	repo        GroupStore
	memberships MembershipStore
	tx          Transactor
}

func NewGroupService(repo GroupStore, memberships MembershipStore, tx Transactor) *GroupService {
	return &GroupService{repo: repo, memberships: memberships, tx: tx}
}

// CreateGroup stores the group and makes its owner an ACCEPTED member.
func (s *GroupService) CreateGroup(ctx context.Context, ownerIDHex string, group *models.PrayerGroup) (*models.PrayerGroup, error) {
	ownerID, err := parseID(ownerIDHex)
	if err != nil {
		return nil, err
	}

	group.Name = strings.TrimSpace(group.Name)
	if group.Name == "" {
		return nil, validationErr("group name is required")
	}
	if group.Type == "" {
		group.Type = models.GroupPublic
	}
	if !group.Type.Valid() {
		return nil, validationErr("group type must be PUBLIC or PRIVATE")
	}
	group.OwnerID = ownerID

	var created *models.PrayerGroup
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.CreateGroup(ctx, group)
		if err != nil {
			return err
		}
		_, err = s.memberships.CreateMembership(ctx, &models.UserPrayerGroup{
			UserID:        ownerID,
			PrayerGroupID: created.ID,
			Status:        models.MembershipAccepted,
		})
		return err
	})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create prayer group")
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	logger.Log.WithField("group_id", created.ID.Hex()).Info("Prayer group created")
	return created, nil
}

func (s *GroupService) GetGroup(ctx context.Context, id string) (*models.PrayerGroup, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	group, err := s.repo.GetGroupByID(ctx, objID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}
