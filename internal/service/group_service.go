package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/splitscan/splitscan/internal/currency"
	"github.com/splitscan/splitscan/internal/models"
	"github.com/splitscan/splitscan/internal/storage"
)

// GroupService manages groups and their membership.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group with the creator as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, userID, name, baseCurrency string, memberIDs []string) (*models.Group, error) {
	if baseCurrency != "" && !currency.IsSupported(baseCurrency) {
		return nil, fmt.Errorf("unsupported base currency %q", baseCurrency)
	}

	members := memberIDs
	if !isMember(userID, members) {
		members = append([]string{userID}, members...)
	}

	group := &models.Group{
		Name:         name,
		BaseCurrency: baseCurrency,
		CreatedBy:    userID,
		MemberIDs:    members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "name", group.Name)
	return group, nil
}

// GetGroup retrieves a group the user is a member of.
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", groupID, "error", err)
		return nil, err
	}
	if !isMember(userID, group.MemberIDs) {
		return nil, ErrPermissionDenied
	}
	return group, nil
}

// ListGroups retrieves all groups the user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	groups, err := s.store.ListGroupsByUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, err
	}
	return groups, nil
}

// UpdateGroup updates a group's name, base currency and member list.
// The acting user must already be a member.
func (s *GroupService) UpdateGroup(ctx context.Context, userID string, group *models.Group) (*models.Group, error) {
	existing, err := s.GetGroup(ctx, userID, group.ID)
	if err != nil {
		return nil, err
	}
	if group.Name == "" {
		group.Name = existing.Name
	}
	if len(group.MemberIDs) == 0 {
		group.MemberIDs = existing.MemberIDs
	}
	if group.BaseCurrency == "" {
		group.BaseCurrency = existing.BaseCurrency
	} else if !currency.IsSupported(group.BaseCurrency) {
		return nil, fmt.Errorf("unsupported base currency %q", group.BaseCurrency)
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "group_id", group.ID, "error", err)
		return nil, err
	}

	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	slog.Info("Group updated", "group_id", group.ID)
	return updated, nil
}

// DeleteGroup removes a group the user is a member of.
func (s *GroupService) DeleteGroup(ctx context.Context, userID, groupID string) error {
	if _, err := s.GetGroup(ctx, userID, groupID); err != nil {
		return err
	}
	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		slog.Error("DeleteGroup failed", "group_id", groupID, "error", err)
		return err
	}
	slog.Info("Group deleted", "group_id", groupID)
	return nil
}

// AddMembers adds users to a group the acting user is a member of.
func (s *GroupService) AddMembers(ctx context.Context, userID, groupID string, newMemberIDs []string) (*models.Group, error) {
	if _, err := s.GetGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}
	if err := s.store.AddGroupMembers(ctx, groupID, newMemberIDs); err != nil {
		slog.Error("AddMembers failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Group members added", "group_id", groupID, "new_members", newMemberIDs)
	return s.store.GetGroup(ctx, groupID)
}
