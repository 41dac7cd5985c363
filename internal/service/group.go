package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"lisa/internal/config"
	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
	"lisa/internal/domain/services"
)

// groupService implements the GroupService interface
type groupService struct {
	groupRepo  repositories.GroupRepository
	txManager  repositories.TransactionManager
	authorizer services.Authorizer
	logger     *slog.Logger
}

// NewGroupService creates a new group service
func NewGroupService(
	groupRepo repositories.GroupRepository,
	txManager repositories.TransactionManager,
	authorizer services.Authorizer,
	logger *slog.Logger,
) services.GroupService {
	return &groupService{
		groupRepo:  groupRepo,
		txManager:  txManager,
		authorizer: authorizer,
		logger:     logger,
	}
}

// CreateGroup creates a new group (system admin only)
func (s *groupService) CreateGroup(ctx context.Context, session *models.Session, req *services.CreateGroupRequest) (*models.Group, error) {
	if err := s.authorizer.RequireSystemAdmin(session); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        strings.TrimSpace(req.Name),
		Description: trimOptional(req.Description),
		Admins:      normalizeList(req.Admins),
	}
	if err := validateGroup(group); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("group created",
		"id", group.ID,
		"name", group.Name,
		"user_id", session.UserID,
	)
	return group, nil
}

func (s *groupService) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	return s.groupRepo.GetByID(ctx, id)
}

func (s *groupService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

// UpdateGroup applies the provided fields (system admin only)
func (s *groupService) UpdateGroup(ctx context.Context, session *models.Session, id string, req *services.UpdateGroupRequest) (*models.Group, error) {
	if err := s.authorizer.RequireSystemAdmin(session); err != nil {
		return nil, err
	}

	var group *models.Group
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		group, err = s.groupRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			group.Name = strings.TrimSpace(*req.Name)
		}
		if req.ClearDescription {
			group.Description = nil
		} else if req.Description != nil {
			group.Description = trimOptional(req.Description)
		}
		if req.Admins != nil {
			group.Admins = normalizeList(*req.Admins)
		}
		if err := validateGroup(group); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}

		group.UpdatedAt = time.Now()
		return s.groupRepo.Update(txCtx, group)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("group updated",
		"id", group.ID,
		"name", group.Name,
		"user_id", session.UserID,
	)
	return group, nil
}

// DeleteGroup deletes a group and everything it owns (system admin only)
func (s *groupService) DeleteGroup(ctx context.Context, session *models.Session, id string) error {
	if err := s.authorizer.RequireSystemAdmin(session); err != nil {
		return err
	}
	if err := s.groupRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("group deleted",
		"id", id,
		"user_id", session.UserID,
	)
	return nil
}

func validateGroup(g *models.Group) error {
	return validation.ValidateStruct(g,
		validation.Field(&g.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, config.MaxGroupNameLength).Error(fmt.Sprintf("name must be at most %d characters", config.MaxGroupNameLength)),
		),
		validation.Field(&g.Description,
			validation.NilOrNotEmpty,
			validation.RuneLength(0, config.MaxDescriptionLength),
		),
		validation.Field(&g.Admins,
			validation.Required.Error("at least one admin is required"),
			validation.Each(validation.Required),
		),
	)
}
