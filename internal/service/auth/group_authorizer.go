package auth

import (
	"context"
	"errors"
	"fmt"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
)

// GroupAdminAuthorizer implements services.Authorizer with two roles:
// system admins (tenant-wide) and the admins listed on a group.
type GroupAdminAuthorizer struct {
	groupRepo repositories.GroupRepository
}

// NewGroupAdminAuthorizer creates a new group-admin authorizer
func NewGroupAdminAuthorizer(groupRepo repositories.GroupRepository) *GroupAdminAuthorizer {
	return &GroupAdminAuthorizer{groupRepo: groupRepo}
}

// RequireSystemAdmin rejects sessions without the system admin flag
func (a *GroupAdminAuthorizer) RequireSystemAdmin(session *models.Session) error {
	if session == nil {
		return fmt.Errorf("no session: %w", domain.ErrUnauthorized)
	}
	if !session.IsSystemAdmin {
		return fmt.Errorf("user %s is not a system admin: %w", session.UserID, domain.ErrForbidden)
	}
	return nil
}

// CanAdministerGroup checks the group exists and the session administers it
func (a *GroupAdminAuthorizer) CanAdministerGroup(ctx context.Context, session *models.Session, groupID string) error {
	if session == nil {
		return fmt.Errorf("no session: %w", domain.ErrUnauthorized)
	}

	group, err := a.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if session.IsSystemAdmin || group.HasAdmin(session.UserID) {
		return nil
	}
	return fmt.Errorf("user %s cannot administer group %s: %w", session.UserID, groupID, domain.ErrForbidden)
}

// CanEditProject lets the project's creator through, then defers to the group
func (a *GroupAdminAuthorizer) CanEditProject(ctx context.Context, session *models.Session, project *models.Project) error {
	if session == nil {
		return fmt.Errorf("no session: %w", domain.ErrUnauthorized)
	}
	if session.IsSystemAdmin || project.CreatedBy == session.UserID {
		return nil
	}
	if err := a.CanAdministerGroup(ctx, session, project.GroupID); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return fmt.Errorf("user %s cannot edit project %s: %w", session.UserID, project.ID, domain.ErrForbidden)
		}
		return err
	}
	return nil
}
