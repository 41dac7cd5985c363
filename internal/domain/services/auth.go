package services

import (
	"context"

	"lisa/internal/domain/models"
)

// Authorizer decides what a session may change.
// Reads are open to any authenticated session; writes are role-gated.
type Authorizer interface {
	// RequireSystemAdmin allows tenant-wide writes (groups, L0 prompt)
	RequireSystemAdmin(session *models.Session) error

	// CanAdministerGroup allows group-scoped writes (L1/L2 prompts).
	// System admins administer every group.
	CanAdministerGroup(ctx context.Context, session *models.Session, groupID string) error

	// CanEditProject allows project-scoped writes (project fields,
	// generation, manual edits): system admins, the group's admins and the
	// project's creator.
	CanEditProject(ctx context.Context, session *models.Session, project *models.Project) error
}
