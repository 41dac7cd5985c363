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

// projectService implements the ProjectService interface
type projectService struct {
	projectRepo repositories.ProjectRepository
	groupRepo   repositories.GroupRepository
	txManager   repositories.TransactionManager
	authorizer  services.Authorizer
	logger      *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	groupRepo repositories.GroupRepository,
	txManager repositories.TransactionManager,
	authorizer services.Authorizer,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		groupRepo:   groupRepo,
		txManager:   txManager,
		authorizer:  authorizer,
		logger:      logger,
	}
}

// CreateProject creates a new project in a group. Any session may create;
// the creator can then edit it alongside the group's admins.
func (s *projectService) CreateProject(ctx context.Context, session *models.Session, req *services.CreateProjectRequest) (*models.Project, error) {
	if _, err := s.groupRepo.GetByID(ctx, req.GroupID); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.ProjectStatusActive
	}

	now := time.Now()
	project := &models.Project{
		GroupID:        req.GroupID,
		Name:           strings.TrimSpace(req.Name),
		Status:         status,
		Tags:           normalizeList(req.Tags),
		DriveFolderIDs: normalizeList(req.DriveFolderIDs),
		CreatedBy:      session.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := validateProject(project); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"id", project.ID,
		"group_id", project.GroupID,
		"name", project.Name,
		"folders", len(project.DriveFolderIDs),
		"user_id", session.UserID,
	)
	return project, nil
}

// GetProject retrieves a project by ID
func (s *projectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

// ListProjects lists a group's projects
func (s *projectService) ListProjects(ctx context.Context, groupID string, status *models.ProjectStatus) ([]models.Project, error) {
	if status != nil && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *status)
	}
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.projectRepo.ListByGroup(ctx, groupID, status)
}

// UpdateProject applies a partial update
func (s *projectService) UpdateProject(ctx context.Context, session *models.Session, id string, req *services.UpdateProjectRequest) (*models.Project, error) {
	var project *models.Project
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		project, err = s.projectRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.authorizer.CanEditProject(txCtx, session, project); err != nil {
			return err
		}

		if req.Name != nil {
			project.Name = strings.TrimSpace(*req.Name)
		}
		if req.Status != nil {
			project.Status = *req.Status
		}
		if req.Tags != nil {
			project.Tags = normalizeList(*req.Tags)
		}
		if req.DriveFolderIDs != nil {
			project.DriveFolderIDs = normalizeList(*req.DriveFolderIDs)
		}
		if err := validateProject(project); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}

		project.UpdatedAt = time.Now()
		return s.projectRepo.Update(txCtx, project)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project updated",
		"id", project.ID,
		"status", project.Status,
		"user_id", session.UserID,
	)
	return project, nil
}

// DeleteProject deletes a project and its documents
func (s *projectService) DeleteProject(ctx context.Context, session *models.Session, id string) error {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizer.CanEditProject(ctx, session, project); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("project deleted",
		"id", id,
		"user_id", session.UserID,
	)
	return nil
}

func validateProject(p *models.Project) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, config.MaxProjectNameLength).Error(fmt.Sprintf("name must be at most %d characters", config.MaxProjectNameLength)),
		),
		validation.Field(&p.Status,
			validation.By(func(interface{}) error {
				if !p.Status.IsValid() {
					return fmt.Errorf("must be one of active, closed, archived")
				}
				return nil
			}),
		),
		validation.Field(&p.Tags,
			validation.Length(0, config.MaxTagsPerProject),
			validation.Each(validation.RuneLength(1, config.MaxTagLength)),
		),
		validation.Field(&p.DriveFolderIDs,
			validation.Required.Error("at least one google drive folder is required"),
			validation.Length(1, config.MaxFoldersPerProject),
		),
	)
}
