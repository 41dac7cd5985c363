package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"lisa/internal/config"
	"lisa/internal/doctypes"
	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
	"lisa/internal/domain/services"
)

// promptService implements the PromptService interface
type promptService struct {
	promptRepo repositories.PromptRepository
	groupRepo  repositories.GroupRepository
	catalog    *doctypes.Catalog
	authorizer services.Authorizer
	logger     *slog.Logger
}

// NewPromptService creates a new prompt service
func NewPromptService(
	promptRepo repositories.PromptRepository,
	groupRepo repositories.GroupRepository,
	catalog *doctypes.Catalog,
	authorizer services.Authorizer,
	logger *slog.Logger,
) services.PromptService {
	return &promptService{
		promptRepo: promptRepo,
		groupRepo:  groupRepo,
		catalog:    catalog,
		authorizer: authorizer,
		logger:     logger,
	}
}

func validatePromptContent(content string) error {
	err := validation.Validate(content,
		validation.Required.Error("content is required"),
		validation.RuneLength(1, config.MaxPromptLength),
	)
	if err != nil {
		return fmt.Errorf("%w: content: %v", domain.ErrValidation, err)
	}
	return nil
}

func (s *promptService) GetL0(ctx context.Context) (*models.L0Prompt, error) {
	return s.promptRepo.GetL0(ctx)
}

// PutL0 upserts the corporate prompt (system admin only)
func (s *promptService) PutL0(ctx context.Context, session *models.Session, content string) (*models.L0Prompt, error) {
	if err := s.authorizer.RequireSystemAdmin(session); err != nil {
		return nil, err
	}
	if err := validatePromptContent(content); err != nil {
		return nil, err
	}

	prompt := &models.L0Prompt{
		Content:   content,
		UpdatedAt: time.Now(),
		UpdatedBy: session.UserID,
	}
	if err := s.promptRepo.UpsertL0(ctx, prompt); err != nil {
		return nil, err
	}

	s.logger.Info("l0 prompt saved", "user_id", session.UserID, "length", len(content))
	return prompt, nil
}

func (s *promptService) GetL1(ctx context.Context, groupID string) (*models.L1Prompt, error) {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.promptRepo.GetL1(ctx, groupID)
}

// PutL1 upserts a group's prompt (group admin or system admin)
func (s *promptService) PutL1(ctx context.Context, session *models.Session, groupID, content string) (*models.L1Prompt, error) {
	if err := s.authorizer.CanAdministerGroup(ctx, session, groupID); err != nil {
		return nil, err
	}
	if err := validatePromptContent(content); err != nil {
		return nil, err
	}

	prompt := &models.L1Prompt{
		GroupID:   groupID,
		Content:   content,
		UpdatedAt: time.Now(),
		UpdatedBy: session.UserID,
	}
	if err := s.promptRepo.UpsertL1(ctx, prompt); err != nil {
		return nil, err
	}

	s.logger.Info("l1 prompt saved", "group_id", groupID, "user_id", session.UserID)
	return prompt, nil
}

func (s *promptService) ListL2(ctx context.Context, groupID string) ([]models.L2Prompt, error) {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.promptRepo.ListL2(ctx, groupID)
}

func (s *promptService) GetL2(ctx context.Context, groupID string, docType models.DocumentType) (*models.L2Prompt, error) {
	if _, err := s.catalog.Get(docType); err != nil {
		return nil, err
	}
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.promptRepo.GetL2(ctx, groupID, docType)
}

// PutL2 upserts a document-type prompt (group admin or system admin)
func (s *promptService) PutL2(ctx context.Context, session *models.Session, groupID string, docType models.DocumentType, content string) (*models.L2Prompt, error) {
	if _, err := s.catalog.Get(docType); err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAdministerGroup(ctx, session, groupID); err != nil {
		return nil, err
	}
	if err := validatePromptContent(content); err != nil {
		return nil, err
	}

	prompt := &models.L2Prompt{
		GroupID:      groupID,
		DocumentType: docType,
		Content:      content,
		UpdatedAt:    time.Now(),
		UpdatedBy:    session.UserID,
	}
	if err := s.promptRepo.UpsertL2(ctx, prompt); err != nil {
		return nil, err
	}

	s.logger.Info("l2 prompt saved",
		"group_id", groupID,
		"document_type", docType,
		"user_id", session.UserID,
	)
	return prompt, nil
}
