package service

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"lisa/internal/config"
	"lisa/internal/doctypes"
	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
	"lisa/internal/domain/services"
	"lisa/internal/service/ledger"
)

// documentService implements the DocumentService interface
type documentService struct {
	projectRepo repositories.ProjectRepository
	docRepo     repositories.DocumentRepository
	ledger      *ledger.Ledger
	catalog     *doctypes.Catalog
	authorizer  services.Authorizer
	logger      *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	projectRepo repositories.ProjectRepository,
	docRepo repositories.DocumentRepository,
	docLedger *ledger.Ledger,
	catalog *doctypes.Catalog,
	authorizer services.Authorizer,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		projectRepo: projectRepo,
		docRepo:     docRepo,
		ledger:      docLedger,
		catalog:     catalog,
		authorizer:  authorizer,
		logger:      logger,
	}
}

// ListDocuments lists a project's documents newest first
func (s *documentService) ListDocuments(ctx context.Context, projectID string, filter models.DocumentFilter) ([]models.Document, error) {
	if filter.DocumentType != "" {
		if _, err := s.catalog.Get(filter.DocumentType); err != nil {
			return nil, err
		}
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, projectID, filter.DocumentType, filter.Status)
}

// GetDocument retrieves a document scoped to its project
func (s *documentService) GetDocument(ctx context.Context, projectID, documentID string) (*models.Document, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.ProjectID != projectID {
		return nil, fmt.Errorf("document %s in project %s: %w", documentID, projectID, domain.ErrNotFound)
	}
	return doc, nil
}

func (s *documentService) infoSheetType() (models.DocumentType, error) {
	docType, ok := s.catalog.InfoSheetType()
	if !ok {
		return "", fmt.Errorf("no info sheet document type configured: %w", domain.ErrNotFound)
	}
	return docType, nil
}

// GetInfoSheet returns the latest completed info sheet
func (s *documentService) GetInfoSheet(ctx context.Context, projectID string) (*models.ProjectInfoSheet, error) {
	docType, err := s.infoSheetType()
	if err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	latest, err := s.ledger.Latest(ctx, projectID, docType)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, fmt.Errorf("info sheet for project %s: %w", projectID, domain.ErrNotFound)
	}
	return models.NewProjectInfoSheet(latest), nil
}

// PutInfoSheet appends a manual edit as a completed version.
// Rejected with a conflict while an info sheet generation is in flight.
func (s *documentService) PutInfoSheet(ctx context.Context, session *models.Session, projectID, content string) (*models.ProjectInfoSheet, error) {
	docType, err := s.infoSheetType()
	if err != nil {
		return nil, err
	}
	err = validation.Validate(content,
		validation.Required.Error("content is required"),
		validation.RuneLength(1, config.MaxInfoSheetLength),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: content: %v", domain.ErrValidation, err)
	}
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.CanEditProject(ctx, session, project); err != nil {
		return nil, err
	}

	unlock := s.ledger.Lock(projectID, docType)
	defer unlock()

	doc, err := s.ledger.RecordCompleted(ctx, projectID, docType, session.UserID, content)
	if err != nil {
		return nil, err
	}

	s.logger.Info("info sheet saved",
		"project_id", projectID,
		"document_id", doc.ID,
		"version", doc.Version,
		"user_id", session.UserID,
	)
	return models.NewProjectInfoSheet(doc), nil
}
