package handler

import (
	"log/slog"
	"net/http"

	"lisa/internal/domain/models"
	"lisa/internal/domain/services"
	"lisa/internal/httputil"
)

// DocumentHandler serves generated documents and the generation commands
type DocumentHandler struct {
	docService services.DocumentService
	engine     services.GenerationEngine
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService services.DocumentService, engine services.GenerationEngine, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		engine:     engine,
		logger:     logger,
	}
}

// ListDocuments lists a project's documents, newest version first
// GET /api/lisa/projects/{project_id}/documents?document_type=&status=
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := models.DocumentFilter{
		DocumentType: models.DocumentType(query.Get("document_type")),
		Status:       models.DocumentStatus(query.Get("status")),
	}

	docs, err := h.docService.ListDocuments(r.Context(), projectID, filter)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, docs)
}

// GetDocument returns one document of the project
// GET /api/lisa/projects/{project_id}/documents/{document_id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}
	documentID, ok := PathParam(w, r, "document_id", "Document ID")
	if !ok {
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), projectID, documentID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

type generateRequest struct {
	DocumentType models.DocumentType `json:"document_type"`
}

// Generate admits a generation job and returns the pending document
// POST /api/lisa/projects/{project_id}/documents/generate
func (h *DocumentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}

	var req generateRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}
	if req.DocumentType == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document_type is required")
		return
	}

	doc, err := h.engine.StartGeneration(r.Context(), session, projectID, req.DocumentType)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusAccepted, doc)
}

// Regenerate starts a new version of an existing document's type
// POST /api/lisa/projects/{project_id}/documents/{document_id}/regenerate
func (h *DocumentHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}
	documentID, ok := PathParam(w, r, "document_id", "Document ID")
	if !ok {
		return
	}

	doc, err := h.engine.Regenerate(r.Context(), session, projectID, documentID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusAccepted, doc)
}

type cancelResponse struct {
	DocumentID string                `json:"document_id"`
	Status     models.DocumentStatus `json:"status"`
}

// Cancel stops an in-flight generation
// POST /api/lisa/projects/{project_id}/documents/{document_id}/cancel
func (h *DocumentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}
	documentID, ok := PathParam(w, r, "document_id", "Document ID")
	if !ok {
		return
	}

	doc, err := h.engine.Cancel(r.Context(), session, projectID, documentID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, &cancelResponse{DocumentID: doc.ID, Status: doc.Status})
}

// GetInfoSheet returns the latest completed project info sheet
// GET /api/lisa/projects/{project_id}/info-sheet
func (h *DocumentHandler) GetInfoSheet(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}

	sheet, err := h.docService.GetInfoSheet(r.Context(), projectID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sheet)
}

// PutInfoSheet records a manual edit as a new version
// PUT /api/lisa/projects/{project_id}/info-sheet
func (h *DocumentHandler) PutInfoSheet(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}

	var req contentRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}

	sheet, err := h.docService.PutInfoSheet(r.Context(), session, projectID, req.Content)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sheet)
}
