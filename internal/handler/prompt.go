package handler

import (
	"log/slog"
	"net/http"

	"lisa/internal/domain/models"
	"lisa/internal/domain/services"
	"lisa/internal/httputil"
)

// PromptHandler serves the three prompt layers
type PromptHandler struct {
	promptService services.PromptService
	logger        *slog.Logger
}

// NewPromptHandler creates a new prompt handler
func NewPromptHandler(promptService services.PromptService, logger *slog.Logger) *PromptHandler {
	return &PromptHandler{
		promptService: promptService,
		logger:        logger,
	}
}

// GetL0 returns the corporate prompt
// GET /api/lisa/prompts/l0
func (h *PromptHandler) GetL0(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.promptService.GetL0(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, prompt)
}

// PutL0 replaces the corporate prompt
// PUT /api/lisa/prompts/l0
func (h *PromptHandler) PutL0(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req contentRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}

	prompt, err := h.promptService.PutL0(r.Context(), session, req.Content)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, prompt)
}

// GetL1 returns a group's prompt
// GET /api/lisa/groups/{group_id}/prompts/l1
func (h *PromptHandler) GetL1(w http.ResponseWriter, r *http.Request) {
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}

	prompt, err := h.promptService.GetL1(r.Context(), groupID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, prompt)
}

// PutL1 replaces a group's prompt
// PUT /api/lisa/groups/{group_id}/prompts/l1
func (h *PromptHandler) PutL1(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}
	var req contentRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}

	prompt, err := h.promptService.PutL1(r.Context(), session, groupID, req.Content)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, prompt)
}

// ListL2 returns a group's document-type prompts
// GET /api/lisa/groups/{group_id}/prompts/l2
func (h *PromptHandler) ListL2(w http.ResponseWriter, r *http.Request) {
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}

	prompts, err := h.promptService.ListL2(r.Context(), groupID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, prompts)
}

// GetL2 returns one document-type prompt
// GET /api/lisa/groups/{group_id}/prompts/l2/{document_type}
func (h *PromptHandler) GetL2(w http.ResponseWriter, r *http.Request) {
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}
	docType, ok := PathParam(w, r, "document_type", "Document type")
	if !ok {
		return
	}

	prompt, err := h.promptService.GetL2(r.Context(), groupID, models.DocumentType(docType))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, prompt)
}

// PutL2 replaces one document-type prompt
// PUT /api/lisa/groups/{group_id}/prompts/l2/{document_type}
func (h *PromptHandler) PutL2(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}
	docType, ok := PathParam(w, r, "document_type", "Document type")
	if !ok {
		return
	}
	var req contentRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}

	prompt, err := h.promptService.PutL2(r.Context(), session, groupID, models.DocumentType(docType), req.Content)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, prompt)
}
