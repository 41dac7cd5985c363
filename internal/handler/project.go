package handler

import (
	"log/slog"
	"net/http"

	"lisa/internal/domain/models"
	"lisa/internal/domain/services"
	"lisa/internal/httputil"
)

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	projectService services.ProjectService
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService services.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// ListProjects retrieves a group's projects
// GET /api/lisa/groups/{group_id}/projects?status=
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}

	var status *models.ProjectStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.ProjectStatus(raw)
		status = &s
	}

	projects, err := h.projectService.ListProjects(r.Context(), groupID, status)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, projects)
}

// CreateProject creates a project in a group
// POST /api/lisa/groups/{group_id}/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}

	var req services.CreateProjectRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}
	req.GroupID = groupID

	project, err := h.projectService.CreateProject(r.Context(), session, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, project)
}

// GetProject retrieves a project by ID
// GET /api/lisa/projects/{project_id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(r.Context(), projectID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, project)
}

// UpdateProject applies a partial update
// PUT /api/lisa/projects/{project_id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}

	project, err := h.projectService.UpdateProject(r.Context(), session, projectID, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, project)
}

// DeleteProject deletes a project and its documents
// DELETE /api/lisa/projects/{project_id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	projectID, ok := PathParam(w, r, "project_id", "Project ID")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(r.Context(), session, projectID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
