package handler

import "net/http"

// APIPrefix is the mount point of every LISA endpoint
const APIPrefix = "/api/lisa"

// Handlers groups everything RegisterRoutes mounts
type Handlers struct {
	Groups        *GroupHandler
	Projects      *ProjectHandler
	Prompts       *PromptHandler
	Documents     *DocumentHandler
	Events        *EventsHandler
	DocumentTypes *DocumentTypesHandler
	Health        *HealthHandler
}

// RegisterRoutes mounts the API on mux (Go 1.22+ enhanced patterns)
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	p := APIPrefix

	// Health
	mux.HandleFunc("GET /health", h.Health.HealthCheck)
	mux.HandleFunc("GET "+p+"/tenant/health", h.Health.TenantHealth)

	// Session and catalog
	mux.HandleFunc("GET "+p+"/users/me", GetMe)
	mux.HandleFunc("GET "+p+"/document-types", h.DocumentTypes.ListDocumentTypes)

	// Groups
	mux.HandleFunc("GET "+p+"/groups", h.Groups.ListGroups)
	mux.HandleFunc("POST "+p+"/groups", h.Groups.CreateGroup)
	mux.HandleFunc("GET "+p+"/groups/{group_id}", h.Groups.GetGroup)
	mux.HandleFunc("PUT "+p+"/groups/{group_id}", h.Groups.UpdateGroup)
	mux.HandleFunc("DELETE "+p+"/groups/{group_id}", h.Groups.DeleteGroup)

	// Projects
	mux.HandleFunc("GET "+p+"/groups/{group_id}/projects", h.Projects.ListProjects)
	mux.HandleFunc("POST "+p+"/groups/{group_id}/projects", h.Projects.CreateProject)
	mux.HandleFunc("GET "+p+"/projects/{project_id}", h.Projects.GetProject)
	mux.HandleFunc("PUT "+p+"/projects/{project_id}", h.Projects.UpdateProject)
	mux.HandleFunc("DELETE "+p+"/projects/{project_id}", h.Projects.DeleteProject)

	// Prompts
	mux.HandleFunc("GET "+p+"/prompts/l0", h.Prompts.GetL0)
	mux.HandleFunc("PUT "+p+"/prompts/l0", h.Prompts.PutL0)
	mux.HandleFunc("GET "+p+"/groups/{group_id}/prompts/l1", h.Prompts.GetL1)
	mux.HandleFunc("PUT "+p+"/groups/{group_id}/prompts/l1", h.Prompts.PutL1)
	mux.HandleFunc("GET "+p+"/groups/{group_id}/prompts/l2", h.Prompts.ListL2)
	mux.HandleFunc("GET "+p+"/groups/{group_id}/prompts/l2/{document_type}", h.Prompts.GetL2)
	mux.HandleFunc("PUT "+p+"/groups/{group_id}/prompts/l2/{document_type}", h.Prompts.PutL2)

	// Documents
	mux.HandleFunc("GET "+p+"/projects/{project_id}/documents", h.Documents.ListDocuments)
	mux.HandleFunc("POST "+p+"/projects/{project_id}/documents/generate", h.Documents.Generate)
	mux.HandleFunc("GET "+p+"/projects/{project_id}/documents/{document_id}", h.Documents.GetDocument)
	mux.HandleFunc("POST "+p+"/projects/{project_id}/documents/{document_id}/regenerate", h.Documents.Regenerate)
	mux.HandleFunc("POST "+p+"/projects/{project_id}/documents/{document_id}/cancel", h.Documents.Cancel)
	mux.HandleFunc("GET "+p+"/projects/{project_id}/documents/{document_id}/events", h.Events.StreamDocument)

	// Info sheet
	mux.HandleFunc("GET "+p+"/projects/{project_id}/info-sheet", h.Documents.GetInfoSheet)
	mux.HandleFunc("PUT "+p+"/projects/{project_id}/info-sheet", h.Documents.PutInfoSheet)
}
