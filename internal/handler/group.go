package handler

import (
	"log/slog"
	"net/http"

	"lisa/internal/domain/services"
	"lisa/internal/httputil"
)

// GroupHandler handles group HTTP requests
type GroupHandler struct {
	groupService services.GroupService
	logger       *slog.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService services.GroupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		logger:       logger,
	}
}

// ListGroups returns every group
// GET /api/lisa/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupService.ListGroups(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, groups)
}

// CreateGroup creates a group
// POST /api/lisa/groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req services.CreateGroupRequest
	if !httputil.BindJSON(w, r, &req) {
		return
	}

	group, err := h.groupService.CreateGroup(r.Context(), session, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, group)
}

// GetGroup returns one group
// GET /api/lisa/groups/{group_id}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}

	group, err := h.groupService.GetGroup(r.Context(), groupID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, group)
}

// updateGroupBody distinguishes an absent description from an explicit null
type updateGroupBody struct {
	Name        *string                 `json:"name"`
	Description httputil.OptionalString `json:"description"`
	Admins      *[]string               `json:"admins"`
}

// UpdateGroup applies a partial update
// PUT /api/lisa/groups/{group_id}
func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}

	var body updateGroupBody
	if !httputil.BindJSON(w, r, &body) {
		return
	}

	req := &services.UpdateGroupRequest{
		Name:   body.Name,
		Admins: body.Admins,
	}
	if body.Description.Present {
		req.Description = body.Description.Value
		req.ClearDescription = body.Description.Value == nil
	}

	group, err := h.groupService.UpdateGroup(r.Context(), session, groupID, req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, group)
}

// DeleteGroup deletes a group with everything it owns
// DELETE /api/lisa/groups/{group_id}
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	groupID, ok := PathParam(w, r, "group_id", "Group ID")
	if !ok {
		return
	}

	if err := h.groupService.DeleteGroup(r.Context(), session, groupID); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
