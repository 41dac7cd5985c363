package handler

import (
	"net/http"

	"lisa/internal/doctypes"
	"lisa/internal/httputil"
)

// DocumentTypesHandler exposes the document type catalog
type DocumentTypesHandler struct {
	catalog *doctypes.Catalog
}

// NewDocumentTypesHandler creates a catalog handler
func NewDocumentTypesHandler(catalog *doctypes.Catalog) *DocumentTypesHandler {
	return &DocumentTypesHandler{catalog: catalog}
}

// ListDocumentTypes returns every recognized document type
// GET /api/lisa/document-types
func (h *DocumentTypesHandler) ListDocumentTypes(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.catalog.List())
}
