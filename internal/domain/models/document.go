package models

import (
	"time"
)

// DocumentType identifies a kind of generated business document.
// The recognized set lives in the document type catalog.
type DocumentType string

const (
	DocumentTypeHearingSheet     DocumentType = "hearing_sheet"
	DocumentTypeProposal         DocumentType = "proposal"
	DocumentTypeQuotation        DocumentType = "quotation"
	DocumentTypeProjectInfoSheet DocumentType = "project_info_sheet"
)

// DocumentStatus is the lifecycle state of a generated document.
// generating -> completed | failed, no transition out of a terminal state.
type DocumentStatus string

const (
	DocumentStatusGenerating DocumentStatus = "generating"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// IsValid reports whether s is a recognized document status
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusGenerating, DocumentStatusCompleted, DocumentStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status can no longer change
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusCompleted || s == DocumentStatusFailed
}

// Document is one versioned generated artifact of a project.
type Document struct {
	ID           string         `json:"document_id" db:"id"`
	ProjectID    string         `json:"project_id" db:"project_id"`
	DocumentType DocumentType   `json:"document_type" db:"document_type"`
	Version      int            `json:"version" db:"version"`
	Status       DocumentStatus `json:"status" db:"status"`
	Progress     *int           `json:"progress,omitempty" db:"progress"`
	Content      *string        `json:"content,omitempty" db:"content"`
	URL          *string        `json:"url,omitempty" db:"url"`
	Error        *string        `json:"error,omitempty" db:"error_message"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	CreatedBy    string         `json:"created_by" db:"created_by"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (d *Document) Clone() *Document {
	c := *d
	if d.Progress != nil {
		p := *d.Progress
		c.Progress = &p
	}
	if d.Content != nil {
		s := *d.Content
		c.Content = &s
	}
	if d.URL != nil {
		s := *d.URL
		c.URL = &s
	}
	if d.Error != nil {
		s := *d.Error
		c.Error = &s
	}
	if d.CompletedAt != nil {
		t := *d.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// DocumentFilter narrows a document listing. Empty fields match everything.
type DocumentFilter struct {
	ProjectID    string
	DocumentType DocumentType
	Status       DocumentStatus
}

// DocumentResult is what a successful generation attaches to a document
type DocumentResult struct {
	Content     string
	URL         *string
	CompletedAt time.Time
}

// ProjectInfoSheet is the info-sheet view over the latest completed
// project_info_sheet document.
type ProjectInfoSheet struct {
	ID        string    `json:"sheet_id"`
	ProjectID string    `json:"project_id"`
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// NewProjectInfoSheet builds the sheet view from a completed document
func NewProjectInfoSheet(doc *Document) *ProjectInfoSheet {
	sheet := &ProjectInfoSheet{
		ID:        doc.ID,
		ProjectID: doc.ProjectID,
		Version:   doc.Version,
		UpdatedAt: doc.CreatedAt,
		UpdatedBy: doc.CreatedBy,
	}
	if doc.Content != nil {
		sheet.Content = *doc.Content
	}
	if doc.CompletedAt != nil {
		sheet.UpdatedAt = *doc.CompletedAt
	}
	return sheet
}
