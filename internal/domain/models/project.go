package models

import (
	"time"
)

// ProjectStatus is free-form; archived projects do not accept new generations.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusClosed   ProjectStatus = "closed"
	ProjectStatusArchived ProjectStatus = "archived"
)

// IsValid reports whether s is a recognized project status
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusClosed, ProjectStatusArchived:
		return true
	}
	return false
}

type Project struct {
	ID             string        `json:"project_id" db:"id"`
	GroupID        string        `json:"group_id" db:"group_id"`
	Name           string        `json:"name" db:"name"`
	Status         ProjectStatus `json:"status" db:"status"`
	Tags           []string      `json:"tags" db:"tags"`
	DriveFolderIDs []string      `json:"google_drive_folder_ids" db:"drive_folder_ids"`
	CreatedBy      string        `json:"created_by" db:"created_by"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// SourceKindDriveFolder marks a Google Drive folder source reference
const SourceKindDriveFolder = "google_drive_folder"

// SourceRef points at generation input without carrying its content.
type SourceRef struct {
	Kind     string `json:"kind"`
	FolderID string `json:"folder_id"`
	Position int    `json:"position"`
}

// SourceFile is one file fetched from a source folder
type SourceFile struct {
	ID       string
	Name     string
	MimeType string
	Text     string
}

// SourceMaterial is the fetched content behind a SourceRef
type SourceMaterial struct {
	Ref   SourceRef
	Files []SourceFile
}
