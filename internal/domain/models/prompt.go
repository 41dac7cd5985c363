package models

import (
	"time"
)

// L0Prompt is the tenant-wide corporate prompt (singleton).
type L0Prompt struct {
	ID        string    `json:"prompt_id" db:"id"`
	Content   string    `json:"content" db:"content"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	UpdatedBy string    `json:"updated_by" db:"updated_by"`
}

// L1Prompt is the group-level prompt, one per group.
type L1Prompt struct {
	ID        string    `json:"prompt_id" db:"id"`
	GroupID   string    `json:"group_id" db:"group_id"`
	Content   string    `json:"content" db:"content"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	UpdatedBy string    `json:"updated_by" db:"updated_by"`
}

// L2Prompt is the document-type prompt, one per (group, document_type).
type L2Prompt struct {
	ID           string       `json:"prompt_id" db:"id"`
	GroupID      string       `json:"group_id" db:"group_id"`
	DocumentType DocumentType `json:"document_type" db:"document_type"`
	Content      string       `json:"content" db:"content"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
	UpdatedBy    string       `json:"updated_by" db:"updated_by"`
}
