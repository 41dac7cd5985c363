package doctypes

import "lisa/internal/domain/models"

// DocumentType is one catalog entry
type DocumentType struct {
	ID          models.DocumentType `yaml:"id" json:"id"`
	DisplayName string              `yaml:"display_name" json:"display_name"`
	Description string              `yaml:"description" json:"description"`

	// Model overrides the configured default model when set
	Model string `yaml:"model" json:"model,omitempty"`

	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// InfoSheet marks the type backing the project info sheet view
	InfoSheet bool `yaml:"info_sheet" json:"info_sheet"`

	// Instruction is appended after the resolved prompt layers
	Instruction string `yaml:"instruction" json:"-"`
}

type catalogFile struct {
	DocumentTypes []DocumentType `yaml:"document_types"`
}
