// Package doctypes holds the catalog of recognized document types.
package doctypes

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

const catalogFileName = "config/document_types.yaml"

// Catalog is immutable after construction and safe for concurrent use
type Catalog struct {
	types []DocumentType
	byID  map[models.DocumentType]*DocumentType
}

// NewCatalog loads the embedded catalog
func NewCatalog() (*Catalog, error) {
	data, err := configFiles.ReadFile(catalogFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", catalogFileName, err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document types: %w", err)
	}
	if len(file.DocumentTypes) == 0 {
		return nil, fmt.Errorf("document type catalog is empty")
	}

	c := &Catalog{
		types: file.DocumentTypes,
		byID:  make(map[models.DocumentType]*DocumentType, len(file.DocumentTypes)),
	}
	infoSheets := 0
	for i := range c.types {
		t := &c.types[i]
		if t.ID == "" {
			return nil, fmt.Errorf("document type %d has no id", i)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate document type %s", t.ID)
		}
		if t.InfoSheet {
			infoSheets++
		}
		c.byID[t.ID] = t
	}
	if infoSheets > 1 {
		return nil, fmt.Errorf("more than one info_sheet document type")
	}
	return c, nil
}

// Get returns the entry for id or a validation error
func (c *Catalog) Get(id models.DocumentType) (*DocumentType, error) {
	t, ok := c.byID[id]
	if !ok {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown document_type %q", id)}
	}
	return t, nil
}

// IsValid reports whether id is a recognized document type
func (c *Catalog) IsValid(id models.DocumentType) bool {
	_, ok := c.byID[id]
	return ok
}

// List returns all entries in catalog order
func (c *Catalog) List() []DocumentType {
	out := make([]DocumentType, len(c.types))
	copy(out, c.types)
	return out
}

// InfoSheetType returns the type backing the info sheet, if any
func (c *Catalog) InfoSheetType() (models.DocumentType, bool) {
	for _, t := range c.types {
		if t.InfoSheet {
			return t.ID, true
		}
	}
	return "", false
}
