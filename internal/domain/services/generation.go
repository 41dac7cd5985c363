package services

import (
	"context"
	"io"

	"lisa/internal/domain/models"
)

// SourceLocator maps a project to its ordered source references
type SourceLocator interface {
	ResolveSources(ctx context.Context, projectID string) ([]models.SourceRef, error)
}

// SourceFetcher loads the content behind source references, in ref order
type SourceFetcher interface {
	FetchSources(ctx context.Context, refs []models.SourceRef) ([]models.SourceMaterial, error)
}

// GenerationRequest is everything the backend needs for one document
type GenerationRequest struct {
	DocumentType models.DocumentType
	Prompt       string
	Instruction  string
	Sources      []models.SourceMaterial
	Model        string
	MaxTokens    int
}

// GenerationResult is the backend output
type GenerationResult struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// GenerationBackend produces document content. It must honor ctx cancellation.
type GenerationBackend interface {
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)
}

// Artifact is a completed document ready to publish
type Artifact struct {
	Name     string
	FolderID string
	Content  io.Reader
}

// ArtifactPublisher stores a completed document and returns its URL
type ArtifactPublisher interface {
	Publish(ctx context.Context, artifact *Artifact) (string, error)
}
