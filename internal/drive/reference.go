package drive

import (
	"context"

	"lisa/internal/domain/models"
)

// ReferenceFetcher is the SourceFetcher used without Drive credentials.
// It returns each folder as a material with no files, so prompts still
// name the folders.
type ReferenceFetcher struct{}

// FetchSources returns one empty material per ref, in order
func (ReferenceFetcher) FetchSources(ctx context.Context, refs []models.SourceRef) ([]models.SourceMaterial, error) {
	materials := make([]models.SourceMaterial, len(refs))
	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		materials[i] = models.SourceMaterial{Ref: ref, Files: []models.SourceFile{}}
	}
	return materials, nil
}
