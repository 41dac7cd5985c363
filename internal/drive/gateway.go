// Package drive reads generation sources from Google Drive folders and
// publishes completed documents back into them.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"lisa/internal/config"
	"lisa/internal/converter"
	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/services"
)

const (
	mimeFolder      = "application/vnd.google-apps.folder"
	mimeGoogleDoc   = "application/vnd.google-apps.document"
	mimeGoogleSheet = "application/vnd.google-apps.spreadsheet"
	mimeGoogleSlide = "application/vnd.google-apps.presentation"
)

// exportFormats maps native Google formats to the type they are exported as
var exportFormats = map[string]string{
	mimeGoogleDoc:   "text/html",
	mimeGoogleSheet: "text/csv",
	mimeGoogleSlide: "text/plain",
}

// Options configures a Gateway
type Options struct {
	Concurrency     int
	MaxFilesPerDir  int
	MaxBytesPerFile int64
}

// Gateway implements services.SourceFetcher and services.ArtifactPublisher
type Gateway struct {
	svc        *gdrive.Service
	converters *converter.Registry
	opts       Options
	logger     *slog.Logger
}

// New creates a gateway from a credentials file path or inline JSON
func New(ctx context.Context, credentials string, opts Options, logger *slog.Logger) (*Gateway, error) {
	return NewWithClientOptions(ctx, opts, logger, clientOptions(credentials)...)
}

// NewWithClientOptions creates a gateway with explicit client options
func NewWithClientOptions(ctx context.Context, opts Options, logger *slog.Logger, clientOpts ...option.ClientOption) (*Gateway, error) {
	svc, err := gdrive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.MaxFilesPerDir <= 0 {
		opts.MaxFilesPerDir = config.MaxSourceFilesPerFolder
	}
	if opts.MaxBytesPerFile <= 0 {
		opts.MaxBytesPerFile = config.MaxSourceFileBytes
	}
	return &Gateway{
		svc:        svc,
		converters: converter.NewRegistry(),
		opts:       opts,
		logger:     logger.With("component", "drive"),
	}, nil
}

// FetchSources reads every folder concurrently and returns materials in
// ref order. Any folder failure fails the whole fetch.
func (g *Gateway) FetchSources(ctx context.Context, refs []models.SourceRef) ([]models.SourceMaterial, error) {
	materials := make([]models.SourceMaterial, len(refs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)

	for i, ref := range refs {
		eg.Go(func() error {
			if ref.Kind != models.SourceKindDriveFolder {
				return fmt.Errorf("unsupported source kind %q", ref.Kind)
			}
			files, err := g.fetchFolder(egCtx, ref.FolderID)
			if err != nil {
				return fmt.Errorf("folder %s: %w", ref.FolderID, err)
			}
			materials[i] = models.SourceMaterial{Ref: ref, Files: files}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return materials, nil
}

func (g *Gateway) fetchFolder(ctx context.Context, folderID string) ([]models.SourceFile, error) {
	var listed []*gdrive.File

	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))
	err := g.svc.Files.List().
		Q(query).
		Fields("nextPageToken", "files(id, name, mimeType)").
		OrderBy("name").
		PageSize(100).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *gdrive.FileList) error {
			listed = append(listed, page.Files...)
			if len(listed) >= g.opts.MaxFilesPerDir {
				return errStopPaging
			}
			return nil
		})
	if err != nil && !errors.Is(err, errStopPaging) {
		return nil, wrapAPIError(err)
	}
	if len(listed) > g.opts.MaxFilesPerDir {
		listed = listed[:g.opts.MaxFilesPerDir]
	}

	files := make([]models.SourceFile, 0, len(listed))
	for _, f := range listed {
		text, ok, err := g.readFile(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("file %s (%s): %w", f.Name, f.Id, err)
		}
		if !ok {
			g.logger.Debug("skipping unsupported source file",
				"folder_id", folderID,
				"file_id", f.Id,
				"mime_type", f.MimeType,
			)
			continue
		}
		files = append(files, models.SourceFile{
			ID:       f.Id,
			Name:     f.Name,
			MimeType: f.MimeType,
			Text:     text,
		})
	}

	g.logger.Debug("folder fetched",
		"folder_id", folderID,
		"listed", len(listed),
		"read", len(files),
	)
	return files, nil
}

var errStopPaging = errors.New("stop paging")

// readFile returns false for content that cannot be turned into text
func (g *Gateway) readFile(ctx context.Context, f *gdrive.File) (string, bool, error) {
	var (
		resp     *http.Response
		err      error
		mimeType string
	)

	switch {
	case f.MimeType == mimeFolder:
		return "", false, nil
	case exportFormats[f.MimeType] != "":
		mimeType = exportFormats[f.MimeType]
		resp, err = g.svc.Files.Export(f.Id, mimeType).Context(ctx).Download()
	case g.converters.Supports(f.MimeType):
		mimeType = f.MimeType
		resp, err = g.svc.Files.Get(f.Id).SupportsAllDrives(true).Context(ctx).Download()
	default:
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapAPIError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, g.opts.MaxBytesPerFile))
	if err != nil {
		return "", false, fmt.Errorf("read body: %w", err)
	}

	text, err := g.converters.Convert(ctx, mimeType, body)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// Publish uploads the artifact as a Google Doc into its folder and returns
// the web view link.
func (g *Gateway) Publish(ctx context.Context, artifact *services.Artifact) (string, error) {
	file := &gdrive.File{
		Name:     artifact.Name,
		MimeType: mimeGoogleDoc,
		Parents:  []string{artifact.FolderID},
	}

	created, err := g.svc.Files.Create(file).
		Media(artifact.Content, googleapi.ContentType("text/plain")).
		Fields("id", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", artifact.Name, wrapAPIError(err))
	}

	g.logger.Info("artifact published",
		"file_id", created.Id,
		"folder_id", artifact.FolderID,
		"name", artifact.Name,
	)
	return created.WebViewLink, nil
}

// Check verifies that the credentials can reach Drive
func (g *Gateway) Check(ctx context.Context) error {
	if _, err := g.svc.About.Get().Fields("user").Context(ctx).Do(); err != nil {
		return wrapAPIError(err)
	}
	return nil
}

// wrapAPIError maps Drive 404s onto domain.ErrNotFound
func wrapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, domain.ErrNotFound)
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, domain.ErrForbidden)
		}
	}
	return err
}

// escapeQuery escapes a value for use inside a single-quoted Drive query term
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
