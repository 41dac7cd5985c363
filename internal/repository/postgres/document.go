package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const documentColumns = `id, project_id, document_type, version, status, progress, content, url,
	error_message, created_at, created_by, completed_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(
		&d.ID,
		&d.ProjectID,
		&d.DocumentType,
		&d.Version,
		&d.Status,
		&d.Progress,
		&d.Content,
		&d.URL,
		&d.Error,
		&d.CreatedAt,
		&d.CreatedBy,
		&d.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDocuments(rows pgx.Rows) ([]models.Document, error) {
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Reserve allocates the next version inside a transaction holding a
// transaction-scoped advisory lock on (project_id, document_type). The
// partial unique index on generating rows backs the in-flight check.
func (r *PostgresDocumentRepository) Reserve(ctx context.Context, doc *models.Document) error {
	var db beginner = r.pool
	if tx := repositories.GetTx(ctx); tx != nil {
		db = tx
	}

	lockKey := doc.ProjectID + ":" + string(doc.DocumentType)

	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
			return fmt.Errorf("lock %s: %w", lockKey, err)
		}

		inflightQuery := fmt.Sprintf(`
			SELECT id, version FROM %s
			WHERE project_id = $1 AND document_type = $2 AND status = 'generating'
			LIMIT 1
		`, r.tables.Documents)

		var inflightID string
		var inflightVersion int
		err := tx.QueryRow(ctx, inflightQuery, doc.ProjectID, doc.DocumentType).Scan(&inflightID, &inflightVersion)
		switch {
		case err == nil:
			return &domain.ConflictError{
				Message:      fmt.Sprintf("%s generation already in progress (version %d)", doc.DocumentType, inflightVersion),
				ResourceType: "document",
				ResourceID:   inflightID,
			}
		case IsPgInvalidInputError(err):
			return fmt.Errorf("project %s: %w", doc.ProjectID, domain.ErrNotFound)
		case !IsPgNoRowsError(err):
			return fmt.Errorf("check in-flight document: %w", err)
		}

		maxQuery := fmt.Sprintf(`
			SELECT COALESCE(MAX(version), 0) FROM %s
			WHERE project_id = $1 AND document_type = $2
		`, r.tables.Documents)

		var maxVersion int
		if err := tx.QueryRow(ctx, maxQuery, doc.ProjectID, doc.DocumentType).Scan(&maxVersion); err != nil {
			return fmt.Errorf("max version: %w", err)
		}
		doc.Version = maxVersion + 1
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = time.Now()
		}

		insertQuery := fmt.Sprintf(`
			INSERT INTO %s (project_id, document_type, version, status, progress, content, url,
				error_message, created_by, created_at, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at
		`, r.tables.Documents)

		err = tx.QueryRow(ctx, insertQuery,
			doc.ProjectID,
			doc.DocumentType,
			doc.Version,
			doc.Status,
			doc.Progress,
			doc.Content,
			doc.URL,
			doc.Error,
			doc.CreatedBy,
			doc.CreatedAt,
			doc.CompletedAt,
		).Scan(&doc.ID, &doc.CreatedAt)
		if err != nil {
			if IsPgForeignKeyError(err) {
				return fmt.Errorf("project %s: %w", doc.ProjectID, domain.ErrNotFound)
			}
			if IsPgDuplicateError(err) {
				if strings.HasSuffix(pgConstraint(err), "_inflight_idx") {
					return &domain.ConflictError{
						Message:      fmt.Sprintf("%s generation already in progress", doc.DocumentType),
						ResourceType: "document",
					}
				}
				return fmt.Errorf("version %d of %s already issued: %w", doc.Version, doc.DocumentType, domain.ErrLedgerInvariant)
			}
			return fmt.Errorf("insert document: %w", err)
		}
		return nil
	})
}

func (r *PostgresDocumentRepository) MaxVersion(ctx context.Context, projectID string, docType models.DocumentType) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(version), 0) FROM %s
		WHERE project_id = $1 AND document_type = $2
	`, r.tables.Documents)

	var maxVersion int
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, projectID, docType).Scan(&maxVersion); err != nil {
		if IsPgInvalidInputError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("max version: %w", err)
	}
	return maxVersion, nil
}

func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	doc, err := scanDocument(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List builds its WHERE clause from the non-empty filter fields
func (r *PostgresDocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	var conditions []string
	var args []interface{}

	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if filter.DocumentType != "" {
		args = append(args, filter.DocumentType)
		conditions = append(conditions, fmt.Sprintf("document_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		%s
		ORDER BY created_at DESC, version DESC
	`, documentColumns, r.tables.Documents, where)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return collectDocuments(rows)
}

func (r *PostgresDocumentRepository) TopCompleted(ctx context.Context, projectID string, docType models.DocumentType, limit int) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1 AND document_type = $2 AND status = 'completed'
		ORDER BY version DESC, created_at DESC
		LIMIT $3
	`, documentColumns, r.tables.Documents)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, projectID, docType, limit)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return []models.Document{}, nil
		}
		return nil, fmt.Errorf("top completed documents: %w", err)
	}
	return collectDocuments(rows)
}

// UpdateProgress only ever raises progress of a generating row
func (r *PostgresDocumentRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET progress = $2
		WHERE id = $1 AND status = 'generating' AND (progress IS NULL OR progress < $2)
	`, r.tables.Documents)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id, progress)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("update progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		// ignored write; still report a missing row
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresDocumentRepository) Complete(ctx context.Context, id string, result *models.DocumentResult) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'completed', progress = 100, content = $2, url = $3, completed_at = $4
		WHERE id = $1 AND status = 'generating'
	`, r.tables.Documents)

	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id, result.Content, result.URL, result.CompletedAt)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("complete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.notGenerating(ctx, id)
	}
	return nil
}

func (r *PostgresDocumentRepository) Fail(ctx context.Context, id string, reason string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'failed', error_message = $2, completed_at = $3
		WHERE id = $1 AND status = 'generating'
	`, r.tables.Documents)

	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id, reason, at)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("fail document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.notGenerating(ctx, id)
	}
	return nil
}

// notGenerating explains a conditional terminal update that matched nothing
func (r *PostgresDocumentRepository) notGenerating(ctx context.Context, id string) error {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("document %s is %s: %w", id, doc.Status, domain.ErrAlreadyTerminal)
}

func (r *PostgresDocumentRepository) ListGeneratingBefore(ctx context.Context, cutoff time.Time) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE status = 'generating' AND created_at < $1
		ORDER BY version DESC, created_at DESC
	`, documentColumns, r.tables.Documents)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale documents: %w", err)
	}
	return collectDocuments(rows)
}
