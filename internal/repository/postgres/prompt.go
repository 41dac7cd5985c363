package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
)

// PostgresPromptRepository implements the PromptRepository interface
type PostgresPromptRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewPromptRepository creates a new prompt repository
func NewPromptRepository(config *RepositoryConfig) repositories.PromptRepository {
	return &PostgresPromptRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func (r *PostgresPromptRepository) GetL0(ctx context.Context) (*models.L0Prompt, error) {
	query := fmt.Sprintf(`SELECT id, content, updated_at, updated_by FROM %s WHERE singleton`, r.tables.PromptsL0)

	var p models.L0Prompt
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query).Scan(&p.ID, &p.Content, &p.UpdatedAt, &p.UpdatedBy)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("l0 prompt: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get l0 prompt: %w", err)
	}
	return &p, nil
}

func (r *PostgresPromptRepository) UpsertL0(ctx context.Context, prompt *models.L0Prompt) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (singleton, content, updated_at, updated_by)
		VALUES (TRUE, $1, $2, $3)
		ON CONFLICT (singleton) DO UPDATE
		SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
		RETURNING id
	`, r.tables.PromptsL0)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		prompt.Content,
		prompt.UpdatedAt,
		prompt.UpdatedBy,
	).Scan(&prompt.ID)
	if err != nil {
		return fmt.Errorf("upsert l0 prompt: %w", err)
	}
	return nil
}

func (r *PostgresPromptRepository) GetL1(ctx context.Context, groupID string) (*models.L1Prompt, error) {
	query := fmt.Sprintf(`
		SELECT id, group_id, content, updated_at, updated_by
		FROM %s
		WHERE group_id = $1
	`, r.tables.PromptsL1)

	var p models.L1Prompt
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, groupID).Scan(
		&p.ID, &p.GroupID, &p.Content, &p.UpdatedAt, &p.UpdatedBy,
	)
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("l1 prompt for group %s: %w", groupID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get l1 prompt: %w", err)
	}
	return &p, nil
}

func (r *PostgresPromptRepository) UpsertL1(ctx context.Context, prompt *models.L1Prompt) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (group_id, content, updated_at, updated_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id) DO UPDATE
		SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
		RETURNING id
	`, r.tables.PromptsL1)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		prompt.GroupID,
		prompt.Content,
		prompt.UpdatedAt,
		prompt.UpdatedBy,
	).Scan(&prompt.ID)
	if err != nil {
		if IsPgForeignKeyError(err) || IsPgInvalidInputError(err) {
			return fmt.Errorf("group %s: %w", prompt.GroupID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert l1 prompt: %w", err)
	}
	return nil
}

func (r *PostgresPromptRepository) GetL2(ctx context.Context, groupID string, docType models.DocumentType) (*models.L2Prompt, error) {
	query := fmt.Sprintf(`
		SELECT id, group_id, document_type, content, updated_at, updated_by
		FROM %s
		WHERE group_id = $1 AND document_type = $2
	`, r.tables.PromptsL2)

	var p models.L2Prompt
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, groupID, docType).Scan(
		&p.ID, &p.GroupID, &p.DocumentType, &p.Content, &p.UpdatedAt, &p.UpdatedBy,
	)
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("l2 prompt for group %s type %s: %w", groupID, docType, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get l2 prompt: %w", err)
	}
	return &p, nil
}

func (r *PostgresPromptRepository) UpsertL2(ctx context.Context, prompt *models.L2Prompt) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (group_id, document_type, content, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, document_type) DO UPDATE
		SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
		RETURNING id
	`, r.tables.PromptsL2)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		prompt.GroupID,
		prompt.DocumentType,
		prompt.Content,
		prompt.UpdatedAt,
		prompt.UpdatedBy,
	).Scan(&prompt.ID)
	if err != nil {
		if IsPgForeignKeyError(err) || IsPgInvalidInputError(err) {
			return fmt.Errorf("group %s: %w", prompt.GroupID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert l2 prompt: %w", err)
	}
	return nil
}

func (r *PostgresPromptRepository) ListL2(ctx context.Context, groupID string) ([]models.L2Prompt, error) {
	query := fmt.Sprintf(`
		SELECT id, group_id, document_type, content, updated_at, updated_by
		FROM %s
		WHERE group_id = $1
		ORDER BY document_type ASC
	`, r.tables.PromptsL2)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, groupID)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return []models.L2Prompt{}, nil
		}
		return nil, fmt.Errorf("list l2 prompts: %w", err)
	}
	defer rows.Close()

	prompts := []models.L2Prompt{}
	for rows.Next() {
		var p models.L2Prompt
		if err := rows.Scan(&p.ID, &p.GroupID, &p.DocumentType, &p.Content, &p.UpdatedAt, &p.UpdatedBy); err != nil {
			return nil, fmt.Errorf("scan l2 prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate l2 prompts: %w", err)
	}
	return prompts, nil
}
