package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/repositories"
)

// PostgresProjectRepository implements the ProjectRepository interface
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const projectColumns = "id, group_id, name, status, tags, drive_folder_ids, created_by, created_at, updated_at"

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.GroupID,
		&p.Name,
		&p.Status,
		&p.Tags,
		&p.DriveFolderIDs,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.DriveFolderIDs == nil {
		p.DriveFolderIDs = []string{}
	}
	return &p, nil
}

// Create creates a new project in its group
func (r *PostgresProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (group_id, name, status, tags, drive_folder_ids, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.Projects)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		project.GroupID,
		project.Name,
		project.Status,
		project.Tags,
		project.DriveFolderIDs,
		project.CreatedBy,
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) || IsPgInvalidInputError(err) {
			return fmt.Errorf("group %s: %w", project.GroupID, domain.ErrNotFound)
		}
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by ID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, projectColumns, r.tables.Projects)

	project, err := scanProject(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// ListByGroup retrieves a group's projects, ordered by updated_at DESC
func (r *PostgresProjectRepository) ListByGroup(ctx context.Context, groupID string, status *models.ProjectStatus) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE group_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY updated_at DESC
	`, projectColumns, r.tables.Projects)

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, groupID, statusArg)
	if err != nil {
		if IsPgInvalidInputError(err) {
			return []models.Project{}, nil
		}
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// Update replaces a project's mutable fields
func (r *PostgresProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, status = $2, tags = $3, drive_folder_ids = $4, updated_at = $5
		WHERE id = $6
	`, r.tables.Projects)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		project.Name,
		project.Status,
		project.Tags,
		project.DriveFolderIDs,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a project; its documents cascade
func (r *PostgresProjectRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Projects)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
