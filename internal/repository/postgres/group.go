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

// PostgresGroupRepository implements the GroupRepository interface
type PostgresGroupRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(config *RepositoryConfig) repositories.GroupRepository {
	return &PostgresGroupRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const groupColumns = "id, name, description, admins, created_at, updated_at"

func scanGroup(row pgx.Row) (*models.Group, error) {
	var g models.Group
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.Admins, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	if g.Admins == nil {
		g.Admins = []string{}
	}
	return &g, nil
}

// Create inserts a group. Duplicate names return a ConflictError.
func (r *PostgresGroupRepository) Create(ctx context.Context, group *models.Group) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, admins, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, r.tables.Groups)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		group.Name,
		group.Description,
		group.Admins,
		group.CreatedAt,
		group.UpdatedAt,
	).Scan(&group.ID, &group.CreatedAt, &group.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return r.nameConflict(ctx, group.Name)
		}
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *PostgresGroupRepository) nameConflict(ctx context.Context, name string) error {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE name = $1`, r.tables.Groups)

	var existingID string
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, name).Scan(&existingID); err != nil {
		return fmt.Errorf("group '%s' already exists: %w", name, domain.ErrConflict)
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("group '%s' already exists", name),
		ResourceType: "group",
		ResourceID:   existingID,
	}
}

// GetByID retrieves a group by ID
func (r *PostgresGroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, groupColumns, r.tables.Groups)

	group, err := scanGroup(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return group, nil
}

// List retrieves all groups ordered by name
func (r *PostgresGroupRepository) List(ctx context.Context) ([]models.Group, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY name ASC`, groupColumns, r.tables.Groups)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, *group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

// Update replaces name, description and admins
func (r *PostgresGroupRepository) Update(ctx context.Context, group *models.Group) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, admins = $3, updated_at = $4
		WHERE id = $5
	`, r.tables.Groups)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		group.Name,
		group.Description,
		group.Admins,
		group.UpdatedAt,
		group.ID,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return r.nameConflict(ctx, group.Name)
		}
		if isMissing(err) {
			return fmt.Errorf("group %s: %w", group.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", group.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a group; foreign keys cascade to projects, documents and prompts
func (r *PostgresGroupRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Groups)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("delete group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
