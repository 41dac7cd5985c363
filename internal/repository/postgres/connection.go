package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lisa/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Groups    string
	Projects  string
	Documents string
	PromptsL0 string
	PromptsL1 string
	PromptsL2 string
}

// NewTableNames creates table names with the given prefix (dev_, test_, prod_)
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Groups:    fmt.Sprintf("%sgroups", prefix),
		Projects:  fmt.Sprintf("%sprojects", prefix),
		Documents: fmt.Sprintf("%sdocuments", prefix),
		PromptsL0: fmt.Sprintf("%sprompts_l0", prefix),
		PromptsL1: fmt.Sprintf("%sprompts_l1", prefix),
		PromptsL2: fmt.Sprintf("%sprompts_l2", prefix),
	}
}

// All returns every table, children before parents
func (t *TableNames) All() []string {
	return []string{t.Documents, t.PromptsL2, t.PromptsL1, t.PromptsL0, t.Projects, t.Groups}
}

// CreateConnectionPool creates a pgx pool.
//
// Port 6543 is the Supabase transaction pooler (PgBouncer), which cannot hold
// prepared statements. When the URL does not set default_query_exec_mode
// explicitly, pooler connections are switched to QueryExecModeCacheDescribe.
// Table prefixes are interpolated with fmt.Sprintf before statements reach
// the server, so each environment prepares its own statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
