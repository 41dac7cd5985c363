package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables and indexes if they do not exist.
// gen_random_uuid() requires PostgreSQL 13+.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, t *TableNames) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name        TEXT NOT NULL UNIQUE,
			description TEXT,
			admins      TEXT[] NOT NULL DEFAULT '{}',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.Groups),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			group_id         UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			name             TEXT NOT NULL,
			status           TEXT NOT NULL DEFAULT 'active',
			tags             TEXT[] NOT NULL DEFAULT '{}',
			drive_folder_ids TEXT[] NOT NULL DEFAULT '{}',
			created_by       TEXT NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.Projects, t.Groups),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_group_idx ON %s (group_id, updated_at DESC)`, t.Projects, t.Projects),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			project_id    UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			document_type TEXT NOT NULL,
			version       INTEGER NOT NULL CHECK (version >= 1),
			status        TEXT NOT NULL CHECK (status IN ('generating', 'completed', 'failed')),
			progress      INTEGER CHECK (progress BETWEEN 0 AND 100),
			content       TEXT,
			url           TEXT,
			error_message TEXT,
			created_by    TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at  TIMESTAMPTZ,
			UNIQUE (project_id, document_type, version)
		)`, t.Documents, t.Projects),
		// at most one in-flight generation per (project, type)
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_inflight_idx ON %s (project_id, document_type) WHERE status = 'generating'`, t.Documents, t.Documents),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			singleton  BOOLEAN NOT NULL DEFAULT TRUE UNIQUE CHECK (singleton),
			content    TEXT NOT NULL,
			updated_by TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.PromptsL0),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			group_id   UUID NOT NULL UNIQUE REFERENCES %s(id) ON DELETE CASCADE,
			content    TEXT NOT NULL,
			updated_by TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t.PromptsL1, t.Groups),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			group_id      UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			document_type TEXT NOT NULL,
			content       TEXT NOT NULL,
			updated_by    TEXT NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (group_id, document_type)
		)`, t.PromptsL2, t.Groups),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropAll drops every table for the prefix
func DropAll(ctx context.Context, pool *pgxpool.Pool, t *TableNames) error {
	for _, table := range t.All() {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
