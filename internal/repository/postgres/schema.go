package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the catalog tables and indexes if they do not exist.
// Both cmd/server and cmd/seed call this on startup, so a fresh database
// needs no manual migration step.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, prefix string) error {
	createNodes := `
		CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			id BIGSERIAL PRIMARY KEY,
			text TEXT NOT NULL,
			parent_id BIGINT REFERENCES ` + tables.Nodes + `(id) ON DELETE CASCADE,
			create_date DATE NOT NULL DEFAULT CURRENT_DATE,
			change_date DATE NOT NULL DEFAULT CURRENT_DATE,
			sort_order INTEGER NOT NULL DEFAULT 0
		)
	`
	if _, err := pool.Exec(ctx, createNodes); err != nil {
		return fmt.Errorf("create %s: %w", tables.Nodes, err)
	}

	createPackages := `
		CREATE TABLE IF NOT EXISTS ` + tables.Packages + ` (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			create_date DATE NOT NULL DEFAULT CURRENT_DATE,
			change_date DATE NOT NULL DEFAULT CURRENT_DATE,
			sort_order INTEGER NOT NULL DEFAULT 0,
			node_id BIGINT NOT NULL REFERENCES ` + tables.Nodes + `(id) ON DELETE CASCADE,
			assignment TEXT NOT NULL DEFAULT ''
		)
	`
	if _, err := pool.Exec(ctx, createPackages); err != nil {
		return fmt.Errorf("create %s: %w", tables.Packages, err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `tree_nodes_parent_sort ON ` + tables.Nodes + `(parent_id, sort_order)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `exercise_packages_node_sort ON ` + tables.Packages + `(node_id, sort_order)`,
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// DropAllTables removes the catalog tables. Used by cmd/seed --drop-tables,
// never in production.
func DropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	stmts := []string{
		`DROP TABLE IF EXISTS ` + tables.Packages + ` CASCADE`,
		`DROP TABLE IF EXISTS ` + tables.Nodes + ` CASCADE`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}
