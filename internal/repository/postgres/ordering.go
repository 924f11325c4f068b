package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"packtree/internal/ordering"
)

// scanMembers runs a (id, sort_order) query and collects ordering members.
func scanMembers(ctx context.Context, pool *pgxpool.Pool, query string, args ...interface{}) ([]ordering.Member, error) {
	rows, err := GetExecutor(ctx, pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list siblings: %w", err)
	}
	defer rows.Close()

	var members []ordering.Member
	for rows.Next() {
		var m ordering.Member
		if err := rows.Scan(&m.ID, &m.SortOrder); err != nil {
			return nil, fmt.Errorf("scan sibling: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate siblings: %w", err)
	}

	return members, nil
}

// applySortOrders writes each member's new sort order with the given
// per-row UPDATE. The set is small (one sibling group), so individual
// statements inside the surrounding transaction are sufficient.
func applySortOrders(ctx context.Context, pool *pgxpool.Pool, query string, updates []ordering.Member) error {
	exec := GetExecutor(ctx, pool)
	for _, u := range updates {
		if _, err := exec.Exec(ctx, query, u.SortOrder, u.ID); err != nil {
			return fmt.Errorf("apply sort order: %w", err)
		}
	}
	return nil
}
