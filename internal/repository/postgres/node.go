package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"packtree/internal/domain"
	"packtree/internal/domain/models"
	"packtree/internal/domain/repositories"
	"packtree/internal/ordering"
)

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *RepositoryConfig) repositories.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a node and fills in its generated ID
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.TreeNode) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (text, parent_id, create_date, change_date, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, r.tables.Nodes)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		node.Text,
		node.ParentID,
		node.CreateDate,
		node.ChangeDate,
		node.SortOrder,
	).Scan(&node.ID)

	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("parent node: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// GetByID retrieves a node with its child and package counts
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id int64) (*models.TreeNode, error) {
	query := fmt.Sprintf(`
		SELECT n.id, n.text, n.parent_id, n.create_date, n.change_date, n.sort_order,
		       (SELECT COUNT(*) FROM %s c WHERE c.parent_id = n.id),
		       (SELECT COUNT(*) FROM %s p WHERE p.node_id = n.id)
		FROM %s n
		WHERE n.id = $1
	`, r.tables.Nodes, r.tables.Packages, r.tables.Nodes)

	var node models.TreeNode
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.Text,
		&node.ParentID,
		&node.CreateDate,
		&node.ChangeDate,
		&node.SortOrder,
		&node.ChildrenCount,
		&node.PackageCount,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// Update persists text and date changes
func (r *PostgresNodeRepository) Update(ctx context.Context, node *models.TreeNode) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET text = $1, create_date = $2, change_date = $3
		WHERE id = $4
	`, r.tables.Nodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		node.Text,
		node.CreateDate,
		node.ChangeDate,
		node.ID,
	)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %d: %w", node.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a node; the subtree and its packages cascade in the database
func (r *PostgresNodeRepository) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Nodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListChildren lists a sibling group in display order with aggregates
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, parentID *int64) ([]models.TreeNode, error) {
	base := `
		SELECT n.id, n.text, n.parent_id, n.create_date, n.change_date, n.sort_order,
		       (SELECT COUNT(*) FROM %s c WHERE c.parent_id = n.id),
		       (SELECT COUNT(*) FROM %s p WHERE p.node_id = n.id)
		FROM %s n
		WHERE %s
		ORDER BY n.sort_order, n.id
	`

	var query string
	var args []interface{}
	if parentID == nil {
		query = fmt.Sprintf(base, r.tables.Nodes, r.tables.Packages, r.tables.Nodes, "n.parent_id IS NULL")
	} else {
		query = fmt.Sprintf(base, r.tables.Nodes, r.tables.Packages, r.tables.Nodes, "n.parent_id = $1")
		args = append(args, *parentID)
	}

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list node children: %w", err)
	}
	defer rows.Close()

	var nodes []models.TreeNode
	for rows.Next() {
		var node models.TreeNode
		err := rows.Scan(
			&node.ID,
			&node.Text,
			&node.ParentID,
			&node.CreateDate,
			&node.ChangeDate,
			&node.SortOrder,
			&node.ChildrenCount,
			&node.PackageCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}

// ListSiblingsForUpdate loads a sibling group's ordering members with row
// locks held, so concurrent mutations of the same group serialize
func (r *PostgresNodeRepository) ListSiblingsForUpdate(ctx context.Context, parentID *int64) ([]ordering.Member, error) {
	var query string
	var args []interface{}
	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT id, sort_order FROM %s
			WHERE parent_id IS NULL
			ORDER BY sort_order, id
			FOR UPDATE
		`, r.tables.Nodes)
	} else {
		query = fmt.Sprintf(`
			SELECT id, sort_order FROM %s
			WHERE parent_id = $1
			ORDER BY sort_order, id
			FOR UPDATE
		`, r.tables.Nodes)
		args = append(args, *parentID)
	}

	return scanMembers(ctx, r.pool, query, args...)
}

// ApplySortOrders bulk-writes new sort orders
func (r *PostgresNodeRepository) ApplySortOrders(ctx context.Context, updates []ordering.Member) error {
	query := fmt.Sprintf(`UPDATE %s SET sort_order = $1 WHERE id = $2`, r.tables.Nodes)
	return applySortOrders(ctx, r.pool, query, updates)
}

// ShiftSortRange shifts the band's sort orders by its delta
func (r *PostgresNodeRepository) ShiftSortRange(ctx context.Context, parentID *int64, band ordering.Band) error {
	var query string
	var args []interface{}
	if parentID == nil {
		query = fmt.Sprintf(`
			UPDATE %s SET sort_order = sort_order + $1
			WHERE parent_id IS NULL AND sort_order BETWEEN $2 AND $3
		`, r.tables.Nodes)
		args = []interface{}{band.Delta, band.Lo, band.Hi}
	} else {
		query = fmt.Sprintf(`
			UPDATE %s SET sort_order = sort_order + $1
			WHERE parent_id = $2 AND sort_order BETWEEN $3 AND $4
		`, r.tables.Nodes)
		args = []interface{}{band.Delta, *parentID, band.Lo, band.Hi}
	}

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("shift node sort range: %w", err)
	}
	return nil
}

// CloseSortGap decrements every sibling ordered after removedOrder
func (r *PostgresNodeRepository) CloseSortGap(ctx context.Context, parentID *int64, removedOrder int) error {
	var query string
	var args []interface{}
	if parentID == nil {
		query = fmt.Sprintf(`
			UPDATE %s SET sort_order = sort_order - 1
			WHERE parent_id IS NULL AND sort_order > $1
		`, r.tables.Nodes)
		args = []interface{}{removedOrder}
	} else {
		query = fmt.Sprintf(`
			UPDATE %s SET sort_order = sort_order - 1
			WHERE parent_id = $1 AND sort_order > $2
		`, r.tables.Nodes)
		args = []interface{}{*parentID, removedOrder}
	}

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("close node sort gap: %w", err)
	}
	return nil
}

// DuplicateNameExists reports whether another sibling carries the same text,
// compared case-insensitively
func (r *PostgresNodeRepository) DuplicateNameExists(ctx context.Context, text string, parentID *int64, excludeID int64) (bool, error) {
	var query string
	var args []interface{}
	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT EXISTS (
				SELECT 1 FROM %s
				WHERE parent_id IS NULL AND LOWER(text) = LOWER($1) AND id <> $2
			)
		`, r.tables.Nodes)
		args = []interface{}{text, excludeID}
	} else {
		query = fmt.Sprintf(`
			SELECT EXISTS (
				SELECT 1 FROM %s
				WHERE parent_id = $1 AND LOWER(text) = LOWER($2) AND id <> $3
			)
		`, r.tables.Nodes)
		args = []interface{}{*parentID, text, excludeID}
	}

	var exists bool
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check duplicate name: %w", err)
	}
	return exists, nil
}

// HasNodes reports whether any node exists at all
func (r *PostgresNodeRepository) HasNodes(ctx context.Context) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s)`, r.tables.Nodes)

	var exists bool
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("check nodes exist: %w", err)
	}
	return exists, nil
}
