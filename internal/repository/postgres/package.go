package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"packtree/internal/domain"
	"packtree/internal/domain/models"
	"packtree/internal/domain/repositories"
	"packtree/internal/ordering"
)

// PostgresPackageRepository implements the PackageRepository interface
type PostgresPackageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(config *RepositoryConfig) repositories.PackageRepository {
	return &PostgresPackageRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a package and fills in its generated ID
func (r *PostgresPackageRepository) Create(ctx context.Context, pkg *models.ExercisePackage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, create_date, change_date, sort_order, node_id, assignment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, r.tables.Packages)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		pkg.Name,
		pkg.Description,
		pkg.CreateDate,
		pkg.ChangeDate,
		pkg.SortOrder,
		pkg.NodeID,
		pkg.Assignment,
	).Scan(&pkg.ID)

	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("node %d: %w", pkg.NodeID, domain.ErrNotFound)
		}
		return fmt.Errorf("create package: %w", err)
	}

	return nil
}

// GetByID retrieves a package with its owning node's text joined in
func (r *PostgresPackageRepository) GetByID(ctx context.Context, id int64) (*models.ExercisePackage, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate retrieves a package holding an exclusive row lock
func (r *PostgresPackageRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.ExercisePackage, error) {
	return r.getByID(ctx, id, true)
}

func (r *PostgresPackageRepository) getByID(ctx context.Context, id int64, forUpdate bool) (*models.ExercisePackage, error) {
	// The node text is fetched separately when locking: FOR UPDATE cannot
	// be combined with the join against the nodes table.
	lock := ""
	nodeText := "(SELECT n.text FROM " + r.tables.Nodes + " n WHERE n.id = p.node_id)"
	if forUpdate {
		lock = "FOR UPDATE"
		nodeText = "''"
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.name, p.description, p.create_date, p.change_date,
		       p.sort_order, p.node_id, p.assignment, %s
		FROM %s p
		WHERE p.id = $1
		%s
	`, nodeText, r.tables.Packages, lock)

	var pkg models.ExercisePackage
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&pkg.ID,
		&pkg.Name,
		&pkg.Description,
		&pkg.CreateDate,
		&pkg.ChangeDate,
		&pkg.SortOrder,
		&pkg.NodeID,
		&pkg.Assignment,
		&pkg.NodeText,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("package %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get package: %w", err)
	}

	return &pkg, nil
}

// Update persists field, owner and sort order changes
func (r *PostgresPackageRepository) Update(ctx context.Context, pkg *models.ExercisePackage) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, create_date = $3, change_date = $4,
		    sort_order = $5, node_id = $6, assignment = $7
		WHERE id = $8
	`, r.tables.Packages)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		pkg.Name,
		pkg.Description,
		pkg.CreateDate,
		pkg.ChangeDate,
		pkg.SortOrder,
		pkg.NodeID,
		pkg.Assignment,
		pkg.ID,
	)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("node %d: %w", pkg.NodeID, domain.ErrNotFound)
		}
		return fmt.Errorf("update package: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("package %d: %w", pkg.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a package
func (r *PostgresPackageRepository) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Packages)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("package %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByNode lists a node's packages in display order
func (r *PostgresPackageRepository) ListByNode(ctx context.Context, nodeID int64) ([]models.ExercisePackage, error) {
	query := fmt.Sprintf(`
		SELECT id, name, description, create_date, change_date, sort_order, node_id, assignment
		FROM %s
		WHERE node_id = $1
		ORDER BY sort_order, id
	`, r.tables.Packages)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var pkgs []models.ExercisePackage
	for rows.Next() {
		var pkg models.ExercisePackage
		err := rows.Scan(
			&pkg.ID,
			&pkg.Name,
			&pkg.Description,
			&pkg.CreateDate,
			&pkg.ChangeDate,
			&pkg.SortOrder,
			&pkg.NodeID,
			&pkg.Assignment,
		)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		pkgs = append(pkgs, pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}

	return pkgs, nil
}

// ListSiblingsForUpdate loads a node's package ordering members with row
// locks held
func (r *PostgresPackageRepository) ListSiblingsForUpdate(ctx context.Context, nodeID int64) ([]ordering.Member, error) {
	query := fmt.Sprintf(`
		SELECT id, sort_order FROM %s
		WHERE node_id = $1
		ORDER BY sort_order, id
		FOR UPDATE
	`, r.tables.Packages)

	return scanMembers(ctx, r.pool, query, nodeID)
}

// ApplySortOrders bulk-writes new sort orders
func (r *PostgresPackageRepository) ApplySortOrders(ctx context.Context, updates []ordering.Member) error {
	query := fmt.Sprintf(`UPDATE %s SET sort_order = $1 WHERE id = $2`, r.tables.Packages)
	return applySortOrders(ctx, r.pool, query, updates)
}

// ShiftSortRange shifts the band's sort orders by its delta
func (r *PostgresPackageRepository) ShiftSortRange(ctx context.Context, nodeID int64, band ordering.Band) error {
	query := fmt.Sprintf(`
		UPDATE %s SET sort_order = sort_order + $1
		WHERE node_id = $2 AND sort_order BETWEEN $3 AND $4
	`, r.tables.Packages)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, band.Delta, nodeID, band.Lo, band.Hi); err != nil {
		return fmt.Errorf("shift package sort range: %w", err)
	}
	return nil
}

// CloseSortGap decrements every package ordered after removedOrder
func (r *PostgresPackageRepository) CloseSortGap(ctx context.Context, nodeID int64, removedOrder int) error {
	query := fmt.Sprintf(`
		UPDATE %s SET sort_order = sort_order - 1
		WHERE node_id = $1 AND sort_order > $2
	`, r.tables.Packages)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, nodeID, removedOrder); err != nil {
		return fmt.Errorf("close package sort gap: %w", err)
	}
	return nil
}

// SetAssignment updates only the assignment field and change date
func (r *PostgresPackageRepository) SetAssignment(ctx context.Context, id int64, assignment string, changed time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET assignment = $1, change_date = $2 WHERE id = $3
	`, r.tables.Packages)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, assignment, changed, id)
	if err != nil {
		return fmt.Errorf("set assignment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("package %d: %w", id, domain.ErrNotFound)
	}

	return nil
}
