package repositories

import (
	"context"
	"time"

	"packtree/internal/domain/models"
	"packtree/internal/ordering"
)

// PackageRepository defines data access for exercise packages. A package's
// sibling group is the set of packages owned by the same node.
type PackageRepository interface {
	// Create inserts a package and fills in its generated ID.
	Create(ctx context.Context, pkg *models.ExercisePackage) error

	// GetByID retrieves a package with its owning node's text joined in.
	GetByID(ctx context.Context, id int64) (*models.ExercisePackage, error)

	// GetByIDForUpdate retrieves a package holding an exclusive row lock,
	// serializing concurrent assign/unassign on the same package.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.ExercisePackage, error)

	// Update persists field, owner and sort order changes.
	Update(ctx context.Context, pkg *models.ExercisePackage) error

	// Delete removes a package. The caller closes the sort gap afterwards.
	Delete(ctx context.Context, id int64) error

	// ListByNode lists a node's packages in display order.
	ListByNode(ctx context.Context, nodeID int64) ([]models.ExercisePackage, error)

	// ListSiblingsForUpdate loads a node's package ordering members with
	// row locks held.
	ListSiblingsForUpdate(ctx context.Context, nodeID int64) ([]ordering.Member, error)

	// ApplySortOrders bulk-writes new sort orders.
	ApplySortOrders(ctx context.Context, updates []ordering.Member) error

	// ShiftSortRange shifts the band's sort orders by its delta within one
	// node's package group.
	ShiftSortRange(ctx context.Context, nodeID int64, band ordering.Band) error

	// CloseSortGap decrements every package ordered after removedOrder.
	CloseSortGap(ctx context.Context, nodeID int64, removedOrder int) error

	// SetAssignment updates only the assignment field and change date.
	SetAssignment(ctx context.Context, id int64, assignment string, changed time.Time) error
}
