package repositories

import (
	"context"

	"packtree/internal/domain/models"
	"packtree/internal/ordering"
)

// NodeRepository defines data access for category tree nodes. The sibling
// group of a node is identified by its parent id, with nil meaning the root
// group.
type NodeRepository interface {
	// Create inserts a node and fills in its generated ID.
	Create(ctx context.Context, node *models.TreeNode) error

	// GetByID retrieves a node by ID.
	GetByID(ctx context.Context, id int64) (*models.TreeNode, error)

	// Update persists text and date changes.
	Update(ctx context.Context, node *models.TreeNode) error

	// Delete removes a node; descendants and packages go with it via
	// cascade. The caller closes the sort gap afterwards.
	Delete(ctx context.Context, id int64) error

	// ListChildren lists a sibling group in display order, with
	// children_count and pkg_count aggregates populated.
	ListChildren(ctx context.Context, parentID *int64) ([]models.TreeNode, error)

	// ListSiblingsForUpdate loads a sibling group's ordering members with
	// row locks held, serializing concurrent mutations of the group.
	ListSiblingsForUpdate(ctx context.Context, parentID *int64) ([]ordering.Member, error)

	// ApplySortOrders bulk-writes new sort orders.
	ApplySortOrders(ctx context.Context, updates []ordering.Member) error

	// ShiftSortRange shifts the band's sort orders by its delta within one
	// sibling group.
	ShiftSortRange(ctx context.Context, parentID *int64, band ordering.Band) error

	// CloseSortGap decrements every sibling ordered after removedOrder.
	CloseSortGap(ctx context.Context, parentID *int64, removedOrder int) error

	// DuplicateNameExists reports whether another sibling carries the same
	// text, compared case-insensitively. excludeID > 0 leaves the node
	// being renamed out of the comparison.
	DuplicateNameExists(ctx context.Context, text string, parentID *int64, excludeID int64) (bool, error)

	// HasNodes reports whether any node exists at all (seed guard).
	HasNodes(ctx context.Context) (bool, error)
}
