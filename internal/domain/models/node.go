package models

import (
	"time"
)

// TreeNode is one category in the catalog tree. Nodes with a nil ParentID
// form the root sibling group; deleting a node cascades to its subtree.
type TreeNode struct {
	ID         int64
	Text       string
	ParentID   *int64
	CreateDate time.Time
	ChangeDate time.Time

	// SortOrder is the node's position among its siblings. Sibling groups
	// always hold the contiguous sequence 0..n-1.
	SortOrder int

	// Aggregates populated by list queries, not stored.
	ChildrenCount int
	PackageCount  int
}
