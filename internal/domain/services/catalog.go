package services

import (
	"context"
	"time"

	"packtree/internal/domain/models"
	"packtree/internal/ordering"
)

// CreateCategoryRequest creates a tree node, optionally positioned next to
// a reference sibling.
type CreateCategoryRequest struct {
	Name      string
	ParentID  *int64
	Placement ordering.Placement
	Created   *time.Time
	Changed   *time.Time
}

// UpdateCategoryRequest renames a node and/or updates its dates. Nil fields
// are left untouched.
type UpdateCategoryRequest struct {
	Name    *string
	Created *time.Time
	Changed *time.Time
}

// CategoryService manages the node tree.
type CategoryService interface {
	ListRoots(ctx context.Context) ([]models.TreeNode, error)
	ListChildren(ctx context.Context, parentID int64) ([]models.TreeNode, error)
	Create(ctx context.Context, req *CreateCategoryRequest) (*models.TreeNode, error)
	Get(ctx context.Context, id int64) (*models.TreeNode, error)
	Update(ctx context.Context, id int64, req *UpdateCategoryRequest) (*models.TreeNode, error)
	Delete(ctx context.Context, id int64) error
}

// CreatePackageRequest creates a package under a node.
type CreatePackageRequest struct {
	Title      string
	NodeID     int64
	Desc       string
	Placement  ordering.Placement
	Created    *time.Time
	Changed    *time.Time
	Assignment string
}

// UpdatePackageRequest edits fields, reorders within the owning node, or
// moves the package to another node. Nil fields are left untouched;
// ClearAssignment clears the assignment field without touching files.
type UpdatePackageRequest struct {
	Title           *string
	Desc            *string
	Created         *time.Time
	Changed         *time.Time
	NodeID          *int64
	Placement       ordering.Placement
	Assignment      *string
	ClearAssignment bool
}

// PackageService manages exercise packages and their ordering.
type PackageService interface {
	Get(ctx context.Context, id int64) (*models.ExercisePackage, error)
	ListByNode(ctx context.Context, nodeID int64) ([]models.ExercisePackage, error)
	Create(ctx context.Context, req *CreatePackageRequest) (*models.ExercisePackage, error)
	Update(ctx context.Context, id int64, req *UpdatePackageRequest) (*models.ExercisePackage, error)
	Delete(ctx context.Context, id int64) error
}

// AssignResult reports a completed file assignment. AssignedName carries
// the id-prefixed on-disk name; OriginalName is what the package stores.
type AssignResult struct {
	PackageID    int64
	OriginalName string
	AssignedName string
}

// UnassignResult reports a completed unassignment. FileMoved is false when
// the assigned file was already gone and only the stale field was cleared.
type UnassignResult struct {
	PackageID    int64
	RestoredName string
	FileMoved    bool
}

// FileService bridges the uploads and assigned-packages directories.
type FileService interface {
	ListUploads(ctx context.Context) ([]string, error)
	Assign(ctx context.Context, packageID int64, filename string) (*AssignResult, error)
	Unassign(ctx context.Context, packageID int64) (*UnassignResult, error)
}
