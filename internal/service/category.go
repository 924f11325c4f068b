package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"packtree/internal/domain"
	"packtree/internal/domain/models"
	"packtree/internal/domain/repositories"
	"packtree/internal/domain/services"
	"packtree/internal/ordering"
)

// categoryService implements the CategoryService interface
type categoryService struct {
	nodeRepo  repositories.NodeRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(
	nodeRepo repositories.NodeRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.CategoryService {
	return &categoryService{
		nodeRepo:  nodeRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// ListRoots lists the root sibling group in display order
func (s *categoryService) ListRoots(ctx context.Context) ([]models.TreeNode, error) {
	return s.nodeRepo.ListChildren(ctx, nil)
}

// ListChildren lists the child categories of one node
func (s *categoryService) ListChildren(ctx context.Context, parentID int64) ([]models.TreeNode, error) {
	return s.nodeRepo.ListChildren(ctx, &parentID)
}

// Get retrieves a single node with its aggregates
func (s *categoryService) Get(ctx context.Context, id int64) (*models.TreeNode, error) {
	return s.nodeRepo.GetByID(ctx, id)
}

// Create creates a category at the requested position among its siblings.
// The whole renumbering runs in one transaction with the group's rows
// locked, so concurrent inserts into the same group serialize.
func (s *categoryService) Create(ctx context.Context, req *services.CreateCategoryRequest) (*models.TreeNode, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	created := dateOrToday(req.Created)
	changed := dateOrToday(req.Changed)

	node := &models.TreeNode{
		Text:       req.Name,
		ParentID:   req.ParentID,
		CreateDate: created,
		ChangeDate: changed,
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		dup, err := s.nodeRepo.DuplicateNameExists(ctx, req.Name, req.ParentID, 0)
		if err != nil {
			return err
		}
		if dup {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a category named %q already exists at this level", req.Name),
				ResourceType: "category",
			}
		}

		siblings, err := s.nodeRepo.ListSiblingsForUpdate(ctx, req.ParentID)
		if err != nil {
			return err
		}

		insertAt := ordering.ResolveInsertAt(siblings, req.Placement)
		if updates := ordering.RenumberForInsert(siblings, insertAt); len(updates) > 0 {
			if err := s.nodeRepo.ApplySortOrders(ctx, updates); err != nil {
				return err
			}
		}

		node.SortOrder = insertAt
		return s.nodeRepo.Create(ctx, node)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("category created",
		"id", node.ID,
		"name", node.Text,
		"parent_id", node.ParentID,
		"sort_order", node.SortOrder,
	)

	// Re-read for the aggregate counts
	return s.nodeRepo.GetByID(ctx, node.ID)
}

// Update renames a node and/or updates its dates. A rename checks for a
// duplicate sibling name, excluding the node itself.
func (s *categoryService) Update(ctx context.Context, id int64, req *services.UpdateCategoryRequest) (*models.TreeNode, error) {
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		node, err := s.nodeRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			newName := strings.TrimSpace(*req.Name)
			if newName != "" && !strings.EqualFold(newName, node.Text) {
				dup, err := s.nodeRepo.DuplicateNameExists(ctx, newName, node.ParentID, node.ID)
				if err != nil {
					return err
				}
				if dup {
					return &domain.ConflictError{
						Message:      fmt.Sprintf("a category named %q already exists at this level", newName),
						ResourceType: "category",
						ResourceID:   node.ID,
					}
				}
				node.Text = newName
			}
		}

		if req.Created != nil {
			node.CreateDate = *req.Created
		}
		if req.Changed != nil {
			node.ChangeDate = *req.Changed
		}

		return s.nodeRepo.Update(ctx, node)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("category updated", "id", id)

	return s.nodeRepo.GetByID(ctx, id)
}

// Delete removes a node. The subtree and its packages cascade away in the
// database; the gap left in the old sibling group is closed in the same
// transaction.
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		node, err := s.nodeRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if err := s.nodeRepo.Delete(ctx, id); err != nil {
			return err
		}

		return s.nodeRepo.CloseSortGap(ctx, node.ParentID, node.SortOrder)
	})
	if err != nil {
		return err
	}

	s.logger.Info("category deleted", "id", id)
	return nil
}

func (s *categoryService) validateCreateRequest(req *services.CreateCategoryRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required.Error("name required"),
			validation.Length(1, 255),
		),
		validation.Field(&req.Placement, validation.By(validatePlacement)),
	)
}

// validatePlacement accepts an empty direction or one of before/after.
func validatePlacement(value interface{}) error {
	p, _ := value.(ordering.Placement)
	if p.Direction != "" && !p.Direction.Valid() {
		return fmt.Errorf("direction must be %q or %q", ordering.Before, ordering.After)
	}
	return nil
}

// dateOrToday falls back to the current date, truncated to day precision.
func dateOrToday(d *time.Time) time.Time {
	if d != nil {
		return *d
	}
	return today()
}

func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
