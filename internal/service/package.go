package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"packtree/internal/domain"
	"packtree/internal/domain/models"
	"packtree/internal/domain/repositories"
	"packtree/internal/domain/services"
	"packtree/internal/ordering"
)

// packageService implements the PackageService interface
type packageService struct {
	pkgRepo   repositories.PackageRepository
	nodeRepo  repositories.NodeRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewPackageService creates a new package service
func NewPackageService(
	pkgRepo repositories.PackageRepository,
	nodeRepo repositories.NodeRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.PackageService {
	return &packageService{
		pkgRepo:   pkgRepo,
		nodeRepo:  nodeRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// Get retrieves a package with its owning node's text
func (s *packageService) Get(ctx context.Context, id int64) (*models.ExercisePackage, error) {
	return s.pkgRepo.GetByID(ctx, id)
}

// ListByNode lists a node's packages in display order
func (s *packageService) ListByNode(ctx context.Context, nodeID int64) ([]models.ExercisePackage, error) {
	return s.pkgRepo.ListByNode(ctx, nodeID)
}

// Create creates a package at the requested position within its node's
// sibling group. Existing siblings are renumbered around the insertion
// index inside one transaction.
func (s *packageService) Create(ctx context.Context, req *services.CreatePackageRequest) (*models.ExercisePackage, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	pkg := &models.ExercisePackage{
		Name:        req.Title,
		Description: req.Desc,
		CreateDate:  dateOrToday(req.Created),
		ChangeDate:  dateOrToday(req.Changed),
		NodeID:      req.NodeID,
		Assignment:  req.Assignment,
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		siblings, err := s.pkgRepo.ListSiblingsForUpdate(ctx, req.NodeID)
		if err != nil {
			return err
		}

		insertAt := ordering.ResolveInsertAt(siblings, req.Placement)
		if updates := ordering.RenumberForInsert(siblings, insertAt); len(updates) > 0 {
			if err := s.pkgRepo.ApplySortOrders(ctx, updates); err != nil {
				return err
			}
		}

		pkg.SortOrder = insertAt
		return s.pkgRepo.Create(ctx, pkg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("package created",
		"id", pkg.ID,
		"title", pkg.Name,
		"node_id", pkg.NodeID,
		"sort_order", pkg.SortOrder,
	)

	return s.pkgRepo.GetByID(ctx, pkg.ID)
}

// Update edits fields, reorders within the owning node, or reparents the
// package to another node. Reparenting closes the gap in the old group and
// makes room in the new one; a same-group move shifts only the band between
// the old and new position. Everything runs in a single transaction.
func (s *packageService) Update(ctx context.Context, id int64, req *services.UpdatePackageRequest) (*models.ExercisePackage, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		pkg, err := s.pkgRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		oldNodeID := pkg.NodeID
		oldOrder := pkg.SortOrder

		// Target group: explicit node_id wins; otherwise a reference
		// package implies its own node. An unresolvable reference keeps
		// the current node.
		targetNodeID := oldNodeID
		if req.NodeID != nil {
			targetNodeID = *req.NodeID
		} else if req.Placement.RefID != 0 {
			ref, err := s.pkgRepo.GetByID(ctx, req.Placement.RefID)
			switch {
			case err == nil:
				targetNodeID = ref.NodeID
			case errors.Is(err, domain.ErrNotFound):
				// fall back to the current node
			default:
				return err
			}
		}

		if targetNodeID != oldNodeID {
			// Reparent: close the gap left behind, then make room in the
			// target group at the resolved index.
			if err := s.pkgRepo.CloseSortGap(ctx, oldNodeID, oldOrder); err != nil {
				return err
			}

			siblings, err := s.pkgRepo.ListSiblingsForUpdate(ctx, targetNodeID)
			if err != nil {
				return err
			}

			insertAt := ordering.ResolveInsertAt(siblings, req.Placement)
			if updates := ordering.RenumberForInsert(siblings, insertAt); len(updates) > 0 {
				if err := s.pkgRepo.ApplySortOrders(ctx, updates); err != nil {
					return err
				}
			}

			pkg.NodeID = targetNodeID
			pkg.SortOrder = insertAt
		} else if req.Placement.RefID != 0 && req.Placement.Direction.Valid() || req.Placement.Absolute != nil {
			// Reorder within the same node: resolve the target index with
			// the mover excluded, then shift only the affected band.
			siblings, err := s.pkgRepo.ListSiblingsForUpdate(ctx, oldNodeID)
			if err != nil {
				return err
			}

			insertAt := ordering.ResolveInsertAt(ordering.Exclude(siblings, pkg.ID), req.Placement)
			if band, ok := ordering.MoveBand(oldOrder, insertAt); ok {
				if err := s.pkgRepo.ShiftSortRange(ctx, oldNodeID, band); err != nil {
					return err
				}
				pkg.SortOrder = insertAt
			}
		}

		if req.Title != nil {
			if title := strings.TrimSpace(*req.Title); title != "" {
				pkg.Name = title
			}
		}
		if req.Desc != nil {
			pkg.Description = *req.Desc
		}
		if req.Created != nil {
			pkg.CreateDate = *req.Created
		}
		if req.Changed != nil {
			pkg.ChangeDate = *req.Changed
		}
		if req.ClearAssignment {
			pkg.Assignment = ""
		} else if req.Assignment != nil {
			pkg.Assignment = *req.Assignment
		}

		return s.pkgRepo.Update(ctx, pkg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("package updated", "id", id)

	return s.pkgRepo.GetByID(ctx, id)
}

// Delete removes a package and closes the gap in its node's sibling group.
func (s *packageService) Delete(ctx context.Context, id int64) error {
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		pkg, err := s.pkgRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := s.pkgRepo.Delete(ctx, id); err != nil {
			return err
		}

		return s.pkgRepo.CloseSortGap(ctx, pkg.NodeID, pkg.SortOrder)
	})
	if err != nil {
		return err
	}

	s.logger.Info("package deleted", "id", id)
	return nil
}

func (s *packageService) validateCreateRequest(req *services.CreatePackageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required.Error("title required"),
			validation.Length(1, 255),
		),
		validation.Field(&req.NodeID,
			validation.Required.Error("node_id required"),
		),
		validation.Field(&req.Placement, validation.By(validatePlacement)),
	)
}

func (s *packageService) validateUpdateRequest(req *services.UpdatePackageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Placement, validation.By(validatePlacement)),
	)
}
