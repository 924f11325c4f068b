package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"packtree/internal/domain"
	"packtree/internal/domain/models"
	"packtree/internal/domain/repositories"
	"packtree/internal/ordering"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxManager runs the function directly; the in-memory fakes have no
// transactions to manage.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// fakeNodeRepo is an in-memory NodeRepository.
type fakeNodeRepo struct {
	nodes  map[int64]*models.TreeNode
	nextID int64
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{nodes: map[int64]*models.TreeNode{}, nextID: 1}
}

func (r *fakeNodeRepo) add(text string, parentID *int64, sortOrder int) *models.TreeNode {
	n := &models.TreeNode{
		ID:        r.nextID,
		Text:      text,
		ParentID:  parentID,
		SortOrder: sortOrder,
	}
	r.nodes[n.ID] = n
	r.nextID++
	return n
}

func (r *fakeNodeRepo) Create(ctx context.Context, node *models.TreeNode) error {
	node.ID = r.nextID
	r.nextID++
	stored := *node
	r.nodes[node.ID] = &stored
	return nil
}

func (r *fakeNodeRepo) GetByID(ctx context.Context, id int64) (*models.TreeNode, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
	}
	out := *n
	return &out, nil
}

func (r *fakeNodeRepo) Update(ctx context.Context, node *models.TreeNode) error {
	stored, ok := r.nodes[node.ID]
	if !ok {
		return fmt.Errorf("node %d: %w", node.ID, domain.ErrNotFound)
	}
	stored.Text = node.Text
	stored.CreateDate = node.CreateDate
	stored.ChangeDate = node.ChangeDate
	return nil
}

func (r *fakeNodeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.nodes[id]; !ok {
		return fmt.Errorf("node %d: %w", id, domain.ErrNotFound)
	}
	delete(r.nodes, id)
	return nil
}

func (r *fakeNodeRepo) group(parentID *int64) []*models.TreeNode {
	var out []*models.TreeNode
	for _, n := range r.nodes {
		if sameParent(n.ParentID, parentID) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakeNodeRepo) ListChildren(ctx context.Context, parentID *int64) ([]models.TreeNode, error) {
	var out []models.TreeNode
	for _, n := range r.group(parentID) {
		out = append(out, *n)
	}
	return out, nil
}

func (r *fakeNodeRepo) ListSiblingsForUpdate(ctx context.Context, parentID *int64) ([]ordering.Member, error) {
	var out []ordering.Member
	for _, n := range r.group(parentID) {
		out = append(out, ordering.Member{ID: n.ID, SortOrder: n.SortOrder})
	}
	return out, nil
}

func (r *fakeNodeRepo) ApplySortOrders(ctx context.Context, updates []ordering.Member) error {
	for _, u := range updates {
		if n, ok := r.nodes[u.ID]; ok {
			n.SortOrder = u.SortOrder
		}
	}
	return nil
}

func (r *fakeNodeRepo) ShiftSortRange(ctx context.Context, parentID *int64, band ordering.Band) error {
	for _, n := range r.group(parentID) {
		if n.SortOrder >= band.Lo && n.SortOrder <= band.Hi {
			n.SortOrder += band.Delta
		}
	}
	return nil
}

func (r *fakeNodeRepo) CloseSortGap(ctx context.Context, parentID *int64, removedOrder int) error {
	for _, n := range r.group(parentID) {
		if n.SortOrder > removedOrder {
			n.SortOrder--
		}
	}
	return nil
}

func (r *fakeNodeRepo) DuplicateNameExists(ctx context.Context, text string, parentID *int64, excludeID int64) (bool, error) {
	for _, n := range r.group(parentID) {
		if n.ID != excludeID && strings.EqualFold(n.Text, text) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNodeRepo) HasNodes(ctx context.Context) (bool, error) {
	return len(r.nodes) > 0, nil
}

// fakePackageRepo is an in-memory PackageRepository.
type fakePackageRepo struct {
	packages map[int64]*models.ExercisePackage
	nextID   int64
}

func newFakePackageRepo() *fakePackageRepo {
	return &fakePackageRepo{packages: map[int64]*models.ExercisePackage{}, nextID: 1}
}

func (r *fakePackageRepo) add(name string, nodeID int64, sortOrder int) *models.ExercisePackage {
	p := &models.ExercisePackage{
		ID:        r.nextID,
		Name:      name,
		NodeID:    nodeID,
		SortOrder: sortOrder,
	}
	r.packages[p.ID] = p
	r.nextID++
	return p
}

func (r *fakePackageRepo) Create(ctx context.Context, pkg *models.ExercisePackage) error {
	pkg.ID = r.nextID
	r.nextID++
	stored := *pkg
	r.packages[pkg.ID] = &stored
	return nil
}

func (r *fakePackageRepo) GetByID(ctx context.Context, id int64) (*models.ExercisePackage, error) {
	p, ok := r.packages[id]
	if !ok {
		return nil, fmt.Errorf("package %d: %w", id, domain.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (r *fakePackageRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.ExercisePackage, error) {
	return r.GetByID(ctx, id)
}

func (r *fakePackageRepo) Update(ctx context.Context, pkg *models.ExercisePackage) error {
	if _, ok := r.packages[pkg.ID]; !ok {
		return fmt.Errorf("package %d: %w", pkg.ID, domain.ErrNotFound)
	}
	stored := *pkg
	r.packages[pkg.ID] = &stored
	return nil
}

func (r *fakePackageRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.packages[id]; !ok {
		return fmt.Errorf("package %d: %w", id, domain.ErrNotFound)
	}
	delete(r.packages, id)
	return nil
}

func (r *fakePackageRepo) group(nodeID int64) []*models.ExercisePackage {
	var out []*models.ExercisePackage
	for _, p := range r.packages {
		if p.NodeID == nodeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakePackageRepo) ListByNode(ctx context.Context, nodeID int64) ([]models.ExercisePackage, error) {
	var out []models.ExercisePackage
	for _, p := range r.group(nodeID) {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakePackageRepo) ListSiblingsForUpdate(ctx context.Context, nodeID int64) ([]ordering.Member, error) {
	var out []ordering.Member
	for _, p := range r.group(nodeID) {
		out = append(out, ordering.Member{ID: p.ID, SortOrder: p.SortOrder})
	}
	return out, nil
}

func (r *fakePackageRepo) ApplySortOrders(ctx context.Context, updates []ordering.Member) error {
	for _, u := range updates {
		if p, ok := r.packages[u.ID]; ok {
			p.SortOrder = u.SortOrder
		}
	}
	return nil
}

func (r *fakePackageRepo) ShiftSortRange(ctx context.Context, nodeID int64, band ordering.Band) error {
	for _, p := range r.group(nodeID) {
		if p.SortOrder >= band.Lo && p.SortOrder <= band.Hi {
			p.SortOrder += band.Delta
		}
	}
	return nil
}

func (r *fakePackageRepo) CloseSortGap(ctx context.Context, nodeID int64, removedOrder int) error {
	for _, p := range r.group(nodeID) {
		if p.SortOrder > removedOrder {
			p.SortOrder--
		}
	}
	return nil
}

func (r *fakePackageRepo) SetAssignment(ctx context.Context, id int64, assignment string, changed time.Time) error {
	p, ok := r.packages[id]
	if !ok {
		return fmt.Errorf("package %d: %w", id, domain.ErrNotFound)
	}
	p.Assignment = assignment
	p.ChangeDate = changed
	return nil
}
