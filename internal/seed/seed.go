// Package seed populates an empty database with the demo knowledge tree.
// The seed runs as a guarded check-then-create inside one transaction, so
// it is safe to invoke on every startup and from concurrent instances.
package seed

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
	"packtree/internal/domain/models"
	"packtree/internal/domain/repositories"
)

//go:embed data/tree.yaml
var dataFiles embed.FS

type seedPackage struct {
	Title   string `yaml:"title"`
	Desc    string `yaml:"desc"`
	Created string `yaml:"created"`
	Changed string `yaml:"changed"`
}

type seedCategory struct {
	Name     string         `yaml:"name"`
	Children []seedCategory `yaml:"children"`
	Packages []seedPackage  `yaml:"packages"`
}

type seedFile struct {
	Categories []seedCategory `yaml:"categories"`
}

// Seeder writes the embedded demo tree through the repositories.
type Seeder struct {
	nodeRepo  repositories.NodeRepository
	pkgRepo   repositories.PackageRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(
	nodeRepo repositories.NodeRepository,
	pkgRepo repositories.PackageRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		nodeRepo:  nodeRepo,
		pkgRepo:   pkgRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// EnsureSeedData loads the demo tree if, and only if, no node exists yet.
func (s *Seeder) EnsureSeedData(ctx context.Context) error {
	data, err := dataFiles.ReadFile("data/tree.yaml")
	if err != nil {
		return fmt.Errorf("read seed data: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("unmarshal seed data: %w", err)
	}

	seeded := false
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		exists, err := s.nodeRepo.HasNodes(ctx)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		for idx, cat := range file.Categories {
			if err := s.createCategory(ctx, cat, nil, idx); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return err
	}

	if seeded {
		s.logger.Info("demo seed data loaded", "roots", len(file.Categories))
	} else {
		s.logger.Debug("seed skipped, nodes already present")
	}
	return nil
}

func (s *Seeder) createCategory(ctx context.Context, cat seedCategory, parentID *int64, sortOrder int) error {
	now := dateToday()
	node := &models.TreeNode{
		Text:       cat.Name,
		ParentID:   parentID,
		CreateDate: now,
		ChangeDate: now,
		SortOrder:  sortOrder,
	}
	if err := s.nodeRepo.Create(ctx, node); err != nil {
		return fmt.Errorf("seed category %q: %w", cat.Name, err)
	}

	for idx, child := range cat.Children {
		if err := s.createCategory(ctx, child, &node.ID, idx); err != nil {
			return err
		}
	}

	for idx, p := range cat.Packages {
		pkg := &models.ExercisePackage{
			Name:        p.Title,
			Description: p.Desc,
			CreateDate:  parseSeedDate(p.Created, now),
			ChangeDate:  parseSeedDate(p.Changed, now),
			SortOrder:   idx,
			NodeID:      node.ID,
		}
		if err := s.pkgRepo.Create(ctx, pkg); err != nil {
			return fmt.Errorf("seed package %q: %w", p.Title, err)
		}
	}

	return nil
}

func parseSeedDate(value string, fallback time.Time) time.Time {
	if d, err := time.Parse("2006-01-02", value); err == nil {
		return d
	}
	return fallback
}

func dateToday() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
