package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"packtree/internal/domain"
	"packtree/internal/domain/repositories"
	"packtree/internal/domain/services"
)

// fileService bridges the uploads and assigned-packages directories. Files
// move to the assigned area under an "<id>_" prefix; the package row only
// ever stores the original, unprefixed name.
type fileService struct {
	pkgRepo     repositories.PackageRepository
	txManager   repositories.TransactionManager
	uploadsDir  string
	assignedDir string
	logger      *slog.Logger
}

// NewFileService creates a new file service and ensures both directories exist.
func NewFileService(
	pkgRepo repositories.PackageRepository,
	txManager repositories.TransactionManager,
	uploadsDir, assignedDir string,
	logger *slog.Logger,
) (services.FileService, error) {
	for _, dir := range []string{uploadsDir, assignedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return &fileService{
		pkgRepo:     pkgRepo,
		txManager:   txManager,
		uploadsDir:  uploadsDir,
		assignedDir: assignedDir,
		logger:      logger,
	}, nil
}

// ListUploads lists the plain files in the uploads directory, sorted by name.
func (s *fileService) ListUploads(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.uploadsDir)
	if err != nil {
		return nil, fmt.Errorf("read uploads directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// Assign moves uploads/<filename> to assigned/<id>_<filename> and stores
// the unprefixed name on the package. The package row stays locked for the
// duration of the move, so concurrent assigns on the same package serialize.
// A missing source file aborts before any database write.
func (s *fileService) Assign(ctx context.Context, packageID int64, filename string) (*services.AssignResult, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	var result *services.AssignResult
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		pkg, err := s.pkgRepo.GetByIDForUpdate(ctx, packageID)
		if err != nil {
			return err
		}

		src := filepath.Join(s.uploadsDir, filename)
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			return fmt.Errorf("upload %q: %w", filename, domain.ErrNotFound)
		}

		assignedName, err := moveUnique(src, s.assignedDir, fmt.Sprintf("%d_%s", packageID, filename))
		if err != nil {
			return fmt.Errorf("move to assigned: %w", err)
		}

		changed := pkg.ChangeDate
		if changed.IsZero() {
			changed = today()
		}
		if err := s.pkgRepo.SetAssignment(ctx, packageID, filename, changed); err != nil {
			return err
		}

		result = &services.AssignResult{
			PackageID:    packageID,
			OriginalName: filename,
			AssignedName: assignedName,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file assigned",
		"package_id", packageID,
		"original_name", result.OriginalName,
		"assigned_name", result.AssignedName,
	)
	return result, nil
}

// Unassign moves the package's assigned file back to uploads and clears the
// assignment field. A file that has already disappeared from the assigned
// area is not an error: the stale field is cleared and FileMoved is false.
func (s *fileService) Unassign(ctx context.Context, packageID int64) (*services.UnassignResult, error) {
	var result *services.UnassignResult
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		pkg, err := s.pkgRepo.GetByIDForUpdate(ctx, packageID)
		if err != nil {
			return err
		}

		original := strings.TrimSpace(pkg.Assignment)
		if original == "" {
			return fmt.Errorf("%w: package has no assigned file", domain.ErrValidation)
		}

		src := filepath.Join(s.assignedDir, fmt.Sprintf("%d_%s", packageID, original))
		moved := false
		restoredName := original

		if info, err := os.Stat(src); err == nil && info.Mode().IsRegular() {
			restoredName, err = moveUnique(src, s.uploadsDir, original)
			if err != nil {
				return fmt.Errorf("move to uploads: %w", err)
			}
			moved = true
		} else {
			s.logger.Warn("assigned file missing, clearing stale assignment",
				"package_id", packageID,
				"expected", src,
			)
		}

		changed := pkg.ChangeDate
		if changed.IsZero() {
			changed = today()
		}
		if err := s.pkgRepo.SetAssignment(ctx, packageID, "", changed); err != nil {
			return err
		}

		result = &services.UnassignResult{
			PackageID:    packageID,
			RestoredName: restoredName,
			FileMoved:    moved,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file unassigned",
		"package_id", packageID,
		"restored_name", result.RestoredName,
		"file_moved", result.FileMoved,
	)
	return result, nil
}

// validateFilename rejects empty names and anything that escapes the
// uploads directory.
func validateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("%w: filename required", domain.ErrValidation)
	}
	if filename != filepath.Base(filename) || filename == ".." {
		return fmt.Errorf("%w: invalid filename", domain.ErrValidation)
	}
	return nil
}

// moveUnique moves src into dir under baseName, appending " (N)" before the
// extension until a free name is found. Destination names are reserved with
// O_EXCL and renamed over, so two concurrent moves cannot claim the same
// name; on a collision the next candidate is tried.
func moveUnique(src, dir, baseName string) (string, error) {
	ext := filepath.Ext(baseName)
	stem := strings.TrimSuffix(baseName, ext)

	candidate := baseName
	for i := 1; ; i++ {
		dst := filepath.Join(dir, candidate)

		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
				continue
			}
			return "", err
		}
		f.Close()

		if err := os.Rename(src, dst); err != nil {
			os.Remove(dst)
			return "", err
		}
		return candidate, nil
	}
}
