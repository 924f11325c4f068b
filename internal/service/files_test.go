package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"packtree/internal/domain"
	"packtree/internal/domain/services"
)

type filesFixture struct {
	repo        *fakePackageRepo
	svc         services.FileService
	uploadsDir  string
	assignedDir string
}

func newFilesFixture(t *testing.T) *filesFixture {
	t.Helper()
	repo := newFakePackageRepo()
	uploads := filepath.Join(t.TempDir(), "uploads")
	assigned := filepath.Join(t.TempDir(), "assigned")

	svc, err := NewFileService(repo, fakeTxManager{}, uploads, assigned, testLogger())
	if err != nil {
		t.Fatalf("NewFileService: %v", err)
	}
	return &filesFixture{repo: repo, svc: svc, uploadsDir: uploads, assignedDir: assigned}
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("payload"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func fileExists(t *testing.T, dir, name string) bool {
	t.Helper()
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		t.Fatalf("stat %s: %v", name, err)
	}
	return info.Mode().IsRegular()
}

func TestListUploads(t *testing.T) {
	f := newFilesFixture(t)
	writeFile(t, f.uploadsDir, "b.zip")
	writeFile(t, f.uploadsDir, "a.zip")
	if err := os.Mkdir(filepath.Join(f.uploadsDir, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := f.svc.ListUploads(context.Background())
	if err != nil {
		t.Fatalf("ListUploads: %v", err)
	}

	want := []string{"a.zip", "b.zip"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("files = %v, want %v", files, want)
		}
	}
}

func TestAssignMovesFileAndStoresName(t *testing.T) {
	f := newFilesFixture(t)
	f.repo.nextID = 7
	f.repo.add("packName_1", 1, 0)
	writeFile(t, f.uploadsDir, "a.zip")

	result, err := f.svc.Assign(context.Background(), 7, "a.zip")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if result.AssignedName != "7_a.zip" {
		t.Errorf("assigned name = %q, want %q", result.AssignedName, "7_a.zip")
	}
	if result.OriginalName != "a.zip" {
		t.Errorf("original name = %q, want %q", result.OriginalName, "a.zip")
	}
	if fileExists(t, f.uploadsDir, "a.zip") {
		t.Error("source file still in uploads")
	}
	if !fileExists(t, f.assignedDir, "7_a.zip") {
		t.Error("file not in assigned directory")
	}
	if f.repo.packages[7].Assignment != "a.zip" {
		t.Errorf("stored assignment = %q, want the unprefixed name", f.repo.packages[7].Assignment)
	}
}

func TestAssignCollisionGetsSuffix(t *testing.T) {
	f := newFilesFixture(t)
	f.repo.add("packName_1", 1, 0)
	writeFile(t, f.uploadsDir, "a.zip")
	writeFile(t, f.assignedDir, "1_a.zip")
	writeFile(t, f.assignedDir, "1_a (1).zip")

	result, err := f.svc.Assign(context.Background(), 1, "a.zip")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if result.AssignedName != "1_a (2).zip" {
		t.Errorf("assigned name = %q, want %q", result.AssignedName, "1_a (2).zip")
	}
	if !fileExists(t, f.assignedDir, "1_a (2).zip") {
		t.Error("disambiguated file not in assigned directory")
	}
	if f.repo.packages[1].Assignment != "a.zip" {
		t.Errorf("stored assignment = %q, want the unprefixed name", f.repo.packages[1].Assignment)
	}
}

func TestAssignMissingUpload(t *testing.T) {
	f := newFilesFixture(t)
	f.repo.add("packName_1", 1, 0)

	_, err := f.svc.Assign(context.Background(), 1, "missing.zip")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Assign: err = %v, want ErrNotFound", err)
	}
	if f.repo.packages[1].Assignment != "" {
		t.Errorf("assignment set despite missing upload: %q", f.repo.packages[1].Assignment)
	}
}

func TestAssignUnknownPackage(t *testing.T) {
	f := newFilesFixture(t)
	writeFile(t, f.uploadsDir, "a.zip")

	_, err := f.svc.Assign(context.Background(), 42, "a.zip")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Assign: err = %v, want ErrNotFound", err)
	}
	if !fileExists(t, f.uploadsDir, "a.zip") {
		t.Error("upload moved despite unknown package")
	}
}

func TestAssignInvalidFilename(t *testing.T) {
	f := newFilesFixture(t)
	f.repo.add("packName_1", 1, 0)

	for _, name := range []string{"", "   ", "../escape.zip", "dir/a.zip"} {
		if _, err := f.svc.Assign(context.Background(), 1, name); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Assign(%q): err = %v, want ErrValidation", name, err)
		}
	}
}

func TestUnassignRoundTrip(t *testing.T) {
	f := newFilesFixture(t)
	f.repo.add("packName_1", 1, 0)
	writeFile(t, f.uploadsDir, "a.zip")

	if _, err := f.svc.Assign(context.Background(), 1, "a.zip"); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	result, err := f.svc.Unassign(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unassign: %v", err)
	}

	if !result.FileMoved {
		t.Error("FileMoved = false, want true")
	}
	if result.RestoredName != "a.zip" {
		t.Errorf("restored name = %q, want %q", result.RestoredName, "a.zip")
	}
	if !fileExists(t, f.uploadsDir, "a.zip") {
		t.Error("file not back in uploads")
	}
	if fileExists(t, f.assignedDir, "1_a.zip") {
		t.Error("file still in assigned directory")
	}
	if f.repo.packages[1].Assignment != "" {
		t.Errorf("assignment = %q, want cleared", f.repo.packages[1].Assignment)
	}
}

func TestUnassignCollisionGetsSuffix(t *testing.T) {
	f := newFilesFixture(t)
	pkg := f.repo.add("packName_1", 1, 0)
	pkg.Assignment = "a.zip"
	writeFile(t, f.assignedDir, "1_a.zip")
	writeFile(t, f.uploadsDir, "a.zip")

	result, err := f.svc.Unassign(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unassign: %v", err)
	}

	if result.RestoredName != "a (1).zip" {
		t.Errorf("restored name = %q, want %q", result.RestoredName, "a (1).zip")
	}
	if !fileExists(t, f.uploadsDir, "a (1).zip") {
		t.Error("disambiguated file not in uploads")
	}
}

func TestUnassignMissingFileClearsField(t *testing.T) {
	f := newFilesFixture(t)
	pkg := f.repo.add("packName_1", 1, 0)
	pkg.Assignment = "gone.zip"

	result, err := f.svc.Unassign(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unassign: %v", err)
	}

	if result.FileMoved {
		t.Error("FileMoved = true, want false for missing file")
	}
	if f.repo.packages[1].Assignment != "" {
		t.Errorf("assignment = %q, want cleared", f.repo.packages[1].Assignment)
	}
}

func TestUnassignWithoutAssignment(t *testing.T) {
	f := newFilesFixture(t)
	f.repo.add("packName_1", 1, 0)

	_, err := f.svc.Unassign(context.Background(), 1)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Unassign: err = %v, want ErrValidation", err)
	}
}
