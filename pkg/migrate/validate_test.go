package migrate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations invalid: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "init.sql")
	if err := os.WriteFile(bad, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestValidateDirRejectsMissingDownSection(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "20260101000000_missing_down.sql")
	if err := os.WriteFile(bad, []byte("-- +goose Up\nSELECT 1;\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected missing down error")
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Something New!")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration invalid: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("migration written outside dir: %s", path)
	}
}
