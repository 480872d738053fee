package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	// Relative to this package, not the repo root.
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations failed validation: %v", err)
	}
}

func TestValidateDirRejectsMissingDir(t *testing.T) {
	if err := ValidateDir("does-not-exist"); err == nil {
		t.Fatal("expected missing directory to fail validation")
	}
}

func TestValidateDirCollectsEveryProblem(t *testing.T) {
	dir := t.TempDir()

	writeFile := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	writeFile("badname.sql", "-- +goose Up\n-- +goose Down\n")
	writeFile("20250301120000_missing_down.sql", "-- +goose Up\nCREATE TABLE t (id int);\n")

	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 problems reported, got %d: %v", got, err)
	}
}
