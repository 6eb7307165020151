package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/fable/pkg/types"
)

// openAtVersion creates a database laid out like the given older schema
// version, so Open has something to migrate.
func openAtVersion(t *testing.T, dir string, version int) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(dir, DBFileName))
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()

	// Version 1 had the same tables but no indexes.
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	if _, err := db.Exec("INSERT INTO dialogs (id, text) VALUES (1, 'kept across migration')"); err != nil {
		t.Fatalf("insert dialog: %v", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		t.Fatalf("stamp version: %v", err)
	}
}

func TestUpgradeSchema_FromV1(t *testing.T) {
	dir := t.TempDir()
	openAtVersion(t, dir, 1)

	s, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dir}, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("version = %d, want %d", version, currentSchemaVersion)
	}

	// Existing data survives; no reseed happened.
	count, err := s.DialogCount()
	if err != nil {
		t.Fatalf("DialogCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 dialog preserved, got %d", count)
	}

	// The v2 index exists.
	var n int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_choices_dialog'",
	).Scan(&n); err != nil {
		t.Fatalf("inspect indexes: %v", err)
	}
	if n != 1 {
		t.Error("v2 index missing after migration")
	}
}

func TestUpgradeSchema_UnknownVersionFatal(t *testing.T) {
	dir := t.TempDir()
	openAtVersion(t, dir, currentSchemaVersion+5)

	_, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dir}, zap.NewNop())
	if err == nil {
		t.Fatal("expected fatal error for unsupported schema version")
	}
	if !errors.Is(err, types.ErrUnknownSchemaVersion) {
		t.Errorf("expected ErrUnknownSchemaVersion, got %v", err)
	}
}

func TestUpgradeSchema_CurrentVersionNoop(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	s, err := Open(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()

	s2, err := Open(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen at current version: %v", err)
	}
	s2.Close()
}
