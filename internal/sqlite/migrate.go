package sqlite

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/fable/pkg/types"
)

// initializeSchema creates all four relations and their indexes inside one
// transaction and stamps the database with the current schema version.
// Failure here is unrecoverable: the engine never operates without a usable
// schema.
func (s *Store) initializeSchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range schemaDDL {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}

	s.log.Info("schema created", zap.Int("version", currentSchemaVersion))
	return nil
}

// upgradeSchema migrates an existing database stepwise from its stored
// version to currentSchemaVersion. An unrecognized old version means the
// store is corrupt or written by a newer release; no silent data loss is
// attempted and ErrUnknownSchemaVersion is returned.
func (s *Store) upgradeSchema() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version == currentSchemaVersion {
		return nil
	}
	if version < 1 || version > currentSchemaVersion {
		return fmt.Errorf("%w: %d", types.ErrUnknownSchemaVersion, version)
	}

	for v := version; v < currentSchemaVersion; v++ {
		if err := s.applyMigration(v); err != nil {
			return fmt.Errorf("migrate schema v%d to v%d: %w", v, v+1, err)
		}
		s.log.Info("schema migrated", zap.Int("from", v), zap.Int("to", v+1))
	}
	return nil
}

// applyMigration upgrades the schema from version v to v+1 in one
// transaction.
func (s *Store) applyMigration(v int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	switch v {
	case 1:
		// v2 adds the choice-lookup index.
		if _, err := tx.Exec(idxChoicesDialog); err != nil {
			return fmt.Errorf("add choices index: %w", err)
		}
	default:
		return fmt.Errorf("%w: %d", types.ErrUnknownSchemaVersion, v)
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}
