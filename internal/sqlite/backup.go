// This file implements best-effort backup and the storage self-check.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backup writes a consistent point-in-time snapshot of the database into
// destDir. The artifact name embeds a timestamp and a unique suffix so
// repeated backups never overwrite one another. Backup is best effort: the
// failure is logged and returned to the direct caller, and no other
// operation ever fails because a backup did.
func (s *Store) Backup(destDir string) (string, error) {
	if err := s.checkOpenRead(); err != nil {
		return "", err
	}
	defer s.mu.RUnlock()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		s.log.Warn("backup failed", zap.Error(err))
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("story-%s-%s.db",
		time.Now().UTC().Format("20060102T150405Z"), backupSuffix())
	path := filepath.Join(destDir, name)

	if _, err := s.db.Exec("VACUUM INTO ?", path); err != nil {
		s.log.Warn("backup failed", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	s.log.Info("backup written", zap.String("path", path))
	return path, nil
}

// CheckIntegrity runs SQLite's built-in structural self-check. False means
// corruption requiring operator attention; the check itself never raises.
func (s *Store) CheckIntegrity() bool {
	if err := s.checkOpenRead(); err != nil {
		return false
	}
	defer s.mu.RUnlock()

	var result string
	if err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		s.log.Warn("integrity check failed to run", zap.Error(err))
		return false
	}
	if result != "ok" {
		s.log.Warn("integrity check reported corruption", zap.String("result", result))
		return false
	}
	return true
}

// backupSuffix returns a short unique suffix for backup artifact names. The
// suffix is the random tail of a UUID, not its leading bits: a v7 UUID leads
// with a millisecond timestamp, so two backups in the same second would
// otherwise collide.
func backupSuffix() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	s := id.String()
	return s[len(s)-8:]
}
