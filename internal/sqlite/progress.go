// This file implements per-user progress tracking.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/fable/pkg/types"
)

// UpdateUserProgress overwrites the user's current dialog. If no progress
// record exists one is created, so the call never fails for a well-formed
// but unknown user id.
func (s *Store) UpdateUserProgress(userID, dialogID int64) error {
	if err := s.checkOpenWrite(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO progress (user_id, current_dialog_id) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET current_dialog_id = excluded.current_dialog_id`,
		userID, dialogID,
	); err != nil {
		return fmt.Errorf("upserting progress: %w", err)
	}
	return tx.Commit()
}

// UserDialogID returns the dialog the user is currently viewing. A missing
// progress record is lazily created at the entry dialog; repeated calls are
// idempotent.
func (s *Store) UserDialogID(userID int64) (int64, error) {
	if err := s.checkOpenWrite(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	var dialogID int64
	err := s.db.QueryRow(
		"SELECT current_dialog_id FROM progress WHERE user_id = ?", userID,
	).Scan(&dialogID)
	if err == nil {
		return dialogID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("querying progress: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO progress (user_id, current_dialog_id) VALUES (?, ?)",
		userID, types.EntryDialogID,
	); err != nil {
		return 0, fmt.Errorf("initializing progress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing progress: %w", err)
	}
	return types.EntryDialogID, nil
}
