// This file implements read-only queries over the dialog graph.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/fable/pkg/types"
)

// DialogByID returns the dialog node, or nil with no error when the id is
// absent. Callers treat absence as the story having ended.
func (s *Store) DialogByID(id int64) (*types.DialogNode, error) {
	if err := s.checkOpenRead(); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	var d types.DialogNode
	err := s.db.QueryRow("SELECT id, text FROM dialogs WHERE id = ?", id).Scan(&d.ID, &d.Text)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying dialog %d: %w", id, err)
	}
	return &d, nil
}

// ChoicesForDialog returns all outgoing choices of a dialog ordered by
// choice id ascending, so presentation order is stable. An empty slice is
// valid and signals a terminal node.
func (s *Store) ChoicesForDialog(dialogID int64) ([]types.Choice, error) {
	if err := s.checkOpenRead(); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, dialog_id, choice_text, next_dialog_id FROM choices WHERE dialog_id = ? ORDER BY id ASC",
		dialogID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying choices for dialog %d: %w", dialogID, err)
	}
	defer rows.Close()

	choices := []types.Choice{}
	for rows.Next() {
		var c types.Choice
		if err := rows.Scan(&c.ID, &c.DialogID, &c.Text, &c.NextDialogID); err != nil {
			return nil, fmt.Errorf("scanning choice: %w", err)
		}
		choices = append(choices, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating choices: %w", err)
	}
	return choices, nil
}

// DialogCount returns the total number of dialog nodes.
func (s *Store) DialogCount() (int, error) {
	if err := s.checkOpenRead(); err != nil {
		return 0, err
	}
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM dialogs").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting dialogs: %w", err)
	}
	return n, nil
}

// DanglingNextDialogIDs returns the distinct targets referenced by some
// choice but present as no dialog id, ordered ascending.
func (s *Store) DanglingNextDialogIDs() ([]int64, error) {
	if err := s.checkOpenRead(); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	return s.danglingNextDialogIDs()
}

// danglingNextDialogIDs is the lock-free variant used by the validator,
// which manages locking itself.
func (s *Store) danglingNextDialogIDs() ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT c.next_dialog_id FROM choices c
		 LEFT JOIN dialogs d ON d.id = c.next_dialog_id
		 WHERE d.id IS NULL
		 ORDER BY c.next_dialog_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying dangling targets: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning dangling target: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dangling targets: %w", err)
	}
	return ids, nil
}
