// This file implements user CRUD. Users and their progress records are
// created together and destroyed together, always inside one transaction.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/fable/pkg/types"
)

// HasUsers reports whether at least one user exists.
func (s *Store) HasUsers() (bool, error) {
	if err := s.checkOpenRead(); err != nil {
		return false, err
	}
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	return n > 0, nil
}

// ListUsers returns all users ordered by id ascending, which is insertion
// order.
func (s *Store) ListUsers() ([]types.User, error) {
	if err := s.checkOpenRead(); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT id, username FROM users ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// AddUser validates the username, then inserts the user and its progress
// record at the entry dialog in one transaction. Returns the new user id.
func (s *Store) AddUser(username string) (int64, error) {
	if err := types.ValidateUsername(username); err != nil {
		return 0, err
	}

	if err := s.checkOpenWrite(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRow("SELECT 1 FROM users WHERE username = ?", username).Scan(&exists)
	if err == nil {
		return 0, types.ErrDuplicateUsername
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("checking username: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO users (username) VALUES (?)", username)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, types.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new user id: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO progress (user_id, current_dialog_id) VALUES (?, ?)",
		id, types.EntryDialogID,
	); err != nil {
		return 0, fmt.Errorf("inserting progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing user: %w", err)
	}
	return id, nil
}

// RenameUser changes the username of an existing user.
func (s *Store) RenameUser(id int64, newName string) error {
	if err := types.ValidateUsername(newName); err != nil {
		return err
	}

	if err := s.checkOpenWrite(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRow("SELECT 1 FROM users WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking user existence: %w", err)
	}

	var otherID int64
	err = s.db.QueryRow("SELECT id FROM users WHERE username = ?", newName).Scan(&otherID)
	if err == nil && otherID != id {
		return types.ErrDuplicateUsername
	}
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("checking username: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE users SET username = ? WHERE id = ?", newName, id); err != nil {
		if isUniqueViolation(err) {
			return types.ErrDuplicateUsername
		}
		return fmt.Errorf("updating username: %w", err)
	}
	return tx.Commit()
}

// DeleteUser removes the user and its progress record in one transaction.
// The cascade is applied explicitly rather than trusting engine-level
// cascade semantics.
func (s *Store) DeleteUser(id int64) error {
	if err := s.checkOpenWrite(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRow("SELECT 1 FROM users WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking user existence: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM progress WHERE user_id = ?", id); err != nil {
		return fmt.Errorf("deleting progress: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return tx.Commit()
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
