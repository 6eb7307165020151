package types

import "errors"

// Repository is the complete query and mutation surface exposed to callers.
// The SQLite store is the sole implementation and the only component
// permitted to mutate persisted state; every multi-step mutation commits in
// a single transaction or not at all.
type Repository interface {
	// HasUsers reports whether at least one user exists. No side effects.
	HasUsers() (bool, error)

	// ListUsers returns all users ordered by id ascending.
	ListUsers() ([]User, error)

	// AddUser validates username, then atomically inserts the user and a
	// progress record at EntryDialogID. Returns the new user id.
	// Fails with ErrInvalidUsername or ErrDuplicateUsername.
	AddUser(username string) (int64, error)

	// RenameUser updates the username of an existing user.
	// Fails with ErrInvalidUsername, ErrNotFound, or ErrDuplicateUsername.
	RenameUser(id int64, newName string) error

	// DeleteUser removes a user and, in the same transaction, its progress
	// record. Fails with ErrNotFound if the id is absent.
	DeleteUser(id int64) error

	// UpdateUserProgress overwrites the user's current dialog, creating the
	// progress record if none exists. Never fails for an unknown user id.
	UpdateUserProgress(userID, dialogID int64) error

	// UserDialogID returns the user's current dialog id. If no progress
	// record exists, one is created at EntryDialogID and EntryDialogID is
	// returned. Idempotent under repeated calls.
	UserDialogID(userID int64) (int64, error)

	// DialogByID returns the dialog node, or nil with no error when the id
	// is absent. Absence signals "story ended" to the caller.
	DialogByID(id int64) (*DialogNode, error)

	// ChoicesForDialog returns all outgoing choices of a dialog ordered by
	// choice id ascending. An empty slice is valid and signals a terminal
	// node.
	ChoicesForDialog(dialogID int64) ([]Choice, error)

	// DialogCount returns the total number of dialog nodes.
	DialogCount() (int, error)

	// DanglingNextDialogIDs returns the distinct target ids referenced by
	// some choice but not present as any dialog id.
	DanglingNextDialogIDs() ([]int64, error)

	// ValidateStoryConsistency runs the dead-end and cycle checks. It never
	// returns an error: an engine failure during the checks reports false.
	ValidateStoryConsistency() bool

	// ValidateStoryStructure reports whether the store holds at least one
	// dialog and the entry node exists.
	ValidateStoryStructure() bool

	// Backup writes a point-in-time snapshot of the store into destDir under
	// a unique name. Best effort: failures are logged and returned to the
	// direct caller but never escalate from other operations.
	Backup(destDir string) (string, error)

	// CheckIntegrity runs the storage engine's structural self-check.
	CheckIntegrity() bool

	// Close releases the store. Idempotent.
	Close() error
}

// Repository lifecycle errors.
var (
	ErrStoreClosed          = errors.New("store is closed")
	ErrUnknownSchemaVersion = errors.New("unsupported schema version")
)
