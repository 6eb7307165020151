package types

import "errors"

// Username constraints. A username is 3 to 30 characters of ASCII letters,
// digits, and underscores, checked on creation and on rename before any row
// is written.
const (
	UsernameMinLen = 3
	UsernameMaxLen = 30
)

// User errors surfaced to callers of the Repository.
var (
	ErrInvalidUsername   = errors.New("username must be 3-30 characters of letters, digits, and underscores")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrNotFound          = errors.New("not found")
)

// User represents a registered player.
type User struct {
	ID       int64  // Assigned by the store on creation. Immutable.
	Username string // Display name, unique across users. Mutable via rename.
}

// ValidateUsername reports whether name satisfies the username constraints.
// Returns ErrInvalidUsername on violation.
func ValidateUsername(name string) error {
	if len(name) < UsernameMinLen || len(name) > UsernameMaxLen {
		return ErrInvalidUsername
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return ErrInvalidUsername
		}
	}
	return nil
}
