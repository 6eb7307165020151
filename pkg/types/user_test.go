package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{
			name:     "simple lowercase",
			username: "alice",
		},
		{
			name:     "mixed case with digits",
			username: "Bob42",
		},
		{
			name:     "underscores allowed",
			username: "dungeon_master_9",
		},
		{
			name:     "minimum length",
			username: "abc",
		},
		{
			name:     "maximum length",
			username: strings.Repeat("a", 30),
		},
		{
			name:     "too short",
			username: "ab",
			wantErr:  ErrInvalidUsername,
		},
		{
			name:     "too long",
			username: strings.Repeat("a", 31),
			wantErr:  ErrInvalidUsername,
		},
		{
			name:     "empty",
			username: "",
			wantErr:  ErrInvalidUsername,
		},
		{
			name:     "spaces rejected",
			username: "alice smith",
			wantErr:  ErrInvalidUsername,
		},
		{
			name:     "hyphen rejected",
			username: "alice-smith",
			wantErr:  ErrInvalidUsername,
		},
		{
			name:     "unicode rejected",
			username: "алиса",
			wantErr:  ErrInvalidUsername,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
