// This file synthesizes fallback story graphs when authored content is
// missing or invalid.
package sqlite

import (
	"fmt"

	"go.uber.org/zap"
)

// fallbackDialog is one node of a synthesized story.
type fallbackDialog struct {
	id   int64
	text string
}

// fallbackChoice is one edge of a synthesized story.
type fallbackChoice struct {
	dialogID int64
	text     string
	nextID   int64
}

// minimalDialogs is the four-node graph used when the seed script cannot be
// loaded: an introduction offering two choices, two distinct second steps,
// and a terminal ending. The ending carries the highest id so the dead-end
// check accepts it.
var minimalDialogs = []fallbackDialog{
	{1, "You stand at a fork in a quiet forest road. Night is falling."},
	{2, "The narrow path winds between old oaks and ends at a lantern-lit cottage."},
	{3, "The wide path follows the river until a ferryman waves you aboard."},
	{4, "Either way, you find shelter before dark. The journey ends here."},
}

var minimalChoices = []fallbackChoice{
	{1, "Take the narrow path", 2},
	{1, "Take the wide path", 3},
	{2, "Knock on the cottage door", 4},
	{3, "Board the ferry", 4},
}

// createMinimalStory inserts exactly four dialogs and four choices so every
// non-terminal node has at least one outgoing choice to an existing node.
// Atomic: the graph appears fully or not at all. Safe to invoke on an empty
// store.
func (s *Store) createMinimalStory() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin fallback transaction: %w", err)
	}
	defer tx.Rollback()

	for _, d := range minimalDialogs {
		if _, err := tx.Exec("INSERT INTO dialogs (id, text) VALUES (?, ?)", d.id, d.text); err != nil {
			return fmt.Errorf("insert fallback dialog %d: %w", d.id, err)
		}
	}
	for _, c := range minimalChoices {
		if _, err := tx.Exec(
			"INSERT INTO choices (dialog_id, choice_text, next_dialog_id) VALUES (?, ?, ?)",
			c.dialogID, c.text, c.nextID,
		); err != nil {
			return fmt.Errorf("insert fallback choice from %d: %w", c.dialogID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fallback transaction: %w", err)
	}

	s.log.Info("minimal fallback story created",
		zap.Int("dialogs", len(minimalDialogs)),
		zap.Int("choices", len(minimalChoices)))
	return nil
}

// createEmergencyStory inserts a single entry dialog with no choices, the
// absolute minimum that still passes the structure check. Atomic.
func (s *Store) createEmergencyStory() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin emergency transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO dialogs (id, text) VALUES (?, ?)",
		1, "The storyteller has lost the thread of this tale. This is where it ends, for now.",
	); err != nil {
		return fmt.Errorf("insert emergency dialog: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit emergency transaction: %w", err)
	}

	s.log.Warn("emergency single-node story created")
	return nil
}
