// This file implements first-run story seeding and the fallback chain that
// guarantees a navigable graph even when authored content is unusable.
package sqlite

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

//go:embed story_seed.sql
var defaultSeedSQL string

// seedStory populates the dialog graph on a fresh store. It tries the
// authored seed script first, then escalates through the minimal and
// emergency fallback stories. Each step is atomic: either all of a step's
// writes commit, or none do. Only when the emergency story also fails to
// validate is the condition fatal.
func (s *Store) seedStory() error {
	if err := s.applySeedScript(); err != nil {
		s.log.Warn("seed script unusable, generating minimal story", zap.Error(err))
		if err := s.createMinimalStory(); err != nil {
			s.log.Warn("minimal story generation failed", zap.Error(err))
		}
	}
	if s.ValidateStoryStructure() {
		return nil
	}

	s.log.Warn("story structure invalid after seeding, generating emergency story")
	if err := s.clearStory(); err != nil {
		return fmt.Errorf("clear invalid story: %w", err)
	}
	if err := s.createEmergencyStory(); err != nil {
		return fmt.Errorf("create emergency story: %w", err)
	}
	if !s.ValidateStoryStructure() {
		return fmt.Errorf("emergency story failed structure validation")
	}
	return nil
}

// applySeedScript parses the seed script and executes every statement inside
// one transaction, checking the resulting graph has a usable structure
// before committing. Any failure, including a structurally invalid result,
// rolls back and leaves the story tables untouched.
func (s *Store) applySeedScript() error {
	script, err := s.readSeedScript()
	if err != nil {
		return err
	}

	stmts, err := parseSeedScript(strings.NewReader(script))
	if err != nil {
		return fmt.Errorf("parse seed script: %w", err)
	}
	if len(stmts) == 0 {
		return fmt.Errorf("seed script contains no statements")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("execute seed statement: %w", err)
		}
	}

	ok, err := storyStructureOK(tx)
	if err != nil {
		return fmt.Errorf("check seed structure: %w", err)
	}
	if !ok {
		return fmt.Errorf("seed content failed structure validation")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	s.log.Info("story seeded", zap.Int("statements", len(stmts)))
	return nil
}

// readSeedScript returns the configured external script, or the embedded
// default when no override is set.
func (s *Store) readSeedScript() (string, error) {
	if s.cfg.SeedScript == "" {
		return defaultSeedSQL, nil
	}
	data, err := os.ReadFile(s.cfg.SeedScript)
	if err != nil {
		return "", fmt.Errorf("read seed script: %w", err)
	}
	return string(data), nil
}

// parseSeedScript splits a line-oriented script into statements. Blank lines
// and lines starting with -- are ignored; statement text accumulates across
// lines until a terminating semicolon. A trailing unterminated statement is
// a parse error.
func parseSeedScript(r io.Reader) ([]string, error) {
	var stmts []string
	var buf strings.Builder

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)
		if strings.HasSuffix(line, ";") {
			stmts = append(stmts, buf.String())
			buf.Reset()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan seed script: %w", err)
	}
	if buf.Len() > 0 {
		return nil, fmt.Errorf("unterminated statement: %q", buf.String())
	}
	return stmts, nil
}

// clearStory deletes all dialog and choice rows inside one transaction so a
// fallback step starts from an empty graph.
func (s *Store) clearStory() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin clear transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM choices"); err != nil {
		return fmt.Errorf("clear choices: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM dialogs"); err != nil {
		return fmt.Errorf("clear dialogs: %w", err)
	}
	return tx.Commit()
}
