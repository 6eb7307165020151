// This file implements read-only graph validation: authoring defects the
// storage layer does not and cannot enforce.
package sqlite

import (
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

const (
	// maxPathDepth caps path expansion so malformed graphs cannot make
	// validation unbounded.
	maxPathDepth = 100

	// loopEntryThreshold is the number of accumulated path entries past
	// which an originating node is flagged as a probable infinite loop.
	loopEntryThreshold = 100
)

// ValidateStoryConsistency runs the dead-end check and the cycle heuristic.
// It returns true only if neither found a defect. Offending node ids are
// logged so an operator can act on them. An engine failure during the checks
// reports "not validated" rather than propagating.
func (s *Store) ValidateStoryConsistency() bool {
	if err := s.checkOpenRead(); err != nil {
		return false
	}
	defer s.mu.RUnlock()

	deadEnds, err := s.unintendedDeadEnds()
	if err != nil {
		s.log.Warn("dead-end check failed", zap.Error(err))
		return false
	}
	if len(deadEnds) > 0 {
		s.log.Warn("unintended dead ends found", zap.Int64s("dialog_ids", deadEnds))
	}

	loops, err := s.probableLoops()
	if err != nil {
		s.log.Warn("cycle check failed", zap.Error(err))
		return false
	}
	if len(loops) > 0 {
		s.log.Warn("probable infinite loops found", zap.Int64s("dialog_ids", loops))
	}

	// Dangling targets do not fail validation on their own; surface them as
	// a diagnostic alongside the verdict.
	if dangling, err := s.danglingNextDialogIDs(); err == nil && len(dangling) > 0 {
		s.log.Warn("choices point at missing dialogs", zap.Int64s("next_dialog_ids", dangling))
	}

	return len(deadEnds) == 0 && len(loops) == 0
}

// ValidateStoryStructure reports whether the store holds at least one dialog
// and the entry node exists. This is the minimal bar a synthesized fallback
// story must clear.
func (s *Store) ValidateStoryStructure() bool {
	if err := s.checkOpenRead(); err != nil {
		return false
	}
	defer s.mu.RUnlock()

	ok, err := storyStructureOK(s.db)
	if err != nil {
		s.log.Warn("structure check failed", zap.Error(err))
		return false
	}
	return ok
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx, so structural checks can
// run against uncommitted writes.
type rowQuerier interface {
	QueryRow(query string, args ...any) *sql.Row
}

// storyStructureOK reports whether q holds at least one dialog and the entry
// node.
func storyStructureOK(q rowQuerier) (bool, error) {
	var total, entry int
	if err := q.QueryRow("SELECT COUNT(*) FROM dialogs").Scan(&total); err != nil {
		return false, err
	}
	if err := q.QueryRow("SELECT COUNT(*) FROM dialogs WHERE id = 1").Scan(&entry); err != nil {
		return false, err
	}
	return total > 0 && entry > 0, nil
}

// unintendedDeadEnds returns dialogs with zero outgoing choices whose id is
// not the maximum dialog id. The highest-id node is treated as the
// intentional ending.
func (s *Store) unintendedDeadEnds() ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT d.id FROM dialogs d
		 LEFT JOIN choices c ON c.dialog_id = d.id
		 WHERE c.id IS NULL
		   AND d.id <> (SELECT MAX(id) FROM dialogs)
		 ORDER BY d.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying dead ends: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning dead end: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dead ends: %w", err)
	}
	return ids, nil
}

// storyEdge is one choice transition used by the cycle heuristic.
type storyEdge struct {
	src, dst int64
}

// probableLoops flags originating nodes whose path expansion accumulates
// more than loopEntryThreshold entries before the depth cap. This is a
// resource-bounded heuristic, not exact cycle detection: a densely connected
// acyclic graph can trip it, and a rarely reached short cycle may not. The
// behavior is kept as-is for compatibility with existing authored content.
func (s *Store) probableLoops() ([]int64, error) {
	edges, err := s.choiceEdges()
	if err != nil {
		return nil, err
	}

	// Outgoing adjacency for path extension.
	next := make(map[int64][]int64)
	for _, e := range edges {
		next[e.src] = append(next[e.src], e.dst)
	}

	flagged := make(map[int64]bool)
	for _, e := range edges {
		if flagged[e.src] {
			continue
		}

		entries := 2 // the originating pair itself
		frontier := []int64{e.dst}
		for depth := 0; depth < maxPathDepth && len(frontier) > 0 && entries <= loopEntryThreshold; depth++ {
			var expanded []int64
			for _, node := range frontier {
				for _, dst := range next[node] {
					expanded = append(expanded, dst)
					entries++
					if entries > loopEntryThreshold {
						break
					}
				}
				if entries > loopEntryThreshold {
					break
				}
			}
			frontier = expanded
		}

		if entries > loopEntryThreshold {
			flagged[e.src] = true
		}
	}

	var ids []int64
	for id := range flagged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// choiceEdges loads every (dialog_id, next_dialog_id) pair.
func (s *Store) choiceEdges() ([]storyEdge, error) {
	rows, err := s.db.Query("SELECT dialog_id, next_dialog_id FROM choices ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("querying choice edges: %w", err)
	}
	defer rows.Close()

	var edges []storyEdge
	for rows.Next() {
		var e storyEdge
		if err := rows.Scan(&e.src, &e.dst); err != nil {
			return nil, fmt.Errorf("scanning choice edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating choice edges: %w", err)
	}
	return edges, nil
}
