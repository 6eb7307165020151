// This file manages the process-wide shared store instance.
package sqlite

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/fable/pkg/types"
)

// sharedSlot holds one generation of the process-wide store. Each ResetShared
// installs a fresh slot, so a slow initializer still holding the previous
// generation writes its result into that generation's fields and can never
// clobber the current one.
type sharedSlot struct {
	once  sync.Once
	store *Store
	err   error
}

var (
	sharedMu sync.Mutex
	shared   = &sharedSlot{}
)

// Shared returns the process-wide store, constructing and initializing it on
// the first call. Initialization side effects (schema creation, seeding)
// happen exactly once even when many callers race here: losers block until
// the winner finishes and then receive the same fully-initialized instance.
// A failed first initialization is sticky; callers should treat it as fatal.
//
// Prefer Open with explicit wiring where the call site controls the store's
// lifetime; Shared exists for callers that need one engine per process.
func Shared(cfg types.Config, log *zap.Logger) (*Store, error) {
	sharedMu.Lock()
	slot := shared
	sharedMu.Unlock()

	slot.once.Do(func() {
		slot.store, slot.err = Open(cfg, log)
	})
	return slot.store, slot.err
}

// ResetShared closes and forgets the shared store so the next Shared call
// constructs a fresh one. Intended for tests.
func ResetShared() {
	sharedMu.Lock()
	old := shared
	shared = &sharedSlot{}
	sharedMu.Unlock()

	// Waits for any in-flight initializer of the old generation, and orders
	// its field writes before the reads below.
	old.once.Do(func() {})

	if old.store != nil {
		_ = old.store.Close()
	}
}
