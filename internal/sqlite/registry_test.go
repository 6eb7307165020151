package sqlite

import (
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/fable/pkg/types"
)

func TestShared_ReturnsSameInstance(t *testing.T) {
	ResetShared()
	t.Cleanup(ResetShared)

	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}

	a, err := Shared(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Shared: %v", err)
	}
	b, err := Shared(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("second Shared: %v", err)
	}
	if a != b {
		t.Error("Shared returned different instances")
	}
}

func TestShared_ConcurrentFirstAccess(t *testing.T) {
	ResetShared()
	t.Cleanup(ResetShared)

	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}

	const callers = 16
	stores := make([]*Store, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i], errs[i] = Shared(cfg, zap.NewNop())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if stores[i] == nil {
			t.Fatalf("caller %d observed a nil instance", i)
		}
		if stores[i] != stores[0] {
			t.Errorf("caller %d observed a different instance", i)
		}
	}

	// Every racer sees a fully-initialized store: the seeded graph is
	// navigable and initialization ran exactly once.
	if !stores[0].ValidateStoryStructure() {
		t.Error("shared store not fully initialized")
	}
}

func TestResetShared_StaleInitializerDoesNotClobber(t *testing.T) {
	ResetShared()
	t.Cleanup(ResetShared)

	// A slow caller may still hold the generation that was current before a
	// reset. Its late initialization must land in that generation, not the
	// one installed by the reset.
	stale := shared

	ResetShared()

	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}
	current, err := Shared(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Shared: %v", err)
	}

	stale.once.Do(func() {
		stale.store, stale.err = Open(
			types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, zap.NewNop())
	})
	if stale.store != nil {
		defer stale.store.Close()
	}

	again, err := Shared(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Shared after stale init: %v", err)
	}
	if again != current {
		t.Error("stale generation's initializer replaced the current instance")
	}
}

func TestResetShared_AllowsReinitialization(t *testing.T) {
	ResetShared()
	t.Cleanup(ResetShared)

	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}
	a, err := Shared(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Shared: %v", err)
	}

	ResetShared()

	b, err := Shared(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, zap.NewNop())
	if err != nil {
		t.Fatalf("Shared after reset: %v", err)
	}
	if a == b {
		t.Error("expected a fresh instance after ResetShared")
	}
}
