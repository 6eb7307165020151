// CLI integration tests for fable: initialization, user management, story
// navigation, graph validation, and backup, all exercised through the built
// binary.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestMain builds the fable binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "fable-test-*")
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}
	binPath := filepath.Join(tmpDir, "fable")
	SetFableBin(binPath)

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/fable")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		SetBuildErr(&BuildError{
			Err:    err,
			Output: string(output),
		})
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(tmpDir)

	os.Exit(code)
}

// Test1_InitializeFable verifies initialization creates the data directory
// and seeds the story database.
func Test1_InitializeFable(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunFable("init")

	if result.Stdout == "" {
		t.Error("expected init output message")
	}

	if _, err := os.Stat(env.DataDir); os.IsNotExist(err) {
		t.Error("data directory not created")
	}

	dbFile := filepath.Join(env.DataDir, "story.db")
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		t.Error("story.db not created")
	}
}

// Test2_VersionCommand verifies the version command works without a database.
func Test2_VersionCommand(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunFable("version")
	if !strings.Contains(result.Stdout, "fable v") {
		t.Errorf("expected version output, got %q", result.Stdout)
	}
}

// Test3_UserLifecycle verifies user add, list, rename, and delete.
func Test3_UserLifecycle(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunFable("init")

	// Create two users
	result1 := env.MustRunFable("--json", "user", "add", "alice")
	alice := ParseJSON[AddedUser](t, result1.Stdout)
	if alice.ID == 0 {
		t.Error("alice ID not assigned")
	}
	if alice.Username != "alice" {
		t.Errorf("alice username mismatch: got %q", alice.Username)
	}

	result2 := env.MustRunFable("--json", "user", "add", "bob")
	bob := ParseJSON[AddedUser](t, result2.Stdout)
	if bob.ID == alice.ID {
		t.Error("user IDs should be unique")
	}

	// List shows both
	listResult := env.MustRunFable("--json", "user", "list")
	users := ParseJSON[[]UserRow](t, listResult.Stdout)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].Username != "alice" || users[1].Username != "bob" {
		t.Errorf("unexpected list order: %+v", users)
	}

	// Rename bob
	env.MustRunFable("user", "rename", itoa(bob.ID), "robert")
	listResult = env.MustRunFable("--json", "user", "list")
	users = ParseJSON[[]UserRow](t, listResult.Stdout)
	if users[1].Username != "robert" {
		t.Errorf("expected renamed user robert, got %q", users[1].Username)
	}

	// Delete alice
	env.MustRunFable("user", "delete", itoa(alice.ID))
	listResult = env.MustRunFable("--json", "user", "list")
	users = ParseJSON[[]UserRow](t, listResult.Stdout)
	if len(users) != 1 {
		t.Fatalf("expected 1 user after delete, got %d", len(users))
	}
	if users[0].Username != "robert" {
		t.Errorf("wrong user survived delete: %q", users[0].Username)
	}
}

// Test4_DuplicateAndInvalidUsernames verifies user add rejections exit non-zero.
func Test4_DuplicateAndInvalidUsernames(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunFable("init")
	env.MustRunFable("user", "add", "alice")

	dup := env.RunFable("user", "add", "alice")
	if dup.ExitCode == 0 {
		t.Error("duplicate username should fail")
	}

	short := env.RunFable("user", "add", "ab")
	if short.ExitCode == 0 {
		t.Error("too-short username should fail")
	}

	bad := env.RunFable("user", "add", "has space")
	if bad.ExitCode == 0 {
		t.Error("username with space should fail")
	}
}

// Test5_PlayThroughStory drives a user from the entry dialog to the ending
// via show and choose.
func Test5_PlayThroughStory(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunFable("init")

	result := env.MustRunFable("--json", "user", "add", "alice")
	alice := ParseJSON[AddedUser](t, result.Stdout)
	userID := itoa(alice.ID)

	// New users start at the entry dialog.
	view := ParseJSON[DialogView](t, env.MustRunFable("--json", "show", userID).Stdout)
	if view.Dialog == nil || view.Dialog.ID != 1 {
		t.Fatalf("expected entry dialog 1, got %+v", view.Dialog)
	}
	if len(view.Choices) == 0 {
		t.Fatal("entry dialog has no choices")
	}

	// Walk choices until the story runs out of them, bounded to catch loops.
	for steps := 0; steps < 20; steps++ {
		view = ParseJSON[DialogView](t, env.MustRunFable("--json", "show", userID).Stdout)
		if view.Ended {
			t.Fatal("progress points at a missing dialog")
		}
		if len(view.Choices) == 0 {
			return // reached the ending
		}
		env.MustRunFable("choose", userID, itoa(view.Choices[0].ID))
	}
	t.Fatal("story did not reach an ending within 20 steps")
}

// Test6_ChooseRejectsUnavailableChoice verifies choosing a choice that does
// not belong to the current dialog fails.
func Test6_ChooseRejectsUnavailableChoice(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunFable("init")

	result := env.MustRunFable("--json", "user", "add", "alice")
	alice := ParseJSON[AddedUser](t, result.Stdout)

	// Choice 9 belongs to dialog 6 in the default story, not dialog 1.
	bad := env.RunFable("choose", itoa(alice.ID), "9")
	if bad.ExitCode == 0 {
		t.Error("choosing an unavailable choice should fail")
	}
}

// Test7_ProgressSurvivesRestart verifies progress persists across separate
// process invocations.
func Test7_ProgressSurvivesRestart(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunFable("init")

	result := env.MustRunFable("--json", "user", "add", "alice")
	alice := ParseJSON[AddedUser](t, result.Stdout)
	userID := itoa(alice.ID)

	view := ParseJSON[DialogView](t, env.MustRunFable("--json", "show", userID).Stdout)
	next := view.Choices[0].NextDialogID
	env.MustRunFable("choose", userID, itoa(view.Choices[0].ID))

	// Every command is a fresh process, so this read proves persistence.
	view = ParseJSON[DialogView](t, env.MustRunFable("--json", "show", userID).Stdout)
	if view.Dialog == nil || view.Dialog.ID != next {
		t.Errorf("expected dialog %d after restart, got %+v", next, view.Dialog)
	}
}

// Test8_ValidateAndCheck verifies the seeded story passes both graph
// validation and storage integrity checks.
func Test8_ValidateAndCheck(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunFable("init")

	result := env.MustRunFable("validate")
	if !strings.Contains(result.Stdout, "consistent") {
		t.Errorf("unexpected validate output: %q", result.Stdout)
	}

	result = env.MustRunFable("check")
	if !strings.Contains(result.Stdout, "integrity ok") {
		t.Errorf("unexpected check output: %q", result.Stdout)
	}
}

// Test9_BackupCreatesSnapshot verifies backup writes a usable snapshot file.
func Test9_BackupCreatesSnapshot(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunFable("init")
	env.MustRunFable("user", "add", "alice")

	backupDir := filepath.Join(env.TempDir, "backups")
	result := env.MustRunFable("backup", backupDir)
	if !strings.Contains(result.Stdout, backupDir) {
		t.Errorf("backup output should name the artifact path: %q", result.Stdout)
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("reading backup dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 backup file, got %d", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "story-") || !strings.HasSuffix(entries[0].Name(), ".db") {
		t.Errorf("unexpected backup name %q", entries[0].Name())
	}

	// Two backups in a row must not collide.
	env.MustRunFable("backup", backupDir)
	entries, err = os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("reading backup dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 backup files, got %d", len(entries))
	}
}

// Test10_SecondInitDoesNotReseed verifies init on an existing database keeps
// user data instead of reloading the seed story.
func Test10_SecondInitDoesNotReseed(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunFable("init")
	env.MustRunFable("user", "add", "alice")

	env.MustRunFable("init")

	listResult := env.MustRunFable("--json", "user", "list")
	users := ParseJSON[[]UserRow](t, listResult.Stdout)
	if len(users) != 1 {
		t.Errorf("expected user to survive second init, got %d users", len(users))
	}
}
