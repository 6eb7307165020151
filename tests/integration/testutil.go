// Package integration provides CLI integration tests for fable.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
)

// itoa formats an int64 for use as a CLI argument.
func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// copyFile copies src to dst, creating or truncating dst.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

var (
	// fableBin is the path to the built fable binary.
	fableBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetFableBin sets the path to the fable binary (called from TestMain).
func SetFableBin(path string) {
	fableBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// TestEnv provides an isolated test environment with its own config and data directory.
type TestEnv struct {
	t       *testing.T
	TempDir string
	Config  string
	DataDir string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build fable: %v", buildErr)
	}
	if fableBin == "" {
		t.Fatal("fable binary not built (fableBin is empty)")
	}

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	configContent := "backend: sqlite\ndata_dir: " + dataDir + "\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &TestEnv{
		t:       t,
		TempDir: tempDir,
		Config:  configDir,
		DataDir: dataDir,
	}
}

// CmdResult holds the result of a fable command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunFable executes the fable CLI with the given arguments.
// Returns stdout, stderr, and exit code.
func (e *TestEnv) RunFable(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(fableBin, allArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run fable: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunFable executes the fable CLI and fails the test if it returns non-zero.
func (e *TestEnv) MustRunFable(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunFable(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("fable %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// AddedUser is the JSON shape printed by "user add --json".
type AddedUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// UserRow mirrors types.User for JSON parsing of "user list --json".
type UserRow struct {
	ID       int64  `json:"ID"`
	Username string `json:"Username"`
}

// DialogView mirrors the JSON shape printed by "show --json".
type DialogView struct {
	Dialog *struct {
		ID   int64  `json:"ID"`
		Text string `json:"Text"`
	} `json:"dialog"`
	Choices []struct {
		ID           int64  `json:"ID"`
		DialogID     int64  `json:"DialogID"`
		Text         string `json:"Text"`
		NextDialogID int64  `json:"NextDialogID"`
	} `json:"choices"`
	Ended bool `json:"ended"`
}
