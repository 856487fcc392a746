// Package support holds the Godog step definitions and shared scenario
// state for the apriltag CLI integration suite.
package support

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TestContext holds the state carried across a single scenario's steps.
type TestContext struct {
	WorkingDir string
	TempDir    string
	BinPath    string
	EnvVars    []string

	LastCommand  string
	LastOutput   string
	LastExitCode int
	LastErr      error

	CreatedFiles []string
	fixturePaths map[string]string
}

// fixtures returns the scenario's name-to-path fixture map, creating it
// on first use.
func (testCtx *TestContext) fixtures() map[string]string {
	if testCtx.fixturePaths == nil {
		testCtx.fixturePaths = make(map[string]string)
	}
	return testCtx.fixturePaths
}

// NewTestContext locates the project root (the directory containing
// go.mod) and creates a scratch directory for scenario fixtures.
func NewTestContext(binPath string) (*TestContext, error) {
	root, err := findProjectRoot()
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "apriltag-cli-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		WorkingDir: root,
		TempDir:    tempDir,
		BinPath:    binPath,
	}, nil
}

// Cleanup removes the scratch directory and any files the scenario
// tracked explicitly.
func (testCtx *TestContext) Cleanup() error {
	for _, f := range testCtx.CreatedFiles {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", f, err)
		}
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// TrackFile marks path for removal during Cleanup.
func (testCtx *TestContext) TrackFile(path string) {
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, path)
}

// TempFile returns a path under the scenario's scratch directory.
func (testCtx *TestContext) TempFile(name string) string {
	return filepath.Join(testCtx.TempDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), name))
}

// findProjectRoot walks up from the working directory until it finds
// go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s", dir)
		}
		dir = parent
	}
}
