// Package integration provides CLI integration tests for grove.
package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// groveBin is the path to the built grove binary.
	groveBin string
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

// SetGroveBin sets the path to the grove binary (called from TestMain).
func SetGroveBin(path string) {
	groveBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// defaultTestConfig orders siblings by the integer rank attribute so the
// tests get deterministic walk orders.
const defaultTestConfig = `tree:
  order_by:
    - name: rank
      kind: int
`

// TestEnv provides an isolated test environment with its own config and data directory.
type TestEnv struct {
	t       *testing.T
	TempDir string
	Config  string
	DataDir string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	return NewTestEnvWithConfig(t, defaultTestConfig)
}

// NewTestEnvWithConfig creates an isolated test environment with the given
// tree configuration appended to the generated config.yaml.
func NewTestEnvWithConfig(t *testing.T, treeConfig string) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build grove: %v", buildErr)
	}
	if groveBin == "" {
		t.Fatal("grove binary not built (groveBin is empty)")
	}

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	configContent := "data_dir: " + dataDir + "\n" + treeConfig
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

// CmdResult holds the result of a grove command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunGrove executes the grove CLI with the given arguments.
// Returns stdout, stderr, and exit code.
func (e *TestEnv) RunGrove(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(groveBin, allArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run grove: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunGrove executes the grove CLI and fails the test if it returns non-zero.
func (e *TestEnv) MustRunGrove(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunGrove(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("grove %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// AddNode creates a node through the CLI and returns its generated identity.
func (e *TestEnv) AddNode(parent string, attrs ...string) string {
	e.t.Helper()
	args := []string{"--json", "add"}
	if parent != "" {
		args = append(args, "--parent", parent)
	}
	args = append(args, attrs...)
	result := e.MustRunGrove(args...)
	node := ParseJSON[Node](e.t, result.Stdout)
	return node.ID
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

// Node mirrors the CLI's node JSON for parsing.
type Node struct {
	ID        string         `json:"id"`
	Parent    string         `json:"parent"`
	Attrs     map[string]any `json:"attrs"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// Placement mirrors the CLI's show output for parsing.
type Placement struct {
	ID     string         `json:"id"`
	Parent string         `json:"parent"`
	Attrs  map[string]any `json:"attrs"`
	Depth  int            `json:"depth"`
	Path   []string       `json:"path"`
}

// ListRow mirrors one line of the CLI's list --json output.
type ListRow struct {
	ID    string   `json:"id"`
	Depth int      `json:"depth"`
	Path  []string `json:"path"`
}

// TreeOut mirrors the CLI's tree --json output for parsing.
type TreeOut struct {
	ID       string         `json:"id"`
	Parent   string         `json:"parent"`
	Attrs    map[string]any `json:"attrs"`
	Depth    int            `json:"depth"`
	Children []TreeOut      `json:"children"`
}

// ReadJSONLFile reads a JSONL file (one JSON object per line) and returns a slice.
func ReadJSONLFile[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open JSONL file %s: %v", path, err)
	}
	defer f.Close()

	var results []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("failed to parse JSONL line in %s: %v", path, err)
		}
		results = append(results, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan JSONL file %s: %v", path, err)
	}
	return results
}
