// CLI integration tests for grove.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestMain builds the grove binary once before running tests.
func TestMain(m *testing.M) {
	// Find project root by looking for go.mod
	projectRoot, err := FindProjectRoot()
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}

	// Build grove binary into a temp directory
	tmpDir, err := os.MkdirTemp("", "grove-test-*")
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}
	binPath := filepath.Join(tmpDir, "grove")
	SetGroveBin(binPath)

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/grove")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		SetBuildErr(&BuildError{
			Err:    err,
			Output: string(output),
		})
		os.Exit(1)
	}

	code := m.Run()

	// Cleanup binary
	os.RemoveAll(tmpDir)

	os.Exit(code)
}

// Test1_InitializeGrove verifies grove initialization.
func Test1_InitializeGrove(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunGrove("init")

	// Verify output message
	if result.Stdout == "" {
		t.Error("expected init output message")
	}

	// Verify data directory was created
	if _, err := os.Stat(env.DataDir); os.IsNotExist(err) {
		t.Error("data directory not created")
	}

	// Verify grove.db was created
	dbFile := filepath.Join(env.DataDir, "grove.db")
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		t.Error("grove.db not created")
	}
}

// Test2_AddNodes verifies node creation at the root and under parents.
func Test2_AddNodes(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	// Create a root node
	result1 := env.MustRunGrove("--json", "add", "name=projects", "rank=1")
	root := ParseJSON[Node](t, result1.Stdout)
	if root.ID == "" {
		t.Error("root ID not generated")
	}
	if root.Parent != "" {
		t.Errorf("root should have no parent, got %q", root.Parent)
	}
	if root.Attrs["name"] != "projects" {
		t.Errorf("root name mismatch: got %v", root.Attrs["name"])
	}
	if root.CreatedAt == "" || root.UpdatedAt == "" {
		t.Error("timestamps not set")
	}

	// Create a child under it
	result2 := env.MustRunGrove("--json", "add", "--parent", root.ID, "name=backlog", "rank=1")
	child := ParseJSON[Node](t, result2.Stdout)
	if child.Parent != root.ID {
		t.Errorf("child parent mismatch: got %q, want %q", child.Parent, root.ID)
	}
	if child.ID == root.ID {
		t.Error("node IDs should be unique")
	}

	// Numeric attributes come back typed
	if rank, ok := child.Attrs["rank"].(float64); !ok || rank != 1 {
		t.Errorf("expected rank 1, got %v", child.Attrs["rank"])
	}

	// Without --json only the identity is printed
	result3 := env.MustRunGrove("add", "rank=2")
	if got := strings.TrimSpace(result3.Stdout); got == "" || strings.ContainsAny(got, "{}") {
		t.Errorf("expected bare identity, got %q", got)
	}
}

// Test3_AddRejectsMissingParent verifies the invalid-parent error path.
func Test3_AddRejectsMissingParent(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	result := env.RunGrove("add", "--parent", "ghost", "rank=1")
	if result.ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "not found") {
		t.Errorf("expected parent-not-found message, got %q", result.Stderr)
	}
}

// Test4_RenderTree verifies the tree command over a small hierarchy.
func Test4_RenderTree(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	root := env.AddNode("", "name=root", "rank=1")
	kid1 := env.AddNode(root, "name=first", "rank=1")
	kid2 := env.AddNode(root, "name=second", "rank=2")
	env.AddNode(kid1, "name=leaf", "rank=1")

	// Text rendering uses box-drawing connectors
	result := env.MustRunGrove("tree")
	if !strings.Contains(result.Stdout, "├── ") || !strings.Contains(result.Stdout, "└── ") {
		t.Errorf("expected box-drawing connectors in output:\n%s", result.Stdout)
	}
	if !strings.HasPrefix(result.Stdout, root) {
		t.Errorf("expected root flush left, got:\n%s", result.Stdout)
	}

	// JSON rendering nests children in rank order
	jsonResult := env.MustRunGrove("--json", "tree")
	roots := ParseJSON[[]TreeOut](t, jsonResult.Stdout)
	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}
	if roots[0].ID != root {
		t.Errorf("root mismatch: got %q", roots[0].ID)
	}
	if len(roots[0].Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(roots[0].Children))
	}
	if roots[0].Children[0].ID != kid1 || roots[0].Children[1].ID != kid2 {
		t.Errorf("children out of rank order: got [%s %s]", roots[0].Children[0].ID, roots[0].Children[1].ID)
	}
	if len(roots[0].Children[0].Children) != 1 {
		t.Errorf("expected 1 grandchild under first, got %d", len(roots[0].Children[0].Children))
	}

	// Offset scopes to one subtree
	scoped := ParseJSON[[]TreeOut](t, env.MustRunGrove("--json", "tree", kid1).Stdout)
	if len(scoped) != 1 || scoped[0].ID != kid1 {
		t.Errorf("expected subtree rooted at %q", kid1)
	}

	// Unknown offset is a user error
	missing := env.RunGrove("tree", "ghost")
	if missing.ExitCode != 1 {
		t.Errorf("expected exit code 1 for unknown offset, got %d", missing.ExitCode)
	}
}

// Test5_MoveNodes verifies reparenting, promotion to root, and cycle refusal.
func Test5_MoveNodes(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	root1 := env.AddNode("", "rank=1")
	root2 := env.AddNode("", "rank=2")
	kid := env.AddNode(root1, "rank=1")

	// Reparent kid under root2
	env.MustRunGrove("move", kid, root2)
	moved := ParseJSON[Placement](t, env.MustRunGrove("--json", "show", kid).Stdout)
	if moved.Parent != root2 {
		t.Errorf("expected parent %q, got %q", root2, moved.Parent)
	}

	// Omitting the destination promotes to root
	env.MustRunGrove("move", kid)
	promoted := ParseJSON[Placement](t, env.MustRunGrove("--json", "show", kid).Stdout)
	if promoted.Parent != "" {
		t.Errorf("expected root, got parent %q", promoted.Parent)
	}
	if promoted.Depth != 1 {
		t.Errorf("expected depth 1 after promotion, got %d", promoted.Depth)
	}

	// Moving a node into its own subtree is refused
	env.MustRunGrove("move", kid, root1)
	cycle := env.RunGrove("move", root1, kid)
	if cycle.ExitCode != 1 {
		t.Errorf("expected exit code 1 for cycle, got %d", cycle.ExitCode)
	}
	if !strings.Contains(cycle.Stderr, "subtree") {
		t.Errorf("expected cycle message, got %q", cycle.Stderr)
	}

	// Unknown node is a user error
	missing := env.RunGrove("move", "ghost", root1)
	if missing.ExitCode != 1 {
		t.Errorf("expected exit code 1 for unknown node, got %d", missing.ExitCode)
	}
}

// Test6_DeleteSubtree verifies the pharaoh protocol removes a whole subtree.
func Test6_DeleteSubtree(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	root := env.AddNode("", "rank=1")
	mid := env.AddNode(root, "rank=1")
	env.AddNode(mid, "rank=1")
	other := env.AddNode("", "rank=2")

	// Default mode is pharaoh
	env.MustRunGrove("rm", root)

	rows := ParseJSON[[]ListRow](t, env.MustRunGrove("--json", "list").Stdout)
	if len(rows) != 1 || rows[0].ID != other {
		t.Errorf("expected only %q to survive, got %v", other, rows)
	}
}

// Test7_DeletePromotesChildren verifies the grandmother protocol.
func Test7_DeletePromotesChildren(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	root := env.AddNode("", "rank=1")
	mid := env.AddNode(root, "rank=1")
	kidA := env.AddNode(mid, "rank=1")
	kidB := env.AddNode(mid, "rank=2")
	sibling := env.AddNode(root, "rank=3")

	env.MustRunGrove("rm", mid, "--mode", "grandmother")

	roots := ParseJSON[[]TreeOut](t, env.MustRunGrove("--json", "tree").Stdout)
	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}
	kids := roots[0].Children
	if len(kids) != 3 {
		t.Fatalf("expected 3 children after promotion, got %d", len(kids))
	}
	// Promoted children keep their ranks; the walk interleaves them with
	// the surviving sibling accordingly.
	if kids[0].ID != kidA || kids[1].ID != kidB || kids[2].ID != sibling {
		t.Errorf("unexpected child order: [%s %s %s]", kids[0].ID, kids[1].ID, kids[2].ID)
	}
}

// Test8_DeleteReplacesWithSuccessor verifies the monarchy protocol.
func Test8_DeleteReplacesWithSuccessor(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	root := env.AddNode("", "rank=1")
	mid := env.AddNode(root, "rank=1")
	kidA := env.AddNode(mid, "rank=1")
	kidB := env.AddNode(mid, "rank=2")

	// Without --successor the first child in sibling order succeeds
	env.MustRunGrove("rm", mid, "--mode", "monarchy")

	a := ParseJSON[Placement](t, env.MustRunGrove("--json", "show", kidA).Stdout)
	if a.Parent != root {
		t.Errorf("expected successor under %q, got %q", root, a.Parent)
	}
	b := ParseJSON[Placement](t, env.MustRunGrove("--json", "show", kidB).Stdout)
	if b.Parent != kidA {
		t.Errorf("expected %q under successor, got %q", kidB, b.Parent)
	}
}

// Test9_DeleteWithExplicitSuccessor verifies the --successor flag.
func Test9_DeleteWithExplicitSuccessor(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	root := env.AddNode("", "rank=1")
	mid := env.AddNode(root, "rank=1")
	kidA := env.AddNode(mid, "rank=1")
	kidB := env.AddNode(mid, "rank=2")

	env.MustRunGrove("rm", mid, "--mode", "monarchy", "--successor", kidB)

	b := ParseJSON[Placement](t, env.MustRunGrove("--json", "show", kidB).Stdout)
	if b.Parent != root {
		t.Errorf("expected %q under %q, got %q", kidB, root, b.Parent)
	}
	a := ParseJSON[Placement](t, env.MustRunGrove("--json", "show", kidA).Stdout)
	if a.Parent != kidB {
		t.Errorf("expected %q under %q, got %q", kidA, kidB, a.Parent)
	}
}

// Test10_DeleteErrors verifies rm error handling.
func Test10_DeleteErrors(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	unknown := env.RunGrove("rm", "ghost")
	if unknown.ExitCode != 1 {
		t.Errorf("expected exit code 1 for unknown node, got %d", unknown.ExitCode)
	}

	root := env.AddNode("", "rank=1")
	badMode := env.RunGrove("rm", root, "--mode", "guillotine")
	if badMode.ExitCode != 1 {
		t.Errorf("expected exit code 1 for unknown mode, got %d", badMode.ExitCode)
	}
	if !strings.Contains(badMode.Stderr, "guillotine") {
		t.Errorf("expected the offending mode in the message, got %q", badMode.Stderr)
	}
}

// Test11_ListProjection verifies list orders, columns, and scoping.
func Test11_ListProjection(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	root := env.AddNode("", "rank=1")
	mid1 := env.AddNode(root, "rank=1")
	mid2 := env.AddNode(root, "rank=2")
	leaf := env.AddNode(mid1, "rank=1")

	collect := func(rows []ListRow) []string {
		ids := make([]string, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		return ids
	}
	equal := func(got, want []string) bool {
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}

	// Depth-first: parents immediately before their subtrees
	dfs := collect(ParseJSON[[]ListRow](t, env.MustRunGrove("--json", "list", "--traversal", "dfs").Stdout))
	if !equal(dfs, []string{root, mid1, leaf, mid2}) {
		t.Errorf("dfs order mismatch: %v", dfs)
	}

	// Breadth-first: levels in sequence
	bfs := collect(ParseJSON[[]ListRow](t, env.MustRunGrove("--json", "list", "--traversal", "bfs").Stdout))
	if !equal(bfs, []string{root, mid1, mid2, leaf}) {
		t.Errorf("bfs order mismatch: %v", bfs)
	}

	// Descending reverses the walk
	desc := collect(ParseJSON[[]ListRow](t, env.MustRunGrove("--json", "list", "--traversal", "dfs", "--desc").Stdout))
	if !equal(desc, []string{mid2, leaf, mid1, root}) {
		t.Errorf("descending order mismatch: %v", desc)
	}

	// Offset scopes to one subtree
	scoped := collect(ParseJSON[[]ListRow](t, env.MustRunGrove("--json", "list", mid1).Stdout))
	if !equal(scoped, []string{mid1, leaf}) {
		t.Errorf("scoped order mismatch: %v", scoped)
	}

	// Requested columns are populated
	rows := ParseJSON[[]ListRow](t, env.MustRunGrove("--json", "list", "--depth", "--path").Stdout)
	for _, r := range rows {
		if r.Depth == 0 {
			t.Errorf("expected depth for %q", r.ID)
		}
		if len(r.Path) != r.Depth {
			t.Errorf("path length %d does not match depth %d for %q", len(r.Path), r.Depth, r.ID)
		}
	}

	// Text output carries the requested columns too
	text := env.MustRunGrove("list", "--depth", "--path")
	if !strings.Contains(text.Stdout, "depth=") {
		t.Errorf("expected depth column in text output:\n%s", text.Stdout)
	}

	// Unknown offset is a user error
	missing := env.RunGrove("list", "ghost")
	if missing.ExitCode != 1 {
		t.Errorf("expected exit code 1 for unknown offset, got %d", missing.ExitCode)
	}
}

// Test12_ShowPlacement verifies show output in both formats.
func Test12_ShowPlacement(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	root := env.AddNode("", "name=top", "rank=1")
	mid := env.AddNode(root, "name=middle", "rank=1")
	leaf := env.AddNode(mid, "name=bottom", "rank=1")

	p := ParseJSON[Placement](t, env.MustRunGrove("--json", "show", leaf).Stdout)
	if p.Depth != 3 {
		t.Errorf("expected depth 3, got %d", p.Depth)
	}
	wantPath := []string{root, mid, leaf}
	if len(p.Path) != 3 || p.Path[0] != wantPath[0] || p.Path[1] != wantPath[1] || p.Path[2] != wantPath[2] {
		t.Errorf("path mismatch: got %v, want %v", p.Path, wantPath)
	}

	text := env.MustRunGrove("show", leaf)
	for _, want := range []string{"id:", "parent:", "depth:", "path:", "created:"} {
		if !strings.Contains(text.Stdout, want) {
			t.Errorf("expected %q in show output:\n%s", want, text.Stdout)
		}
	}

	missing := env.RunGrove("show", "ghost")
	if missing.ExitCode != 1 {
		t.Errorf("expected exit code 1 for unknown node, got %d", missing.ExitCode)
	}
}

// Test13_PersistenceAcrossRuns verifies state survives separate invocations.
func Test13_PersistenceAcrossRuns(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunGrove("init")

	result := env.MustRunGrove("--json", "add", "name=durable", "rank=1")
	created := ParseJSON[Node](t, result.Stdout)

	// Every invocation reopens the store from disk
	shown := ParseJSON[Placement](t, env.MustRunGrove("--json", "show", created.ID).Stdout)
	if shown.Attrs["name"] != "durable" {
		t.Errorf("attrs not persisted: %v", shown.Attrs)
	}

	again := ParseJSON[Node](t, env.MustRunGrove("--json", "show", created.ID).Stdout)
	if again.CreatedAt != created.CreatedAt {
		t.Errorf("created_at drifted: %q vs %q", again.CreatedAt, created.CreatedAt)
	}
}
