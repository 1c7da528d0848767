package trees

import (
	"os"
	"path/filepath"
	"testing"

	sakuraerr "github.com/sakura-stack/sakura-tree/internal/errors"
	"github.com/sakura-stack/sakura-tree/internal/items"
)

const sampleDoc = `
b_type: tree
b_id: sample
parts:
  - b_type: blossom_group
    b_id: say
    blossom-group-type: special
    blossoms:
      - blossom-type: cmd
        items-input:
          command: echo hi
`

func writeTree(t *testing.T, dir, name, doc string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGetTreeByName(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "sample.yaml", sampleDoc)

	h, err := NewHandler(dir)
	if err != nil {
		t.Fatal(err)
	}

	tree, err := h.GetTree("sample")
	if err != nil {
		t.Fatalf("GetTree failed: %v", err)
	}
	if tree.Kind() != items.KindTree {
		t.Errorf("expected a tree, got %v", tree.Kind())
	}
}

func TestGetTreeCachesCompiledResult(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "sample.yaml", sampleDoc)

	h, err := NewHandler(dir)
	if err != nil {
		t.Fatal(err)
	}

	first, err := h.GetTree("sample")
	if err != nil {
		t.Fatal(err)
	}

	// Removing the file must not matter: the compiled tree is cached.
	if err := os.Remove(filepath.Join(dir, "sample.yaml")); err != nil {
		t.Fatal(err)
	}

	second, err := h.GetTree("sample")
	if err != nil {
		t.Fatalf("cached GetTree failed: %v", err)
	}
	if first != second {
		t.Error("expected the cached template instance")
	}
}

func TestGetTreeNotFound(t *testing.T) {
	h, err := NewHandler(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = h.GetTree("missing")
	if !sakuraerr.HasCode(err, sakuraerr.CodeStructSubtreeNotFound) {
		t.Errorf("expected subtree-not-found error, got %v", err)
	}
}

func TestGetTreeByExplicitPath(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "other.yaml", sampleDoc)

	h, err := NewHandler("/nonexistent")
	if err != nil {
		t.Fatal(err)
	}

	tree, err := h.GetTree(filepath.Join(dir, "other.yaml"))
	if err != nil {
		t.Fatalf("GetTree by path failed: %v", err)
	}
	if tree == nil {
		t.Fatal("expected a tree")
	}
}

func TestGetTreeBadDocument(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "broken.yaml", "b_type: tree\nparts:\n  - b_type: mystery\n")

	h, err := NewHandler(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := h.GetTree("broken"); err == nil {
		t.Error("expected conversion error")
	}
}
