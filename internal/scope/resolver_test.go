package scope_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vibex/vibectx/internal/scope"
)

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "pkg", "internal", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("finds marker above nested start", func(t *testing.T) {
		got, ok := scope.FindProjectRoot(nested, 10)
		if !ok {
			t.Fatal("expected root to be found")
		}
		if got != root {
			t.Errorf("root = %q, want %q", got, root)
		}
	})

	t.Run("start directory itself is a root", func(t *testing.T) {
		got, ok := scope.FindProjectRoot(root, 10)
		if !ok || got != root {
			t.Errorf("got (%q, %v), want (%q, true)", got, ok, root)
		}
	})

	t.Run("level bound stops the walk short", func(t *testing.T) {
		if _, ok := scope.FindProjectRoot(nested, 2); ok {
			t.Error("marker three levels up should not be found with maxLevels=2")
		}
	})

	t.Run("git directory counts as marker", func(t *testing.T) {
		gitRoot := t.TempDir()
		if err := os.MkdirAll(filepath.Join(gitRoot, ".git"), 0o755); err != nil {
			t.Fatal(err)
		}
		got, ok := scope.FindProjectRoot(gitRoot, 10)
		if !ok || got != gitRoot {
			t.Errorf("got (%q, %v), want (%q, true)", got, ok, gitRoot)
		}
	})

	t.Run("no marker anywhere", func(t *testing.T) {
		if _, ok := scope.FindProjectRoot(t.TempDir(), 2); ok {
			t.Error("expected no root in a bare temp dir")
		}
	})
}
