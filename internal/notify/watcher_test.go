package notify_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/vibex/vibectx/internal/notify"
)

func TestWatcher_PublishesDebouncedBatch(t *testing.T) {
	root := t.TempDir()
	bus := notify.NewBus(nil)
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Close()

	w, err := notify.NewWatcher(bus, nil, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	target := filepath.Join(root, "VIBEX.md")
	if err := os.WriteFile(target, []byte("rules"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := recvEvent(t, sub.Events)
	if got.Type != notify.PathsChanged {
		t.Fatalf("event type = %q", got.Type)
	}
	if !slices.Contains(got.AffectedPaths, target) {
		t.Errorf("affected paths %v missing %s", got.AffectedPaths, target)
	}
	if !slices.Contains(got.AffectedPaths, root) {
		t.Errorf("affected paths %v missing the containing directory %s", got.AffectedPaths, root)
	}
}

func TestWatcher_IgnoresNoiseFiles(t *testing.T) {
	root := t.TempDir()
	bus := notify.NewBus(nil)
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Close()

	w, err := notify.NewWatcher(bus, nil, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	swap := filepath.Join(root, "notes.md.swp")
	kept := filepath.Join(root, "notes.md")
	if err := os.WriteFile(swap, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(kept, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := recvEvent(t, sub.Events)
	if slices.Contains(got.AffectedPaths, swap) {
		t.Errorf("swap file leaked into batch: %v", got.AffectedPaths)
	}
	if !slices.Contains(got.AffectedPaths, kept) {
		t.Errorf("batch %v missing %s", got.AffectedPaths, kept)
	}
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()
	bus := notify.NewBus(nil)
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Close()

	w, err := notify.NewWatcher(bus, nil, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	nested := filepath.Join(root, "docs")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	recvEvent(t, sub.Events) // batch for the mkdir itself

	inside := filepath.Join(nested, "VIBEX.md")
	if err := os.WriteFile(inside, []byte("docs rules"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := recvEvent(t, sub.Events)
	if !slices.Contains(got.AffectedPaths, inside) {
		t.Errorf("file in new directory not watched: %v", got.AffectedPaths)
	}
}

func TestWatcher_RootsAndClose(t *testing.T) {
	root := t.TempDir()
	bus := notify.NewBus(nil)
	defer bus.Close()

	w, err := notify.NewWatcher(bus, nil, 0)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	roots := w.Roots()
	if len(roots) != 1 || roots[0] != root {
		t.Errorf("Roots() = %v, want [%s]", roots, root)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
