package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/morph/internal/core/tab"
)

func TestTabStore(t *testing.T) {
	ctx := context.Background()

	t.Run("load missing file", func(t *testing.T) {
		store := NewTabStore(filepath.Join(t.TempDir(), "session.json"))

		tabs, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(tabs) != 0 {
			t.Errorf("got %d tabs, want 0", len(tabs))
		}
	})

	t.Run("save and load", func(t *testing.T) {
		store := NewTabStore(filepath.Join(t.TempDir(), "nested", "session.json"))

		want := []tab.Tab{
			{ID: "a", URL: "https://example.org", Title: "Example"},
			{ID: "b", URL: "https://ubports.com"},
		}
		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("save leaves no temp file", func(t *testing.T) {
		dir := t.TempDir()
		store := NewTabStore(filepath.Join(dir, "session.json"))

		if err := store.Save(ctx, nil); err != nil {
			t.Fatalf("Save: %v", err)
		}

		if _, err := os.Stat(filepath.Join(dir, "session.json.tmp")); !os.IsNotExist(err) {
			t.Errorf("temp file still present: %v", err)
		}
	})

	t.Run("corrupted file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}

		if _, err := NewTabStore(path).Load(ctx); err == nil {
			t.Error("expected error for corrupted file")
		}
	})
}
