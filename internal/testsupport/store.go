package testsupport

import (
	"context"
	"testing"

	"shelver/internal/config"
	"shelver/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEntry inserts a queued entry for tests using the provided store.
func NewEntry(t testing.TB, store *queue.Store, sourcePath, libraryRoot string, hints queue.Hints) *queue.Entry {
	t.Helper()

	entry, err := store.Add(context.Background(), &queue.Entry{
		SourcePath:  sourcePath,
		LibraryRoot: libraryRoot,
		Kind:        queue.KindFolder,
		Hints:       hints,
	})
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return entry
}
