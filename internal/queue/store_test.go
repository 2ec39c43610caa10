package queue

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestReopenReappliesMigrationsSafely(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.db")

	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath() error = %v", err)
	}
	entry, err := store.Add(ctx, &Entry{SourcePath: "/library/Frank Herbert/Dune", LibraryRoot: "/library"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID() after reopen error = %v", err)
	}
	if got.SourcePath != entry.SourcePath {
		t.Errorf("reopened entry path = %q, want %q", got.SourcePath, entry.SourcePath)
	}
}

func TestAddAndGetEntry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry, err := store.Add(ctx, &Entry{
		SourcePath:  "/library/Steven Boyett/Ariel",
		LibraryRoot: "/library",
		Kind:        KindFolder,
		Hints:       Hints{Author: "Steven Boyett", Title: "Ariel"},
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("Add() returned entry without id")
	}
	if entry.Status != StatusQueued {
		t.Errorf("new entry status = %q, want %q", entry.Status, StatusQueued)
	}
	if entry.Hints.Author != "Steven Boyett" {
		t.Errorf("hint author = %q, want Steven Boyett", entry.Hints.Author)
	}

	again, err := store.Add(ctx, &Entry{SourcePath: "/library/Steven Boyett/Ariel"})
	if err != nil {
		t.Fatalf("Add() duplicate error = %v", err)
	}
	if again.ID != entry.ID {
		t.Errorf("duplicate Add() created new entry %d, want %d", again.ID, entry.ID)
	}
}

func TestUpdateRoundTripsProposal(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry, err := store.Add(ctx, &Entry{SourcePath: "/library/boyett/ariel"})
	if err != nil {
		t.Fatal(err)
	}

	entry.Status = StatusPendingApproval
	entry.Proposal = Proposal{
		Author: "Steven Boyett",
		Title:  "Ariel",
		Path:   "Steven Boyett/Ariel",
	}
	entry.MatchSource = "openlibrary"
	entry.Similarity = 0.92
	entry.ConfidenceTier = "review"
	entry.Rationale = "author expanded from surname"
	if err := store.Update(ctx, entry); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusPendingApproval {
		t.Errorf("status = %q, want %q", got.Status, StatusPendingApproval)
	}
	if got.Proposal.Path != "Steven Boyett/Ariel" {
		t.Errorf("proposal path = %q, want Steven Boyett/Ariel", got.Proposal.Path)
	}
	if got.Similarity != 0.92 {
		t.Errorf("similarity = %v, want 0.92", got.Similarity)
	}
}

func TestNextBatchReturnsOnlyQueued(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, _ := store.Add(ctx, &Entry{SourcePath: "/library/a"})
	second, _ := store.Add(ctx, &Entry{SourcePath: "/library/b"})
	third, _ := store.Add(ctx, &Entry{SourcePath: "/library/c"})

	second.Status = StatusApplied
	if err := store.Update(ctx, second); err != nil {
		t.Fatal(err)
	}

	batch, err := store.NextBatch(ctx, 10)
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("NextBatch() returned %d entries, want 2", len(batch))
	}
	if batch[0].ID != first.ID || batch[1].ID != third.ID {
		t.Errorf("NextBatch() order = [%d %d], want [%d %d]", batch[0].ID, batch[1].ID, first.ID, third.ID)
	}

	limited, err := store.NextBatch(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("NextBatch(1) returned %d entries, want 1", len(limited))
	}
}

func TestResetStuckProcessing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry, _ := store.Add(ctx, &Entry{SourcePath: "/library/a"})
	entry.Status = StatusProcessing
	if err := store.Update(ctx, entry); err != nil {
		t.Fatal(err)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing() error = %v", err)
	}
	if reset != 1 {
		t.Errorf("ResetStuckProcessing() = %d, want 1", reset)
	}
	got, _ := store.GetByID(ctx, entry.ID)
	if got.Status != StatusQueued {
		t.Errorf("status after reset = %q, want %q", got.Status, StatusQueued)
	}
}

func TestHistoryAppendAndUndoLink(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry, _ := store.Add(ctx, &Entry{SourcePath: "/library/messy"})
	record, err := store.AddHistory(ctx, &History{
		EntryID:      entry.ID,
		OriginalPath: "/library/messy",
		NewPath:      "/library/Author/Title",
	})
	if err != nil {
		t.Fatalf("AddHistory() error = %v", err)
	}
	if record.ID == 0 || record.AppliedAt.IsZero() {
		t.Fatalf("AddHistory() returned incomplete record: %+v", record)
	}

	undo, err := store.AddHistory(ctx, &History{
		EntryID:      entry.ID,
		OriginalPath: "/library/Author/Title",
		NewPath:      "/library/messy",
		UndoOf:       &record.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	linked, err := store.UndoneOf(ctx, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if linked == nil || linked.ID != undo.ID {
		t.Errorf("UndoneOf() = %+v, want record %d", linked, undo.ID)
	}

	records, err := store.HistoryForEntry(ctx, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].ID != undo.ID {
		t.Errorf("HistoryForEntry() = %d records, newest %d; want 2 records newest %d",
			len(records), records[0].ID, undo.ID)
	}
}

func TestDismissErrorRequiresErrorStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry, _ := store.Add(ctx, &Entry{SourcePath: "/library/a"})
	if err := store.DismissError(ctx, entry.ID); err == nil {
		t.Error("DismissError() on queued entry should fail")
	}

	entry.Status = StatusError
	entry.ErrorMessage = "lookup timeout"
	if err := store.Update(ctx, entry); err != nil {
		t.Fatal(err)
	}
	if err := store.DismissError(ctx, entry.ID); err != nil {
		t.Errorf("DismissError() error = %v", err)
	}
	got, _ := store.GetByID(ctx, entry.ID)
	if !got.Dismissed {
		t.Error("entry not marked dismissed")
	}
}

func TestParseStatus(t *testing.T) {
	if status, err := ParseStatus(" Pending_Approval "); err != nil || status != StatusPendingApproval {
		t.Errorf("ParseStatus() = %q, %v", status, err)
	}
	if _, err := ParseStatus("bogus"); err == nil {
		t.Error("ParseStatus(bogus) should fail")
	}
}
